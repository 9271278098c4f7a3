package server

import (
	"net/http"
	"strings"

	"librarium/internal/app"
	"librarium/pkg/domain"
	"librarium/pkg/store"
)

func (s *Server) handleBorrow(w http.ResponseWriter, r *http.Request, actor app.Actor) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var in app.BorrowInput
	if !decodeJSON(w, r, &in) {
		return
	}
	record, err := s.app.Borrow(actor, in)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (s *Server) handleMyBorrows(w http.ResponseWriter, r *http.Request, actor app.Actor) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	f := store.BorrowFilter{
		UserID:   &actor.ID,
		Statuses: parseBorrowStatuses(r.URL.Query().Get("status")),
		Page:     parsePage(r),
	}
	records, total, err := s.app.ListBorrows(f)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"total": total, "records": records})
}

func (s *Server) handleCurrentBorrows(w http.ResponseWriter, r *http.Request, actor app.Actor) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	f := store.BorrowFilter{
		UserID:   &actor.ID,
		Statuses: []domain.BorrowStatus{domain.BorrowStatusBorrowed, domain.BorrowStatusOverdue},
		Page:     parsePage(r),
	}
	records, total, err := s.app.ListBorrows(f)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"total": total, "records": records})
}

func (s *Server) handleListBorrows(w http.ResponseWriter, r *http.Request, _ app.Actor) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	f := store.BorrowFilter{
		UserID:   queryUint(r, "user_id"),
		BookID:   queryUint(r, "book_id"),
		Statuses: parseBorrowStatuses(r.URL.Query().Get("status")),
		Page:     parsePage(r),
	}
	records, total, err := s.app.ListBorrows(f)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"total": total, "records": records})
}

func (s *Server) handleSweepOverdue(w http.ResponseWriter, r *http.Request, _ app.Actor) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	swept, err := s.app.SweepOverdue()
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"marked_overdue": swept})
}

func (s *Server) handleBorrowByID(w http.ResponseWriter, r *http.Request, actor app.Actor) {
	id, action, ok := pathID(r, "/borrow/")
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	switch {
	case action == "" && r.Method == http.MethodGet:
		record, err := s.app.GetBorrow(actor, id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, record)
	case action == "return" && r.Method == http.MethodPost:
		var in struct {
			FinePaid bool `json:"fine_paid"`
		}
		if r.ContentLength > 0 && !decodeJSON(w, r, &in) {
			return
		}
		record, err := s.app.Return(actor, id, in.FinePaid)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, record)
	case action == "renew" && r.Method == http.MethodPost:
		record, err := s.app.Renew(actor, id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, record)
	case action == "pay-fine" && r.Method == http.MethodPost:
		if actor.Role != domain.RoleAdmin {
			writeError(w, http.StatusForbidden, "admin privileges required")
			return
		}
		record, err := s.app.PayFine(id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, record)
	case action != "" && action != "return" && action != "renew" && action != "pay-fine":
		writeError(w, http.StatusNotFound, "not found")
	default:
		methodNotAllowed(w)
	}
}

func parseBorrowStatuses(raw string) []domain.BorrowStatus {
	var out []domain.BorrowStatus
	for _, part := range strings.Split(raw, ",") {
		switch domain.BorrowStatus(strings.TrimSpace(part)) {
		case domain.BorrowStatusBorrowed:
			out = append(out, domain.BorrowStatusBorrowed)
		case domain.BorrowStatusReturned:
			out = append(out, domain.BorrowStatusReturned)
		case domain.BorrowStatusOverdue:
			out = append(out, domain.BorrowStatusOverdue)
		}
	}
	return out
}
