package server

import (
	"net/http"
	"strings"

	"librarium/internal/app"
	"librarium/pkg/domain"
	"librarium/pkg/store"
)

func (s *Server) handleReserve(w http.ResponseWriter, r *http.Request, actor app.Actor) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var in struct {
		BookID uint `json:"book_id"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	reservation, err := s.app.Reserve(actor, in.BookID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reservation)
}

func (s *Server) handleMyReservations(w http.ResponseWriter, r *http.Request, actor app.Actor) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	f := store.ReservationFilter{
		UserID:   &actor.ID,
		Statuses: parseReservationStatuses(r.URL.Query().Get("status")),
		Page:     parsePage(r),
	}
	reservations, total, err := s.app.ListReservations(f)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"total": total, "reservations": reservations})
}

func (s *Server) handleActiveReservations(w http.ResponseWriter, r *http.Request, actor app.Actor) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	f := store.ReservationFilter{
		UserID:   &actor.ID,
		Statuses: []domain.ReservationStatus{domain.ReservationStatusPending, domain.ReservationStatusAvailable},
		Page:     parsePage(r),
	}
	reservations, total, err := s.app.ListReservations(f)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"total": total, "reservations": reservations})
}

func (s *Server) handleListReservations(w http.ResponseWriter, r *http.Request, _ app.Actor) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	f := store.ReservationFilter{
		UserID:   queryUint(r, "user_id"),
		BookID:   queryUint(r, "book_id"),
		Statuses: parseReservationStatuses(r.URL.Query().Get("status")),
		Page:     parsePage(r),
	}
	reservations, total, err := s.app.ListReservations(f)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"total": total, "reservations": reservations})
}

func (s *Server) handleSweepExpired(w http.ResponseWriter, r *http.Request, _ app.Actor) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	swept, err := s.app.SweepExpiredReservations()
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"expired": swept})
}

// handleBookQueue serves /reservation/book/{id}/queue.
func (s *Server) handleBookQueue(w http.ResponseWriter, r *http.Request, _ app.Actor) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	id, action, ok := pathID(r, "/reservation/book/")
	if !ok || action != "queue" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	queue, err := s.app.BookQueue(id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"total": len(queue), "reservations": queue})
}

func (s *Server) handleReservationByID(w http.ResponseWriter, r *http.Request, actor app.Actor) {
	id, action, ok := pathID(r, "/reservation/")
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	switch {
	case action == "" && r.Method == http.MethodGet:
		reservation, err := s.app.GetReservation(actor, id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, reservation)
	case action == "cancel" && r.Method == http.MethodPost:
		reservation, err := s.app.CancelReservation(actor, id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, reservation)
	case action == "complete" && r.Method == http.MethodPost:
		record, err := s.app.CompleteReservation(actor, id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, record)
	case action != "" && action != "cancel" && action != "complete":
		writeError(w, http.StatusNotFound, "not found")
	default:
		methodNotAllowed(w)
	}
}

func parseReservationStatuses(raw string) []domain.ReservationStatus {
	var out []domain.ReservationStatus
	for _, part := range strings.Split(raw, ",") {
		switch domain.ReservationStatus(strings.TrimSpace(part)) {
		case domain.ReservationStatusPending:
			out = append(out, domain.ReservationStatusPending)
		case domain.ReservationStatusAvailable:
			out = append(out, domain.ReservationStatusAvailable)
		case domain.ReservationStatusCompleted:
			out = append(out, domain.ReservationStatusCompleted)
		case domain.ReservationStatusCancelled:
			out = append(out, domain.ReservationStatusCancelled)
		case domain.ReservationStatusExpired:
			out = append(out, domain.ReservationStatusExpired)
		}
	}
	return out
}
