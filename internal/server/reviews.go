package server

import (
	"net/http"

	"librarium/internal/app"
	"librarium/pkg/domain"
	"librarium/pkg/store"
)

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request, actor app.Actor) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var in app.ReviewInput
	if !decodeJSON(w, r, &in) {
		return
	}
	review, err := s.app.CreateReview(actor, in)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

func (s *Server) handleMyReviews(w http.ResponseWriter, r *http.Request, actor app.Actor) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	f := store.ReviewFilter{
		UserID: &actor.ID,
		Page:   parsePage(r),
	}
	reviews, total, err := s.app.ListReviews(f)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"total": total, "reviews": reviews})
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request, _ app.Actor) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	f := store.ReviewFilter{
		UserID:      queryUint(r, "user_id"),
		BookID:      queryUint(r, "book_id"),
		Rating:      queryInt(r, "rating"),
		VisibleOnly: r.URL.Query().Get("visible_only") == "true",
		Page:        parsePage(r),
	}
	reviews, total, err := s.app.ListReviews(f)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"total": total, "reviews": reviews})
}

// handleBookReviews serves /review/book/{id}: visible reviews only.
func (s *Server) handleBookReviews(w http.ResponseWriter, r *http.Request, _ app.Actor) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	id, action, ok := pathID(r, "/review/book/")
	if !ok || action != "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	f := store.ReviewFilter{
		BookID:      &id,
		Rating:      queryInt(r, "rating"),
		VisibleOnly: true,
		Page:        parsePage(r),
	}
	reviews, total, err := s.app.ListReviews(f)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"total": total, "reviews": reviews})
}

func (s *Server) handleReviewByID(w http.ResponseWriter, r *http.Request, actor app.Actor) {
	id, action, ok := pathID(r, "/review/")
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if action == "visibility" {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		if actor.Role != domain.RoleAdmin {
			writeError(w, http.StatusForbidden, "admin privileges required")
			return
		}
		var in struct {
			IsVisible bool `json:"is_visible"`
		}
		if !decodeJSON(w, r, &in) {
			return
		}
		review, err := s.app.SetReviewVisibility(id, in.IsVisible)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, review)
		return
	}
	if action != "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		review, err := s.app.GetReview(actor, id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, review)
	case http.MethodPut:
		var in app.ReviewInput
		if !decodeJSON(w, r, &in) {
			return
		}
		review, err := s.app.UpdateReview(actor, id, in)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, review)
	case http.MethodDelete:
		if err := s.app.DeleteReview(actor, id); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "review deleted"})
	default:
		methodNotAllowed(w)
	}
}
