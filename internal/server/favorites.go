package server

import (
	"net/http"
	"strconv"

	"librarium/internal/app"
	"librarium/pkg/store"
)

func (s *Server) handleAddFavorite(w http.ResponseWriter, r *http.Request, actor app.Actor) {
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
	favorite, err := s.app.AddFavorite(actor, in.BookID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, favorite)
}

func (s *Server) handleMyFavorites(w http.ResponseWriter, r *http.Request, actor app.Actor) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	f := store.FavoriteFilter{
		UserID: &actor.ID,
		Page:   parsePage(r),
	}
	favorites, total, err := s.app.ListFavorites(f)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"total": total, "favorites": favorites})
}

func (s *Server) handleListFavorites(w http.ResponseWriter, r *http.Request, _ app.Actor) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	f := store.FavoriteFilter{
		UserID: queryUint(r, "user_id"),
		BookID: queryUint(r, "book_id"),
		Page:   parsePage(r),
	}
	favorites, total, err := s.app.ListFavorites(f)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"total": total, "favorites": favorites})
}

func (s *Server) handlePopularBooks(w http.ResponseWriter, r *http.Request, _ app.Actor) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	books, err := s.app.PopularBooks(limit)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"books": books})
}

// handleFavoriteCheck serves /favorite/check/{bookID}.
func (s *Server) handleFavoriteCheck(w http.ResponseWriter, r *http.Request, actor app.Actor) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	id, action, ok := pathID(r, "/favorite/check/")
	if !ok || action != "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	isFavorite, err := s.app.IsFavorite(actor, id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_favorite": isFavorite})
}

// handleFavoriteByBook serves /favorite/book/{bookID} (DELETE removes the
// caller's bookmark) and /favorite/book/{bookID}/count.
func (s *Server) handleFavoriteByBook(w http.ResponseWriter, r *http.Request, actor app.Actor) {
	id, action, ok := pathID(r, "/favorite/book/")
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	switch {
	case action == "count" && r.Method == http.MethodGet:
		count, err := s.app.FavoriteCount(id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"book_id": id, "favorite_count": count})
	case action == "" && r.Method == http.MethodDelete:
		if err := s.app.RemoveFavorite(actor, id); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "favorite removed"})
	case action != "" && action != "count":
		writeError(w, http.StatusNotFound, "not found")
	default:
		methodNotAllowed(w)
	}
}
