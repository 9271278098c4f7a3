package server

import (
	"errors"
	"net/http"

	"librarium/internal/app"
	"librarium/internal/util"
	"librarium/pkg/domain"
	"librarium/pkg/storage"
	"librarium/pkg/store"
)

func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request, actor app.Actor) {
	switch r.Method {
	case http.MethodGet:
		f := store.BookFilter{
			Search:        r.URL.Query().Get("search"),
			ShelfLocation: r.URL.Query().Get("shelf_location"),
			CategoryID:    queryUint(r, "category_id"),
			Page:          parsePage(r),
		}
		books, total, err := s.app.ListBooks(f)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"total": total, "books": books})
	case http.MethodPost:
		if actor.Role != domain.RoleAdmin {
			writeError(w, http.StatusForbidden, "admin privileges required")
			return
		}
		var in app.BookInput
		if !decodeJSON(w, r, &in) {
			return
		}
		book, err := s.app.CreateBook(in)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, book)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleBookByID(w http.ResponseWriter, r *http.Request, actor app.Actor) {
	id, action, ok := pathID(r, "/book/")
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if action == "cover" {
		s.handleBookCover(w, r, actor, id)
		return
	}
	if action != "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		book, err := s.app.GetBook(id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, book)
	case http.MethodPut:
		if actor.Role != domain.RoleAdmin {
			writeError(w, http.StatusForbidden, "admin privileges required")
			return
		}
		var in app.BookInput
		if !decodeJSON(w, r, &in) {
			return
		}
		book, err := s.app.UpdateBook(id, in)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, book)
	case http.MethodDelete:
		if actor.Role != domain.RoleAdmin {
			writeError(w, http.StatusForbidden, "admin privileges required")
			return
		}
		if err := s.app.DeleteBook(id); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "book deleted"})
	default:
		methodNotAllowed(w)
	}
}

// handleBookCover uploads (POST, admin) or resolves (GET) a cover image
// through object storage.
func (s *Server) handleBookCover(w http.ResponseWriter, r *http.Request, actor app.Actor, id uint) {
	covers := s.app.Covers()
	if covers == nil {
		writeError(w, http.StatusServiceUnavailable, "cover storage not configured")
		return
	}
	switch r.Method {
	case http.MethodPost:
		if actor.Role != domain.RoleAdmin {
			writeError(w, http.StatusForbidden, "admin privileges required")
			return
		}
		book, err := s.app.GetBook(id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid form data")
			return
		}
		defer file.Close()
		contentType := header.Header.Get("Content-Type")
		key, err := covers.UploadCover(r.Context(), book.ID, file, header.Size, header.Filename, contentType)
		if err != nil {
			if errors.Is(err, storage.ErrUnsupportedImage) {
				writeError(w, http.StatusBadRequest, "unsupported image type")
				return
			}
			writeError(w, http.StatusInternalServerError, "upload failed")
			return
		}
		updated, err := s.app.SetBookCover(id, key)
		if err != nil {
			writeAppError(w, err)
			return
		}
		// Replacing a cover orphans the old object; best effort cleanup.
		if book.PreviewImage != "" && book.PreviewImage != key {
			if err := covers.DeleteCover(r.Context(), book.PreviewImage); err != nil {
				util.LoggerFromContext(r.Context()).Warn("failed to delete old cover",
					"book_id", book.ID, "key", book.PreviewImage, "error", err)
			}
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodGet:
		book, err := s.app.GetBook(id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		if book.PreviewImage == "" {
			writeError(w, http.StatusNotFound, "book has no cover")
			return
		}
		url, err := covers.CoverURL(r.Context(), book.PreviewImage)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to generate cover url")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"url": url})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request, actor app.Actor) {
	switch r.Method {
	case http.MethodGet:
		f := store.CategoryFilter{
			Search:   r.URL.Query().Get("search"),
			ParentID: queryUint(r, "parent_id"),
			RootOnly: r.URL.Query().Get("root_only") == "true",
			Page:     parsePage(r),
		}
		categories, total, err := s.app.ListCategories(f)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"total": total, "categories": categories})
	case http.MethodPost:
		if actor.Role != domain.RoleAdmin {
			writeError(w, http.StatusForbidden, "admin privileges required")
			return
		}
		var in app.CategoryInput
		if !decodeJSON(w, r, &in) {
			return
		}
		category, err := s.app.CreateCategory(in)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, category)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleCategoryTree(w http.ResponseWriter, r *http.Request, _ app.Actor) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	tree, err := s.app.CategoryTree()
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": tree})
}

func (s *Server) handleCategoryByID(w http.ResponseWriter, r *http.Request, actor app.Actor) {
	id, action, ok := pathID(r, "/category/")
	if !ok || action != "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		category, err := s.app.GetCategory(id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, category)
	case http.MethodPut:
		if actor.Role != domain.RoleAdmin {
			writeError(w, http.StatusForbidden, "admin privileges required")
			return
		}
		var in app.CategoryInput
		if !decodeJSON(w, r, &in) {
			return
		}
		category, err := s.app.UpdateCategory(id, in)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, category)
	case http.MethodDelete:
		if actor.Role != domain.RoleAdmin {
			writeError(w, http.StatusForbidden, "admin privileges required")
			return
		}
		force := r.URL.Query().Get("force") == "true"
		if err := s.app.DeleteCategory(id, force); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "category deleted"})
	default:
		methodNotAllowed(w)
	}
}
