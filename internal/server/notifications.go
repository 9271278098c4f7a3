package server

import (
	"net/http"

	"librarium/internal/app"
	"librarium/pkg/store"
)

func (s *Server) handleMyNotifications(w http.ResponseWriter, r *http.Request, actor app.Actor) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	f := store.NotificationFilter{
		UserID:     &actor.ID,
		Type:       r.URL.Query().Get("type"),
		UnreadOnly: r.URL.Query().Get("unread_only") == "true",
		Page:       parsePage(r),
	}
	notifications, total, err := s.app.ListNotifications(f)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"total": total, "notifications": notifications})
}

func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request, actor app.Actor) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	count, err := s.app.UnreadCount(actor.ID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"unread_count": count})
}

func (s *Server) handleReadAll(w http.ResponseWriter, r *http.Request, actor app.Actor) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	updated, err := s.app.MarkAllNotificationsRead(actor.ID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"marked_read": updated})
}

func (s *Server) handleClearNotifications(w http.ResponseWriter, r *http.Request, actor app.Actor) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	removed, err := s.app.ClearNotifications(actor.ID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"removed": removed})
}

func (s *Server) handleSendNotification(w http.ResponseWriter, r *http.Request, _ app.Actor) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var in struct {
		UserID  uint   `json:"user_id"`
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	notification, err := s.app.SendNotification(in.UserID, in.Title, in.Content)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, notification)
}

func (s *Server) handleBroadcast(w http.ResponseWriter, r *http.Request, _ app.Actor) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var in struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	sent, err := s.app.BroadcastNotification(in.Title, in.Content)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"sent": sent})
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request, _ app.Actor) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	f := store.NotificationFilter{
		UserID:     queryUint(r, "user_id"),
		Type:       r.URL.Query().Get("type"),
		UnreadOnly: r.URL.Query().Get("unread_only") == "true",
		Page:       parsePage(r),
	}
	notifications, total, err := s.app.ListNotifications(f)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"total": total, "notifications": notifications})
}

// handleNotificationByID serves /notification/{id}/read and DELETE
// /notification/{id}.
func (s *Server) handleNotificationByID(w http.ResponseWriter, r *http.Request, actor app.Actor) {
	id, action, ok := pathID(r, "/notification/")
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	switch {
	case action == "read" && r.Method == http.MethodPost:
		if err := s.app.MarkNotificationRead(actor, id); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "notification read"})
	case action == "" && r.Method == http.MethodDelete:
		if err := s.app.DeleteNotification(actor, id); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "notification deleted"})
	case action != "" && action != "read":
		writeError(w, http.StatusNotFound, "not found")
	default:
		methodNotAllowed(w)
	}
}
