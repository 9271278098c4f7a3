package server

import (
	"net/http"
	"strings"

	"librarium/internal/app"
	"librarium/pkg/domain"
)

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request, _ app.Actor) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	settings, err := s.app.ListSettings()
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"configs": settings})
}

func (s *Server) handleInitSettings(w http.ResponseWriter, r *http.Request, _ app.Actor) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	settings, err := s.app.InitDefaultSettings()
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"configs": settings})
}

func (s *Server) handleSettingByKey(w http.ResponseWriter, r *http.Request, actor app.Actor) {
	key := strings.TrimPrefix(r.URL.Path, "/config/")
	if key == "" || strings.Contains(key, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		setting, err := s.app.GetSetting(key)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, setting)
	case http.MethodPut:
		if actor.Role != domain.RoleAdmin {
			writeError(w, http.StatusForbidden, "admin privileges required")
			return
		}
		var in struct {
			Value       string `json:"config_value"`
			Description string `json:"description"`
		}
		if !decodeJSON(w, r, &in) {
			return
		}
		setting, err := s.app.SetSetting(key, in.Value, in.Description)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, setting)
	case http.MethodDelete:
		if actor.Role != domain.RoleAdmin {
			writeError(w, http.StatusForbidden, "admin privileges required")
			return
		}
		if err := s.app.DeleteSetting(key); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "config deleted"})
	default:
		methodNotAllowed(w)
	}
}
