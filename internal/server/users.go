package server

import (
	"net/http"

	"librarium/internal/app"
	"librarium/pkg/store"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var in app.RegisterInput
	if !decodeJSON(w, r, &in) {
		return
	}
	user, err := s.app.Register(in)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	user, accessToken, err := s.app.Login(in.Username, in.Password)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": accessToken,
		"token_type":   "bearer",
		"user":         user,
	})
}

func (s *Server) handleInitAdmin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var in app.RegisterInput
	if !decodeJSON(w, r, &in) {
		return
	}
	user, err := s.app.InitAdmin(in)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, actor app.Actor) {
	switch r.Method {
	case http.MethodGet:
		user, err := s.app.GetUser(actor.ID)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	case http.MethodPut:
		var in app.UpdateProfileInput
		if !decodeJSON(w, r, &in) {
			return
		}
		user, err := s.app.UpdateProfile(actor.ID, in)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request, actor app.Actor) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var in struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := s.app.ChangePassword(actor.ID, in.OldPassword, in.NewPassword); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "password changed"})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request, _ app.Actor) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	f := store.UserFilter{
		Search:   r.URL.Query().Get("search"),
		Role:     r.URL.Query().Get("role"),
		IsActive: queryBool(r, "is_active"),
		Page:     parsePage(r),
	}
	users, total, err := s.app.ListUsers(f)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"total": total, "users": users})
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request, _ app.Actor) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var in app.RegisterInput
	if !decodeJSON(w, r, &in) {
		return
	}
	role := r.URL.Query().Get("role")
	if role == "" {
		role = "user"
	}
	user, err := s.app.AdminCreateUser(in, role)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleUserByID(w http.ResponseWriter, r *http.Request, actor app.Actor) {
	id, action, ok := pathID(r, "/user/")
	if !ok || action != "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		user, err := s.app.GetUser(id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	case http.MethodPut:
		var in app.AdminUpdateUserInput
		if !decodeJSON(w, r, &in) {
			return
		}
		user, err := s.app.AdminUpdateUser(id, in)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	case http.MethodDelete:
		if err := s.app.DeleteUser(actor.ID, id); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
	default:
		methodNotAllowed(w)
	}
}
