package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"librarium/internal/app"
	"librarium/internal/ratelimit"
	"librarium/internal/util"
	"librarium/pkg/domain"
	"librarium/pkg/store"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App            *app.App
	Limiter        *ratelimit.FixedWindowLimiter
	TrustedProxies *util.TrustedProxies
	MaxUploadBytes int64
}

// Server exposes the REST API.
type Server struct {
	app            *app.App
	limiter        *ratelimit.FixedWindowLimiter
	proxies        *util.TrustedProxies
	maxUploadBytes int64
	mux            *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	maxUploadBytes := cfg.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 * 1024 * 1024
	}
	s := &Server{
		app:            cfg.App,
		limiter:        cfg.Limiter,
		proxies:        cfg.TrustedProxies,
		maxUploadBytes: maxUploadBytes,
		mux:            http.NewServeMux(),
	}
	s.routes()
	return s
}

// Router returns the configured handler with the middleware chain applied.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// identity
	s.mux.Handle("/user/register", s.withRateLimit(http.HandlerFunc(s.handleRegister)))
	s.mux.Handle("/user/login", s.withRateLimit(http.HandlerFunc(s.handleLogin)))
	s.mux.HandleFunc("/user/init-admin", s.handleInitAdmin)
	s.mux.Handle("/user/me", s.authenticated(s.handleMe))
	s.mux.Handle("/user/me/change-password", s.authenticated(s.handleChangePassword))
	s.mux.Handle("/user/list", s.adminOnly(s.handleListUsers))
	s.mux.Handle("/user/create", s.adminOnly(s.handleCreateUser))
	s.mux.Handle("/user/", s.adminOnly(s.handleUserByID))

	// catalog
	s.mux.Handle("/book", s.authenticated(s.handleBooks))
	s.mux.Handle("/book/", s.authenticated(s.handleBookByID))
	s.mux.Handle("/category", s.authenticated(s.handleCategories))
	s.mux.Handle("/category/tree", s.authenticated(s.handleCategoryTree))
	s.mux.Handle("/category/", s.authenticated(s.handleCategoryByID))

	// circulation
	s.mux.Handle("/borrow", s.authenticated(s.handleBorrow))
	s.mux.Handle("/borrow/my", s.authenticated(s.handleMyBorrows))
	s.mux.Handle("/borrow/current", s.authenticated(s.handleCurrentBorrows))
	s.mux.Handle("/borrow/list", s.adminOnly(s.handleListBorrows))
	s.mux.Handle("/borrow/sweep-overdue", s.adminOnly(s.handleSweepOverdue))
	s.mux.Handle("/borrow/", s.authenticated(s.handleBorrowByID))

	// reservations
	s.mux.Handle("/reservation", s.authenticated(s.handleReserve))
	s.mux.Handle("/reservation/my", s.authenticated(s.handleMyReservations))
	s.mux.Handle("/reservation/active", s.authenticated(s.handleActiveReservations))
	s.mux.Handle("/reservation/list", s.adminOnly(s.handleListReservations))
	s.mux.Handle("/reservation/sweep-expired", s.adminOnly(s.handleSweepExpired))
	s.mux.Handle("/reservation/book/", s.authenticated(s.handleBookQueue))
	s.mux.Handle("/reservation/", s.authenticated(s.handleReservationByID))

	// engagement
	s.mux.Handle("/review", s.authenticated(s.handleCreateReview))
	s.mux.Handle("/review/my", s.authenticated(s.handleMyReviews))
	s.mux.Handle("/review/list", s.adminOnly(s.handleListReviews))
	s.mux.Handle("/review/book/", s.authenticated(s.handleBookReviews))
	s.mux.Handle("/review/", s.authenticated(s.handleReviewByID))
	s.mux.Handle("/favorite", s.authenticated(s.handleAddFavorite))
	s.mux.Handle("/favorite/my", s.authenticated(s.handleMyFavorites))
	s.mux.Handle("/favorite/list", s.adminOnly(s.handleListFavorites))
	s.mux.Handle("/favorite/popular", s.authenticated(s.handlePopularBooks))
	s.mux.Handle("/favorite/check/", s.authenticated(s.handleFavoriteCheck))
	s.mux.Handle("/favorite/book/", s.authenticated(s.handleFavoriteByBook))

	// notifications
	s.mux.Handle("/notification/my", s.authenticated(s.handleMyNotifications))
	s.mux.Handle("/notification/unread-count", s.authenticated(s.handleUnreadCount))
	s.mux.Handle("/notification/read-all", s.authenticated(s.handleReadAll))
	s.mux.Handle("/notification/clear", s.authenticated(s.handleClearNotifications))
	s.mux.Handle("/notification/send", s.adminOnly(s.handleSendNotification))
	s.mux.Handle("/notification/broadcast", s.adminOnly(s.handleBroadcast))
	s.mux.Handle("/notification/list", s.adminOnly(s.handleListNotifications))
	s.mux.Handle("/notification/", s.authenticated(s.handleNotificationByID))

	// reporting
	s.mux.Handle("/stats/dashboard", s.authenticated(s.handleDashboard))
	s.mux.Handle("/stats/book-ranking/borrow", s.authenticated(s.handleBorrowRanking))
	s.mux.Handle("/stats/book-ranking/rating", s.authenticated(s.handleRatingRanking))
	s.mux.Handle("/stats/user-borrow", s.authenticated(s.handleUserBorrowStats))
	s.mux.Handle("/stats/category", s.authenticated(s.handleCategoryStats))

	// settings
	s.mux.Handle("/config", s.authenticated(s.handleSettings))
	s.mux.Handle("/config/init", s.adminOnly(s.handleInitSettings))
	s.mux.Handle("/config/", s.authenticated(s.handleSettingByKey))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type actorHandler func(http.ResponseWriter, *http.Request, app.Actor)

// authenticated verifies the bearer token and loads the caller's account
// so disabled users are rejected even with a live token.
func (s *Server) authenticated(next actorHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := s.resolveActor(w, r)
		if !ok {
			return
		}
		next(w, r, actor)
	})
}

// adminOnly wraps authenticated with a role check.
func (s *Server) adminOnly(next actorHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := s.resolveActor(w, r)
		if !ok {
			return
		}
		if actor.Role != domain.RoleAdmin {
			writeError(w, http.StatusForbidden, "admin privileges required")
			return
		}
		next(w, r, actor)
	})
}

func (s *Server) resolveActor(w http.ResponseWriter, r *http.Request) (app.Actor, bool) {
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return app.Actor{}, false
	}
	claims, err := s.app.Tokens().Verify(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return app.Actor{}, false
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return app.Actor{}, false
	}
	user, err := s.app.GetUser(uint(id))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return app.Actor{}, false
	}
	if !user.IsActive {
		writeError(w, http.StatusForbidden, "account is disabled")
		return app.Actor{}, false
	}
	return app.Actor{ID: user.ID, Role: user.Role}, true
}

// withRateLimit throttles unauthenticated endpoints per client IP.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow(util.ClientIP(r, s.proxies)) {
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
	})
}

// writeAppError maps application error kinds onto HTTP statuses.
func writeAppError(w http.ResponseWriter, err error) {
	var appErr *app.Error
	if !errors.As(err, &appErr) {
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	var status int
	switch appErr.Kind {
	case app.KindNotFound:
		status = http.StatusNotFound
	case app.KindConflict:
		status = http.StatusConflict
	case app.KindPrecondition:
		status = http.StatusBadRequest
	case app.KindForbidden:
		status = http.StatusForbidden
	case app.KindUnauthorized:
		status = http.StatusUnauthorized
	default:
		status = http.StatusInternalServerError
	}
	writeError(w, status, appErr.Message)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

// pathID extracts the numeric id segment after prefix, plus any trailing
// action segment.
func pathID(r *http.Request, prefix string) (uint, string, bool) {
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	parts := strings.SplitN(rest, "/", 2)
	id, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return 0, "", false
	}
	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}
	return uint(id), action, true
}

// parsePage reads skip/limit query params with the conventional bounds.
func parsePage(r *http.Request) store.Page {
	page := store.Page{Limit: 10}
	if v, err := strconv.Atoi(r.URL.Query().Get("skip")); err == nil && v >= 0 {
		page.Offset = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v >= 1 && v <= 100 {
		page.Limit = v
	}
	return page
}

func queryUint(r *http.Request, key string) *uint {
	v, err := strconv.ParseUint(r.URL.Query().Get(key), 10, 32)
	if err != nil {
		return nil
	}
	u := uint(v)
	return &u
}

func queryInt(r *http.Request, key string) *int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return nil
	}
	return &v
}

func queryBool(r *http.Request, key string) *bool {
	switch strings.ToLower(r.URL.Query().Get(key)) {
	case "true", "1":
		v := true
		return &v
	case "false", "0":
		v := false
		return &v
	default:
		return nil
	}
}
