package server

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"librarium/internal/app"
	"librarium/internal/ratelimit"
	"librarium/pkg/store"
	"librarium/pkg/token"
)

func TestLoginRateLimit(t *testing.T) {
	dataStore, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "librarium.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	tokens, err := token.NewManager("test-secret", "librarium-test", time.Hour)
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}
	appCore, err := app.New(app.Config{Store: dataStore, Tokens: tokens})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	redis := miniredis.RunT(t)
	limiter, err := ratelimit.NewRedisFixedWindowLimiter(redis.Addr(), "", "test:login", 1, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}

	srv := httptest.NewServer(New(Config{App: appCore, Limiter: limiter}).Router())
	defer srv.Close()

	if _, err := appCore.Register(app.RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "secret1",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	body := map[string]string{"username": "alice", "password": "secret1"}
	resp := doJSON(t, http.MethodPost, srv.URL+"/user/login", "", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first login expected 200, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, srv.URL+"/user/login", "", body)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second login expected 429, got %d", resp.StatusCode)
	}
}
