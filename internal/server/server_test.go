package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"librarium/internal/app"
	"librarium/pkg/store"
	"librarium/pkg/token"
)

func newTestServer(t *testing.T) (*httptest.Server, *app.App) {
	t.Helper()
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
	srv := httptest.NewServer(New(Config{App: appCore}).Router())
	t.Cleanup(srv.Close)
	return srv, appCore
}

func doJSON(t *testing.T, method, url, bearer string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// registerAndLogin creates an account over the API and returns its token.
func registerAndLogin(t *testing.T, url, username string) string {
	t.Helper()
	resp := doJSON(t, http.MethodPost, url+"/user/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret1",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register expected 201, got %d", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodPost, url+"/user/login", "", map[string]string{
		"username": username,
		"password": "secret1",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login expected 200, got %d", resp.StatusCode)
	}
	var out struct {
		AccessToken string `json:"access_token"`
	}
	decodeBody(t, resp, &out)
	if out.AccessToken == "" {
		t.Fatalf("expected access token")
	}
	return out.AccessToken
}

// initAdmin bootstraps the admin account and returns its token.
func initAdmin(t *testing.T, url string) string {
	t.Helper()
	resp := doJSON(t, http.MethodPost, url+"/user/init-admin", "", map[string]string{
		"username": "root",
		"email":    "root@example.com",
		"password": "secret1",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("init-admin expected 201, got %d", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodPost, url+"/user/login", "", map[string]string{
		"username": "root",
		"password": "secret1",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin login expected 200, got %d", resp.StatusCode)
	}
	var out struct {
		AccessToken string `json:"access_token"`
	}
	decodeBody(t, resp, &out)
	return out.AccessToken
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Request-Id"); got == "" {
		t.Fatalf("expected request id header")
	}
}

func TestAuthenticatedRouteRejectsBadTokens(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/user/me", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("missing token expected 401, got %d", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodGet, srv.URL+"/user/me", "not-a-jwt", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("garbage token expected 401, got %d", resp.StatusCode)
	}

	// A token signed with a different secret is rejected.
	other, err := token.NewManager("other-secret", "librarium-test", time.Hour)
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}
	forged, err := other.Issue("1", "alice", "user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	resp = doJSON(t, http.MethodGet, srv.URL+"/user/me", forged, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("forged token expected 401, got %d", resp.StatusCode)
	}
}

func TestDisabledAccountRejectedDespiteLiveToken(t *testing.T) {
	srv, appCore := newTestServer(t)
	adminToken := initAdmin(t, srv.URL)
	userToken := registerAndLogin(t, srv.URL, "alice")

	resp := doJSON(t, http.MethodGet, srv.URL+"/user/me", userToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var me struct {
		ID uint `json:"id"`
	}
	decodeBody(t, resp, &me)

	inactive := false
	if _, err := appCore.AdminUpdateUser(me.ID, app.AdminUpdateUserInput{IsActive: &inactive}); err != nil {
		t.Fatalf("disable: %v", err)
	}

	// The still-valid token no longer grants access.
	resp = doJSON(t, http.MethodGet, srv.URL+"/user/me", userToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("disabled account expected 403, got %d", resp.StatusCode)
	}
	_ = adminToken
}

func TestAdminOnlyRoutes(t *testing.T) {
	srv, _ := newTestServer(t)
	initAdmin(t, srv.URL)
	userToken := registerAndLogin(t, srv.URL, "alice")

	resp := doJSON(t, http.MethodGet, srv.URL+"/user/list", userToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", resp.StatusCode)
	}

	name := "golang"
	resp = doJSON(t, http.MethodPost, srv.URL+"/book", userToken, map[string]any{
		"name":        name,
		"book_number": "GO-001",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin create, got %d", resp.StatusCode)
	}
}

func TestErrorKindMapping(t *testing.T) {
	srv, _ := newTestServer(t)
	adminToken := initAdmin(t, srv.URL)

	// Unknown resource: 404.
	resp := doJSON(t, http.MethodGet, srv.URL+"/book/999", adminToken, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	// Duplicate book number: 409.
	body := map[string]any{"name": "golang", "book_number": "GO-001"}
	resp = doJSON(t, http.MethodPost, srv.URL+"/book", adminToken, body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodPost, srv.URL+"/book", adminToken, body)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}

	// Validation failure: 400 with an error payload.
	resp = doJSON(t, http.MethodPost, srv.URL+"/book", adminToken, map[string]any{"name": ""})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	var problem struct {
		Error string `json:"error"`
	}
	decodeBody(t, resp, &problem)
	if problem.Error == "" {
		t.Fatalf("expected error message in body")
	}
}

func TestBorrowFlowOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t)
	adminToken := initAdmin(t, srv.URL)
	userToken := registerAndLogin(t, srv.URL, "alice")

	resp := doJSON(t, http.MethodPost, srv.URL+"/book", adminToken, map[string]any{
		"name":        "The Go Programming Language",
		"book_number": "GO-001",
		"quantity":    1,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create book expected 201, got %d", resp.StatusCode)
	}
	var book struct {
		ID uint `json:"id"`
	}
	decodeBody(t, resp, &book)

	resp = doJSON(t, http.MethodPost, srv.URL+"/borrow", userToken, map[string]any{"book_id": book.ID})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("borrow expected 201, got %d", resp.StatusCode)
	}
	var record struct {
		ID     uint   `json:"id"`
		Status string `json:"status"`
	}
	decodeBody(t, resp, &record)
	if record.Status != "borrowed" {
		t.Fatalf("unexpected status %q", record.Status)
	}

	// No copies left for a second member.
	bobToken := registerAndLogin(t, srv.URL, "bob")
	resp = doJSON(t, http.MethodPost, srv.URL+"/borrow", bobToken, map[string]any{"book_id": book.ID})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 when no copies, got %d", resp.StatusCode)
	}

	// Bob queues up, alice returns, bob's hold becomes available.
	resp = doJSON(t, http.MethodPost, srv.URL+"/reservation", bobToken, map[string]any{"book_id": book.ID})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("reserve expected 201, got %d", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodPost, srv.URL+"/borrow/"+itoa(record.ID)+"/return", userToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("return expected 200, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/reservation/my", bobToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list reservations expected 200, got %d", resp.StatusCode)
	}
	var reservations struct {
		Total        int64 `json:"total"`
		Reservations []struct {
			Status string `json:"status"`
		} `json:"reservations"`
	}
	decodeBody(t, resp, &reservations)
	if reservations.Total != 1 || reservations.Reservations[0].Status != "available" {
		t.Fatalf("expected available hold, got %+v", reservations)
	}
}

func itoa(v uint) string {
	return strconv.Itoa(int(v))
}
