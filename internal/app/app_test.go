package app

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"librarium/pkg/domain"
	"librarium/pkg/store"
	"librarium/pkg/token"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	dataStore, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "librarium.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	tokens, err := token.NewManager("test-secret", "librarium-test", time.Hour)
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}
	a, err := New(Config{Store: dataStore, Tokens: tokens})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return a
}

func newTestUser(t *testing.T, a *App, username string) (domain.User, Actor) {
	t.Helper()
	user, err := a.Register(RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "secret1",
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return user, Actor{ID: user.ID, Role: user.Role}
}

func newTestAdmin(t *testing.T, a *App, username string) (domain.User, Actor) {
	t.Helper()
	user, err := a.AdminCreateUser(RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "secret1",
	}, "admin")
	if err != nil {
		t.Fatalf("create admin %s: %v", username, err)
	}
	return user, Actor{ID: user.ID, Role: user.Role}
}

func newTestBook(t *testing.T, a *App, name string, quantity int) domain.Book {
	t.Helper()
	number := fmt.Sprintf("BN-%s", name)
	book, err := a.CreateBook(BookInput{
		Name:       &name,
		BookNumber: &number,
		Quantity:   &quantity,
	})
	if err != nil {
		t.Fatalf("create book %s: %v", name, err)
	}
	return book
}

func expectKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error of kind %d, got nil", kind)
	}
	if got := KindOf(err); got != kind {
		t.Fatalf("expected kind %d, got %d: %v", kind, got, err)
	}
}

// freeze pins the app clock at a fixed instant and returns it.
func freeze(a *App, at time.Time) time.Time {
	a.now = func() time.Time { return at }
	return at
}
