package app

import (
	"errors"
	"testing"

	"librarium/pkg/domain"
	"librarium/pkg/store"
)

func TestRegisterAndLogin(t *testing.T) {
	a := newTestApp(t)

	user, err := a.Register(RegisterInput{
		Username: "alice",
		Email:    "Alice@Example.COM",
		Password: "secret1",
		FullName: "Alice Liddell",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("expected lowercased email, got %q", user.Email)
	}
	if user.Role != domain.RoleUser {
		t.Fatalf("expected user role, got %q", user.Role)
	}
	if user.MaxBorrowCount != 5 {
		t.Fatalf("expected default borrow limit 5, got %d", user.MaxBorrowCount)
	}

	logged, accessToken, err := a.Login("alice", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if logged.ID != user.ID || accessToken == "" {
		t.Fatalf("unexpected login result")
	}

	// Login by email works too.
	if _, _, err := a.Login("alice@example.com", "secret1"); err != nil {
		t.Fatalf("login by email: %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	a := newTestApp(t)

	if _, err := a.Register(RegisterInput{Username: "ab", Email: "a@b.com", Password: "secret1"}); KindOf(err) != KindPrecondition {
		t.Fatalf("expected short username rejected, got: %v", err)
	}
	if _, err := a.Register(RegisterInput{Username: "alice", Password: "secret1"}); KindOf(err) != KindPrecondition {
		t.Fatalf("expected missing email rejected, got: %v", err)
	}
	if _, err := a.Register(RegisterInput{Username: "alice", Email: "a@b.com", Password: "short"}); KindOf(err) != KindPrecondition {
		t.Fatalf("expected short password rejected, got: %v", err)
	}
}

func TestRegisterDuplicates(t *testing.T) {
	a := newTestApp(t)
	newTestUser(t, a, "alice")

	_, err := a.Register(RegisterInput{Username: "alice", Email: "other@example.com", Password: "secret1"})
	expectKind(t, err, KindConflict)

	_, err = a.Register(RegisterInput{Username: "alice2", Email: "alice@example.com", Password: "secret1"})
	expectKind(t, err, KindConflict)
}

func TestLoginFailures(t *testing.T) {
	a := newTestApp(t)
	user, _ := newTestUser(t, a, "alice")

	if _, _, err := a.Login("alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got: %v", err)
	}
	if _, _, err := a.Login("nobody", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown user, got: %v", err)
	}

	inactive := false
	if _, err := a.AdminUpdateUser(user.ID, AdminUpdateUserInput{IsActive: &inactive}); err != nil {
		t.Fatalf("disable user: %v", err)
	}
	if _, _, err := a.Login("alice", "secret1"); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("expected disabled account rejected, got: %v", err)
	}
}

func TestInitAdminOnlyOnce(t *testing.T) {
	a := newTestApp(t)

	admin, err := a.InitAdmin(RegisterInput{Username: "root", Email: "root@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("init admin: %v", err)
	}
	if admin.Role != domain.RoleAdmin {
		t.Fatalf("expected admin role, got %q", admin.Role)
	}

	_, err = a.InitAdmin(RegisterInput{Username: "root2", Email: "root2@example.com", Password: "secret1"})
	expectKind(t, err, KindConflict)
}

func TestChangePassword(t *testing.T) {
	a := newTestApp(t)
	user, _ := newTestUser(t, a, "alice")

	if err := a.ChangePassword(user.ID, "wrong", "newsecret"); KindOf(err) != KindPrecondition {
		t.Fatalf("expected wrong old password rejected, got: %v", err)
	}
	if err := a.ChangePassword(user.ID, "secret1", "newsecret"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if _, _, err := a.Login("alice", "newsecret"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, _, err := a.Login("alice", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected old password rejected, got: %v", err)
	}
}

func TestAdminUpdateUser(t *testing.T) {
	a := newTestApp(t)
	user, _ := newTestUser(t, a, "alice")

	role := "admin"
	limit := 10
	updated, err := a.AdminUpdateUser(user.ID, AdminUpdateUserInput{Role: &role, MaxBorrowCount: &limit})
	if err != nil {
		t.Fatalf("admin update: %v", err)
	}
	if updated.Role != domain.RoleAdmin || updated.MaxBorrowCount != 10 {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	bad := "superuser"
	if _, err := a.AdminUpdateUser(user.ID, AdminUpdateUserInput{Role: &bad}); KindOf(err) != KindPrecondition {
		t.Fatalf("expected invalid role rejected, got: %v", err)
	}
	zero := 0
	if _, err := a.AdminUpdateUser(user.ID, AdminUpdateUserInput{MaxBorrowCount: &zero}); KindOf(err) != KindPrecondition {
		t.Fatalf("expected zero borrow limit rejected, got: %v", err)
	}
}

func TestDeleteUserGuards(t *testing.T) {
	a := newTestApp(t)
	admin, adminActor := newTestAdmin(t, a, "root")
	user, actor := newTestUser(t, a, "alice")

	if err := a.DeleteUser(admin.ID, admin.ID); KindOf(err) != KindPrecondition {
		t.Fatalf("expected self-delete rejected, got: %v", err)
	}

	book := newTestBook(t, a, "golang", 1)
	if _, err := a.Borrow(actor, BorrowInput{BookID: book.ID}); err != nil {
		t.Fatalf("borrow: %v", err)
	}
	if err := a.DeleteUser(admin.ID, user.ID); KindOf(err) != KindConflict {
		t.Fatalf("expected delete with open loan rejected, got: %v", err)
	}

	records, _, err := a.ListBorrows(store.BorrowFilter{UserID: &user.ID})
	if err != nil {
		t.Fatalf("list borrows: %v", err)
	}
	if _, err := a.Return(adminActor, records[0].ID, false); err != nil {
		t.Fatalf("return: %v", err)
	}
	if err := a.DeleteUser(admin.ID, user.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if _, err := a.GetUser(user.ID); KindOf(err) != KindNotFound {
		t.Fatalf("expected user gone, got: %v", err)
	}
}
