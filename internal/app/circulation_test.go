package app

import (
	"testing"
	"time"

	"librarium/pkg/domain"
	"librarium/pkg/store"
)

func TestBorrowTakesACopy(t *testing.T) {
	a := newTestApp(t)
	_, actor := newTestUser(t, a, "alice")
	book := newTestBook(t, a, "golang", 2)
	start := freeze(a, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))

	record, err := a.Borrow(actor, BorrowInput{BookID: book.ID})
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}
	if record.Status != domain.BorrowStatusBorrowed {
		t.Fatalf("unexpected status %q", record.Status)
	}
	if !record.DueDate.Equal(start.AddDate(0, 0, 30)) {
		t.Fatalf("expected 30 day loan, due %v", record.DueDate)
	}

	got, err := a.GetBook(book.ID)
	if err != nil {
		t.Fatalf("get book: %v", err)
	}
	if got.AvailableQuantity != 1 {
		t.Fatalf("expected 1 available, got %d", got.AvailableQuantity)
	}
	if got.BorrowCount != 1 {
		t.Fatalf("expected borrow count 1, got %d", got.BorrowCount)
	}
}

func TestBorrowGuards(t *testing.T) {
	a := newTestApp(t)
	user, actor := newTestUser(t, a, "alice")
	_, other := newTestUser(t, a, "bob")

	// Unknown book.
	_, err := a.Borrow(actor, BorrowInput{BookID: 999})
	expectKind(t, err, KindNotFound)

	// Loan period bounds.
	book := newTestBook(t, a, "golang", 5)
	long := 91
	_, err = a.Borrow(actor, BorrowInput{BookID: book.ID, Days: &long})
	expectKind(t, err, KindPrecondition)

	// Only admins may borrow on behalf of someone else.
	_, err = a.Borrow(actor, BorrowInput{BookID: book.ID, UserID: &user.ID})
	if err != nil {
		t.Fatalf("borrow for self via user_id: %v", err)
	}
	_, err = a.Borrow(other, BorrowInput{BookID: book.ID, UserID: &user.ID})
	expectKind(t, err, KindForbidden)

	// The same book cannot be borrowed twice concurrently.
	_, err = a.Borrow(actor, BorrowInput{BookID: book.ID})
	expectKind(t, err, KindConflict)
}

func TestBorrowLimit(t *testing.T) {
	a := newTestApp(t)
	user, actor := newTestUser(t, a, "alice")

	limit := 2
	if _, err := a.AdminUpdateUser(user.ID, AdminUpdateUserInput{MaxBorrowCount: &limit}); err != nil {
		t.Fatalf("set limit: %v", err)
	}
	for i, name := range []string{"one", "two"} {
		book := newTestBook(t, a, name, 1)
		if _, err := a.Borrow(actor, BorrowInput{BookID: book.ID}); err != nil {
			t.Fatalf("borrow %d: %v", i, err)
		}
	}
	book := newTestBook(t, a, "three", 1)
	_, err := a.Borrow(actor, BorrowInput{BookID: book.ID})
	expectKind(t, err, KindPrecondition)
}

func TestBorrowNoCopies(t *testing.T) {
	a := newTestApp(t)
	_, alice := newTestUser(t, a, "alice")
	_, bob := newTestUser(t, a, "bob")
	book := newTestBook(t, a, "golang", 1)

	if _, err := a.Borrow(alice, BorrowInput{BookID: book.ID}); err != nil {
		t.Fatalf("borrow: %v", err)
	}
	_, err := a.Borrow(bob, BorrowInput{BookID: book.ID})
	expectKind(t, err, KindPrecondition)

	got, _ := a.GetBook(book.ID)
	if got.AvailableQuantity != 0 {
		t.Fatalf("failed borrow must not change stock, got %d", got.AvailableQuantity)
	}
}

func TestReturnOnTime(t *testing.T) {
	a := newTestApp(t)
	_, actor := newTestUser(t, a, "alice")
	book := newTestBook(t, a, "golang", 1)
	freeze(a, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))

	record, err := a.Borrow(actor, BorrowInput{BookID: book.ID})
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}
	returned, err := a.Return(actor, record.ID, false)
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if returned.Status != domain.BorrowStatusReturned || returned.ReturnDate == nil {
		t.Fatalf("unexpected record: %+v", returned)
	}
	if returned.FineAmount != 0 || !returned.FinePaid {
		t.Fatalf("on-time return owes nothing, got fine %.2f paid=%v", returned.FineAmount, returned.FinePaid)
	}

	got, _ := a.GetBook(book.ID)
	if got.AvailableQuantity != 1 {
		t.Fatalf("expected copy back, got %d", got.AvailableQuantity)
	}

	// A second return is rejected.
	_, err = a.Return(actor, record.ID, false)
	expectKind(t, err, KindPrecondition)
}

func TestReturnLateFine(t *testing.T) {
	a := newTestApp(t)
	_, actor := newTestUser(t, a, "alice")
	book := newTestBook(t, a, "golang", 1)
	start := freeze(a, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))

	days := 1
	record, err := a.Borrow(actor, BorrowInput{BookID: book.ID, Days: &days})
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}

	// Due after 1 day, returned 4 days in: 3 whole days late at 0.50/day.
	freeze(a, start.AddDate(0, 0, 4))
	returned, err := a.Return(actor, record.ID, false)
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if returned.FineAmount != 1.5 {
		t.Fatalf("expected fine 1.50, got %.2f", returned.FineAmount)
	}
	if returned.FinePaid {
		t.Fatalf("fine must stay unpaid until settled")
	}

	// An open fine blocks further borrowing.
	other := newTestBook(t, a, "other", 1)
	_, err = a.Borrow(actor, BorrowInput{BookID: other.ID})
	expectKind(t, err, KindPrecondition)

	if _, err := a.PayFine(record.ID); err != nil {
		t.Fatalf("pay fine: %v", err)
	}
	if _, err := a.Borrow(actor, BorrowInput{BookID: other.ID}); err != nil {
		t.Fatalf("borrow after paying: %v", err)
	}

	// Paying twice, or paying a record with no fine, is rejected.
	_, err = a.PayFine(record.ID)
	expectKind(t, err, KindPrecondition)
}

func TestReturnOwnership(t *testing.T) {
	a := newTestApp(t)
	_, alice := newTestUser(t, a, "alice")
	_, bob := newTestUser(t, a, "bob")
	_, admin := newTestAdmin(t, a, "root")
	book := newTestBook(t, a, "golang", 2)

	record, err := a.Borrow(alice, BorrowInput{BookID: book.ID})
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}
	_, err = a.Return(bob, record.ID, false)
	expectKind(t, err, KindForbidden)
	if _, err := a.Return(admin, record.ID, false); err != nil {
		t.Fatalf("admin return: %v", err)
	}
}

func TestRenew(t *testing.T) {
	a := newTestApp(t)
	_, actor := newTestUser(t, a, "alice")
	book := newTestBook(t, a, "golang", 1)
	freeze(a, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))

	record, err := a.Borrow(actor, BorrowInput{BookID: book.ID})
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}
	due := record.DueDate

	renewed, err := a.Renew(actor, record.ID)
	if err != nil {
		t.Fatalf("renew: %v", err)
	}
	if !renewed.DueDate.Equal(due.AddDate(0, 0, 14)) || renewed.RenewCount != 1 {
		t.Fatalf("unexpected renewal: %+v", renewed)
	}
	if _, err := a.Renew(actor, record.ID); err != nil {
		t.Fatalf("second renew: %v", err)
	}

	// The default limit is 2 renewals.
	_, err = a.Renew(actor, record.ID)
	expectKind(t, err, KindPrecondition)
}

func TestRenewBlockedByReservation(t *testing.T) {
	a := newTestApp(t)
	_, alice := newTestUser(t, a, "alice")
	_, bob := newTestUser(t, a, "bob")
	book := newTestBook(t, a, "golang", 1)

	record, err := a.Borrow(alice, BorrowInput{BookID: book.ID})
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}
	if _, err := a.Reserve(bob, book.ID); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	_, err = a.Renew(alice, record.ID)
	expectKind(t, err, KindPrecondition)
}

func TestSweepOverdue(t *testing.T) {
	a := newTestApp(t)
	user, actor := newTestUser(t, a, "alice")
	book := newTestBook(t, a, "golang", 1)
	start := freeze(a, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))

	days := 1
	record, err := a.Borrow(actor, BorrowInput{BookID: book.ID, Days: &days})
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}

	// Nothing due yet.
	if n, err := a.SweepOverdue(); err != nil || n != 0 {
		t.Fatalf("expected no-op sweep, got %d, %v", n, err)
	}

	// 3 days in: 2 whole days past due.
	freeze(a, start.AddDate(0, 0, 3))
	n, err := a.SweepOverdue()
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 record swept, got %d", n)
	}

	swept, err := a.GetBorrow(actor, record.ID)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if swept.Status != domain.BorrowStatusOverdue {
		t.Fatalf("unexpected status %q", swept.Status)
	}
	if swept.FineAmount != 1.0 {
		t.Fatalf("expected fine 1.00, got %.2f", swept.FineAmount)
	}

	// Overdue loans cannot be renewed.
	_, err = a.Renew(actor, record.ID)
	expectKind(t, err, KindPrecondition)

	// The borrower was notified.
	notifications, _, err := a.ListNotifications(store.NotificationFilter{UserID: &user.ID, Type: string(domain.NotificationOverdue)})
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notifications) != 1 {
		t.Fatalf("expected 1 overdue notification, got %d", len(notifications))
	}

	// Sweeping again touches nothing.
	if n, err := a.SweepOverdue(); err != nil || n != 0 {
		t.Fatalf("expected idempotent sweep, got %d, %v", n, err)
	}
}

func TestListBorrowsDecorated(t *testing.T) {
	a := newTestApp(t)
	user, actor := newTestUser(t, a, "alice")
	book := newTestBook(t, a, "golang", 1)

	if _, err := a.Borrow(actor, BorrowInput{BookID: book.ID}); err != nil {
		t.Fatalf("borrow: %v", err)
	}
	records, total, err := a.ListBorrows(store.BorrowFilter{UserID: &user.ID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(records) != 1 {
		t.Fatalf("expected 1 record, got %d/%d", len(records), total)
	}
	if records[0].Book == nil || records[0].Book.ID != book.ID {
		t.Fatalf("expected book attached")
	}
	if records[0].User == nil || records[0].User.ID != user.ID {
		t.Fatalf("expected user attached")
	}
}
