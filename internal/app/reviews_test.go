package app

import (
	"testing"

	"librarium/pkg/store"
)

// borrowAndReturn gives the user the borrow history required to review.
func borrowAndReturn(t *testing.T, a *App, actor Actor, bookID uint) {
	t.Helper()
	record, err := a.Borrow(actor, BorrowInput{BookID: bookID})
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}
	if _, err := a.Return(actor, record.ID, false); err != nil {
		t.Fatalf("return: %v", err)
	}
}

func review(rating int, content string) ReviewInput {
	return ReviewInput{Rating: &rating, Content: &content}
}

func TestCreateReviewRequiresBorrowHistory(t *testing.T) {
	a := newTestApp(t)
	_, alice := newTestUser(t, a, "alice")
	_, admin := newTestAdmin(t, a, "root")
	book := newTestBook(t, a, "golang", 2)

	in := review(5, "excellent")
	in.BookID = book.ID
	_, err := a.CreateReview(alice, in)
	expectKind(t, err, KindPrecondition)

	// Admins may review without borrowing.
	if _, err := a.CreateReview(admin, in); err != nil {
		t.Fatalf("admin review: %v", err)
	}

	borrowAndReturn(t, a, alice, book.ID)
	created, err := a.CreateReview(alice, in)
	if err != nil {
		t.Fatalf("review after borrowing: %v", err)
	}
	if !created.IsVisible {
		t.Fatalf("new reviews start visible")
	}

	// One review per user per book.
	_, err = a.CreateReview(alice, in)
	expectKind(t, err, KindConflict)
}

func TestReviewRatingBounds(t *testing.T) {
	a := newTestApp(t)
	_, admin := newTestAdmin(t, a, "root")
	book := newTestBook(t, a, "golang", 1)

	for _, rating := range []int{0, 6} {
		in := review(rating, "")
		in.BookID = book.ID
		if _, err := a.CreateReview(admin, in); KindOf(err) != KindPrecondition {
			t.Fatalf("expected rating %d rejected, got: %v", rating, err)
		}
	}
	in := ReviewInput{BookID: book.ID}
	if _, err := a.CreateReview(admin, in); KindOf(err) != KindPrecondition {
		t.Fatalf("expected missing rating rejected, got: %v", err)
	}
}

func TestRatingRollup(t *testing.T) {
	a := newTestApp(t)
	_, alice := newTestUser(t, a, "alice")
	_, bob := newTestUser(t, a, "bob")
	book := newTestBook(t, a, "golang", 2)

	borrowAndReturn(t, a, alice, book.ID)
	borrowAndReturn(t, a, bob, book.ID)

	in := review(5, "great")
	in.BookID = book.ID
	aliceReview, err := a.CreateReview(alice, in)
	if err != nil {
		t.Fatalf("alice review: %v", err)
	}
	in = review(4, "good")
	in.BookID = book.ID
	if _, err := a.CreateReview(bob, in); err != nil {
		t.Fatalf("bob review: %v", err)
	}

	got, _ := a.GetBook(book.ID)
	if got.AvgRating != 4.5 || got.ReviewCount != 2 {
		t.Fatalf("expected 4.5 over 2 reviews, got %.2f over %d", got.AvgRating, got.ReviewCount)
	}

	// Hiding a review recomputes from visible reviews only.
	if _, err := a.SetReviewVisibility(aliceReview.ID, false); err != nil {
		t.Fatalf("hide review: %v", err)
	}
	got, _ = a.GetBook(book.ID)
	if got.AvgRating != 4.0 || got.ReviewCount != 1 {
		t.Fatalf("expected 4.0 over 1 review, got %.2f over %d", got.AvgRating, got.ReviewCount)
	}

	// Restoring it brings the average back.
	if _, err := a.SetReviewVisibility(aliceReview.ID, true); err != nil {
		t.Fatalf("show review: %v", err)
	}
	got, _ = a.GetBook(book.ID)
	if got.AvgRating != 4.5 || got.ReviewCount != 2 {
		t.Fatalf("expected 4.5 restored, got %.2f over %d", got.AvgRating, got.ReviewCount)
	}

	// Deleting one leaves the other's rating.
	if err := a.DeleteReview(alice, aliceReview.ID); err != nil {
		t.Fatalf("delete review: %v", err)
	}
	got, _ = a.GetBook(book.ID)
	if got.AvgRating != 4.0 || got.ReviewCount != 1 {
		t.Fatalf("expected 4.0 after delete, got %.2f over %d", got.AvgRating, got.ReviewCount)
	}
}

func TestHiddenReviewVisibility(t *testing.T) {
	a := newTestApp(t)
	_, alice := newTestUser(t, a, "alice")
	_, bob := newTestUser(t, a, "bob")
	_, admin := newTestAdmin(t, a, "root")
	book := newTestBook(t, a, "golang", 1)

	borrowAndReturn(t, a, alice, book.ID)
	in := review(2, "meh")
	in.BookID = book.ID
	created, err := a.CreateReview(alice, in)
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if _, err := a.SetReviewVisibility(created.ID, false); err != nil {
		t.Fatalf("hide: %v", err)
	}

	// Hidden from strangers, still visible to the author and admins.
	_, err = a.GetReview(bob, created.ID)
	expectKind(t, err, KindNotFound)
	if _, err := a.GetReview(alice, created.ID); err != nil {
		t.Fatalf("author read: %v", err)
	}
	if _, err := a.GetReview(admin, created.ID); err != nil {
		t.Fatalf("admin read: %v", err)
	}

	// The visible-only listing skips it.
	reviews, total, err := a.ListReviews(store.ReviewFilter{BookID: &book.ID, VisibleOnly: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 0 || len(reviews) != 0 {
		t.Fatalf("expected hidden review excluded, got %d", total)
	}
}

func TestUpdateReviewOwnership(t *testing.T) {
	a := newTestApp(t)
	_, alice := newTestUser(t, a, "alice")
	_, bob := newTestUser(t, a, "bob")
	book := newTestBook(t, a, "golang", 1)

	borrowAndReturn(t, a, alice, book.ID)
	in := review(3, "fine")
	in.BookID = book.ID
	created, err := a.CreateReview(alice, in)
	if err != nil {
		t.Fatalf("review: %v", err)
	}

	_, err = a.UpdateReview(bob, created.ID, review(1, "spam"))
	expectKind(t, err, KindForbidden)

	updated, err := a.UpdateReview(alice, created.ID, review(4, "better on reread"))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Rating != 4 {
		t.Fatalf("expected rating 4, got %d", updated.Rating)
	}
	got, _ := a.GetBook(book.ID)
	if got.AvgRating != 4.0 {
		t.Fatalf("expected rollup refreshed, got %.2f", got.AvgRating)
	}
}
