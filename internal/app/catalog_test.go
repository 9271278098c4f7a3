package app

import (
	"testing"

	"librarium/pkg/store"
)

func TestCreateBookDefaults(t *testing.T) {
	a := newTestApp(t)

	name := "The Go Programming Language"
	number := "GO-001"
	book, err := a.CreateBook(BookInput{Name: &name, BookNumber: &number})
	if err != nil {
		t.Fatalf("create book: %v", err)
	}
	if book.Quantity != 1 || book.AvailableQuantity != 1 {
		t.Fatalf("expected one available copy, got %d/%d", book.AvailableQuantity, book.Quantity)
	}

	// Duplicate book number is rejected.
	other := "Another Title"
	_, err = a.CreateBook(BookInput{Name: &other, BookNumber: &number})
	expectKind(t, err, KindConflict)

	empty := ""
	if _, err := a.CreateBook(BookInput{Name: &empty, BookNumber: &number}); KindOf(err) != KindPrecondition {
		t.Fatalf("expected empty name rejected, got: %v", err)
	}
}

func TestUpdateBookQuantityShiftsAvailable(t *testing.T) {
	a := newTestApp(t)
	_, actor := newTestUser(t, a, "alice")
	book := newTestBook(t, a, "golang", 2)

	if _, err := a.Borrow(actor, BorrowInput{BookID: book.ID}); err != nil {
		t.Fatalf("borrow: %v", err)
	}

	// 2 total, 1 on loan. Raising quantity to 5 raises available to 4.
	five := 5
	updated, err := a.UpdateBook(book.ID, BookInput{Quantity: &five})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Quantity != 5 || updated.AvailableQuantity != 4 {
		t.Fatalf("expected 4/5, got %d/%d", updated.AvailableQuantity, updated.Quantity)
	}

	// Cutting below the copies on loan is rejected.
	zero := 0
	_, err = a.UpdateBook(book.ID, BookInput{Quantity: &zero})
	expectKind(t, err, KindPrecondition)
}

func TestDeleteBookWithOpenLoan(t *testing.T) {
	a := newTestApp(t)
	_, actor := newTestUser(t, a, "alice")
	book := newTestBook(t, a, "golang", 1)

	if _, err := a.Borrow(actor, BorrowInput{BookID: book.ID}); err != nil {
		t.Fatalf("borrow: %v", err)
	}
	err := a.DeleteBook(book.ID)
	expectKind(t, err, KindConflict)

	records, _, err := a.ListBorrows(store.BorrowFilter{BookID: &book.ID})
	if err != nil {
		t.Fatalf("list borrows: %v", err)
	}
	if _, err := a.Return(actor, records[0].ID, false); err != nil {
		t.Fatalf("return: %v", err)
	}
	if err := a.DeleteBook(book.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestCategoryHierarchy(t *testing.T) {
	a := newTestApp(t)

	mk := func(name string, parent *uint, order int) uint {
		t.Helper()
		category, err := a.CreateCategory(CategoryInput{Name: &name, ParentID: parent, SortOrder: &order})
		if err != nil {
			t.Fatalf("create category %s: %v", name, err)
		}
		return category.ID
	}
	tech := mk("Technology", nil, 1)
	prog := mk("Programming", &tech, 1)
	mk("Networking", &tech, 2)
	fiction := mk("Fiction", nil, 2)

	// Duplicate name is rejected regardless of parent.
	dup := "Programming"
	_, err := a.CreateCategory(CategoryInput{Name: &dup})
	expectKind(t, err, KindConflict)

	tree, err := a.CategoryTree()
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	if len(tree) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(tree))
	}
	if tree[0].ID != tech || len(tree[0].Children) != 2 {
		t.Fatalf("unexpected tech subtree: %+v", tree[0])
	}
	if tree[1].ID != fiction || len(tree[1].Children) != 0 {
		t.Fatalf("unexpected fiction subtree: %+v", tree[1])
	}

	// Reparenting Technology under its own child is a cycle.
	_, err = a.UpdateCategory(tech, CategoryInput{ParentID: &prog})
	expectKind(t, err, KindPrecondition)
	_, err = a.UpdateCategory(tech, CategoryInput{ParentID: &tech})
	expectKind(t, err, KindPrecondition)
}

func TestDeleteCategoryGuards(t *testing.T) {
	a := newTestApp(t)

	mk := func(name string, parent *uint) uint {
		t.Helper()
		category, err := a.CreateCategory(CategoryInput{Name: &name, ParentID: parent})
		if err != nil {
			t.Fatalf("create category %s: %v", name, err)
		}
		return category.ID
	}
	tech := mk("Technology", nil)
	prog := mk("Programming", &tech)

	// A category holding books cannot be deleted.
	name := "golang"
	number := "GO-001"
	if _, err := a.CreateBook(BookInput{Name: &name, BookNumber: &number, CategoryID: &prog}); err != nil {
		t.Fatalf("create book: %v", err)
	}
	expectKind(t, a.DeleteCategory(prog, false), KindConflict)

	// A parent with children needs force, and children must be book-free.
	expectKind(t, a.DeleteCategory(tech, false), KindConflict)
	expectKind(t, a.DeleteCategory(tech, true), KindConflict)

	// Detach the book; force delete then removes parent and child.
	books, _, err := a.ListBooks(store.BookFilter{CategoryID: &prog})
	if err != nil {
		t.Fatalf("list books: %v", err)
	}
	if err := a.DeleteBook(books[0].ID); err != nil {
		t.Fatalf("delete book: %v", err)
	}
	if err := a.DeleteCategory(tech, true); err != nil {
		t.Fatalf("force delete: %v", err)
	}
	if _, err := a.GetCategory(prog); KindOf(err) != KindNotFound {
		t.Fatalf("expected child gone, got: %v", err)
	}
}
