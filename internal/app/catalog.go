package app

import (
	"fmt"
	"strings"

	"librarium/pkg/domain"
	"librarium/pkg/store"
)

// BookInput carries book create/update fields. Pointer fields on update
// mean "leave unchanged".
type BookInput struct {
	Name          *string `json:"name"`
	Author        *string `json:"author"`
	BookNumber    *string `json:"book_number"`
	ISBN          *string `json:"isbn"`
	CategoryID    *uint   `json:"category_id"`
	ShelfLocation *string `json:"shelf_location"`
	PreviewImage  *string `json:"preview_image"`
	Quantity      *int    `json:"quantity"`
}

// CreateBook adds a title to the catalog with available = quantity.
func (a *App) CreateBook(in BookInput) (domain.Book, error) {
	name := strValue(in.Name)
	number := strValue(in.BookNumber)
	if name == "" {
		return domain.Book{}, precondition("book name required")
	}
	if number == "" {
		return domain.Book{}, precondition("book number required")
	}
	quantity := 1
	if in.Quantity != nil {
		quantity = *in.Quantity
	}
	if quantity < 0 {
		return domain.Book{}, precondition("quantity cannot be negative")
	}
	var book domain.Book
	err := a.store.Transact(func(tx store.Store) error {
		if _, ok, err := tx.GetBookByNumber(number); err != nil {
			return fmt.Errorf("check book number: %w", err)
		} else if ok {
			return conflict("book number already exists")
		}
		if in.CategoryID != nil {
			if _, ok, err := tx.GetCategory(*in.CategoryID); err != nil {
				return fmt.Errorf("get category: %w", err)
			} else if !ok {
				return notFound("category not found")
			}
		}
		now := a.now()
		book = domain.Book{
			Name:              name,
			Author:            strValue(in.Author),
			BookNumber:        number,
			ISBN:              strValue(in.ISBN),
			CategoryID:        in.CategoryID,
			ShelfLocation:     strValue(in.ShelfLocation),
			PreviewImage:      strValue(in.PreviewImage),
			Quantity:          quantity,
			AvailableQuantity: quantity,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		return tx.CreateBook(&book)
	})
	if err != nil {
		return domain.Book{}, err
	}
	return book, nil
}

// GetBook fetches one book by ID.
func (a *App) GetBook(id uint) (domain.Book, error) {
	book, ok, err := a.store.GetBook(id)
	if err != nil {
		return domain.Book{}, fmt.Errorf("get book: %w", err)
	}
	if !ok {
		return domain.Book{}, notFound("book not found")
	}
	return book, nil
}

// ListBooks returns books matching the filter with the total count.
func (a *App) ListBooks(f store.BookFilter) ([]domain.Book, int64, error) {
	books, total, err := a.store.ListBooks(f)
	if err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}
	return books, total, nil
}

// UpdateBook applies changes. A quantity change shifts available stock
// by the same delta and is rejected when that would leave available
// negative.
func (a *App) UpdateBook(id uint, in BookInput) (domain.Book, error) {
	var book domain.Book
	err := a.store.Transact(func(tx store.Store) error {
		var ok bool
		var err error
		book, ok, err = tx.GetBook(id)
		if err != nil {
			return fmt.Errorf("get book: %w", err)
		}
		if !ok {
			return notFound("book not found")
		}
		if in.BookNumber != nil && *in.BookNumber != book.BookNumber {
			number := strings.TrimSpace(*in.BookNumber)
			if number == "" {
				return precondition("book number required")
			}
			if _, taken, err := tx.GetBookByNumber(number); err != nil {
				return fmt.Errorf("check book number: %w", err)
			} else if taken {
				return conflict("book number already exists")
			}
			book.BookNumber = number
		}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return precondition("book name required")
			}
			book.Name = name
		}
		if in.Author != nil {
			book.Author = strings.TrimSpace(*in.Author)
		}
		if in.ISBN != nil {
			book.ISBN = strings.TrimSpace(*in.ISBN)
		}
		if in.CategoryID != nil {
			if _, ok, err := tx.GetCategory(*in.CategoryID); err != nil {
				return fmt.Errorf("get category: %w", err)
			} else if !ok {
				return notFound("category not found")
			}
			book.CategoryID = in.CategoryID
		}
		if in.ShelfLocation != nil {
			book.ShelfLocation = strings.TrimSpace(*in.ShelfLocation)
		}
		if in.PreviewImage != nil {
			book.PreviewImage = strings.TrimSpace(*in.PreviewImage)
		}
		if in.Quantity != nil {
			if *in.Quantity < 0 {
				return precondition("quantity cannot be negative")
			}
			delta := *in.Quantity - book.Quantity
			if book.AvailableQuantity+delta < 0 {
				return precondition("cannot reduce quantity below copies on loan")
			}
			book.Quantity = *in.Quantity
			book.AvailableQuantity += delta
		}
		book.UpdatedAt = a.now()
		return tx.SaveBook(book)
	})
	if err != nil {
		return domain.Book{}, err
	}
	return book, nil
}

// SetBookCover records the uploaded cover's storage key.
func (a *App) SetBookCover(id uint, key string) (domain.Book, error) {
	return a.UpdateBook(id, BookInput{PreviewImage: &key})
}

// DeleteBook removes a title. Rejected while copies are out on loan.
func (a *App) DeleteBook(id uint) error {
	return a.store.Transact(func(tx store.Store) error {
		_, ok, err := tx.GetBook(id)
		if err != nil {
			return fmt.Errorf("get book: %w", err)
		}
		if !ok {
			return notFound("book not found")
		}
		open, err := tx.CountOpenBorrowsForBook(id)
		if err != nil {
			return fmt.Errorf("count open borrows: %w", err)
		}
		if open > 0 {
			return conflict("book has unreturned copies")
		}
		return tx.DeleteBook(id)
	})
}

// CategoryInput carries category create/update fields.
type CategoryInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	ParentID    *uint   `json:"parent_id"`
	SortOrder   *int    `json:"sort_order"`
}

// CreateCategory adds a category under an optional parent.
func (a *App) CreateCategory(in CategoryInput) (domain.Category, error) {
	name := strValue(in.Name)
	if name == "" {
		return domain.Category{}, precondition("category name required")
	}
	var category domain.Category
	err := a.store.Transact(func(tx store.Store) error {
		if _, ok, err := tx.GetCategoryByName(name); err != nil {
			return fmt.Errorf("check category name: %w", err)
		} else if ok {
			return conflict("category name already exists")
		}
		if in.ParentID != nil {
			if _, ok, err := tx.GetCategory(*in.ParentID); err != nil {
				return fmt.Errorf("get parent: %w", err)
			} else if !ok {
				return notFound("parent category not found")
			}
		}
		category = domain.Category{
			Name:        name,
			Description: strValue(in.Description),
			ParentID:    in.ParentID,
			SortOrder:   intValue(in.SortOrder),
			CreatedAt:   a.now(),
		}
		return tx.CreateCategory(&category)
	})
	if err != nil {
		return domain.Category{}, err
	}
	return category, nil
}

// GetCategory fetches one category by ID.
func (a *App) GetCategory(id uint) (domain.Category, error) {
	category, ok, err := a.store.GetCategory(id)
	if err != nil {
		return domain.Category{}, fmt.Errorf("get category: %w", err)
	}
	if !ok {
		return domain.Category{}, notFound("category not found")
	}
	return category, nil
}

// ListCategories returns categories matching the filter.
func (a *App) ListCategories(f store.CategoryFilter) ([]domain.Category, int64, error) {
	categories, total, err := a.store.ListCategories(f)
	if err != nil {
		return nil, 0, fmt.Errorf("list categories: %w", err)
	}
	return categories, total, nil
}

// CategoryTree returns the full hierarchy, siblings ordered by
// sort_order. Built bottom-up so nested children are complete before
// their parent is copied.
func (a *App) CategoryTree() ([]domain.CategoryNode, error) {
	categories, err := a.store.ListAllCategories()
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	byID := make(map[uint]domain.Category, len(categories))
	children := make(map[uint][]uint)
	var rootIDs []uint
	for _, c := range categories {
		byID[c.ID] = c
		if c.ParentID == nil {
			rootIDs = append(rootIDs, c.ID)
		} else {
			children[*c.ParentID] = append(children[*c.ParentID], c.ID)
		}
	}
	var build func(id uint) domain.CategoryNode
	build = func(id uint) domain.CategoryNode {
		node := domain.CategoryNode{Category: byID[id], Children: []domain.CategoryNode{}}
		for _, childID := range children[id] {
			node.Children = append(node.Children, build(childID))
		}
		return node
	}
	out := make([]domain.CategoryNode, 0, len(rootIDs))
	for _, id := range rootIDs {
		out = append(out, build(id))
	}
	return out, nil
}

// UpdateCategory applies changes; reparenting walks the new ancestor
// chain to reject cycles.
func (a *App) UpdateCategory(id uint, in CategoryInput) (domain.Category, error) {
	var category domain.Category
	err := a.store.Transact(func(tx store.Store) error {
		var ok bool
		var err error
		category, ok, err = tx.GetCategory(id)
		if err != nil {
			return fmt.Errorf("get category: %w", err)
		}
		if !ok {
			return notFound("category not found")
		}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return precondition("category name required")
			}
			if name != category.Name {
				if _, taken, err := tx.GetCategoryByName(name); err != nil {
					return fmt.Errorf("check category name: %w", err)
				} else if taken {
					return conflict("category name already exists")
				}
				category.Name = name
			}
		}
		if in.Description != nil {
			category.Description = strings.TrimSpace(*in.Description)
		}
		if in.SortOrder != nil {
			category.SortOrder = *in.SortOrder
		}
		if in.ParentID != nil {
			if *in.ParentID == id {
				return precondition("category cannot be its own parent")
			}
			ancestor := in.ParentID
			for ancestor != nil {
				if *ancestor == id {
					return precondition("reparenting would create a cycle")
				}
				parent, ok, err := tx.GetCategory(*ancestor)
				if err != nil {
					return fmt.Errorf("get ancestor: %w", err)
				}
				if !ok {
					return notFound("parent category not found")
				}
				ancestor = parent.ParentID
			}
			category.ParentID = in.ParentID
		}
		return tx.SaveCategory(category)
	})
	if err != nil {
		return domain.Category{}, err
	}
	return category, nil
}

// DeleteCategory removes a category. Categories with books attached are
// never deleted; child categories are removed only with force, and each
// child must itself be book-free.
func (a *App) DeleteCategory(id uint, force bool) error {
	return a.store.Transact(func(tx store.Store) error {
		_, ok, err := tx.GetCategory(id)
		if err != nil {
			return fmt.Errorf("get category: %w", err)
		}
		if !ok {
			return notFound("category not found")
		}
		books, err := tx.CountBooksInCategory(id)
		if err != nil {
			return fmt.Errorf("count books: %w", err)
		}
		if books > 0 {
			return conflict("category has books attached")
		}
		children, err := tx.ListChildCategories(id)
		if err != nil {
			return fmt.Errorf("list children: %w", err)
		}
		if len(children) > 0 {
			if !force {
				return conflict("category has child categories")
			}
			for _, child := range children {
				childBooks, err := tx.CountBooksInCategory(child.ID)
				if err != nil {
					return fmt.Errorf("count child books: %w", err)
				}
				if childBooks > 0 {
					return conflict("child category %q has books attached", child.Name)
				}
			}
			for _, child := range children {
				if err := tx.DeleteCategory(child.ID); err != nil {
					return fmt.Errorf("delete child: %w", err)
				}
			}
		}
		return tx.DeleteCategory(id)
	})
}

func strValue(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

func intValue(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
