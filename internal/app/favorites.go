package app

import (
	"fmt"

	"librarium/pkg/domain"
	"librarium/pkg/store"
)

// AddFavorite bookmarks a book for the caller.
func (a *App) AddFavorite(actor Actor, bookID uint) (domain.Favorite, error) {
	var favorite domain.Favorite
	err := a.store.Transact(func(tx store.Store) error {
		if _, ok, err := tx.GetBook(bookID); err != nil {
			return fmt.Errorf("get book: %w", err)
		} else if !ok {
			return notFound("book not found")
		}
		if _, dup, err := tx.FindFavorite(actor.ID, bookID); err != nil {
			return fmt.Errorf("check favorite: %w", err)
		} else if dup {
			return conflict("book already in favorites")
		}
		favorite = domain.Favorite{
			UserID:    actor.ID,
			BookID:    bookID,
			CreatedAt: a.now(),
		}
		return tx.CreateFavorite(&favorite)
	})
	if err != nil {
		return domain.Favorite{}, err
	}
	return favorite, nil
}

// RemoveFavorite drops the caller's bookmark on a book.
func (a *App) RemoveFavorite(actor Actor, bookID uint) error {
	return a.store.Transact(func(tx store.Store) error {
		favorite, ok, err := tx.FindFavorite(actor.ID, bookID)
		if err != nil {
			return fmt.Errorf("check favorite: %w", err)
		}
		if !ok {
			return notFound("book not in favorites")
		}
		return tx.DeleteFavorite(favorite.ID)
	})
}

// IsFavorite reports whether the caller bookmarked the book.
func (a *App) IsFavorite(actor Actor, bookID uint) (bool, error) {
	_, ok, err := a.store.FindFavorite(actor.ID, bookID)
	if err != nil {
		return false, fmt.Errorf("check favorite: %w", err)
	}
	return ok, nil
}

// ListFavorites returns favorites matching the filter, decorated with
// their book.
func (a *App) ListFavorites(f store.FavoriteFilter) ([]domain.Favorite, int64, error) {
	favorites, total, err := a.store.ListFavorites(f)
	if err != nil {
		return nil, 0, fmt.Errorf("list favorites: %w", err)
	}
	bookIDs := make([]uint, 0, len(favorites))
	for _, fav := range favorites {
		bookIDs = append(bookIDs, fav.BookID)
	}
	books, err := a.store.ListBooksByIDs(bookIDs)
	if err != nil {
		return nil, 0, fmt.Errorf("load books: %w", err)
	}
	for i := range favorites {
		if book, ok := books[favorites[i].BookID]; ok {
			b := book
			favorites[i].Book = &b
		}
	}
	return favorites, total, nil
}

// FavoriteCount returns how many users bookmarked a book.
func (a *App) FavoriteCount(bookID uint) (int64, error) {
	if _, err := a.GetBook(bookID); err != nil {
		return 0, err
	}
	count, err := a.store.CountFavoritesForBook(bookID)
	if err != nil {
		return 0, fmt.Errorf("count favorites: %w", err)
	}
	return count, nil
}

// PopularBooks ranks books by favorite count.
func (a *App) PopularBooks(limit int) ([]store.BookFavoriteCount, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := a.store.PopularBooksByFavorites(limit)
	if err != nil {
		return nil, fmt.Errorf("popular books: %w", err)
	}
	return rows, nil
}
