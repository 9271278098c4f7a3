package app

import (
	"fmt"
	"math"
	"strings"

	"librarium/pkg/domain"
	"librarium/pkg/store"
)

// ReviewInput carries review create/update fields.
type ReviewInput struct {
	BookID  uint    `json:"book_id"`
	Rating  *int    `json:"rating"`
	Content *string `json:"content"`
}

// CreateReview adds a review. The author must have borrowed the book at
// some point, unless they are an admin; one review per user per book.
func (a *App) CreateReview(actor Actor, in ReviewInput) (domain.Review, error) {
	if in.Rating == nil || *in.Rating < 1 || *in.Rating > 5 {
		return domain.Review{}, precondition("rating must be between 1 and 5")
	}
	var review domain.Review
	err := a.store.Transact(func(tx store.Store) error {
		if _, ok, err := tx.GetBook(in.BookID); err != nil {
			return fmt.Errorf("get book: %w", err)
		} else if !ok {
			return notFound("book not found")
		}
		if !actor.admin() {
			borrowed, err := tx.HasBorrowed(actor.ID, in.BookID)
			if err != nil {
				return fmt.Errorf("check borrow history: %w", err)
			}
			if !borrowed {
				return precondition("only borrowers can review this book")
			}
		}
		if _, dup, err := tx.FindReview(actor.ID, in.BookID); err != nil {
			return fmt.Errorf("check review: %w", err)
		} else if dup {
			return conflict("book already reviewed by this user")
		}
		now := a.now()
		review = domain.Review{
			UserID:    actor.ID,
			BookID:    in.BookID,
			Rating:    *in.Rating,
			Content:   strValue(in.Content),
			IsVisible: true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.CreateReview(&review); err != nil {
			return fmt.Errorf("create review: %w", err)
		}
		return refreshBookRating(tx, in.BookID)
	})
	if err != nil {
		return domain.Review{}, err
	}
	return review, nil
}

// UpdateReview edits the caller's review; admins may edit any.
func (a *App) UpdateReview(actor Actor, id uint, in ReviewInput) (domain.Review, error) {
	var review domain.Review
	err := a.store.Transact(func(tx store.Store) error {
		var ok bool
		var err error
		review, ok, err = tx.GetReview(id)
		if err != nil {
			return fmt.Errorf("get review: %w", err)
		}
		if !ok {
			return notFound("review not found")
		}
		if review.UserID != actor.ID && !actor.admin() {
			return forbidden("not your review")
		}
		if in.Rating != nil {
			if *in.Rating < 1 || *in.Rating > 5 {
				return precondition("rating must be between 1 and 5")
			}
			review.Rating = *in.Rating
		}
		if in.Content != nil {
			review.Content = strings.TrimSpace(*in.Content)
		}
		review.UpdatedAt = a.now()
		if err := tx.SaveReview(review); err != nil {
			return fmt.Errorf("save review: %w", err)
		}
		return refreshBookRating(tx, review.BookID)
	})
	if err != nil {
		return domain.Review{}, err
	}
	return review, nil
}

// DeleteReview removes the caller's review; admins may remove any.
func (a *App) DeleteReview(actor Actor, id uint) error {
	return a.store.Transact(func(tx store.Store) error {
		review, ok, err := tx.GetReview(id)
		if err != nil {
			return fmt.Errorf("get review: %w", err)
		}
		if !ok {
			return notFound("review not found")
		}
		if review.UserID != actor.ID && !actor.admin() {
			return forbidden("not your review")
		}
		if err := tx.DeleteReview(id); err != nil {
			return fmt.Errorf("delete review: %w", err)
		}
		return refreshBookRating(tx, review.BookID)
	})
}

// SetReviewVisibility toggles moderation visibility of a review.
func (a *App) SetReviewVisibility(id uint, visible bool) (domain.Review, error) {
	var review domain.Review
	err := a.store.Transact(func(tx store.Store) error {
		var ok bool
		var err error
		review, ok, err = tx.GetReview(id)
		if err != nil {
			return fmt.Errorf("get review: %w", err)
		}
		if !ok {
			return notFound("review not found")
		}
		review.IsVisible = visible
		review.UpdatedAt = a.now()
		if err := tx.SaveReview(review); err != nil {
			return fmt.Errorf("save review: %w", err)
		}
		return refreshBookRating(tx, review.BookID)
	})
	if err != nil {
		return domain.Review{}, err
	}
	return review, nil
}

// GetReview fetches one review. Hidden reviews stay invisible to anyone
// but their author and admins.
func (a *App) GetReview(actor Actor, id uint) (domain.Review, error) {
	review, ok, err := a.store.GetReview(id)
	if err != nil {
		return domain.Review{}, fmt.Errorf("get review: %w", err)
	}
	if !ok {
		return domain.Review{}, notFound("review not found")
	}
	if !review.IsVisible && review.UserID != actor.ID && !actor.admin() {
		return domain.Review{}, notFound("review not found")
	}
	return review, nil
}

// ListReviews returns reviews matching the filter, decorated with their
// book and author.
func (a *App) ListReviews(f store.ReviewFilter) ([]domain.Review, int64, error) {
	reviews, total, err := a.store.ListReviews(f)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	bookIDs := make([]uint, 0, len(reviews))
	userIDs := make([]uint, 0, len(reviews))
	for _, r := range reviews {
		bookIDs = append(bookIDs, r.BookID)
		userIDs = append(userIDs, r.UserID)
	}
	books, err := a.store.ListBooksByIDs(bookIDs)
	if err != nil {
		return nil, 0, fmt.Errorf("load books: %w", err)
	}
	users, err := a.store.ListUsersByIDs(userIDs)
	if err != nil {
		return nil, 0, fmt.Errorf("load users: %w", err)
	}
	for i := range reviews {
		if book, ok := books[reviews[i].BookID]; ok {
			b := book
			reviews[i].Book = &b
		}
		if user, ok := users[reviews[i].UserID]; ok {
			u := user
			reviews[i].User = &u
		}
	}
	return reviews, total, nil
}

// refreshBookRating recomputes the derived rating fields from visible
// reviews, average rounded to 2 decimals.
func refreshBookRating(tx store.Store, bookID uint) error {
	avg, count, err := tx.VisibleRatingStats(bookID)
	if err != nil {
		return fmt.Errorf("rating stats: %w", err)
	}
	avg = math.Round(avg*100) / 100
	if err := tx.SetBookRating(bookID, avg, int(count)); err != nil {
		return fmt.Errorf("set rating: %w", err)
	}
	return nil
}
