package store

import (
	"gorm.io/gorm"

	"librarium/pkg/domain"
)

// CreateReview inserts a review and backfills the generated ID.
func (s *GormStore) CreateReview(r *domain.Review) error {
	model := reviewToModel(*r)
	if err := s.db.Create(&model).Error; err != nil {
		return err
	}
	r.ID = model.ID
	return nil
}

func (s *GormStore) GetReview(id uint) (domain.Review, bool, error) {
	var model ReviewModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Review{}, false, nil
		}
		return domain.Review{}, false, err
	}
	return reviewFromModel(model), true, nil
}

func (s *GormStore) SaveReview(r domain.Review) error {
	model := reviewToModel(r)
	return s.db.Save(&model).Error
}

func (s *GormStore) DeleteReview(id uint) error {
	return s.db.Delete(&ReviewModel{}, "id = ?", id).Error
}

// FindReview returns the user's review of a book, if any. One review
// per user per book is enforced by a unique index.
func (s *GormStore) FindReview(userID, bookID uint) (domain.Review, bool, error) {
	var model ReviewModel
	err := s.db.Where("user_id = ? AND book_id = ?", userID, bookID).First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Review{}, false, nil
		}
		return domain.Review{}, false, err
	}
	return reviewFromModel(model), true, nil
}

func (s *GormStore) ListReviews(f ReviewFilter) ([]domain.Review, int64, error) {
	tx := s.db.Model(&ReviewModel{})
	if f.UserID != nil {
		tx = tx.Where("user_id = ?", *f.UserID)
	}
	if f.BookID != nil {
		tx = tx.Where("book_id = ?", *f.BookID)
	}
	if f.Rating != nil {
		tx = tx.Where("rating = ?", *f.Rating)
	}
	if f.VisibleOnly {
		tx = tx.Where("is_visible = ?", true)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var models []ReviewModel
	if err := applyPage(tx.Order("created_at DESC"), f.Page).Find(&models).Error; err != nil {
		return nil, 0, err
	}
	reviews := make([]domain.Review, 0, len(models))
	for _, m := range models {
		reviews = append(reviews, reviewFromModel(m))
	}
	return reviews, total, nil
}

// VisibleRatingStats aggregates visible reviews for a book. Zero values
// when the book has no visible reviews.
func (s *GormStore) VisibleRatingStats(bookID uint) (float64, int64, error) {
	var row struct {
		Avg   *float64
		Count int64
	}
	err := s.db.Model(&ReviewModel{}).
		Select("AVG(rating) AS avg, COUNT(*) AS count").
		Where("book_id = ? AND is_visible = ?", bookID, true).
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	if row.Avg == nil {
		return 0, 0, nil
	}
	return *row.Avg, row.Count, nil
}

// CreateFavorite inserts a favorite and backfills the generated ID.
func (s *GormStore) CreateFavorite(f *domain.Favorite) error {
	model := FavoriteModel{
		UserID:    f.UserID,
		BookID:    f.BookID,
		CreatedAt: f.CreatedAt,
	}
	if err := s.db.Create(&model).Error; err != nil {
		return err
	}
	f.ID = model.ID
	return nil
}

func (s *GormStore) GetFavorite(id uint) (domain.Favorite, bool, error) {
	var model FavoriteModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Favorite{}, false, nil
		}
		return domain.Favorite{}, false, err
	}
	return favoriteFromModel(model), true, nil
}

func (s *GormStore) FindFavorite(userID, bookID uint) (domain.Favorite, bool, error) {
	var model FavoriteModel
	err := s.db.Where("user_id = ? AND book_id = ?", userID, bookID).First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Favorite{}, false, nil
		}
		return domain.Favorite{}, false, err
	}
	return favoriteFromModel(model), true, nil
}

func (s *GormStore) DeleteFavorite(id uint) error {
	return s.db.Delete(&FavoriteModel{}, "id = ?", id).Error
}

func (s *GormStore) ListFavorites(f FavoriteFilter) ([]domain.Favorite, int64, error) {
	tx := s.db.Model(&FavoriteModel{})
	if f.UserID != nil {
		tx = tx.Where("user_id = ?", *f.UserID)
	}
	if f.BookID != nil {
		tx = tx.Where("book_id = ?", *f.BookID)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var models []FavoriteModel
	if err := applyPage(tx.Order("created_at DESC"), f.Page).Find(&models).Error; err != nil {
		return nil, 0, err
	}
	favorites := make([]domain.Favorite, 0, len(models))
	for _, m := range models {
		favorites = append(favorites, favoriteFromModel(m))
	}
	return favorites, total, nil
}

func (s *GormStore) CountFavoritesForBook(bookID uint) (int64, error) {
	var count int64
	err := s.db.Model(&FavoriteModel{}).Where("book_id = ?", bookID).Count(&count).Error
	return count, err
}

// PopularBooksByFavorites ranks books by how many users favorited them.
func (s *GormStore) PopularBooksByFavorites(limit int) ([]BookFavoriteCount, error) {
	var rows []BookFavoriteCount
	err := s.db.Model(&FavoriteModel{}).
		Select("books.id AS book_id, books.name, books.author, books.preview_image, COUNT(favorites.id) AS favorite_count").
		Joins("JOIN books ON books.id = favorites.book_id").
		Group("books.id, books.name, books.author, books.preview_image").
		Order("favorite_count DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
