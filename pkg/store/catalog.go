package store

import (
	"time"

	"gorm.io/gorm"

	"librarium/pkg/domain"
)

// CreateBook inserts a book and backfills the generated ID.
func (s *GormStore) CreateBook(b *domain.Book) error {
	model := bookToModel(*b)
	if err := s.db.Create(&model).Error; err != nil {
		return err
	}
	b.ID = model.ID
	return nil
}

func (s *GormStore) GetBook(id uint) (domain.Book, bool, error) {
	var model BookModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Book{}, false, nil
		}
		return domain.Book{}, false, err
	}
	return bookFromModel(model), true, nil
}

func (s *GormStore) GetBookByNumber(number string) (domain.Book, bool, error) {
	var model BookModel
	if err := s.db.Where("book_number = ?", number).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Book{}, false, nil
		}
		return domain.Book{}, false, err
	}
	return bookFromModel(model), true, nil
}

func (s *GormStore) ListBooks(f BookFilter) ([]domain.Book, int64, error) {
	tx := s.db.Model(&BookModel{})
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		tx = tx.Where("name LIKE ? OR book_number LIKE ? OR author LIKE ?", pattern, pattern, pattern)
	}
	if f.ShelfLocation != "" {
		tx = tx.Where("shelf_location = ?", f.ShelfLocation)
	}
	if f.CategoryID != nil {
		tx = tx.Where("category_id = ?", *f.CategoryID)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var models []BookModel
	if err := applyPage(tx.Order("id ASC"), f.Page).Find(&models).Error; err != nil {
		return nil, 0, err
	}
	books := make([]domain.Book, 0, len(models))
	for _, m := range models {
		books = append(books, bookFromModel(m))
	}
	return books, total, nil
}

// ListBooksByIDs batch-fetches books keyed by ID, for response decoration.
func (s *GormStore) ListBooksByIDs(ids []uint) (map[uint]domain.Book, error) {
	out := make(map[uint]domain.Book, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var models []BookModel
	if err := s.db.Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, err
	}
	for _, m := range models {
		out[m.ID] = bookFromModel(m)
	}
	return out, nil
}

func (s *GormStore) SaveBook(b domain.Book) error {
	model := bookToModel(b)
	return s.db.Save(&model).Error
}

func (s *GormStore) DeleteBook(id uint) error {
	return s.db.Delete(&BookModel{}, "id = ?", id).Error
}

func (s *GormStore) CountBooks() (int64, error) {
	var count int64
	err := s.db.Model(&BookModel{}).Count(&count).Error
	return count, err
}

// AdjustAvailable shifts available_quantity by delta with a guarded update,
// so concurrent adjustments cannot push the counter outside [0, quantity].
// Returns false when the guard rejected the change.
func (s *GormStore) AdjustAvailable(bookID uint, delta int) (bool, error) {
	res := s.db.Model(&BookModel{}).
		Where("id = ? AND available_quantity + ? >= 0 AND available_quantity + ? <= quantity", bookID, delta, delta).
		Updates(map[string]any{
			"available_quantity": gorm.Expr("available_quantity + ?", delta),
			"updated_at":         time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) IncrementBorrowCount(bookID uint) error {
	return s.db.Model(&BookModel{}).
		Where("id = ?", bookID).
		Update("borrow_count", gorm.Expr("borrow_count + 1")).Error
}

func (s *GormStore) SetBookRating(bookID uint, avg float64, count int) error {
	return s.db.Model(&BookModel{}).
		Where("id = ?", bookID).
		Updates(map[string]any{
			"avg_rating":   avg,
			"review_count": count,
			"updated_at":   time.Now().UTC(),
		}).Error
}

func (s *GormStore) CountBooksInCategory(categoryID uint) (int64, error) {
	var count int64
	err := s.db.Model(&BookModel{}).Where("category_id = ?", categoryID).Count(&count).Error
	return count, err
}

// CreateCategory inserts a category and backfills the generated ID.
func (s *GormStore) CreateCategory(c *domain.Category) error {
	model := categoryToModel(*c)
	if err := s.db.Create(&model).Error; err != nil {
		return err
	}
	c.ID = model.ID
	return nil
}

func (s *GormStore) GetCategory(id uint) (domain.Category, bool, error) {
	var model CategoryModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Category{}, false, nil
		}
		return domain.Category{}, false, err
	}
	return categoryFromModel(model), true, nil
}

func (s *GormStore) GetCategoryByName(name string) (domain.Category, bool, error) {
	var model CategoryModel
	if err := s.db.Where("name = ?", name).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Category{}, false, nil
		}
		return domain.Category{}, false, err
	}
	return categoryFromModel(model), true, nil
}

func (s *GormStore) ListCategories(f CategoryFilter) ([]domain.Category, int64, error) {
	tx := s.db.Model(&CategoryModel{})
	if f.Search != "" {
		tx = tx.Where("name LIKE ?", "%"+f.Search+"%")
	}
	if f.RootOnly {
		tx = tx.Where("parent_id IS NULL")
	} else if f.ParentID != nil {
		tx = tx.Where("parent_id = ?", *f.ParentID)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var models []CategoryModel
	if err := applyPage(tx.Order("sort_order ASC, id ASC"), f.Page).Find(&models).Error; err != nil {
		return nil, 0, err
	}
	categories := make([]domain.Category, 0, len(models))
	for _, m := range models {
		categories = append(categories, categoryFromModel(m))
	}
	return categories, total, nil
}

func (s *GormStore) ListAllCategories() ([]domain.Category, error) {
	var models []CategoryModel
	if err := s.db.Order("sort_order ASC, id ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	categories := make([]domain.Category, 0, len(models))
	for _, m := range models {
		categories = append(categories, categoryFromModel(m))
	}
	return categories, nil
}

func (s *GormStore) ListChildCategories(parentID uint) ([]domain.Category, error) {
	var models []CategoryModel
	if err := s.db.Where("parent_id = ?", parentID).Order("sort_order ASC, id ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	categories := make([]domain.Category, 0, len(models))
	for _, m := range models {
		categories = append(categories, categoryFromModel(m))
	}
	return categories, nil
}

func (s *GormStore) CountChildCategories(parentID uint) (int64, error) {
	var count int64
	err := s.db.Model(&CategoryModel{}).Where("parent_id = ?", parentID).Count(&count).Error
	return count, err
}

func (s *GormStore) SaveCategory(c domain.Category) error {
	model := categoryToModel(c)
	return s.db.Save(&model).Error
}

func (s *GormStore) DeleteCategory(id uint) error {
	return s.db.Delete(&CategoryModel{}, "id = ?", id).Error
}

func (s *GormStore) CountCategories() (int64, error) {
	var count int64
	err := s.db.Model(&CategoryModel{}).Count(&count).Error
	return count, err
}
