package store

import (
	"time"

	"gorm.io/gorm"

	"librarium/pkg/domain"
)

// CreateBorrowRecord inserts a record and backfills the generated ID.
func (s *GormStore) CreateBorrowRecord(r *domain.BorrowRecord) error {
	model := borrowToModel(*r)
	if err := s.db.Create(&model).Error; err != nil {
		return err
	}
	r.ID = model.ID
	return nil
}

func (s *GormStore) GetBorrowRecord(id uint) (domain.BorrowRecord, bool, error) {
	var model BorrowRecordModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.BorrowRecord{}, false, nil
		}
		return domain.BorrowRecord{}, false, err
	}
	return borrowFromModel(model), true, nil
}

func (s *GormStore) SaveBorrowRecord(r domain.BorrowRecord) error {
	model := borrowToModel(r)
	return s.db.Save(&model).Error
}

func (s *GormStore) ListBorrowRecords(f BorrowFilter) ([]domain.BorrowRecord, int64, error) {
	tx := s.db.Model(&BorrowRecordModel{})
	if f.UserID != nil {
		tx = tx.Where("user_id = ?", *f.UserID)
	}
	if f.BookID != nil {
		tx = tx.Where("book_id = ?", *f.BookID)
	}
	if len(f.Statuses) > 0 {
		tx = tx.Where("status IN ?", statusStrings(f.Statuses))
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var models []BorrowRecordModel
	if err := applyPage(tx.Order("created_at DESC"), f.Page).Find(&models).Error; err != nil {
		return nil, 0, err
	}
	records := make([]domain.BorrowRecord, 0, len(models))
	for _, m := range models {
		records = append(records, borrowFromModel(m))
	}
	return records, total, nil
}

func (s *GormStore) CountBorrows(userID *uint, statuses []domain.BorrowStatus) (int64, error) {
	tx := s.db.Model(&BorrowRecordModel{})
	if userID != nil {
		tx = tx.Where("user_id = ?", *userID)
	}
	if len(statuses) > 0 {
		tx = tx.Where("status IN ?", statusStrings(statuses))
	}
	var count int64
	err := tx.Count(&count).Error
	return count, err
}

func (s *GormStore) CountOpenBorrowsForBook(bookID uint) (int64, error) {
	var count int64
	err := s.db.Model(&BorrowRecordModel{}).
		Where("book_id = ? AND status IN ?", bookID, openBorrowStatuses()).
		Count(&count).Error
	return count, err
}

// CountUnpaidFines counts records with an accrued but unpaid fine.
func (s *GormStore) CountUnpaidFines(userID uint) (int64, error) {
	var count int64
	err := s.db.Model(&BorrowRecordModel{}).
		Where("user_id = ? AND fine_amount > 0 AND fine_paid = ?", userID, false).
		Count(&count).Error
	return count, err
}

// FindOpenBorrow returns the user's borrowed-or-overdue record for a book.
func (s *GormStore) FindOpenBorrow(userID, bookID uint) (domain.BorrowRecord, bool, error) {
	var model BorrowRecordModel
	err := s.db.Where("user_id = ? AND book_id = ? AND status IN ?", userID, bookID, openBorrowStatuses()).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.BorrowRecord{}, false, nil
		}
		return domain.BorrowRecord{}, false, err
	}
	return borrowFromModel(model), true, nil
}

// HasBorrowed reports whether the user ever had a record for the book,
// regardless of status. Used for review eligibility.
func (s *GormStore) HasBorrowed(userID, bookID uint) (bool, error) {
	var count int64
	err := s.db.Model(&BorrowRecordModel{}).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Count(&count).Error
	return count > 0, err
}

// ListOverdueCandidates returns borrowed records whose due date has passed.
func (s *GormStore) ListOverdueCandidates(now time.Time) ([]domain.BorrowRecord, error) {
	var models []BorrowRecordModel
	err := s.db.Where("status = ? AND due_date < ?", string(domain.BorrowStatusBorrowed), now).
		Order("due_date ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	records := make([]domain.BorrowRecord, 0, len(models))
	for _, m := range models {
		records = append(records, borrowFromModel(m))
	}
	return records, nil
}

// SumFines totals a user's fines, optionally only the unpaid ones.
func (s *GormStore) SumFines(userID uint, unpaidOnly bool) (float64, error) {
	tx := s.db.Model(&BorrowRecordModel{}).Where("user_id = ?", userID)
	if unpaidOnly {
		tx = tx.Where("fine_paid = ? AND fine_amount > 0", false)
	}
	var total *float64
	if err := tx.Select("SUM(fine_amount)").Scan(&total).Error; err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

// BorrowRankingSince ranks books by loans. A nil since ranks by the
// all-time borrow_count counter; otherwise loans within the window are
// aggregated from borrow records.
func (s *GormStore) BorrowRankingSince(since *time.Time, limit int) ([]BookRanking, error) {
	var rows []BookRanking
	if since == nil {
		err := s.db.Model(&BookModel{}).
			Select("id AS book_id, name, author, borrow_count, avg_rating").
			Order("borrow_count DESC").
			Limit(limit).
			Scan(&rows).Error
		return rows, err
	}
	err := s.db.Model(&BookModel{}).
		Select("books.id AS book_id, books.name, books.author, COUNT(borrow_records.id) AS borrow_count, books.avg_rating").
		Joins("LEFT JOIN borrow_records ON borrow_records.book_id = books.id AND borrow_records.borrow_date >= ?", *since).
		Group("books.id, books.name, books.author, books.avg_rating").
		Order("borrow_count DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (s *GormStore) RatingRanking(minReviews, limit int) ([]BookRanking, error) {
	var rows []BookRanking
	err := s.db.Model(&BookModel{}).
		Select("id AS book_id, name, author, borrow_count, avg_rating").
		Where("review_count >= ?", minReviews).
		Order("avg_rating DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func statusStrings(statuses []domain.BorrowStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, string(st))
	}
	return out
}

func openBorrowStatuses() []string {
	return []string{string(domain.BorrowStatusBorrowed), string(domain.BorrowStatusOverdue)}
}
