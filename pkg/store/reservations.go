package store

import (
	"time"

	"gorm.io/gorm"

	"librarium/pkg/domain"
)

// CreateReservation inserts a reservation and backfills the generated ID.
func (s *GormStore) CreateReservation(r *domain.Reservation) error {
	model := reservationToModel(*r)
	if err := s.db.Create(&model).Error; err != nil {
		return err
	}
	r.ID = model.ID
	return nil
}

func (s *GormStore) GetReservation(id uint) (domain.Reservation, bool, error) {
	var model ReservationModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Reservation{}, false, nil
		}
		return domain.Reservation{}, false, err
	}
	return reservationFromModel(model), true, nil
}

func (s *GormStore) SaveReservation(r domain.Reservation) error {
	model := reservationToModel(r)
	return s.db.Save(&model).Error
}

func (s *GormStore) ListReservations(f ReservationFilter) ([]domain.Reservation, int64, error) {
	tx := s.db.Model(&ReservationModel{})
	if f.UserID != nil {
		tx = tx.Where("user_id = ?", *f.UserID)
	}
	if f.BookID != nil {
		tx = tx.Where("book_id = ?", *f.BookID)
	}
	if len(f.Statuses) > 0 {
		tx = tx.Where("status IN ?", reservationStatusStrings(f.Statuses))
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	order := "created_at DESC"
	if f.OrderByQueue {
		order = "queue_position ASC, reservation_date ASC"
	}
	var models []ReservationModel
	if err := applyPage(tx.Order(order), f.Page).Find(&models).Error; err != nil {
		return nil, 0, err
	}
	reservations := make([]domain.Reservation, 0, len(models))
	for _, m := range models {
		reservations = append(reservations, reservationFromModel(m))
	}
	return reservations, total, nil
}

// FindOpenReservation returns the user's pending or available hold on a book.
func (s *GormStore) FindOpenReservation(userID, bookID uint) (domain.Reservation, bool, error) {
	var model ReservationModel
	err := s.db.Where("user_id = ? AND book_id = ? AND status IN ?", userID, bookID, openReservationStatuses()).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Reservation{}, false, nil
		}
		return domain.Reservation{}, false, err
	}
	return reservationFromModel(model), true, nil
}

func (s *GormStore) CountPendingReservations(bookID uint) (int64, error) {
	var count int64
	err := s.db.Model(&ReservationModel{}).
		Where("book_id = ? AND status = ?", bookID, string(domain.ReservationStatusPending)).
		Count(&count).Error
	return count, err
}

// FirstPendingReservation returns the head of the book's queue.
func (s *GormStore) FirstPendingReservation(bookID uint) (domain.Reservation, bool, error) {
	var model ReservationModel
	err := s.db.Where("book_id = ? AND status = ?", bookID, string(domain.ReservationStatusPending)).
		Order("reservation_date ASC, id ASC").
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Reservation{}, false, nil
		}
		return domain.Reservation{}, false, err
	}
	return reservationFromModel(model), true, nil
}

// ListPendingReservations returns the book's pending holds in queue order,
// used to renumber positions after the queue changes.
func (s *GormStore) ListPendingReservations(bookID uint) ([]domain.Reservation, error) {
	var models []ReservationModel
	err := s.db.Where("book_id = ? AND status = ?", bookID, string(domain.ReservationStatusPending)).
		Order("reservation_date ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	reservations := make([]domain.Reservation, 0, len(models))
	for _, m := range models {
		reservations = append(reservations, reservationFromModel(m))
	}
	return reservations, nil
}

// ListExpiredAvailable returns available holds whose pickup window has passed.
func (s *GormStore) ListExpiredAvailable(now time.Time) ([]domain.Reservation, error) {
	var models []ReservationModel
	err := s.db.Where("status = ? AND expire_date IS NOT NULL AND expire_date < ?",
		string(domain.ReservationStatusAvailable), now).
		Order("expire_date ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	reservations := make([]domain.Reservation, 0, len(models))
	for _, m := range models {
		reservations = append(reservations, reservationFromModel(m))
	}
	return reservations, nil
}

func (s *GormStore) CountReservations(statuses []domain.ReservationStatus) (int64, error) {
	tx := s.db.Model(&ReservationModel{})
	if len(statuses) > 0 {
		tx = tx.Where("status IN ?", reservationStatusStrings(statuses))
	}
	var count int64
	err := tx.Count(&count).Error
	return count, err
}

func reservationStatusStrings(statuses []domain.ReservationStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, string(st))
	}
	return out
}

func openReservationStatuses() []string {
	return []string{string(domain.ReservationStatusPending), string(domain.ReservationStatusAvailable)}
}
