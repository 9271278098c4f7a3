package app

import (
	"fmt"

	"librarium/pkg/domain"
	"librarium/pkg/store"
)

// Reserve queues the caller for a book that has no copies available.
func (a *App) Reserve(actor Actor, bookID uint) (domain.Reservation, error) {
	var reservation domain.Reservation
	err := a.store.Transact(func(tx store.Store) error {
		user, ok, err := tx.GetUser(actor.ID)
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}
		if !ok {
			return notFound("user not found")
		}
		if !user.IsActive {
			return precondition("account is disabled")
		}
		book, ok, err := tx.GetBook(bookID)
		if err != nil {
			return fmt.Errorf("get book: %w", err)
		}
		if !ok {
			return notFound("book not found")
		}
		if book.AvailableQuantity > 0 {
			return precondition("copies are available, borrow directly")
		}
		if _, open, err := tx.FindOpenReservation(actor.ID, bookID); err != nil {
			return fmt.Errorf("check reservation: %w", err)
		} else if open {
			return conflict("book already reserved by this user")
		}
		if _, borrowed, err := tx.FindOpenBorrow(actor.ID, bookID); err != nil {
			return fmt.Errorf("check open loan: %w", err)
		} else if borrowed {
			return conflict("book already on loan to this user")
		}
		pending, err := tx.CountPendingReservations(bookID)
		if err != nil {
			return fmt.Errorf("count pending: %w", err)
		}
		now := a.now()
		reservation = domain.Reservation{
			UserID:          actor.ID,
			BookID:          bookID,
			ReservationDate: now,
			Status:          domain.ReservationStatusPending,
			QueuePosition:   int(pending) + 1,
			CreatedAt:       now,
		}
		return tx.CreateReservation(&reservation)
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return reservation, nil
}

// CancelReservation withdraws a pending or available hold. Cancelling
// an available hold frees the copy for the next person in line, so the
// queue head is promoted.
func (a *App) CancelReservation(actor Actor, id uint) (domain.Reservation, error) {
	var reservation domain.Reservation
	err := a.store.Transact(func(tx store.Store) error {
		var ok bool
		var err error
		reservation, ok, err = tx.GetReservation(id)
		if err != nil {
			return fmt.Errorf("get reservation: %w", err)
		}
		if !ok {
			return notFound("reservation not found")
		}
		if reservation.UserID != actor.ID && !actor.admin() {
			return forbidden("not your reservation")
		}
		wasAvailable := reservation.Status == domain.ReservationStatusAvailable
		if reservation.Status != domain.ReservationStatusPending && !wasAvailable {
			return precondition("only pending or available reservations can be cancelled")
		}
		reservation.Status = domain.ReservationStatusCancelled
		reservation.QueuePosition = 0
		if err := tx.SaveReservation(reservation); err != nil {
			return fmt.Errorf("save reservation: %w", err)
		}
		if err := renumberQueue(tx, reservation.BookID); err != nil {
			return err
		}
		if wasAvailable {
			return a.promoteNextReservation(tx, reservation.BookID, a.now())
		}
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return reservation, nil
}

// CompleteReservation turns an available hold into a loan. The copy was
// counted back into availability at promotion, so the guarded decrement
// here spends it exactly once.
func (a *App) CompleteReservation(actor Actor, id uint) (domain.BorrowRecord, error) {
	var record domain.BorrowRecord
	err := a.store.Transact(func(tx store.Store) error {
		reservation, ok, err := tx.GetReservation(id)
		if err != nil {
			return fmt.Errorf("get reservation: %w", err)
		}
		if !ok {
			return notFound("reservation not found")
		}
		if reservation.UserID != actor.ID && !actor.admin() {
			return forbidden("not your reservation")
		}
		if reservation.Status != domain.ReservationStatusAvailable {
			return precondition("reservation is not ready for pickup")
		}
		now := a.now()
		if reservation.ExpireDate != nil && reservation.ExpireDate.Before(now) {
			return precondition("reservation pickup window has expired")
		}
		taken, err := tx.AdjustAvailable(reservation.BookID, -1)
		if err != nil {
			return fmt.Errorf("take copy: %w", err)
		}
		if !taken {
			return conflict("no copies available")
		}
		if err := tx.IncrementBorrowCount(reservation.BookID); err != nil {
			return fmt.Errorf("bump borrow count: %w", err)
		}
		record = domain.BorrowRecord{
			UserID:     reservation.UserID,
			BookID:     reservation.BookID,
			BorrowDate: now,
			DueDate:    now.AddDate(0, 0, settingInt(tx, settingBorrowDays)),
			Status:     domain.BorrowStatusBorrowed,
			CreatedAt:  now,
		}
		if err := tx.CreateBorrowRecord(&record); err != nil {
			return fmt.Errorf("create record: %w", err)
		}
		reservation.Status = domain.ReservationStatusCompleted
		return tx.SaveReservation(reservation)
	})
	if err != nil {
		return domain.BorrowRecord{}, err
	}
	return record, nil
}

// GetReservation fetches one reservation, visible to its owner or an admin.
func (a *App) GetReservation(actor Actor, id uint) (domain.Reservation, error) {
	reservation, ok, err := a.store.GetReservation(id)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("get reservation: %w", err)
	}
	if !ok {
		return domain.Reservation{}, notFound("reservation not found")
	}
	if reservation.UserID != actor.ID && !actor.admin() {
		return domain.Reservation{}, forbidden("not your reservation")
	}
	return reservation, nil
}

// ListReservations returns reservations matching the filter, decorated
// with their book and user.
func (a *App) ListReservations(f store.ReservationFilter) ([]domain.Reservation, int64, error) {
	reservations, total, err := a.store.ListReservations(f)
	if err != nil {
		return nil, 0, fmt.Errorf("list reservations: %w", err)
	}
	if err := a.decorateReservations(reservations); err != nil {
		return nil, 0, err
	}
	return reservations, total, nil
}

// BookQueue returns a book's pending holds in queue order.
func (a *App) BookQueue(bookID uint) ([]domain.Reservation, error) {
	if _, err := a.GetBook(bookID); err != nil {
		return nil, err
	}
	pending, err := a.store.ListPendingReservations(bookID)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	if err := a.decorateReservations(pending); err != nil {
		return nil, err
	}
	return pending, nil
}

func (a *App) decorateReservations(reservations []domain.Reservation) error {
	bookIDs := make([]uint, 0, len(reservations))
	userIDs := make([]uint, 0, len(reservations))
	for _, r := range reservations {
		bookIDs = append(bookIDs, r.BookID)
		userIDs = append(userIDs, r.UserID)
	}
	books, err := a.store.ListBooksByIDs(bookIDs)
	if err != nil {
		return fmt.Errorf("load books: %w", err)
	}
	users, err := a.store.ListUsersByIDs(userIDs)
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}
	for i := range reservations {
		if book, ok := books[reservations[i].BookID]; ok {
			b := book
			reservations[i].Book = &b
		}
		if user, ok := users[reservations[i].UserID]; ok {
			u := user
			reservations[i].User = &u
		}
	}
	return nil
}

// SweepExpiredReservations expires available holds whose pickup window
// has passed, notifies each holder and hands the copy to the next
// pending reservation.
func (a *App) SweepExpiredReservations() (int, error) {
	var swept int
	err := a.store.Transact(func(tx store.Store) error {
		now := a.now()
		expired, err := tx.ListExpiredAvailable(now)
		if err != nil {
			return fmt.Errorf("list expired: %w", err)
		}
		for _, reservation := range expired {
			reservation.Status = domain.ReservationStatusExpired
			if err := tx.SaveReservation(reservation); err != nil {
				return fmt.Errorf("save reservation: %w", err)
			}
			book, _, err := tx.GetBook(reservation.BookID)
			if err != nil {
				return fmt.Errorf("get book: %w", err)
			}
			notification := domain.Notification{
				UserID:    reservation.UserID,
				Title:     "Reservation expired",
				Content:   fmt.Sprintf("The pickup window for %q has passed.", book.Name),
				Type:      domain.NotificationSystem,
				RelatedID: &reservation.ID,
				CreatedAt: now,
			}
			if err := tx.CreateNotification(&notification); err != nil {
				return fmt.Errorf("create notification: %w", err)
			}
			if err := a.promoteNextReservation(tx, reservation.BookID, now); err != nil {
				return err
			}
			swept++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return swept, nil
}
