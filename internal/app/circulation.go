package app

import (
	"fmt"
	"math"
	"time"

	"librarium/pkg/domain"
	"librarium/pkg/store"
)

const (
	minBorrowDays = 1
	maxBorrowDays = 90
)

// BorrowInput carries a borrow request. UserID lets an admin borrow on
// behalf of another user; Days overrides the configured loan period.
type BorrowInput struct {
	BookID uint  `json:"book_id"`
	UserID *uint `json:"user_id"`
	Days   *int  `json:"days"`
}

// Borrow checks out one copy of a book. All checks and mutations run in
// a single transaction; a violated precondition leaves nothing changed.
func (a *App) Borrow(actor Actor, in BorrowInput) (domain.BorrowRecord, error) {
	targetID := actor.ID
	if in.UserID != nil && *in.UserID != actor.ID {
		if !actor.admin() {
			return domain.BorrowRecord{}, forbidden("cannot borrow on behalf of another user")
		}
		targetID = *in.UserID
	}
	var record domain.BorrowRecord
	err := a.store.Transact(func(tx store.Store) error {
		user, ok, err := tx.GetUser(targetID)
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}
		if !ok {
			return notFound("user not found")
		}
		if !user.IsActive {
			return precondition("account is disabled")
		}
		days := settingInt(tx, settingBorrowDays)
		if in.Days != nil {
			days = *in.Days
		}
		if days < minBorrowDays || days > maxBorrowDays {
			return precondition("loan period must be between %d and %d days", minBorrowDays, maxBorrowDays)
		}
		if _, ok, err := tx.GetBook(in.BookID); err != nil {
			return fmt.Errorf("get book: %w", err)
		} else if !ok {
			return notFound("book not found")
		}
		open, err := tx.CountBorrows(&targetID, []domain.BorrowStatus{domain.BorrowStatusBorrowed, domain.BorrowStatusOverdue})
		if err != nil {
			return fmt.Errorf("count open loans: %w", err)
		}
		if open >= int64(user.MaxBorrowCount) {
			return precondition("borrow limit of %d reached", user.MaxBorrowCount)
		}
		unpaid, err := tx.CountUnpaidFines(targetID)
		if err != nil {
			return fmt.Errorf("count unpaid fines: %w", err)
		}
		if unpaid > 0 {
			return precondition("unpaid fines must be settled first")
		}
		if _, dup, err := tx.FindOpenBorrow(targetID, in.BookID); err != nil {
			return fmt.Errorf("check open loan: %w", err)
		} else if dup {
			return conflict("book already on loan to this user")
		}
		taken, err := tx.AdjustAvailable(in.BookID, -1)
		if err != nil {
			return fmt.Errorf("take copy: %w", err)
		}
		if !taken {
			return precondition("no copies available")
		}
		if err := tx.IncrementBorrowCount(in.BookID); err != nil {
			return fmt.Errorf("bump borrow count: %w", err)
		}
		now := a.now()
		record = domain.BorrowRecord{
			UserID:     targetID,
			BookID:     in.BookID,
			BorrowDate: now,
			DueDate:    now.AddDate(0, 0, days),
			Status:     domain.BorrowStatusBorrowed,
			CreatedAt:  now,
		}
		return tx.CreateBorrowRecord(&record)
	})
	if err != nil {
		return domain.BorrowRecord{}, err
	}
	return record, nil
}

// Return checks a copy back in, settles the fine and promotes the next
// reservation in the book's queue.
func (a *App) Return(actor Actor, recordID uint, finePaid bool) (domain.BorrowRecord, error) {
	var record domain.BorrowRecord
	err := a.store.Transact(func(tx store.Store) error {
		var ok bool
		var err error
		record, ok, err = tx.GetBorrowRecord(recordID)
		if err != nil {
			return fmt.Errorf("get record: %w", err)
		}
		if !ok {
			return notFound("borrow record not found")
		}
		if record.UserID != actor.ID && !actor.admin() {
			return forbidden("not your borrow record")
		}
		if record.Status == domain.BorrowStatusReturned {
			return precondition("book already returned")
		}
		now := a.now()
		fine := lateFine(record.DueDate, now, settingFloat(tx, settingDailyFine))
		record.Status = domain.BorrowStatusReturned
		record.ReturnDate = &now
		record.FineAmount = fine
		record.FinePaid = fine == 0 || finePaid
		if err := tx.SaveBorrowRecord(record); err != nil {
			return fmt.Errorf("save record: %w", err)
		}
		returned, err := tx.AdjustAvailable(record.BookID, 1)
		if err != nil {
			return fmt.Errorf("release copy: %w", err)
		}
		if !returned {
			return fmt.Errorf("availability out of sync for book %d", record.BookID)
		}
		return a.promoteNextReservation(tx, record.BookID, now)
	})
	if err != nil {
		return domain.BorrowRecord{}, err
	}
	return record, nil
}

// promoteNextReservation moves the head of the pending queue to
// available with a pickup window, then renumbers the rest. Availability
// is untouched: the copy stays earmarked until the hold is completed.
func (a *App) promoteNextReservation(tx store.Store, bookID uint, now time.Time) error {
	head, ok, err := tx.FirstPendingReservation(bookID)
	if err != nil {
		return fmt.Errorf("queue head: %w", err)
	}
	if !ok {
		return nil
	}
	expire := now.AddDate(0, 0, settingInt(tx, settingReservationExpireDays))
	head.Status = domain.ReservationStatusAvailable
	head.ExpireDate = &expire
	head.QueuePosition = 0
	if err := tx.SaveReservation(head); err != nil {
		return fmt.Errorf("save reservation: %w", err)
	}
	if err := renumberQueue(tx, bookID); err != nil {
		return err
	}
	book, _, err := tx.GetBook(bookID)
	if err != nil {
		return fmt.Errorf("get book: %w", err)
	}
	notification := domain.Notification{
		UserID:    head.UserID,
		Title:     "Reserved book available",
		Content:   fmt.Sprintf("%q is ready for pickup until %s.", book.Name, expire.Format("2006-01-02")),
		Type:      domain.NotificationReservationReady,
		RelatedID: &head.ID,
		CreatedAt: now,
	}
	if err := tx.CreateNotification(&notification); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// Renew extends a loan by the configured renewal period.
func (a *App) Renew(actor Actor, recordID uint) (domain.BorrowRecord, error) {
	var record domain.BorrowRecord
	err := a.store.Transact(func(tx store.Store) error {
		var ok bool
		var err error
		record, ok, err = tx.GetBorrowRecord(recordID)
		if err != nil {
			return fmt.Errorf("get record: %w", err)
		}
		if !ok {
			return notFound("borrow record not found")
		}
		if record.UserID != actor.ID && !actor.admin() {
			return forbidden("not your borrow record")
		}
		if record.Status == domain.BorrowStatusReturned {
			return precondition("book already returned")
		}
		if record.Status == domain.BorrowStatusOverdue {
			return precondition("overdue loan cannot be renewed")
		}
		maxRenew := settingInt(tx, settingMaxRenewCount)
		if record.RenewCount >= maxRenew {
			return precondition("renewal limit of %d reached", maxRenew)
		}
		pending, err := tx.CountPendingReservations(record.BookID)
		if err != nil {
			return fmt.Errorf("count reservations: %w", err)
		}
		if pending > 0 {
			return precondition("book is reserved by another user")
		}
		record.DueDate = record.DueDate.AddDate(0, 0, settingInt(tx, settingRenewDays))
		record.RenewCount++
		return tx.SaveBorrowRecord(record)
	})
	if err != nil {
		return domain.BorrowRecord{}, err
	}
	return record, nil
}

// PayFine marks a record's fine as settled.
func (a *App) PayFine(recordID uint) (domain.BorrowRecord, error) {
	var record domain.BorrowRecord
	err := a.store.Transact(func(tx store.Store) error {
		var ok bool
		var err error
		record, ok, err = tx.GetBorrowRecord(recordID)
		if err != nil {
			return fmt.Errorf("get record: %w", err)
		}
		if !ok {
			return notFound("borrow record not found")
		}
		if record.FineAmount <= 0 {
			return precondition("no fine on this record")
		}
		if record.FinePaid {
			return precondition("fine already paid")
		}
		record.FinePaid = true
		return tx.SaveBorrowRecord(record)
	})
	if err != nil {
		return domain.BorrowRecord{}, err
	}
	return record, nil
}

// GetBorrow fetches one record, visible to its owner or an admin.
func (a *App) GetBorrow(actor Actor, recordID uint) (domain.BorrowRecord, error) {
	record, ok, err := a.store.GetBorrowRecord(recordID)
	if err != nil {
		return domain.BorrowRecord{}, fmt.Errorf("get record: %w", err)
	}
	if !ok {
		return domain.BorrowRecord{}, notFound("borrow record not found")
	}
	if record.UserID != actor.ID && !actor.admin() {
		return domain.BorrowRecord{}, forbidden("not your borrow record")
	}
	return record, nil
}

// ListBorrows returns records matching the filter, decorated with their
// book and user for display.
func (a *App) ListBorrows(f store.BorrowFilter) ([]domain.BorrowRecord, int64, error) {
	records, total, err := a.store.ListBorrowRecords(f)
	if err != nil {
		return nil, 0, fmt.Errorf("list records: %w", err)
	}
	if err := a.decorateBorrows(records); err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (a *App) decorateBorrows(records []domain.BorrowRecord) error {
	bookIDs := make([]uint, 0, len(records))
	userIDs := make([]uint, 0, len(records))
	for _, r := range records {
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
	for i := range records {
		if book, ok := books[records[i].BookID]; ok {
			b := book
			records[i].Book = &b
		}
		if user, ok := users[records[i].UserID]; ok {
			u := user
			records[i].User = &u
		}
	}
	return nil
}

// SweepOverdue flips borrowed records past their due date to overdue,
// assesses the fine and notifies each borrower. Idempotent: records
// already overdue are skipped by the status filter.
func (a *App) SweepOverdue() (int, error) {
	var swept int
	err := a.store.Transact(func(tx store.Store) error {
		now := a.now()
		candidates, err := tx.ListOverdueCandidates(now)
		if err != nil {
			return fmt.Errorf("list candidates: %w", err)
		}
		rate := settingFloat(tx, settingDailyFine)
		for _, record := range candidates {
			record.Status = domain.BorrowStatusOverdue
			record.FineAmount = lateFine(record.DueDate, now, rate)
			if err := tx.SaveBorrowRecord(record); err != nil {
				return fmt.Errorf("save record: %w", err)
			}
			book, _, err := tx.GetBook(record.BookID)
			if err != nil {
				return fmt.Errorf("get book: %w", err)
			}
			notification := domain.Notification{
				UserID:    record.UserID,
				Title:     "Book overdue",
				Content:   fmt.Sprintf("%q was due on %s. Please return it.", book.Name, record.DueDate.Format("2006-01-02")),
				Type:      domain.NotificationOverdue,
				RelatedID: &record.ID,
				CreatedAt: now,
			}
			if err := tx.CreateNotification(&notification); err != nil {
				return fmt.Errorf("create notification: %w", err)
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

// lateFine charges the daily rate per whole day past due, rounded to
// cents. On-time returns owe nothing.
func lateFine(due, now time.Time, dailyRate float64) float64 {
	if !now.After(due) {
		return 0
	}
	daysLate := int(now.Sub(due).Hours() / 24)
	if daysLate <= 0 {
		return 0
	}
	return math.Round(float64(daysLate)*dailyRate*100) / 100
}

// renumberQueue rewrites queue positions 1..N by reservation date over
// the pending set of a book.
func renumberQueue(tx store.Store, bookID uint) error {
	pending, err := tx.ListPendingReservations(bookID)
	if err != nil {
		return fmt.Errorf("list pending: %w", err)
	}
	for i, r := range pending {
		if r.QueuePosition == i+1 {
			continue
		}
		r.QueuePosition = i + 1
		if err := tx.SaveReservation(r); err != nil {
			return fmt.Errorf("save reservation: %w", err)
		}
	}
	return nil
}
