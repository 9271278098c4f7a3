package app

import (
	"fmt"

	"librarium/pkg/domain"
	"librarium/pkg/store"
)

// DashboardStats is the library-wide counter snapshot.
type DashboardStats struct {
	TotalUsers          int64 `json:"total_users"`
	ActiveUsers         int64 `json:"active_users"`
	TotalBooks          int64 `json:"total_books"`
	TotalCategories     int64 `json:"total_categories"`
	TotalBorrowRecords  int64 `json:"total_borrow_records"`
	ActiveBorrows       int64 `json:"active_borrows"`
	OverdueBorrows      int64 `json:"overdue_borrows"`
	TotalReservations   int64 `json:"total_reservations"`
	PendingReservations int64 `json:"pending_reservations"`
}

// UserBorrowStats summarizes one member's borrowing history.
type UserBorrowStats struct {
	UserID         uint    `json:"user_id"`
	Username       string  `json:"username"`
	TotalBorrows   int64   `json:"total_borrows"`
	CurrentBorrows int64   `json:"current_borrows"`
	OverdueCount   int64   `json:"overdue_count"`
	TotalFines     float64 `json:"total_fines"`
	UnpaidFines    float64 `json:"unpaid_fines"`
	MaxBorrowCount int     `json:"max_borrow_count"`
}

// Dashboard collects the library-wide counters.
func (a *App) Dashboard() (DashboardStats, error) {
	var stats DashboardStats
	var err error
	if stats.TotalUsers, err = a.store.CountUsers(false); err != nil {
		return stats, fmt.Errorf("count users: %w", err)
	}
	if stats.ActiveUsers, err = a.store.CountUsers(true); err != nil {
		return stats, fmt.Errorf("count active users: %w", err)
	}
	if stats.TotalBooks, err = a.store.CountBooks(); err != nil {
		return stats, fmt.Errorf("count books: %w", err)
	}
	if stats.TotalCategories, err = a.store.CountCategories(); err != nil {
		return stats, fmt.Errorf("count categories: %w", err)
	}
	if stats.TotalBorrowRecords, err = a.store.CountBorrows(nil, nil); err != nil {
		return stats, fmt.Errorf("count records: %w", err)
	}
	open := []domain.BorrowStatus{domain.BorrowStatusBorrowed, domain.BorrowStatusOverdue}
	if stats.ActiveBorrows, err = a.store.CountBorrows(nil, open); err != nil {
		return stats, fmt.Errorf("count active borrows: %w", err)
	}
	overdue := []domain.BorrowStatus{domain.BorrowStatusOverdue}
	if stats.OverdueBorrows, err = a.store.CountBorrows(nil, overdue); err != nil {
		return stats, fmt.Errorf("count overdue: %w", err)
	}
	if stats.TotalReservations, err = a.store.CountReservations(nil); err != nil {
		return stats, fmt.Errorf("count reservations: %w", err)
	}
	pending := []domain.ReservationStatus{domain.ReservationStatusPending}
	if stats.PendingReservations, err = a.store.CountReservations(pending); err != nil {
		return stats, fmt.Errorf("count pending reservations: %w", err)
	}
	return stats, nil
}

// BorrowRanking lists the most borrowed books, all-time or within the
// last N days.
func (a *App) BorrowRanking(days *int, limit int) ([]store.BookRanking, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	if days == nil || *days <= 0 {
		rows, err := a.store.BorrowRankingSince(nil, limit)
		if err != nil {
			return nil, fmt.Errorf("borrow ranking: %w", err)
		}
		return rows, nil
	}
	since := a.now().AddDate(0, 0, -*days)
	rows, err := a.store.BorrowRankingSince(&since, limit)
	if err != nil {
		return nil, fmt.Errorf("borrow ranking: %w", err)
	}
	return rows, nil
}

// RatingRanking lists the best rated books with at least minReviews
// visible reviews.
func (a *App) RatingRanking(minReviews, limit int) ([]store.BookRanking, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	if minReviews < 1 {
		minReviews = 1
	}
	rows, err := a.store.RatingRanking(minReviews, limit)
	if err != nil {
		return nil, fmt.Errorf("rating ranking: %w", err)
	}
	return rows, nil
}

// BorrowStatsFor reports one user's borrowing summary. Non-admins only
// see their own.
func (a *App) BorrowStatsFor(actor Actor, userID *uint) (UserBorrowStats, error) {
	targetID := actor.ID
	if userID != nil && actor.admin() {
		targetID = *userID
	}
	user, ok, err := a.store.GetUser(targetID)
	if err != nil {
		return UserBorrowStats{}, fmt.Errorf("get user: %w", err)
	}
	if !ok {
		return UserBorrowStats{}, notFound("user not found")
	}
	stats := UserBorrowStats{
		UserID:         user.ID,
		Username:       user.Username,
		MaxBorrowCount: user.MaxBorrowCount,
	}
	if stats.TotalBorrows, err = a.store.CountBorrows(&targetID, nil); err != nil {
		return stats, fmt.Errorf("count borrows: %w", err)
	}
	open := []domain.BorrowStatus{domain.BorrowStatusBorrowed, domain.BorrowStatusOverdue}
	if stats.CurrentBorrows, err = a.store.CountBorrows(&targetID, open); err != nil {
		return stats, fmt.Errorf("count current: %w", err)
	}
	overdue := []domain.BorrowStatus{domain.BorrowStatusOverdue}
	if stats.OverdueCount, err = a.store.CountBorrows(&targetID, overdue); err != nil {
		return stats, fmt.Errorf("count overdue: %w", err)
	}
	if stats.TotalFines, err = a.store.SumFines(targetID, false); err != nil {
		return stats, fmt.Errorf("sum fines: %w", err)
	}
	if stats.UnpaidFines, err = a.store.SumFines(targetID, true); err != nil {
		return stats, fmt.Errorf("sum unpaid fines: %w", err)
	}
	return stats, nil
}

// CategoryDistribution reports how many books each category holds.
func (a *App) CategoryDistribution() ([]store.CategoryBookCount, error) {
	rows, err := a.store.CategoryBookCounts()
	if err != nil {
		return nil, fmt.Errorf("category distribution: %w", err)
	}
	for i := range rows {
		if rows[i].CategoryID == nil {
			rows[i].CategoryName = "Uncategorized"
		}
	}
	return rows, nil
}
