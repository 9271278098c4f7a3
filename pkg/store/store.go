package store

import (
	"time"

	"librarium/pkg/domain"
)

// Page bounds list queries.
type Page struct {
	Offset int
	Limit  int
}

type UserFilter struct {
	Search   string
	Role     string
	IsActive *bool
	Page
}

type BookFilter struct {
	Search        string
	ShelfLocation string
	CategoryID    *uint
	Page
}

type CategoryFilter struct {
	Search   string
	ParentID *uint
	RootOnly bool
	Page
}

type BorrowFilter struct {
	UserID   *uint
	BookID   *uint
	Statuses []domain.BorrowStatus
	Page
}

type ReservationFilter struct {
	UserID       *uint
	BookID       *uint
	Statuses     []domain.ReservationStatus
	OrderByQueue bool
	Page
}

type ReviewFilter struct {
	UserID      *uint
	BookID      *uint
	Rating      *int
	VisibleOnly bool
	Page
}

type FavoriteFilter struct {
	UserID *uint
	BookID *uint
	Page
}

type NotificationFilter struct {
	UserID     *uint
	Type       string
	UnreadOnly bool
	Page
}

// BookRanking is one row of a ranking query.
type BookRanking struct {
	BookID      uint    `json:"book_id"`
	Name        string  `json:"book_name"`
	Author      string  `json:"author,omitempty"`
	BorrowCount int64   `json:"borrow_count"`
	AvgRating   float64 `json:"avg_rating"`
}

// BookFavoriteCount is one row of the popular-by-favorites query.
type BookFavoriteCount struct {
	BookID        uint   `json:"book_id"`
	Name          string `json:"book_name"`
	Author        string `json:"author,omitempty"`
	PreviewImage  string `json:"preview_image,omitempty"`
	FavoriteCount int64  `json:"favorite_count"`
}

// CategoryBookCount is one row of the category distribution query.
type CategoryBookCount struct {
	CategoryID   *uint  `json:"category_id"`
	CategoryName string `json:"category_name"`
	BookCount    int64  `json:"book_count"`
}

// Store is the persistence boundary. Transact runs fn against a
// transaction-scoped Store; any error rolls the whole unit back.
type Store interface {
	Transact(fn func(Store) error) error

	// users
	CreateUser(u *domain.User) error
	GetUser(id uint) (domain.User, bool, error)
	GetUserByUsername(username string) (domain.User, bool, error)
	GetUserByEmail(email string) (domain.User, bool, error)
	FindUserByLogin(login string) (domain.User, bool, error)
	ListUsers(f UserFilter) ([]domain.User, int64, error)
	ListUsersByIDs(ids []uint) (map[uint]domain.User, error)
	ListActiveUserIDs() ([]uint, error)
	SaveUser(u domain.User) error
	DeleteUser(id uint) error
	CountUsers(activeOnly bool) (int64, error)
	HasAdmin() (bool, error)

	// books
	CreateBook(b *domain.Book) error
	GetBook(id uint) (domain.Book, bool, error)
	GetBookByNumber(number string) (domain.Book, bool, error)
	ListBooks(f BookFilter) ([]domain.Book, int64, error)
	ListBooksByIDs(ids []uint) (map[uint]domain.Book, error)
	SaveBook(b domain.Book) error
	DeleteBook(id uint) error
	CountBooks() (int64, error)
	AdjustAvailable(bookID uint, delta int) (bool, error)
	IncrementBorrowCount(bookID uint) error
	SetBookRating(bookID uint, avg float64, count int) error
	CountBooksInCategory(categoryID uint) (int64, error)

	// categories
	CreateCategory(c *domain.Category) error
	GetCategory(id uint) (domain.Category, bool, error)
	GetCategoryByName(name string) (domain.Category, bool, error)
	ListCategories(f CategoryFilter) ([]domain.Category, int64, error)
	ListAllCategories() ([]domain.Category, error)
	ListChildCategories(parentID uint) ([]domain.Category, error)
	CountChildCategories(parentID uint) (int64, error)
	SaveCategory(c domain.Category) error
	DeleteCategory(id uint) error
	CountCategories() (int64, error)

	// circulation
	CreateBorrowRecord(r *domain.BorrowRecord) error
	GetBorrowRecord(id uint) (domain.BorrowRecord, bool, error)
	SaveBorrowRecord(r domain.BorrowRecord) error
	ListBorrowRecords(f BorrowFilter) ([]domain.BorrowRecord, int64, error)
	CountBorrows(userID *uint, statuses []domain.BorrowStatus) (int64, error)
	CountOpenBorrowsForBook(bookID uint) (int64, error)
	CountUnpaidFines(userID uint) (int64, error)
	FindOpenBorrow(userID, bookID uint) (domain.BorrowRecord, bool, error)
	HasBorrowed(userID, bookID uint) (bool, error)
	ListOverdueCandidates(now time.Time) ([]domain.BorrowRecord, error)
	SumFines(userID uint, unpaidOnly bool) (float64, error)
	BorrowRankingSince(since *time.Time, limit int) ([]BookRanking, error)
	RatingRanking(minReviews, limit int) ([]BookRanking, error)

	// reservations
	CreateReservation(r *domain.Reservation) error
	GetReservation(id uint) (domain.Reservation, bool, error)
	SaveReservation(r domain.Reservation) error
	ListReservations(f ReservationFilter) ([]domain.Reservation, int64, error)
	FindOpenReservation(userID, bookID uint) (domain.Reservation, bool, error)
	CountPendingReservations(bookID uint) (int64, error)
	FirstPendingReservation(bookID uint) (domain.Reservation, bool, error)
	ListPendingReservations(bookID uint) ([]domain.Reservation, error)
	ListExpiredAvailable(now time.Time) ([]domain.Reservation, error)
	CountReservations(statuses []domain.ReservationStatus) (int64, error)

	// reviews
	CreateReview(r *domain.Review) error
	GetReview(id uint) (domain.Review, bool, error)
	SaveReview(r domain.Review) error
	DeleteReview(id uint) error
	FindReview(userID, bookID uint) (domain.Review, bool, error)
	ListReviews(f ReviewFilter) ([]domain.Review, int64, error)
	VisibleRatingStats(bookID uint) (avg float64, count int64, err error)

	// favorites
	CreateFavorite(f *domain.Favorite) error
	GetFavorite(id uint) (domain.Favorite, bool, error)
	FindFavorite(userID, bookID uint) (domain.Favorite, bool, error)
	DeleteFavorite(id uint) error
	ListFavorites(f FavoriteFilter) ([]domain.Favorite, int64, error)
	CountFavoritesForBook(bookID uint) (int64, error)
	PopularBooksByFavorites(limit int) ([]BookFavoriteCount, error)

	// notifications
	CreateNotification(n *domain.Notification) error
	GetNotification(id uint) (domain.Notification, bool, error)
	ListNotifications(f NotificationFilter) ([]domain.Notification, int64, error)
	CountUnreadNotifications(userID uint) (int64, error)
	MarkNotificationRead(id uint) error
	MarkAllNotificationsRead(userID uint) (int64, error)
	DeleteNotification(id uint) error
	ClearNotifications(userID uint) (int64, error)

	// settings
	GetSetting(key string) (domain.Setting, bool, error)
	ListSettings() ([]domain.Setting, error)
	SaveSetting(s domain.Setting) error
	DeleteSetting(key string) error

	// reporting
	CategoryBookCounts() ([]CategoryBookCount, error)
}
