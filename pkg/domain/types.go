package domain

import "time"

// UserRole labels the two authorization tiers.
type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// BorrowStatus tracks the lifecycle of a borrow record.
type BorrowStatus string

const (
	BorrowStatusBorrowed BorrowStatus = "borrowed"
	BorrowStatusReturned BorrowStatus = "returned"
	BorrowStatusOverdue  BorrowStatus = "overdue"
)

// ReservationStatus tracks the lifecycle of a reservation.
type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusAvailable ReservationStatus = "available"
	ReservationStatusCompleted ReservationStatus = "completed"
	ReservationStatusCancelled ReservationStatus = "cancelled"
	ReservationStatusExpired   ReservationStatus = "expired"
)

// NotificationType labels the origin of an inbox entry.
type NotificationType string

const (
	NotificationOverdue          NotificationType = "overdue"
	NotificationReservationReady NotificationType = "reservation_ready"
	NotificationSystem           NotificationType = "system"
)

// User is a library member or administrator.
type User struct {
	ID             uint      `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	FullName       string    `json:"full_name,omitempty"`
	Role           UserRole  `json:"role"`
	IsActive       bool      `json:"is_active"`
	MaxBorrowCount int       `json:"max_borrow_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Book is a catalog entry. AvailableQuantity counts copies neither lent
// nor held for a reservation pickup.
type Book struct {
	ID                uint      `json:"id"`
	Name              string    `json:"name"`
	Author            string    `json:"author,omitempty"`
	BookNumber        string    `json:"book_number"`
	ISBN              string    `json:"isbn,omitempty"`
	CategoryID        *uint     `json:"category_id,omitempty"`
	ShelfLocation     string    `json:"shelf_location,omitempty"`
	PreviewImage      string    `json:"preview_image,omitempty"`
	Quantity          int       `json:"quantity"`
	AvailableQuantity int       `json:"available_quantity"`
	BorrowCount       int       `json:"borrow_count"`
	AvgRating         float64   `json:"avg_rating"`
	ReviewCount       int       `json:"review_count"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Category is a node in the self-referencing category tree.
type Category struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ParentID    *uint     `json:"parent_id,omitempty"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
}

// CategoryNode is a category with its resolved children, for tree responses.
type CategoryNode struct {
	Category
	Children []CategoryNode `json:"children"`
}

// BorrowRecord is one loan of one book to one user.
type BorrowRecord struct {
	ID         uint         `json:"id"`
	UserID     uint         `json:"user_id"`
	BookID     uint         `json:"book_id"`
	BorrowDate time.Time    `json:"borrow_date"`
	DueDate    time.Time    `json:"due_date"`
	ReturnDate *time.Time   `json:"return_date,omitempty"`
	Status     BorrowStatus `json:"status"`
	RenewCount int          `json:"renew_count"`
	FineAmount float64      `json:"fine_amount"`
	FinePaid   bool         `json:"fine_paid"`
	CreatedAt  time.Time    `json:"created_at"`

	Book *Book `json:"book,omitempty"`
	User *User `json:"user,omitempty"`
}

// Reservation is a queued claim on a book with no available copies.
type Reservation struct {
	ID              uint              `json:"id"`
	UserID          uint              `json:"user_id"`
	BookID          uint              `json:"book_id"`
	ReservationDate time.Time         `json:"reservation_date"`
	Status          ReservationStatus `json:"status"`
	QueuePosition   int               `json:"queue_position"`
	ExpireDate      *time.Time        `json:"expire_date,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`

	Book *Book `json:"book,omitempty"`
	User *User `json:"user,omitempty"`
}

// Review is a rating plus optional text, at most one per user and book.
type Review struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	BookID    uint      `json:"book_id"`
	Rating    int       `json:"rating"`
	Content   string    `json:"content,omitempty"`
	IsVisible bool      `json:"is_visible"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Book *Book `json:"book,omitempty"`
	User *User `json:"user,omitempty"`
}

// Favorite marks a book bookmarked by a user.
type Favorite struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	BookID    uint      `json:"book_id"`
	CreatedAt time.Time `json:"created_at"`

	Book *Book `json:"book,omitempty"`
	User *User `json:"user,omitempty"`
}

// Notification is an inbox entry produced by system events or admins.
type Notification struct {
	ID        uint             `json:"id"`
	UserID    uint             `json:"user_id"`
	Title     string           `json:"title"`
	Content   string           `json:"content"`
	Type      NotificationType `json:"notification_type"`
	RelatedID *uint            `json:"related_id,omitempty"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}

// Setting is one tunable key/value parameter.
type Setting struct {
	ID          uint      `json:"id"`
	Key         string    `json:"config_key"`
	Value       string    `json:"config_value"`
	Description string    `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}
