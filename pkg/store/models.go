package store

import "time"

// GORM models used for persistence.
type UserModel struct {
	ID             uint   `gorm:"primaryKey"`
	Username       string `gorm:"uniqueIndex;not null;size:50"`
	Email          string `gorm:"uniqueIndex;not null"`
	PasswordHash   string `gorm:"not null"`
	FullName       string
	Role           string    `gorm:"not null;default:user"`
	IsActive       bool      `gorm:"not null;default:true"`
	MaxBorrowCount int       `gorm:"not null;default:5"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time
}

func (UserModel) TableName() string { return "users" }

type BookModel struct {
	ID                uint   `gorm:"primaryKey"`
	Name              string `gorm:"not null;index"`
	Author            string
	BookNumber        string `gorm:"uniqueIndex;not null"`
	ISBN              string
	CategoryID        *uint `gorm:"index"`
	ShelfLocation     string
	PreviewImage      string
	Quantity          int       `gorm:"not null"`
	AvailableQuantity int       `gorm:"not null"`
	BorrowCount       int       `gorm:"not null;default:0"`
	AvgRating         float64   `gorm:"not null;default:0"`
	ReviewCount       int       `gorm:"not null;default:0"`
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time
}

func (BookModel) TableName() string { return "books" }

type CategoryModel struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"uniqueIndex;not null"`
	Description string
	ParentID    *uint `gorm:"index"`
	SortOrder   int   `gorm:"not null;default:0"`
	CreatedAt   time.Time
}

func (CategoryModel) TableName() string { return "categories" }

type BorrowRecordModel struct {
	ID         uint      `gorm:"primaryKey"`
	UserID     uint      `gorm:"not null;index"`
	BookID     uint      `gorm:"not null;index"`
	BorrowDate time.Time `gorm:"not null"`
	DueDate    time.Time `gorm:"not null;index"`
	ReturnDate *time.Time
	Status     string    `gorm:"not null;index"`
	RenewCount int       `gorm:"not null;default:0"`
	FineAmount float64   `gorm:"not null;default:0"`
	FinePaid   bool      `gorm:"not null;default:false"`
	CreatedAt  time.Time `gorm:"not null"`
}

func (BorrowRecordModel) TableName() string { return "borrow_records" }

type ReservationModel struct {
	ID              uint      `gorm:"primaryKey"`
	UserID          uint      `gorm:"not null;index"`
	BookID          uint      `gorm:"not null;index"`
	ReservationDate time.Time `gorm:"not null"`
	Status          string    `gorm:"not null;index"`
	QueuePosition   int       `gorm:"not null;default:0"`
	ExpireDate      *time.Time
	CreatedAt       time.Time `gorm:"not null"`
}

func (ReservationModel) TableName() string { return "reservations" }

type ReviewModel struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"not null;uniqueIndex:idx_reviews_user_book"`
	BookID    uint `gorm:"not null;uniqueIndex:idx_reviews_user_book"`
	Rating    int  `gorm:"not null"`
	Content   string
	IsVisible bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time
}

func (ReviewModel) TableName() string { return "book_reviews" }

type FavoriteModel struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_favorites_user_book"`
	BookID    uint      `gorm:"not null;uniqueIndex:idx_favorites_user_book"`
	CreatedAt time.Time `gorm:"not null"`
}

func (FavoriteModel) TableName() string { return "favorites" }

type NotificationModel struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"not null;index"`
	Title     string `gorm:"not null"`
	Content   string `gorm:"not null"`
	Type      string `gorm:"column:notification_type;not null"`
	RelatedID *uint
	IsRead    bool      `gorm:"not null;default:false;index"`
	CreatedAt time.Time `gorm:"not null"`
}

func (NotificationModel) TableName() string { return "notifications" }

type SettingModel struct {
	ID          uint   `gorm:"primaryKey"`
	Key         string `gorm:"column:config_key;uniqueIndex;not null"`
	Value       string `gorm:"column:config_value;not null"`
	Description string
	UpdatedAt   time.Time
}

func (SettingModel) TableName() string { return "system_configs" }
