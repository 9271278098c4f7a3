package store

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"librarium/pkg/domain"
)

// GormStore implements Store using GORM.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens a Postgres database and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	return open(postgres.Open(dsn))
}

// NewSQLiteStore opens a SQLite database, used by tests and local runs.
func NewSQLiteStore(path string) (*GormStore, error) {
	return open(sqlite.Open(path))
}

func open(dialector gorm.Dialector) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(
		&UserModel{},
		&BookModel{},
		&CategoryModel{},
		&BorrowRecordModel{},
		&ReservationModel{},
		&ReviewModel{},
		&FavoriteModel{},
		&NotificationModel{},
		&SettingModel{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Transact runs fn inside one database transaction. The Store handed to fn
// is scoped to that transaction; returning an error rolls everything back.
func (s *GormStore) Transact(fn func(Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func applyPage(tx *gorm.DB, p Page) *gorm.DB {
	if p.Offset > 0 {
		tx = tx.Offset(p.Offset)
	}
	if p.Limit > 0 {
		tx = tx.Limit(p.Limit)
	}
	return tx
}

// model <-> domain converters

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		PasswordHash:   u.PasswordHash,
		FullName:       u.FullName,
		Role:           string(u.Role),
		IsActive:       u.IsActive,
		MaxBorrowCount: u.MaxBorrowCount,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:             m.ID,
		Username:       m.Username,
		Email:          m.Email,
		PasswordHash:   m.PasswordHash,
		FullName:       m.FullName,
		Role:           domain.UserRole(m.Role),
		IsActive:       m.IsActive,
		MaxBorrowCount: m.MaxBorrowCount,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func bookToModel(b domain.Book) BookModel {
	return BookModel{
		ID:                b.ID,
		Name:              b.Name,
		Author:            b.Author,
		BookNumber:        b.BookNumber,
		ISBN:              b.ISBN,
		CategoryID:        b.CategoryID,
		ShelfLocation:     b.ShelfLocation,
		PreviewImage:      b.PreviewImage,
		Quantity:          b.Quantity,
		AvailableQuantity: b.AvailableQuantity,
		BorrowCount:       b.BorrowCount,
		AvgRating:         b.AvgRating,
		ReviewCount:       b.ReviewCount,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}
}

func bookFromModel(m BookModel) domain.Book {
	return domain.Book{
		ID:                m.ID,
		Name:              m.Name,
		Author:            m.Author,
		BookNumber:        m.BookNumber,
		ISBN:              m.ISBN,
		CategoryID:        m.CategoryID,
		ShelfLocation:     m.ShelfLocation,
		PreviewImage:      m.PreviewImage,
		Quantity:          m.Quantity,
		AvailableQuantity: m.AvailableQuantity,
		BorrowCount:       m.BorrowCount,
		AvgRating:         m.AvgRating,
		ReviewCount:       m.ReviewCount,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func categoryToModel(c domain.Category) CategoryModel {
	return CategoryModel{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		ParentID:    c.ParentID,
		SortOrder:   c.SortOrder,
		CreatedAt:   c.CreatedAt,
	}
}

func categoryFromModel(m CategoryModel) domain.Category {
	return domain.Category{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		ParentID:    m.ParentID,
		SortOrder:   m.SortOrder,
		CreatedAt:   m.CreatedAt,
	}
}

func borrowToModel(r domain.BorrowRecord) BorrowRecordModel {
	return BorrowRecordModel{
		ID:         r.ID,
		UserID:     r.UserID,
		BookID:     r.BookID,
		BorrowDate: r.BorrowDate,
		DueDate:    r.DueDate,
		ReturnDate: r.ReturnDate,
		Status:     string(r.Status),
		RenewCount: r.RenewCount,
		FineAmount: r.FineAmount,
		FinePaid:   r.FinePaid,
		CreatedAt:  r.CreatedAt,
	}
}

func borrowFromModel(m BorrowRecordModel) domain.BorrowRecord {
	return domain.BorrowRecord{
		ID:         m.ID,
		UserID:     m.UserID,
		BookID:     m.BookID,
		BorrowDate: m.BorrowDate,
		DueDate:    m.DueDate,
		ReturnDate: m.ReturnDate,
		Status:     domain.BorrowStatus(m.Status),
		RenewCount: m.RenewCount,
		FineAmount: m.FineAmount,
		FinePaid:   m.FinePaid,
		CreatedAt:  m.CreatedAt,
	}
}

func reservationToModel(r domain.Reservation) ReservationModel {
	return ReservationModel{
		ID:              r.ID,
		UserID:          r.UserID,
		BookID:          r.BookID,
		ReservationDate: r.ReservationDate,
		Status:          string(r.Status),
		QueuePosition:   r.QueuePosition,
		ExpireDate:      r.ExpireDate,
		CreatedAt:       r.CreatedAt,
	}
}

func reservationFromModel(m ReservationModel) domain.Reservation {
	return domain.Reservation{
		ID:              m.ID,
		UserID:          m.UserID,
		BookID:          m.BookID,
		ReservationDate: m.ReservationDate,
		Status:          domain.ReservationStatus(m.Status),
		QueuePosition:   m.QueuePosition,
		ExpireDate:      m.ExpireDate,
		CreatedAt:       m.CreatedAt,
	}
}

func reviewToModel(r domain.Review) ReviewModel {
	return ReviewModel{
		ID:        r.ID,
		UserID:    r.UserID,
		BookID:    r.BookID,
		Rating:    r.Rating,
		Content:   r.Content,
		IsVisible: r.IsVisible,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func reviewFromModel(m ReviewModel) domain.Review {
	return domain.Review{
		ID:        m.ID,
		UserID:    m.UserID,
		BookID:    m.BookID,
		Rating:    m.Rating,
		Content:   m.Content,
		IsVisible: m.IsVisible,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func favoriteFromModel(m FavoriteModel) domain.Favorite {
	return domain.Favorite{
		ID:        m.ID,
		UserID:    m.UserID,
		BookID:    m.BookID,
		CreatedAt: m.CreatedAt,
	}
}

func notificationToModel(n domain.Notification) NotificationModel {
	return NotificationModel{
		ID:        n.ID,
		UserID:    n.UserID,
		Title:     n.Title,
		Content:   n.Content,
		Type:      string(n.Type),
		RelatedID: n.RelatedID,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

func notificationFromModel(m NotificationModel) domain.Notification {
	return domain.Notification{
		ID:        m.ID,
		UserID:    m.UserID,
		Title:     m.Title,
		Content:   m.Content,
		Type:      domain.NotificationType(m.Type),
		RelatedID: m.RelatedID,
		IsRead:    m.IsRead,
		CreatedAt: m.CreatedAt,
	}
}

func settingToModel(s domain.Setting) SettingModel {
	return SettingModel{
		ID:          s.ID,
		Key:         s.Key,
		Value:       s.Value,
		Description: s.Description,
		UpdatedAt:   s.UpdatedAt,
	}
}

func settingFromModel(m SettingModel) domain.Setting {
	return domain.Setting{
		ID:          m.ID,
		Key:         m.Key,
		Value:       m.Value,
		Description: m.Description,
		UpdatedAt:   m.UpdatedAt,
	}
}
