package store

import (
	"gorm.io/gorm"

	"librarium/pkg/domain"
)

// CreateNotification inserts a notification and backfills the generated ID.
func (s *GormStore) CreateNotification(n *domain.Notification) error {
	model := notificationToModel(*n)
	if err := s.db.Create(&model).Error; err != nil {
		return err
	}
	n.ID = model.ID
	return nil
}

func (s *GormStore) GetNotification(id uint) (domain.Notification, bool, error) {
	var model NotificationModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Notification{}, false, nil
		}
		return domain.Notification{}, false, err
	}
	return notificationFromModel(model), true, nil
}

func (s *GormStore) ListNotifications(f NotificationFilter) ([]domain.Notification, int64, error) {
	tx := s.db.Model(&NotificationModel{})
	if f.UserID != nil {
		tx = tx.Where("user_id = ?", *f.UserID)
	}
	if f.Type != "" {
		tx = tx.Where("notification_type = ?", f.Type)
	}
	if f.UnreadOnly {
		tx = tx.Where("is_read = ?", false)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var models []NotificationModel
	if err := applyPage(tx.Order("created_at DESC"), f.Page).Find(&models).Error; err != nil {
		return nil, 0, err
	}
	notifications := make([]domain.Notification, 0, len(models))
	for _, m := range models {
		notifications = append(notifications, notificationFromModel(m))
	}
	return notifications, total, nil
}

func (s *GormStore) CountUnreadNotifications(userID uint) (int64, error) {
	var count int64
	err := s.db.Model(&NotificationModel{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (s *GormStore) MarkNotificationRead(id uint) error {
	return s.db.Model(&NotificationModel{}).
		Where("id = ?", id).
		Update("is_read", true).Error
}

// MarkAllNotificationsRead flips every unread notification for the user,
// returning how many rows changed.
func (s *GormStore) MarkAllNotificationsRead(userID uint) (int64, error) {
	res := s.db.Model(&NotificationModel{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (s *GormStore) DeleteNotification(id uint) error {
	return s.db.Delete(&NotificationModel{}, "id = ?", id).Error
}

// ClearNotifications deletes all of the user's notifications.
func (s *GormStore) ClearNotifications(userID uint) (int64, error) {
	res := s.db.Delete(&NotificationModel{}, "user_id = ?", userID)
	return res.RowsAffected, res.Error
}
