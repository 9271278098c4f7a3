package app

import (
	"fmt"
	"strings"

	"librarium/pkg/domain"
	"librarium/pkg/store"
)

// ListNotifications returns notifications matching the filter.
func (a *App) ListNotifications(f store.NotificationFilter) ([]domain.Notification, int64, error) {
	notifications, total, err := a.store.ListNotifications(f)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, total, nil
}

// UnreadCount returns how many unread notifications a user has.
func (a *App) UnreadCount(userID uint) (int64, error) {
	count, err := a.store.CountUnreadNotifications(userID)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}

// MarkNotificationRead marks one of the caller's notifications as read.
func (a *App) MarkNotificationRead(actor Actor, id uint) error {
	notification, ok, err := a.store.GetNotification(id)
	if err != nil {
		return fmt.Errorf("get notification: %w", err)
	}
	if !ok {
		return notFound("notification not found")
	}
	if notification.UserID != actor.ID && !actor.admin() {
		return forbidden("not your notification")
	}
	if err := a.store.MarkNotificationRead(id); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

// MarkAllNotificationsRead marks every unread notification of the user,
// returning how many changed.
func (a *App) MarkAllNotificationsRead(userID uint) (int64, error) {
	updated, err := a.store.MarkAllNotificationsRead(userID)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return updated, nil
}

// DeleteNotification removes one of the caller's notifications; admins
// may remove any.
func (a *App) DeleteNotification(actor Actor, id uint) error {
	notification, ok, err := a.store.GetNotification(id)
	if err != nil {
		return fmt.Errorf("get notification: %w", err)
	}
	if !ok {
		return notFound("notification not found")
	}
	if notification.UserID != actor.ID && !actor.admin() {
		return forbidden("not your notification")
	}
	if err := a.store.DeleteNotification(id); err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	return nil
}

// ClearNotifications deletes all of the user's notifications.
func (a *App) ClearNotifications(userID uint) (int64, error) {
	removed, err := a.store.ClearNotifications(userID)
	if err != nil {
		return 0, fmt.Errorf("clear notifications: %w", err)
	}
	return removed, nil
}

// SendNotification delivers an admin message to one user.
func (a *App) SendNotification(userID uint, title, content string) (domain.Notification, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Notification{}, precondition("notification title required")
	}
	if _, ok, err := a.store.GetUser(userID); err != nil {
		return domain.Notification{}, fmt.Errorf("get user: %w", err)
	} else if !ok {
		return domain.Notification{}, notFound("user not found")
	}
	notification := domain.Notification{
		UserID:    userID,
		Title:     title,
		Content:   content,
		Type:      domain.NotificationSystem,
		CreatedAt: a.now(),
	}
	if err := a.store.CreateNotification(&notification); err != nil {
		return domain.Notification{}, fmt.Errorf("create notification: %w", err)
	}
	return notification, nil
}

// BroadcastNotification delivers an admin message to every active user,
// returning how many were sent.
func (a *App) BroadcastNotification(title, content string) (int, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, precondition("notification title required")
	}
	var sent int
	err := a.store.Transact(func(tx store.Store) error {
		ids, err := tx.ListActiveUserIDs()
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}
		now := a.now()
		for _, id := range ids {
			notification := domain.Notification{
				UserID:    id,
				Title:     title,
				Content:   content,
				Type:      domain.NotificationSystem,
				CreatedAt: now,
			}
			if err := tx.CreateNotification(&notification); err != nil {
				return fmt.Errorf("create notification: %w", err)
			}
			sent++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return sent, nil
}
