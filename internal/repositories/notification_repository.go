package repositories

import (
	"errors"
	"time"

	"charityops_backend/internal/models"

	"gorm.io/gorm"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationRepository interface {
	Create(notification *models.Notification) error
	FindByID(id string) (*models.Notification, error)

	// FindByRecipient returns all of a recipient's notifications,
	// most-recent-first.
	FindByRecipient(recipientID string) ([]models.Notification, error)
	CountUnread(recipientID string) (int64, error)

	// MarkAsRead flips the read flag on one notification. Idempotent:
	// an already-read notification is returned unchanged. Returns
	// ErrNotificationNotFound when the id does not exist.
	MarkAsRead(notificationID string) (*models.Notification, error)

	// MarkAllAsRead transitions every unread notification owned by the
	// recipient and returns the number of rows changed.
	MarkAllAsRead(recipientID string) (int64, error)
}

type NotificationRepositoryImpl struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &NotificationRepositoryImpl{db: db}
}

func (r *NotificationRepositoryImpl) Create(notification *models.Notification) error {
	if notification.RecipientID == "" {
		return errors.New("recipient ID is required")
	}
	if notification.Type == "" {
		return errors.New("notification type is required")
	}
	return r.db.Create(notification).Error
}

func (r *NotificationRepositoryImpl) FindByID(id string) (*models.Notification, error) {
	var notification models.Notification
	err := r.db.First(&notification, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return &notification, nil
}

func (r *NotificationRepositoryImpl) FindByRecipient(recipientID string) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Find(&notifications).Error
	return notifications, err
}

func (r *NotificationRepositoryImpl) CountUnread(recipientID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

func (r *NotificationRepositoryImpl) MarkAsRead(notificationID string) (*models.Notification, error) {
	notification, err := r.FindByID(notificationID)
	if err != nil {
		return nil, err
	}

	if notification.IsRead {
		return notification, nil
	}

	now := time.Now()
	// The is_read guard keeps the transition monotonic: false->true is the
	// only update that can ever match, so concurrent calls cannot race.
	result := r.db.Model(&models.Notification{}).
		Where("id = ? AND is_read = ?", notificationID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": now,
		})
	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		// A concurrent caller won the transition between the fetch and
		// the update; re-read so the returned row carries its ReadAt.
		return r.FindByID(notificationID)
	}

	notification.IsRead = true
	notification.ReadAt = &now
	return notification, nil
}

func (r *NotificationRepositoryImpl) MarkAllAsRead(recipientID string) (int64, error) {
	result := r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
