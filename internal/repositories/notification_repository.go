package repositories

import (
	"time"

	"github.com/feathr-social/backend/internal/models"
	"gorm.io/gorm"
)

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	CreateNotification(notification *models.Notification) error
	ListByAccount(accountID uint, before time.Time, limit int) ([]models.Notification, error)
	DeleteMatching(accountID uint, postID *uint, action string, actionAccountID uint) (deletedIDs []uint, err error)
	GetUnreadCount(accountID uint) (int64, error)
	MarkAsRead(notificationID, accountID uint) error
	MarkAllAsRead(accountID uint) error
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

// NewPostgresNotificationRepository creates a NotificationRepository
// backed by PostgreSQL
func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) CreateNotification(notification *models.Notification) error {
	return r.db.Create(notification).Error
}

func (r *postgresNotificationRepository) ListByAccount(accountID uint, before time.Time, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.Preload("ActionAccount.User").
		Where("account_id = ? AND created_at <= ?", accountID, before).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

// DeleteMatching removes the notification rows produced by a toggle
// activation and returns their IDs so live clients can be told to drop
// them from view.
func (r *postgresNotificationRepository) DeleteMatching(accountID uint, postID *uint, action string, actionAccountID uint) ([]uint, error) {
	query := r.db.Model(&models.Notification{}).
		Where("account_id = ? AND action = ? AND action_account_id = ?", accountID, action, actionAccountID)
	if postID != nil {
		query = query.Where("post_id = ?", *postID)
	} else {
		query = query.Where("post_id IS NULL")
	}

	var ids []uint
	if err := query.Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if err := r.db.Delete(&models.Notification{}, ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *postgresNotificationRepository) GetUnreadCount(accountID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).Where("account_id = ? AND read = false", accountID).Count(&count).Error
	return count, err
}

// MarkAsRead flips the read flag, scoped to the recipient so one account
// cannot acknowledge another's notifications.
func (r *postgresNotificationRepository) MarkAsRead(notificationID, accountID uint) error {
	res := r.db.Model(&models.Notification{}).
		Where("id = ? AND account_id = ?", notificationID, accountID).
		Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *postgresNotificationRepository) MarkAllAsRead(accountID uint) error {
	return r.db.Model(&models.Notification{}).Where("account_id = ? AND read = false", accountID).Update("read", true).Error
}
