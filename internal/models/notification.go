package models

import "time"

// Notification action vocabulary
const (
	ActionFavorited = "favorited"
	ActionReposted  = "reposted"
	ActionReplied   = "replied"
	ActionFollowed  = "followed"
)

// Notification is a persisted per-account notification row. It is
// created when a toggle activates (or a reply is posted) and deleted
// when the matching toggle retracts or the related post is deleted.
type Notification struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	AccountID       uint      `json:"account_id" gorm:"index"` // recipient
	PostID          *uint     `json:"post_id" gorm:"index"`    // nil for follow notifications
	Action          string    `json:"action" gorm:"size:20;index"`
	ActionAccountID uint      `json:"action_account_id" gorm:"index"`
	ActionAccount   Account   `json:"-" gorm:"foreignKey:ActionAccountID"`
	Read            bool      `json:"read" gorm:"default:false;index"`
	CreatedAt       time.Time `json:"created_at" gorm:"index"`
}

// NotificationPayload is the wire shape pushed to a live stream and
// returned by the listing endpoint.
type NotificationPayload struct {
	NotificationID           uint      `json:"notification_id"`
	Action                   string    `json:"action"`
	ActionAccount            string    `json:"action_account"`
	ActionAccountDisplayName string    `json:"action_account_displayname"`
	Read                     bool      `json:"read"`
	CreatedAt                time.Time `json:"created_at"`
	PostID                   *uint     `json:"post_id"`
}
