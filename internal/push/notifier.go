package push

import (
	"log"
	"time"

	"github.com/feathr-social/backend/internal/models"
	"github.com/feathr-social/backend/internal/repositories"
	"gorm.io/gorm"
)

// Message types on the stream
const (
	MessageTypeNotification = "notification"
	MessageTypeDelete       = "delete"
)

// StreamMessage is the envelope written to a live connection
type StreamMessage struct {
	Type           string                      `json:"type"`
	Message        *models.NotificationPayload `json:"message,omitempty"`
	NotificationID uint                        `json:"notification_id,omitempty"`
}

// Notifier persists notification rows and relays them to the recipient's
// live stream connection, if one is registered. It is called explicitly
// by the toggle and post-creation handlers; nothing fires from
// persistence hooks. Delivery is at-most-once: a missing or expired
// stream drops the message.
type Notifier struct {
	db            *gorm.DB
	notifications repositories.NotificationRepository
	streams       repositories.StreamRepository
	hub           *Hub
	now           func() time.Time
}

// NewNotifier creates a Notifier. now is the clock used for lazy token
// expiry checks; pass time.Now outside of tests.
func NewNotifier(db *gorm.DB, streamRepo repositories.StreamRepository, hub *Hub, now func() time.Time) *Notifier {
	return &Notifier{
		db:            db,
		notifications: repositories.NewPostgresNotificationRepository(db),
		streams:       streamRepo,
		hub:           hub,
		now:           now,
	}
}

// Toggle applies a pair mutation and its notification bookkeeping in a
// single transaction. When mutate reports an activation, notification is
// inserted alongside it; otherwise the rows matching the notification's
// (recipient, post, action, actor) are deleted. Running both in one
// transaction keeps the pair row and its notification in step even when
// duplicate toggles race. Pushes go out only after the commit.
func (n *Notifier) Toggle(notification *models.Notification, actor *models.Account, mutate func(tx *gorm.DB) (bool, error)) (bool, error) {
	var activated bool
	var retracted []uint
	err := n.db.Transaction(func(tx *gorm.DB) error {
		var err error
		activated, err = mutate(tx)
		if err != nil {
			return err
		}
		notifications := repositories.NewPostgresNotificationRepository(tx)
		if activated {
			return notifications.CreateNotification(notification)
		}
		retracted, err = notifications.DeleteMatching(
			notification.AccountID, notification.PostID, notification.Action, notification.ActionAccountID)
		return err
	})
	if err != nil {
		return false, err
	}

	if activated {
		n.push(notification.AccountID, StreamMessage{Type: MessageTypeNotification, Message: payloadFor(notification, actor)})
	} else {
		for _, id := range retracted {
			n.push(notification.AccountID, StreamMessage{Type: MessageTypeDelete, NotificationID: id})
		}
	}
	return activated, nil
}

// Notify persists the notification and pushes it to the recipient's
// stream. actor is the account that performed the action, with its User
// preloaded for the username on the wire.
func (n *Notifier) Notify(notification *models.Notification, actor *models.Account) error {
	if err := n.notifications.CreateNotification(notification); err != nil {
		return err
	}
	n.push(notification.AccountID, StreamMessage{Type: MessageTypeNotification, Message: payloadFor(notification, actor)})
	return nil
}

// Retract deletes the notification rows matching a toggle retraction and
// pushes a delete message per removed row so live clients can drop them
// without refetching.
func (n *Notifier) Retract(accountID uint, postID *uint, action string, actionAccountID uint) error {
	ids, err := n.notifications.DeleteMatching(accountID, postID, action, actionAccountID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		n.push(accountID, StreamMessage{Type: MessageTypeDelete, NotificationID: id})
	}
	return nil
}

// push resolves the recipient's current stream and forwards the message.
// Expiry is checked here, at delivery time: an expired stream gets its
// connection closed instead of the message.
func (n *Notifier) push(accountID uint, msg StreamMessage) {
	stream, err := n.streams.GetByAccount(accountID)
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Printf("push: failed to load stream for account %d: %v", accountID, err)
		}
		return
	}
	if stream.Expired(n.now()) {
		n.hub.Drop(stream.Key())
		return
	}
	n.hub.Send(stream.Key(), msg)
}

func payloadFor(notification *models.Notification, actor *models.Account) *models.NotificationPayload {
	return &models.NotificationPayload{
		NotificationID:           notification.ID,
		Action:                   notification.Action,
		ActionAccount:            actor.User.Username,
		ActionAccountDisplayName: actor.DisplayName,
		Read:                     notification.Read,
		CreatedAt:                notification.CreatedAt,
		PostID:                   notification.PostID,
	}
}
