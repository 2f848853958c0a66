package models

import (
	"fmt"
	"time"
)

// StreamTokenTTL is how long a minted stream token stays valid. Expiry
// is evaluated lazily at connect and delivery time, never by a timer.
const StreamTokenTTL = 15 * time.Minute

// NotificationStream binds an account to its current push token. At most
// one row exists per account; minting a new token overwrites the row and
// with it the authority of any previously issued token.
type NotificationStream struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	AccountID uint      `json:"account_id" gorm:"uniqueIndex"`
	Token     string    `json:"token" gorm:"size:64"`
	MintedAt  time.Time `json:"minted_at"`
}

// Expired reports whether the token has outlived its TTL at the given
// instant. The boundary itself counts as expired.
func (s *NotificationStream) Expired(now time.Time) bool {
	return now.Sub(s.MintedAt) >= StreamTokenTTL
}

// Key is the hub channel key for this (account, token) pair.
func (s *NotificationStream) Key() string {
	return StreamKey(s.AccountID, s.Token)
}

// StreamKey builds the hub channel key for an (account, token) pair.
func StreamKey(accountID uint, token string) string {
	return fmt.Sprintf("%d:%s", accountID, token)
}
