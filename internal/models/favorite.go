package models

import "time"

// Favorite marks a post as favorited by an account. The composite unique
// index is the tie-breaker for concurrent toggles on the same pair.
type Favorite struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	AccountID uint      `json:"account_id" gorm:"index;uniqueIndex:idx_favorite_pair"`
	PostID    uint      `json:"post_id" gorm:"index;uniqueIndex:idx_favorite_pair"`
	CreatedAt time.Time `json:"created_at"`
}
