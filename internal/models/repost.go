package models

import "time"

// Repost marks a post as reposted by an account. Each repost owns a
// synthetic wrapper Post so the repost itself shows up in the feed and
// can anchor replies; re-activating a retracted repost mints a new
// wrapper rather than reviving the old one.
type Repost struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	AccountID     uint      `json:"account_id" gorm:"index;uniqueIndex:idx_repost_pair"`
	PostID        uint      `json:"post_id" gorm:"index;uniqueIndex:idx_repost_pair"` // the original post
	WrapperPostID uint      `json:"wrapper_post_id" gorm:"index"`
	CreatedAt     time.Time `json:"created_at"`
}
