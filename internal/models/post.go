package models

import "time"

// Payload kinds. Kind discriminates how the payload fields are read.
const (
	PayloadKindText     = "text"
	PayloadKindMarkdown = "markdown"
	PayloadKindImage    = "image"
)

// Post is the feed-level entity. The typed content lives in PostPayload;
// a repost wrapper post carries no payload of its own.
type Post struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	AccountID uint      `json:"account_id" gorm:"index"`
	Account   Account   `json:"-"`
	ReplyToID *uint     `json:"reply_to_id" gorm:"index"` // parent post, nil for top-level
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// PostPayload is the single typed payload attached to a post, a tagged
// union keyed by Kind: text and markdown use Content, image uses
// ImagePath plus Content as the caption.
type PostPayload struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	PostID    uint   `json:"post_id" gorm:"uniqueIndex"`
	Kind      string `json:"kind" gorm:"size:20"`
	Content   string `json:"content"`
	ImagePath string `json:"image_path"`
}

// CreatePostRequest defines the form fields for creating a post. Image
// bytes arrive as a multipart file, not in this struct.
type CreatePostRequest struct {
	Type    string `json:"type" form:"type" validate:"required,oneof=text markdown image"`
	Content string `json:"content" form:"content"`
	ReplyID *uint  `json:"reply_id" form:"reply_id"`
}
