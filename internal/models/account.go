package models

import "time"

// Account is the public identity attached to a User, one-to-one.
type Account struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	UserID         uint      `json:"-" gorm:"uniqueIndex"`
	User           User      `json:"-"`
	DisplayName    string    `json:"display_name" gorm:"size:255"`
	ProfilePicture string    `json:"profile_picture"` // stored media path, empty if unset
	BannerPicture  string    `json:"banner_picture"`
	CreatedAt      time.Time `json:"created_at"`
}

// ProfileInfo is the public profile response shape
type ProfileInfo struct {
	Username       string `json:"username"`
	DisplayName    string `json:"display_name"`
	Followers      int64  `json:"followers"`
	Following      int64  `json:"following"`
	IsOwner        bool   `json:"is_owner"`
	IsFollowing    bool   `json:"is_following"`
	ProfilePicture string `json:"profile_picture"`
	BannerPicture  string `json:"banner_picture"`
}

// UpdateProfileRequest defines the multipart form fields for profile updates
type UpdateProfileRequest struct {
	DisplayName string `json:"display_name" form:"display_name" validate:"omitempty,min=1,max=255"`
}
