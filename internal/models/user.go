package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// User holds login credentials. Public profile data lives on Account.
type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Username    string    `json:"username" gorm:"uniqueIndex;size:255"`
	Password    string    `json:"-"` // bcrypt hash, ignore for JSON serialization
	FirebaseUID *string   `json:"firebase_uid,omitempty" gorm:"uniqueIndex"` // Link to Firebase User UID
	CreatedAt   time.Time `json:"created_at"`
}

// RegisterRequest defines the request body for local registration
type RegisterRequest struct {
	Username    string `json:"username" validate:"required,min=2,max=50"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"display_name" validate:"required,min=1,max=255"`
}

// LoginRequest defines the request body for local sign-in
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	AccountID uint   `json:"account_id"`
	Username  string `json:"username"`
	jwt.RegisteredClaims
}
