package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	Username  string    `json:"username" gorm:"uniqueIndex"`
	Email     string    `json:"email" gorm:"uniqueIndex"`
	Password  string    `json:"-"`
	AvatarURL *string   `json:"avatarUrl" gorm:"column:avatar_url"`
	CreatedAt Timestamp `json:"createdAt" gorm:"autoCreateTime:false"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = Now()
	}
	return nil
}

type UserRegister struct {
	Username string `json:"username" binding:"required,min=3"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type UserLogin struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Author is the denormalized {username, avatarUrl} projection attached to
// posts and comments for display. Never persisted.
type Author struct {
	Username  string  `json:"username"`
	AvatarURL *string `json:"avatarUrl"`
}

// UnknownAuthor is what clients see when the author's account no longer exists.
func UnknownAuthor() Author {
	return Author{Username: "Unknown", AvatarURL: nil}
}
