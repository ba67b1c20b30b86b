package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment is a threaded reply on a post. ParentID is nil for top-level
// comments; when set it must reference a comment on the same post, which is
// enforced at creation time.
type Comment struct {
	ID        string     `json:"id" gorm:"primaryKey;type:uuid"`
	PostID    string     `json:"postId" gorm:"column:post_id;index"`
	UserID    string     `json:"userId" gorm:"column:user_id"`
	Content   string     `json:"content"`
	ParentID  *string    `json:"parentId" gorm:"column:parent_id;index"`
	Edited    bool       `json:"edited"`
	CreatedAt Timestamp  `json:"createdAt" gorm:"autoCreateTime:false"`
	UpdatedAt *Timestamp `json:"updatedAt" gorm:"autoUpdateTime:false"`
}

func (Comment) TableName() string {
	return "comments"
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = Now()
	}
	return nil
}

// CommentWithAuthor carries the author projection resolved at query time.
// Author is nil when the account no longer exists.
type CommentWithAuthor struct {
	Comment
	Author *Author `json:"author"`
}
