package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post counters (likesCount, dislikesCount, commentsCount) are maintained
// exclusively by the reaction and comment transactions. They are never
// accepted from client input.
type Post struct {
	ID            string     `json:"id" gorm:"primaryKey;type:uuid"`
	AuthorID      string     `json:"authorId" gorm:"column:author_id;index"`
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	PhotoURL      *string    `json:"photoUrl" gorm:"column:photo_url"`
	Edited        bool       `json:"edited"`
	LikesCount    int        `json:"likesCount" gorm:"column:likes_count;default:0;check:likes_count >= 0"`
	DislikesCount int        `json:"dislikesCount" gorm:"column:dislikes_count;default:0;check:dislikes_count >= 0"`
	CommentsCount int        `json:"commentsCount" gorm:"column:comments_count;default:0;check:comments_count >= 0"`
	CreatedAt     Timestamp  `json:"createdAt" gorm:"autoCreateTime:false"`
	UpdatedAt     *Timestamp `json:"updatedAt" gorm:"autoUpdateTime:false"`
}

func (Post) TableName() string {
	return "posts"
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = Now()
	}
	return nil
}

// PostWithAuthor is the read shape for listings and single-post fetches.
// UserReaction is the requesting user's own reaction type, nil when the
// request is anonymous or the user has not reacted.
type PostWithAuthor struct {
	Post
	Author       Author  `json:"author"`
	UserReaction *string `json:"userReaction"`
}
