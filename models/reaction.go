package models

const (
	ReactionLike    = "like"
	ReactionDislike = "dislike"
)

// Reaction records a user's like or dislike on a post. The deterministic id
// makes the one-reaction-per-(post,user) invariant hold structurally: a
// second reaction from the same user maps to the same row.
type Reaction struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	PostID    string    `json:"postId" gorm:"column:post_id;uniqueIndex:idx_reactions_post_user"`
	UserID    string    `json:"userId" gorm:"column:user_id;uniqueIndex:idx_reactions_post_user"`
	Type      string    `json:"type"`
	CreatedAt Timestamp `json:"createdAt" gorm:"autoCreateTime:false"`
}

func (Reaction) TableName() string {
	return "reactions"
}

func ReactionID(postID, userID string) string {
	return postID + "_" + userID
}
