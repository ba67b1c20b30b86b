package utils

import (
	"sort"

	"github.com/plinadev/post-it/models"
)

// CommentNode is a comment with its ordered replies.
type CommentNode struct {
	models.CommentWithAuthor
	Replies []*CommentNode `json:"replies"`
}

// BuildCommentTree turns the flat, parent-referencing comment list into a
// forest of threads. It performs no I/O and is deterministic for a given
// input: root order is preserved as given (the store returns comments in
// ascending creation order) and replies are sorted by creation time
// ascending at every depth.
//
// A comment whose parent is not present in the input is promoted to a root
// rather than dropped, so nothing the store returned disappears from view.
func BuildCommentTree(comments []models.CommentWithAuthor) []*CommentNode {
	nodes := make(map[string]*CommentNode, len(comments))
	for i := range comments {
		nodes[comments[i].ID] = &CommentNode{
			CommentWithAuthor: comments[i],
			Replies:           []*CommentNode{},
		}
	}

	roots := make([]*CommentNode, 0)
	for i := range comments {
		node := nodes[comments[i].ID]
		if comments[i].ParentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[*comments[i].ParentID]
		if !ok {
			roots = append(roots, node)
			continue
		}
		parent.Replies = append(parent.Replies, node)
	}

	sortReplies(roots)
	return roots
}

func sortReplies(nodes []*CommentNode) {
	for _, n := range nodes {
		if len(n.Replies) > 1 {
			sort.SliceStable(n.Replies, func(i, j int) bool {
				return n.Replies[i].CreatedAt.Before(n.Replies[j].CreatedAt.Time)
			})
		}
		sortReplies(n.Replies)
	}
}
