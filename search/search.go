package search

import (
	"errors"
	"os"

	"github.com/algolia/algoliasearch-client-go/v3/algolia/opt"
	algolia "github.com/algolia/algoliasearch-client-go/v3/algolia/search"
)

// Hit is a post document as stored in the search index. Timestamps are unix
// milliseconds; the handlers convert them back to the wire format.
type Hit struct {
	ObjectID      string  `json:"objectID"`
	Title         string  `json:"title"`
	Content       string  `json:"content"`
	AuthorID      string  `json:"authorId"`
	PhotoURL      *string `json:"photoUrl"`
	Edited        bool    `json:"edited"`
	LikesCount    int     `json:"likesCount"`
	DislikesCount int     `json:"dislikesCount"`
	CommentsCount int     `json:"commentsCount"`
	CreatedAt     int64   `json:"createdAt"`
	UpdatedAt     *int64  `json:"updatedAt"`
}

type Result struct {
	Hits       []Hit
	Total      int
	Page       int
	TotalPages int
}

type Suggestion struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// PostIndex is the narrow capability the handlers consume: query the index
// by free text with pagination, and keep it up to date best-effort. Any
// error from Search makes the caller fall back to the database.
type PostIndex interface {
	Search(query string, page, limit int) (*Result, error)
	Suggest(query string, limit int) ([]Suggestion, error)
	SavePost(doc Hit) error
	DeletePost(postID string) error
}

// Index is nil when the search provider is not configured; callers must
// treat that the same as a provider error.
var Index PostIndex

// Init wires the Algolia-backed index from the environment.
func Init() error {
	appID := os.Getenv("ALGOLIA_APP_ID")
	apiKey := os.Getenv("ALGOLIA_API_KEY")
	indexName := os.Getenv("ALGOLIA_INDEX_NAME")

	if appID == "" || apiKey == "" || indexName == "" {
		return errors.New("ALGOLIA_APP_ID, ALGOLIA_API_KEY and ALGOLIA_INDEX_NAME must be set")
	}

	client := algolia.NewClient(appID, apiKey)
	Index = &algoliaIndex{index: client.InitIndex(indexName)}
	return nil
}

type algoliaIndex struct {
	index *algolia.Index
}

func (a *algoliaIndex) Search(query string, page, limit int) (*Result, error) {
	res, err := a.index.Search(query,
		opt.Page(page-1),
		opt.HitsPerPage(limit),
		opt.AttributesToRetrieve(
			"title", "content", "authorId", "photoUrl",
			"edited", "likesCount", "dislikesCount", "commentsCount",
			"createdAt", "updatedAt",
		),
	)
	if err != nil {
		return nil, err
	}

	var hits []Hit
	if err := res.UnmarshalHits(&hits); err != nil {
		return nil, err
	}

	return &Result{
		Hits:       hits,
		Total:      res.NbHits,
		Page:       res.Page + 1,
		TotalPages: res.NbPages,
	}, nil
}

type highlighted struct {
	Value string `json:"value"`
}

type suggestionHit struct {
	ObjectID        string                 `json:"objectID"`
	Title           string                 `json:"title"`
	Content         string                 `json:"content"`
	HighlightResult map[string]highlighted `json:"_highlightResult"`
}

func (a *algoliaIndex) Suggest(query string, limit int) ([]Suggestion, error) {
	res, err := a.index.Search(query,
		opt.HitsPerPage(limit),
		opt.AttributesToRetrieve("title", "content"),
		opt.AttributesToHighlight("title", "content"),
		opt.HighlightPreTag("<bold>"),
		opt.HighlightPostTag("</bold>"),
	)
	if err != nil {
		return nil, err
	}

	var hits []suggestionHit
	if err := res.UnmarshalHits(&hits); err != nil {
		return nil, err
	}

	suggestions := make([]Suggestion, 0, len(hits))
	for _, hit := range hits {
		title := hit.Title
		if h, ok := hit.HighlightResult["title"]; ok && h.Value != "" {
			title = h.Value
		}
		snippet := hit.Content
		if h, ok := hit.HighlightResult["content"]; ok && h.Value != "" {
			snippet = h.Value
		} else {
			snippet = truncateSnippet(snippet, 100)
		}
		suggestions = append(suggestions, Suggestion{
			ID:      hit.ObjectID,
			Title:   title,
			Snippet: snippet,
		})
	}
	return suggestions, nil
}

// truncateSnippet cuts on a rune boundary so multi-byte characters are never
// split mid-sequence.
func truncateSnippet(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func (a *algoliaIndex) SavePost(doc Hit) error {
	_, err := a.index.SaveObject(doc)
	return err
}

func (a *algoliaIndex) DeletePost(postID string) error {
	_, err := a.index.DeleteObject(postID)
	return err
}
