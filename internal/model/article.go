package model

import "time"

// ArticleStatus is the visibility state of an article.
type ArticleStatus string

// Article statuses.
const (
	StatusDraft     ArticleStatus = "draft"
	StatusPublished ArticleStatus = "published"
)

// IsValid returns true if the status is one of the known values.
func (s ArticleStatus) IsValid() bool {
	return s == StatusDraft || s == StatusPublished
}

// Article is a piece of content owned by exactly one author.
type Article struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Content   string        `json:"content"`
	Status    ArticleStatus `json:"status"`
	AuthorID  string        `json:"author_id"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// IsDraft returns true if the article is only visible to its author.
func (a *Article) IsDraft() bool {
	return a.Status != StatusPublished
}

// AuthorSummary is the public projection of a user attached to articles.
type AuthorSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// ArticleWithAuthor is an article joined with its author's public fields.
type ArticleWithAuthor struct {
	Article
	Author AuthorSummary `json:"author"`
}
