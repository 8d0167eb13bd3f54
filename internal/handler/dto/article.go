package dto

import (
	"time"

	"github.com/pressroom/pressroom/internal/model"
)

// ArticleRequest is the body of article create and update requests.
// On update, empty fields are left unchanged.
type ArticleRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Status  string `json:"status"`
}

// AuthorResponse is the author projection attached to articles.
type AuthorResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// ArticleResponse represents an article in API responses.
type ArticleResponse struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Content   string          `json:"content"`
	Status    string          `json:"status"`
	AuthorID  string          `json:"author_id"`
	Author    *AuthorResponse `json:"author,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ArticleEnvelope wraps a single article.
type ArticleEnvelope struct {
	Article ArticleResponse `json:"article"`
}

// ArticleListResponse wraps a list of articles.
type ArticleListResponse struct {
	Articles []ArticleResponse `json:"articles"`
}

// ToArticleResponse converts an Article model without author details.
func ToArticleResponse(article *model.Article) ArticleResponse {
	return ArticleResponse{
		ID:        article.ID,
		Title:     article.Title,
		Content:   article.Content,
		Status:    string(article.Status),
		AuthorID:  article.AuthorID,
		CreatedAt: article.CreatedAt,
		UpdatedAt: article.UpdatedAt,
	}
}

// ToArticleWithAuthorResponse converts an article joined with its author.
func ToArticleWithAuthorResponse(article *model.ArticleWithAuthor) ArticleResponse {
	resp := ToArticleResponse(&article.Article)
	resp.Author = &AuthorResponse{
		ID:       article.Author.ID,
		Name:     article.Author.Name,
		Username: article.Author.Username,
	}
	return resp
}

// ToArticleListResponse converts published articles to ArticleListResponse.
func ToArticleListResponse(articles []*model.ArticleWithAuthor) ArticleListResponse {
	out := make([]ArticleResponse, len(articles))
	for i, a := range articles {
		out[i] = ToArticleWithAuthorResponse(a)
	}
	return ArticleListResponse{Articles: out}
}
