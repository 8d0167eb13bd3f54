package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pressroom/pressroom/internal/model"
)

// Common errors for article repository operations.
var (
	ErrArticleNotFound = errors.New("article not found")
	ErrAuthorNotFound  = errors.New("article author not found")
)

const articleColumns = `a.id, a.title, a.content, a.status, a.author_id, a.created_at, a.updated_at`

// CreateArticle inserts a new article into the database.
func (r *Repository) CreateArticle(ctx context.Context, article *model.Article) error {
	query := `
		INSERT INTO articles (id, title, content, status, author_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		article.ID,
		article.Title,
		article.Content,
		string(article.Status),
		article.AuthorID,
		article.CreatedAt,
		article.UpdatedAt,
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrAuthorNotFound
		}
		return fmt.Errorf("failed to create article: %w", err)
	}

	return nil
}

// GetArticleByID retrieves an article by its ID.
func (r *Repository) GetArticleByID(ctx context.Context, id string) (*model.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles a WHERE a.id = $1`

	article, err := scanArticle(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrArticleNotFound
		}
		return nil, fmt.Errorf("failed to get article by ID: %w", err)
	}

	return article, nil
}

// GetArticleWithAuthor retrieves an article joined with its author's public fields.
func (r *Repository) GetArticleWithAuthor(ctx context.Context, id string) (*model.ArticleWithAuthor, error) {
	query := `
		SELECT ` + articleColumns + `, u.id, u.name, u.username
		FROM articles a
		JOIN users u ON u.id = a.author_id
		WHERE a.id = $1
	`

	var (
		out    model.ArticleWithAuthor
		status string
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&out.ID,
		&out.Title,
		&out.Content,
		&status,
		&out.AuthorID,
		&out.CreatedAt,
		&out.UpdatedAt,
		&out.Author.ID,
		&out.Author.Name,
		&out.Author.Username,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrArticleNotFound
		}
		return nil, fmt.Errorf("failed to get article with author: %w", err)
	}
	out.Status = model.ArticleStatus(status)

	return &out, nil
}

// ListPublishedArticles returns every published article, newest first.
func (r *Repository) ListPublishedArticles(ctx context.Context) ([]*model.Article, error) {
	query := `
		SELECT ` + articleColumns + `
		FROM articles a
		WHERE a.status = $1
		ORDER BY a.created_at DESC, a.id DESC
	`

	rows, err := r.pool.Query(ctx, query, string(model.StatusPublished))
	if err != nil {
		return nil, fmt.Errorf("failed to list published articles: %w", err)
	}
	defer rows.Close()

	articles := make([]*model.Article, 0)
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating articles: %w", err)
	}

	return articles, nil
}

// UpdateArticle saves an article's mutable fields and refreshes updated_at.
func (r *Repository) UpdateArticle(ctx context.Context, article *model.Article) error {
	query := `
		UPDATE articles
		SET title = $2, content = $3, status = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		article.ID,
		article.Title,
		article.Content,
		string(article.Status),
	).Scan(&article.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrArticleNotFound
		}
		return fmt.Errorf("failed to update article: %w", err)
	}

	return nil
}

// DeleteArticle removes an article.
func (r *Repository) DeleteArticle(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete article: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrArticleNotFound
	}

	return nil
}

// scanArticle scans a single row into an Article model.
func scanArticle(row pgx.Row) (*model.Article, error) {
	var (
		article model.Article
		status  string
	)
	err := row.Scan(
		&article.ID,
		&article.Title,
		&article.Content,
		&status,
		&article.AuthorID,
		&article.CreatedAt,
		&article.UpdatedAt,
	)
	article.Status = model.ArticleStatus(status)
	return &article, err
}
