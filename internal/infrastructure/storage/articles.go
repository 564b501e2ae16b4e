package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"NewsRefinery/internal/domain"
	"NewsRefinery/internal/ports"
)

// ErrArticleNotFound is returned by GetByID for unknown ids.
var ErrArticleNotFound = errors.New("article not found")

// ArticleRepository persists rewritten articles in the articles table.
type ArticleRepository struct {
	db *sql.DB
}

var _ ports.ArticleRepository = (*ArticleRepository)(nil)

// NewArticleRepository wires a sql.DB implementation.
func NewArticleRepository(db *sql.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// Publish inserts the article and flips its raw item to processed inside one
// transaction. The status guard in the UPDATE keeps the raw item and the
// article in lockstep: if the item is not selected anymore, nothing commits.
func (r *ArticleRepository) Publish(ctx context.Context, article domain.Article) (string, error) {
	if article.ID == "" {
		article.ID = uuid.NewString()
	}
	if article.ProcessedAt.IsZero() {
		article.ProcessedAt = time.Now().UTC()
	}
	if article.Status == "" {
		article.Status = domain.ArticlePublished
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	insert, args, err := builder.
		Insert("articles").
		Columns("id", "raw_news_id", "title", "summary", "body", "difficulty",
			"category", "source", "original_title", "original_url", "country",
			"published_at", "processed_at", "views", "status").
		Values(article.ID, article.RawNewsID, article.Title, article.Summary,
			article.Body, article.Difficulty, article.Category, article.Source,
			article.OriginalTitle, article.OriginalURL, article.Country,
			article.PublishedAt, article.ProcessedAt, article.Views, article.Status).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build insert: %w", err)
	}

	if _, err := tx.ExecContext(ctx, insert, args...); err != nil {
		return "", fmt.Errorf("insert article: %w", err)
	}

	update, args, err := builder.
		Update("raw_news").
		Set("status", domain.StatusProcessed).
		Set("article_id", article.ID).
		Set("processed_at", article.ProcessedAt).
		Where(sq.Eq{"id": article.RawNewsID, "status": domain.StatusSelected}).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build update: %w", err)
	}

	result, err := tx.ExecContext(ctx, update, args...)
	if err != nil {
		return "", fmt.Errorf("mark processed: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return "", fmt.Errorf("raw news %s is not selected", article.RawNewsID)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit publish: %w", err)
	}

	return article.ID, nil
}

// GetByID loads a single article.
func (r *ArticleRepository) GetByID(ctx context.Context, id string) (domain.Article, error) {
	query, args, err := builder.
		Select("id", "raw_news_id", "title", "summary", "body", "difficulty",
			"category", "source", "original_title", "original_url", "country",
			"published_at", "processed_at", "views", "status").
		From("articles").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Article{}, fmt.Errorf("build select: %w", err)
	}

	var article domain.Article
	err = r.db.QueryRowContext(ctx, query, args...).Scan(
		&article.ID, &article.RawNewsID, &article.Title, &article.Summary,
		&article.Body, &article.Difficulty, &article.Category, &article.Source,
		&article.OriginalTitle, &article.OriginalURL, &article.Country,
		&article.PublishedAt, &article.ProcessedAt, &article.Views, &article.Status,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Article{}, ErrArticleNotFound
	}
	if err != nil {
		return domain.Article{}, fmt.Errorf("query article: %w", err)
	}

	return article, nil
}

// IncrementViews bumps the view counter; the counter only ever moves forward.
func (r *ArticleRepository) IncrementViews(ctx context.Context, id string) error {
	query, args, err := builder.
		Update("articles").
		Set("views", sq.Expr("views + 1")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("increment views: %w", err)
	}

	return nil
}
