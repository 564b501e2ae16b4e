package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"NewsRefinery/internal/domain"
	"NewsRefinery/internal/ports"
)

var rawNewsColumns = []string{
	"id", "fingerprint", "title", "source", "url", "published_at",
	"category", "country", "status", "article_id", "created_at", "processed_at",
}

// RawNewsRepository persists harvested news in the raw_news table.
type RawNewsRepository struct {
	db *sql.DB
}

var _ ports.RawNewsRepository = (*RawNewsRepository)(nil)

// NewRawNewsRepository wires a sql.DB implementation.
func NewRawNewsRepository(db *sql.DB) *RawNewsRepository {
	return &RawNewsRepository{db: db}
}

// Insert stores the item as pending unless the fingerprint already exists.
// The unique index on fingerprint makes check-and-insert one atomic
// statement, so concurrent ingestion runs cannot double-insert.
func (r *RawNewsRepository) Insert(ctx context.Context, item domain.RawNews) (bool, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Status == "" {
		item.Status = domain.StatusPending
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	query, args, err := builder.
		Insert("raw_news").
		Columns("id", "fingerprint", "title", "source", "url", "published_at",
			"category", "country", "status", "created_at").
		Values(item.ID, item.Fingerprint, item.Title, item.Source, item.URL,
			item.PublishedAt, item.Category, item.Country, item.Status, item.CreatedAt).
		Suffix("ON CONFLICT (fingerprint) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build insert: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert raw news: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}

	return affected == 1, nil
}

// GetByIDs loads the items for the given ids; unknown ids are simply absent
// from the result.
func (r *RawNewsRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.RawNews, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := builder.
		Select(rawNewsColumns...).
		From("raw_news").
		Where(sq.Expr("id = ANY(?)", pq.StringArray(ids))).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query raw news: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]domain.RawNews, len(ids))
	for rows.Next() {
		item, err := scanRawNews(rows)
		if err != nil {
			return nil, err
		}
		byID[item.ID] = item
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	// Preserve the caller's selection order.
	items := make([]domain.RawNews, 0, len(byID))
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			items = append(items, item)
		}
	}

	return items, nil
}

// UpdateStatus moves the item from one status to another; the WHERE clause
// on the current status enforces the transition against concurrent writers.
func (r *RawNewsRepository) UpdateStatus(ctx context.Context, id string, from, to domain.Status) error {
	if !from.CanTransition(to) {
		return domain.ErrInvalidTransition{From: from, To: to}
	}

	query, args, err := builder.
		Update("raw_news").
		Set("status", to).
		Where(sq.Eq{"id": id, "status": from}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("raw news %s is no longer %s", id, from)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRawNews(row rowScanner) (domain.RawNews, error) {
	var (
		item        domain.RawNews
		articleID   sql.NullString
		processedAt sql.NullTime
	)

	err := row.Scan(
		&item.ID, &item.Fingerprint, &item.Title, &item.Source, &item.URL,
		&item.PublishedAt, &item.Category, &item.Country, &item.Status,
		&articleID, &item.CreatedAt, &processedAt,
	)
	if err != nil {
		return domain.RawNews{}, fmt.Errorf("scan raw news: %w", err)
	}

	item.ArticleID = articleID.String
	if processedAt.Valid {
		item.ProcessedAt = processedAt.Time
	}

	return item, nil
}
