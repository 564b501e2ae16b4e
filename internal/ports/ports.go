package ports

import (
	"context"
	"time"

	"NewsRefinery/internal/domain"
)

// NewsSource pulls candidate items from every configured upstream source.
// One SourceBatch is returned per source; a source that is unreachable
// reports its error inside the batch instead of failing the whole fetch.
type NewsSource interface {
	FetchAll(ctx context.Context) []domain.SourceBatch
}

// RawNewsRepository persists harvested items and their pipeline status.
type RawNewsRepository interface {
	// Insert stores a pending item unless its fingerprint already exists.
	// The existence check and the write are one atomic statement.
	Insert(ctx context.Context, item domain.RawNews) (inserted bool, err error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.RawNews, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.Status) error
}

// ArticleRepository persists rewritten articles.
type ArticleRepository interface {
	// Publish inserts the article and flips its raw item to processed in a
	// single transaction; on error neither write survives.
	Publish(ctx context.Context, article domain.Article) (articleID string, err error)
	GetByID(ctx context.Context, id string) (domain.Article, error)
	IncrementViews(ctx context.Context, id string) error
}

// CredentialSource resolves provider API keys stored by the admin.
type CredentialSource interface {
	APIKey(ctx context.Context, provider string) (string, error)
}

// SettingsRepository stores admin-managed settings such as provider keys.
type SettingsRepository interface {
	CredentialSource
	SaveAPIKey(ctx context.Context, provider, key string) error
}

// Rewriter turns a raw news item into a reader-friendly article payload.
type Rewriter interface {
	Rewrite(ctx context.Context, item domain.RawNews) (domain.Rewrite, error)
}

// Publisher fans a freshly published article out to downstream consumers.
// Delivery is at-least-once; consumers dedup on article id.
type Publisher interface {
	PublishArticle(ctx context.Context, article domain.Article) error
}

// Notifier pushes a human-readable digest after a transformation run.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when the ingestion job executes.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
