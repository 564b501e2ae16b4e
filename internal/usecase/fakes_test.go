package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"NewsRefinery/internal/domain"
)

type fakeSource struct {
	batches []domain.SourceBatch
	calls   int
}

func (s *fakeSource) FetchAll(ctx context.Context) []domain.SourceBatch {
	s.calls++
	return s.batches
}

// memRawRepo is an in-memory RawNewsRepository with the same atomicity
// semantics as the Postgres implementation: insert-if-absent under one lock,
// status updates guarded by the expected current status.
type memRawRepo struct {
	mu            sync.Mutex
	items         map[string]*domain.RawNews
	byFingerprint map[string]string
	nextID        int
	insertErrFor  map[string]error
	getCalls      int
}

func newMemRawRepo() *memRawRepo {
	return &memRawRepo{
		items:         map[string]*domain.RawNews{},
		byFingerprint: map[string]string{},
	}
}

func (r *memRawRepo) seed(item domain.RawNews) domain.RawNews {
	r.mu.Lock()
	defer r.mu.Unlock()
	if item.ID == "" {
		r.nextID++
		item.ID = fmt.Sprintf("news-%d", r.nextID)
	}
	if item.Status == "" {
		item.Status = domain.StatusPending
	}
	copied := item
	r.items[item.ID] = &copied
	r.byFingerprint[item.Fingerprint] = item.ID
	return item
}

func (r *memRawRepo) Insert(ctx context.Context, item domain.RawNews) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.insertErrFor[item.Fingerprint]; err != nil {
		return false, err
	}
	if _, exists := r.byFingerprint[item.Fingerprint]; exists {
		return false, nil
	}

	r.nextID++
	item.ID = fmt.Sprintf("news-%d", r.nextID)
	item.Status = domain.StatusPending
	copied := item
	r.items[item.ID] = &copied
	r.byFingerprint[item.Fingerprint] = item.ID
	return true, nil
}

func (r *memRawRepo) GetByIDs(ctx context.Context, ids []string) ([]domain.RawNews, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.getCalls++
	var found []domain.RawNews
	for _, id := range ids {
		if item, ok := r.items[id]; ok {
			found = append(found, *item)
		}
	}
	return found, nil
}

func (r *memRawRepo) UpdateStatus(ctx context.Context, id string, from, to domain.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return fmt.Errorf("unknown item %s", id)
	}
	if item.Status != from {
		return fmt.Errorf("item %s is %s, not %s", id, item.Status, from)
	}
	if !from.CanTransition(to) {
		return domain.ErrInvalidTransition{From: from, To: to}
	}
	item.Status = to
	return nil
}

func (r *memRawRepo) status(id string) domain.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[id].Status
}

func (r *memRawRepo) articleID(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[id].ArticleID
}

func (r *memRawRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// memArticles mimics the transactional Publish: the article lands and the
// raw item flips to processed together, or neither does.
type memArticles struct {
	mu         sync.Mutex
	raw        *memRawRepo
	published  []domain.Article
	nextID     int
	publishErr map[string]error
}

func newMemArticles(raw *memRawRepo) *memArticles {
	return &memArticles{raw: raw}
}

func (a *memArticles) Publish(ctx context.Context, article domain.Article) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.publishErr[article.RawNewsID]; err != nil {
		return "", err
	}

	a.raw.mu.Lock()
	defer a.raw.mu.Unlock()

	item, ok := a.raw.items[article.RawNewsID]
	if !ok || item.Status != domain.StatusSelected {
		return "", fmt.Errorf("raw news %s is not selected", article.RawNewsID)
	}

	a.nextID++
	article.ID = fmt.Sprintf("article-%d", a.nextID)
	item.Status = domain.StatusProcessed
	item.ArticleID = article.ID
	item.ProcessedAt = article.ProcessedAt

	a.published = append(a.published, article)
	return article.ID, nil
}

func (a *memArticles) GetByID(ctx context.Context, id string) (domain.Article, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, article := range a.published {
		if article.ID == id {
			return article, nil
		}
	}
	return domain.Article{}, fmt.Errorf("article %s not found", id)
}

func (a *memArticles) IncrementViews(ctx context.Context, id string) error {
	return nil
}

func (a *memArticles) countFor(rawID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, article := range a.published {
		if article.RawNewsID == rawID {
			n++
		}
	}
	return n
}

type fakeRewriter struct {
	mu      sync.Mutex
	failFor map[string]error
	calls   []time.Time
	callIDs []string
}

func (f *fakeRewriter) Rewrite(ctx context.Context, item domain.RawNews) (domain.Rewrite, error) {
	f.mu.Lock()
	f.calls = append(f.calls, time.Now())
	f.callIDs = append(f.callIDs, item.ID)
	f.mu.Unlock()

	if err := f.failFor[item.ID]; err != nil {
		return domain.Rewrite{}, err
	}

	return domain.Rewrite{
		Title:      "Simply: " + item.Title,
		Summary:    "summary of " + item.Title,
		Body:       "body of " + item.Title,
		Difficulty: 2,
	}, nil
}

type fakePublisher struct {
	mu       sync.Mutex
	articles []domain.Article
	err      error
}

func (f *fakePublisher) PublishArticle(ctx context.Context, article domain.Article) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.articles = append(f.articles, article)
	return nil
}

func candidate(title, url string) domain.Candidate {
	return domain.Candidate{
		Title:       title,
		Source:      "test-source",
		URL:         url,
		PublishedAt: time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC),
		Category:    "tech",
		Country:     "kr",
	}
}
