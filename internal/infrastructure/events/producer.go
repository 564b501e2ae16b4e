package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"NewsRefinery/internal/domain"
	"NewsRefinery/internal/ports"
)

// Producer emits published-article events to Kafka. Delivery is synchronous
// with one required ack; downstream consumers dedup on the article id key,
// which keeps the overall contract at-least-once.
type Producer struct {
	writer *kafka.Writer
}

var _ ports.Publisher = (*Producer)(nil)

// NewProducer builds a writer for the given broker and topic.
func NewProducer(broker, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(broker),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
	return &Producer{writer: writer}
}

type articleEvent struct {
	ID          string    `json:"id"`
	RawNewsID   string    `json:"rawNewsId"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Category    string    `json:"category"`
	Source      string    `json:"source"`
	OriginalURL string    `json:"originalUrl"`
	ProcessedAt time.Time `json:"processedAt"`
}

// PublishArticle sends one keyed JSON message per published article.
func (p *Producer) PublishArticle(ctx context.Context, article domain.Article) error {
	payload, err := json.Marshal(articleEvent{
		ID:          article.ID,
		RawNewsID:   article.RawNewsID,
		Title:       article.Title,
		Summary:     article.Summary,
		Category:    article.Category,
		Source:      article.Source,
		OriginalURL: article.OriginalURL,
		ProcessedAt: article.ProcessedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal article event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(article.ID),
		Value: payload,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write article event: %w", err)
	}

	return nil
}

// Close releases the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
