package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/StoreFinderGo/internal/domain"
	pkgkafka "github.com/utafrali/StoreFinderGo/pkg/kafka"
)

// Topics for store domain events.
var (
	TopicStoreCreated   = pkgkafka.Topic("store", "created")
	TopicStoreUpdated   = pkgkafka.Topic("store", "updated")
	TopicStoreHearted   = pkgkafka.Topic("store", "hearted")
	TopicStoreUnhearted = pkgkafka.Topic("store", "unhearted")
)

const (
	AggregateTypeStore = "store"
	SourceStoreService = "store-service"
)

// HeartData is the payload of store.hearted and store.unhearted.
type HeartData struct {
	UserID  string   `json:"user_id"`
	StoreID string   `json:"store_id"`
	Hearts  []string `json:"hearts"`
}

// publisher is satisfied by *pkgkafka.Producer.
type publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes store domain events.
type Producer struct {
	kafka  publisher
	logger *slog.Logger
}

func NewProducer(kafka publisher, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

// PublishStoreCreated carries the full store so consumers can index it
// without reading it back.
func (p *Producer) PublishStoreCreated(ctx context.Context, store *domain.Store) error {
	return p.publish(ctx, TopicStoreCreated, store.ID, store)
}

func (p *Producer) PublishStoreUpdated(ctx context.Context, store *domain.Store) error {
	return p.publish(ctx, TopicStoreUpdated, store.ID, store)
}

// PublishHeartToggled publishes store.hearted or store.unhearted.
func (p *Producer) PublishHeartToggled(ctx context.Context, userID, storeID string, hearts []string, hearted bool) error {
	topic := TopicStoreUnhearted
	if hearted {
		topic = TopicStoreHearted
	}
	return p.publish(ctx, topic, storeID, HeartData{UserID: userID, StoreID: storeID, Hearts: hearts})
}

func (p *Producer) publish(ctx context.Context, topic, storeID string, data any) error {
	ev, err := pkgkafka.NewEvent(ctx, topic, AggregateTypeStore, storeID, SourceStoreService, data)
	if err != nil {
		return err
	}
	if err := p.kafka.Publish(ctx, topic, ev); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	p.logger.DebugContext(ctx, "published store event",
		slog.String("topic", topic),
		slog.String("store_id", storeID),
		slog.String("event_id", ev.EventID),
	)
	return nil
}

// Nop discards events. It is used when Kafka is disabled.
type Nop struct{}

func (Nop) PublishStoreCreated(context.Context, *domain.Store) error { return nil }
func (Nop) PublishStoreUpdated(context.Context, *domain.Store) error { return nil }
func (Nop) PublishHeartToggled(context.Context, string, string, []string, bool) error {
	return nil
}
