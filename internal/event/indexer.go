package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/StoreFinderGo/internal/domain"
	pkgkafka "github.com/utafrali/StoreFinderGo/pkg/kafka"
)

// StoreIndexer writes a store into the search index.
type StoreIndexer interface {
	Index(ctx context.Context, store *domain.Store) error
}

// Indexer keeps the search index in step with store events.
type Indexer struct {
	index  StoreIndexer
	logger *slog.Logger
}

func NewIndexer(index StoreIndexer, logger *slog.Logger) *Indexer {
	return &Indexer{index: index, logger: logger}
}

// Topics lists the topics Handle understands.
func (i *Indexer) Topics() []string {
	return []string{TopicStoreCreated, TopicStoreUpdated}
}

// Handle indexes the store carried by a created or updated event. Other
// event types are skipped.
func (i *Indexer) Handle(ctx context.Context, ev *pkgkafka.Event) error {
	switch ev.EventType {
	case TopicStoreCreated, TopicStoreUpdated:
	default:
		i.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", ev.EventType),
			slog.String("event_id", ev.EventID),
		)
		return nil
	}

	var store domain.Store
	if err := ev.UnmarshalData(&store); err != nil {
		return fmt.Errorf("unmarshal %s data: %w", ev.EventType, err)
	}
	if store.ID == "" {
		return fmt.Errorf("%s event %s has no store id", ev.EventType, ev.EventID)
	}
	store.Location = store.Location.Sanitize()

	if err := i.index.Index(ctx, &store); err != nil {
		return fmt.Errorf("index store %s: %w", store.ID, err)
	}

	i.logger.InfoContext(ctx, "indexed store from event",
		slog.String("store_id", store.ID),
		slog.String("event_type", ev.EventType),
	)
	return nil
}
