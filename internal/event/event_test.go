package event

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/StoreFinderGo/internal/domain"
	pkgkafka "github.com/utafrali/StoreFinderGo/pkg/kafka"
	"github.com/utafrali/StoreFinderGo/pkg/logger"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type published struct {
	topic string
	event *pkgkafka.Event
}

type fakePublisher struct {
	sent []published
	err  error
}

func (f *fakePublisher) Publish(_ context.Context, topic string, ev *pkgkafka.Event) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{topic: topic, event: ev})
	return nil
}

type fakeIndex struct {
	stores []domain.Store
	err    error
}

func (f *fakeIndex) Index(_ context.Context, s *domain.Store) error {
	if f.err != nil {
		return f.err
	}
	f.stores = append(f.stores, *s)
	return nil
}

func sampleStore() *domain.Store {
	return &domain.Store{
		ID:        "s1",
		Slug:      "corner-cafe",
		Name:      "Corner Cafe",
		Tags:      []string{"coffee"},
		Location:  domain.NewLocation(domain.Point{Lng: -79.8, Lat: 43.2}, "1 King St"),
		AuthorID:  "u1",
		CreatedAt: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "storefinder.store.created", TopicStoreCreated)
	assert.Equal(t, "storefinder.store.unhearted", TopicStoreUnhearted)
}

func TestProducer_PublishStoreCreated(t *testing.T) {
	pub := &fakePublisher{}
	p := NewProducer(pub, discard())
	ctx := logger.WithCorrelationID(context.Background(), "corr-1")

	require.NoError(t, p.PublishStoreCreated(ctx, sampleStore()))

	require.Len(t, pub.sent, 1)
	ev := pub.sent[0].event
	assert.Equal(t, TopicStoreCreated, pub.sent[0].topic)
	assert.Equal(t, TopicStoreCreated, ev.EventType)
	assert.Equal(t, "s1", ev.AggregateID)
	assert.Equal(t, AggregateTypeStore, ev.AggregateType)
	assert.Equal(t, "corr-1", ev.CorrelationID)

	var got domain.Store
	require.NoError(t, ev.UnmarshalData(&got))
	assert.Equal(t, *sampleStore(), got)
}

func TestProducer_PublishHeartToggled(t *testing.T) {
	pub := &fakePublisher{}
	p := NewProducer(pub, discard())

	require.NoError(t, p.PublishHeartToggled(context.Background(), "u1", "s1", []string{"s1"}, true))
	require.NoError(t, p.PublishHeartToggled(context.Background(), "u1", "s1", []string{}, false))

	require.Len(t, pub.sent, 2)
	assert.Equal(t, TopicStoreHearted, pub.sent[0].topic)
	assert.Equal(t, TopicStoreUnhearted, pub.sent[1].topic)

	var data HeartData
	require.NoError(t, pub.sent[0].event.UnmarshalData(&data))
	assert.Equal(t, HeartData{UserID: "u1", StoreID: "s1", Hearts: []string{"s1"}}, data)
}

func TestProducer_PublishError(t *testing.T) {
	p := NewProducer(&fakePublisher{err: errors.New("broker down")}, discard())

	err := p.PublishStoreUpdated(context.Background(), sampleStore())
	require.Error(t, err)
	assert.Contains(t, err.Error(), TopicStoreUpdated)
}

func storeEvent(t *testing.T, topic string, s *domain.Store) *pkgkafka.Event {
	t.Helper()
	ev, err := pkgkafka.NewEvent(context.Background(), topic, AggregateTypeStore, s.ID, SourceStoreService, s)
	require.NoError(t, err)
	return ev
}

func TestIndexer_Handle(t *testing.T) {
	idx := &fakeIndex{}
	indexer := NewIndexer(idx, discard())

	require.NoError(t, indexer.Handle(context.Background(), storeEvent(t, TopicStoreCreated, sampleStore())))
	require.NoError(t, indexer.Handle(context.Background(), storeEvent(t, TopicStoreHearted, sampleStore())))

	require.Len(t, idx.stores, 1)
	assert.Equal(t, "corner-cafe", idx.stores[0].Slug)
	assert.ElementsMatch(t, []string{TopicStoreCreated, TopicStoreUpdated}, indexer.Topics())
}

func TestIndexer_HandleErrors(t *testing.T) {
	indexer := NewIndexer(&fakeIndex{err: errors.New("index closed")}, discard())
	assert.Error(t, indexer.Handle(context.Background(), storeEvent(t, TopicStoreUpdated, sampleStore())))

	bad := storeEvent(t, TopicStoreUpdated, sampleStore())
	bad.Data = []byte(`{"id":`)
	assert.Error(t, NewIndexer(&fakeIndex{}, discard()).Handle(context.Background(), bad))

	noID := storeEvent(t, TopicStoreUpdated, &domain.Store{Name: "anon"})
	assert.Error(t, NewIndexer(&fakeIndex{}, discard()).Handle(context.Background(), noID))
}

func TestIndexer_RedeliveryIndexedOnce(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	idx := &fakeIndex{}
	store := pkgkafka.NewRedisIdempotencyStore(client, "store-indexer", time.Hour)
	handler := pkgkafka.IdempotentHandler(store, NewIndexer(idx, discard()).Handle, discard())

	ev := storeEvent(t, TopicStoreCreated, sampleStore())
	require.NoError(t, handler(context.Background(), ev))
	require.NoError(t, handler(context.Background(), ev))

	assert.Len(t, idx.stores, 1)
}
