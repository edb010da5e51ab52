package events

import (
	"context"
	"sync/atomic"
	"testing"

	"wholesale/internal/database"
	"wholesale/internal/images"
	"wholesale/internal/logger"
	"wholesale/internal/models"
)

type countingFetcher struct {
	calls int64
}

func (f *countingFetcher) GetItemImage(ctx context.Context, itemID string) ([]byte, string, error) {
	atomic.AddInt64(&f.calls, 1)
	return []byte("img"), "image/jpeg", nil
}

func (f *countingFetcher) GetItemGroupImage(ctx context.Context, groupID string) ([]byte, string, error) {
	return nil, "", context.Canceled
}

func TestProcessorWarmsCacheOnCreatedOnly(t *testing.T) {
	db, err := database.New("sqlite://:memory:")
	if err != nil {
		t.Fatal(err)
	}
	itemID := "Z1"
	product := &models.Product{ZohoItemID: &itemID, Name: "Aviator", IsActive: true, IsOnline: true}
	if err := db.DB.Create(product).Error; err != nil {
		t.Fatal(err)
	}

	log := logger.New("error")
	fetcher := &countingFetcher{}
	cache := images.NewCache(t.TempDir(), fetcher, db.DB, log)
	queue := images.NewQueue(cache, log)
	p := NewProcessor(queue, log)

	// Updates and delists leave the cached file alone.
	if err := p.Process(Event{Type: EventProductUpdated, RemoteID: "Z1"}); err != nil {
		t.Fatal(err)
	}
	if err := p.Process(Event{Type: EventProductDelisted, RemoteID: "Z1"}); err != nil {
		t.Fatal(err)
	}
	queue.Wait()
	if got := atomic.LoadInt64(&fetcher.calls); got != 0 {
		t.Fatalf("non-create events fetched %d images", got)
	}

	if err := p.Process(Event{Type: EventProductCreated, RemoteID: "Z1"}); err != nil {
		t.Fatal(err)
	}
	queue.Wait()
	if got := atomic.LoadInt64(&fetcher.calls); got != 1 {
		t.Fatalf("created event fetched %d images, want 1", got)
	}
}

func TestPublisherNoopWithoutBrokers(t *testing.T) {
	p := NewPublisher("", logger.New("error"))
	// Must not panic or block.
	p.Publish(EventProductCreated, "id", "Z1", "")
	p.Close()
}
