package images

import (
	"context"
	"sync"
	"time"

	"wholesale/internal/logger"
)

const drainDelay = 500 * time.Millisecond

type request struct {
	itemID  string
	groupID string
}

// Queue is an in-process FIFO of image downloads, deduplicated by item id
// and drained by a single background goroutine started lazily on the first
// enqueue. A 500ms gap between items keeps the image endpoints off the rate
// limiter. Enqueue never blocks the caller.
type Queue struct {
	cache  *Cache
	logger *logger.Logger

	mu       sync.Mutex
	pending  []request
	queued   map[string]struct{}
	draining bool

	delay time.Duration
	wg    sync.WaitGroup
}

func NewQueue(cache *Cache, logger *logger.Logger) *Queue {
	return &Queue{
		cache:  cache,
		logger: logger,
		queued: make(map[string]struct{}),
		delay:  drainDelay,
	}
}

func (q *Queue) Enqueue(itemID, groupID string) {
	if itemID == "" {
		return
	}

	q.mu.Lock()
	if _, dup := q.queued[itemID]; dup {
		q.mu.Unlock()
		return
	}
	q.queued[itemID] = struct{}{}
	q.pending = append(q.pending, request{itemID: itemID, groupID: groupID})
	q.wg.Add(1)
	start := !q.draining
	if start {
		q.draining = true
	}
	q.mu.Unlock()

	if start {
		go q.drain()
	}
}

func (q *Queue) drain() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.draining = false
			q.mu.Unlock()
			return
		}
		next := q.pending[0]
		q.pending = q.pending[1:]
		delete(q.queued, next.itemID)
		q.mu.Unlock()

		if err := q.cache.Fetch(context.Background(), next.itemID, next.groupID); err != nil {
			q.logger.Error("image fetch failed for item %s: %v", next.itemID, err)
		}
		q.wg.Done()

		if q.delay > 0 {
			time.Sleep(q.delay)
		}
	}
}

// Wait blocks until every enqueued download has been attempted.
func (q *Queue) Wait() {
	q.wg.Wait()
}
