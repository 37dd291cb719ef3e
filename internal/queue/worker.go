package queue

import (
	"context"
	"sync"
	"time"

	"github.com/JekaMas/workerpool"
	"github.com/labstack/gommon/log"

	"pure2p/internal/model"
)

// Sender delivers a single queue entry to its target, returning nil on
// success. The worker never interprets the error; any failure pushes
// the entry's backoff out. Retries live in the queue, not the
// transport.
type Sender interface {
	DeliverQueueEntry(ctx context.Context, entry model.QueueEntry) error
}

// Worker is the two-phase retry loop: a drain pass run once
// connectivity is established, then a periodic pass every
// retry_interval_minutes. Delivery attempts within a pass fan out
// across a bounded pool instead of one goroutine per entry, so a burst
// of due messages cannot open unbounded sockets at once.
type Worker struct {
	q          *Queue
	sender     Sender
	maxRetries int
	baseDelay  int
	poolSize   int

	mu       sync.Mutex
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

func NewWorker(q *Queue, sender Sender, maxRetries, baseDelayMillis, poolSize int, interval time.Duration) *Worker {
	if poolSize < 1 {
		poolSize = 1
	}
	return &Worker{
		q:          q,
		sender:     sender,
		maxRetries: maxRetries,
		baseDelay:  baseDelayMillis,
		poolSize:   poolSize,
		interval:   interval,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Drain processes every currently pending entry once, regardless of
// next_retry_at: on startup, once connectivity is confirmed, every
// pending entry gets one immediate attempt before falling back to the
// periodic schedule.
func (w *Worker) Drain(ctx context.Context) error {
	entries, err := w.q.FetchAllPending()
	if err != nil {
		return err
	}
	w.deliverBatch(ctx, entries)
	return nil
}

// Run starts the periodic pass on a ticker and blocks until Stop is
// called or ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.intervalLocked())
	defer ticker.Stop()
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-ticker.C:
			entries, err := w.q.FetchDue(model.NowMillis())
			if err != nil {
				log.Errorf("retry worker: fetching due entries: %v", err)
				continue
			}
			w.deliverBatch(ctx, entries)
			ticker.Reset(w.intervalLocked())
		}
	}
}

// SetInterval updates the periodic cadence, taking effect on the next
// tick.
func (w *Worker) SetInterval(d time.Duration) {
	w.mu.Lock()
	w.interval = d
	w.mu.Unlock()
}

func (w *Worker) intervalLocked() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.interval
}

func (w *Worker) Stop() {
	close(w.stop)
	<-w.done
}

func (w *Worker) deliverBatch(ctx context.Context, entries []model.QueueEntry) {
	if len(entries) == 0 {
		return
	}

	pool := workerpool.New(w.poolSize)
	defer pool.StopWait()

	for _, entry := range entries {
		entry := entry
		pool.Submit(ctx, func() error {
			err := w.sender.DeliverQueueEntry(ctx, entry)
			if err == nil {
				if err := w.q.MarkDelivered(entry.ID); err != nil {
					log.Errorf("retry worker: marking %d delivered: %v", entry.ID, err)
				}
				return nil
			}
			if err := w.q.MarkFailed(entry.ID, w.maxRetries, w.baseDelay); err != nil {
				log.Errorf("retry worker: rescheduling %d: %v", entry.ID, err)
			}
			return nil
		}, 0)
	}
}
