package workers

import (
	"context"
	"log"
	"time"
)

// Scheduler periodically enqueues one reconciliation sub-job per counter
// type. Each sub-job is independent; the dispatcher retries and
// dead-letters them individually.
type Scheduler struct {
	queue    Queue
	interval time.Duration
}

// NewScheduler creates a new Scheduler. interval <= 0 selects hourly.
func NewScheduler(queue Queue, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{queue: queue, interval: interval}
}

// Start launches the ticker loop; it stops when ctx is cancelled. The
// first pass runs immediately so a restart never leaves the counters
// unreconciled for a full interval.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		s.EnqueueAll(ctx)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.EnqueueAll(ctx)
			}
		}
	}()
}

// EnqueueAll submits one reconciliation sub-job per counter type.
func (s *Scheduler) EnqueueAll(ctx context.Context) {
	for _, counter := range CounterTypes {
		if err := s.queue.Enqueue(ctx, NewReconcileJob(counter)); err != nil {
			log.Printf("scheduler: enqueue %s reconciliation: %v", counter, err)
		}
	}
}
