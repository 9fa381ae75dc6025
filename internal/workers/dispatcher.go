package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/feedline/backend/internal/models"
	"github.com/feedline/backend/internal/repositories"
	"github.com/feedline/backend/pkg/metrics"
)

// defaultMaxAttempts bounds how many times a job runs before it is dead
// lettered: the first attempt plus two retries.
const defaultMaxAttempts = 3

// Handler executes one job. Returning nil acknowledges the job; any
// error triggers a retry until the attempt budget runs out.
type Handler func(ctx context.Context, job Job) error

// Dispatcher is the in-process delivery substrate: a buffered channel
// drained by a fixed pool of goroutines. It guarantees at-least-once
// execution with bounded exponential-backoff retries and routes jobs
// that exhaust their budget to the operator dead-letter table.
type Dispatcher struct {
	jobs        chan Job
	handlers    map[JobType]Handler
	deadLetters repositories.DeadLetterRepository
	workerCount int
	maxAttempts int

	// retryInterval seeds the exponential backoff; shortened in tests.
	retryInterval time.Duration

	mu sync.RWMutex
	wg sync.WaitGroup
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(deadLetters repositories.DeadLetterRepository, workerCount, buffer int) *Dispatcher {
	if workerCount < 1 {
		workerCount = 4
	}
	if buffer < 1 {
		buffer = 1024
	}
	return &Dispatcher{
		jobs:          make(chan Job, buffer),
		handlers:      make(map[JobType]Handler),
		deadLetters:   deadLetters,
		workerCount:   workerCount,
		maxAttempts:   defaultMaxAttempts,
		retryInterval: backoff.DefaultInitialInterval,
	}
}

// Register binds a handler to a job type. Must be called before Start.
func (d *Dispatcher) Register(t JobType, h Handler) {
	d.mu.Lock()
	d.handlers[t] = h
	d.mu.Unlock()
}

// Enqueue submits a job for asynchronous execution. Blocks only when the
// buffer is full, and respects ctx while waiting.
func (d *Dispatcher) Enqueue(ctx context.Context, job Job) error {
	select {
	case d.jobs <- job:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("enqueue %s job %s: %w", job.Type, job.ID, ctx.Err())
	}
}

// Start launches the worker pool. Workers drain the queue until ctx is
// cancelled; a job already picked up always runs to completion or to
// retry exhaustion.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workerCount; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job := <-d.jobs:
					d.process(job)
				}
			}
		}()
	}
}

// Wait blocks until every worker goroutine has exited.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// process runs one job to completion, retrying on failure. There is no
// cancellation path here: a dispatched job uses a background context so
// server shutdown cannot abandon a half-applied write.
func (d *Dispatcher) process(job Job) {
	d.mu.RLock()
	handler, ok := d.handlers[job.Type]
	d.mu.RUnlock()
	if !ok {
		d.deadLetter(job, 0, fmt.Errorf("no handler registered for job type %s", job.Type))
		return
	}

	ctx := context.Background()
	attempts := 0

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = d.retryInterval

	err := backoff.RetryNotify(
		func() error {
			attempts++
			return handler(ctx, job)
		},
		backoff.WithMaxRetries(bo, uint64(d.maxAttempts-1)),
		func(err error, wait time.Duration) {
			metrics.JobRetries.WithLabelValues(string(job.Type)).Inc()
			log.Printf("job %s (%s) attempt %d failed, retrying in %s: %v", job.ID, job.Type, attempts, wait, err)
		},
	)
	if err != nil {
		d.deadLetter(job, attempts, err)
	}
}

// deadLetter surfaces a permanently failed job to the operator queue.
func (d *Dispatcher) deadLetter(job Job, attempts int, cause error) {
	metrics.JobsDeadLettered.WithLabelValues(string(job.Type)).Inc()
	log.Printf("job %s (%s) permanently failed after %d attempts: %v", job.ID, job.Type, attempts, cause)

	if d.deadLetters == nil {
		return
	}
	payload, _ := json.Marshal(job)
	letter := &models.DeadLetter{
		JobID:     job.ID,
		JobType:   string(job.Type),
		Payload:   string(payload),
		LastError: cause.Error(),
		Attempts:  attempts,
	}
	if err := d.deadLetters.CreateDeadLetter(letter); err != nil {
		log.Printf("job %s: recording dead letter: %v", job.ID, err)
	}
}
