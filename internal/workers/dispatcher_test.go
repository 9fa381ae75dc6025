package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestDispatcher builds a single-worker dispatcher with near-zero
// backoff so retry tests finish quickly.
func newTestDispatcher(deadLetters *fakeDeadLetterRepo) *Dispatcher {
	d := NewDispatcher(deadLetters, 1, 16)
	d.retryInterval = time.Millisecond
	return d
}

func TestDispatcherRetriesThenDeadLetters(t *testing.T) {
	deadLetters := &fakeDeadLetterRepo{}
	d := newTestDispatcher(deadLetters)

	var mu sync.Mutex
	attempts := 0
	done := make(chan struct{})
	d.Register(JobFanOut, func(ctx context.Context, job Job) error {
		mu.Lock()
		attempts++
		mu.Unlock()
		if attempts == defaultMaxAttempts {
			close(done)
		}
		return errors.New("store down")
	})

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	job := NewFanOutJob("64f000000000000000000001")
	require.NoError(t, d.Enqueue(ctx, job))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("handler never reached its attempt budget")
	}

	// The dead letter is written after the final attempt returns.
	require.Eventually(t, func() bool {
		return len(deadLetters.all()) == 1
	}, 5*time.Second, 5*time.Millisecond)

	cancel()
	d.Wait()

	mu.Lock()
	assert.Equal(t, defaultMaxAttempts, attempts)
	mu.Unlock()

	letter := deadLetters.all()[0]
	assert.Equal(t, job.ID, letter.JobID)
	assert.Equal(t, string(JobFanOut), letter.JobType)
	assert.Equal(t, defaultMaxAttempts, letter.Attempts)
	assert.Contains(t, letter.LastError, "store down")
	assert.Contains(t, letter.Payload, job.PostID)
}

func TestDispatcherRecoversOnRetry(t *testing.T) {
	deadLetters := &fakeDeadLetterRepo{}
	d := newTestDispatcher(deadLetters)

	var mu sync.Mutex
	attempts := 0
	done := make(chan struct{})
	d.Register(JobInvalidate, func(ctx context.Context, job Job) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts < 2 {
			return errors.New("transient")
		}
		close(done)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	require.NoError(t, d.Enqueue(ctx, NewInvalidateJob(1)))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("handler never succeeded")
	}

	cancel()
	d.Wait()

	mu.Lock()
	assert.Equal(t, 2, attempts)
	mu.Unlock()
	assert.Empty(t, deadLetters.all())
}

func TestDispatcherDeadLettersUnknownJobType(t *testing.T) {
	deadLetters := &fakeDeadLetterRepo{}
	d := newTestDispatcher(deadLetters)

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	require.NoError(t, d.Enqueue(ctx, Job{ID: "j1", Type: JobType("feed.unknown")}))

	require.Eventually(t, func() bool {
		return len(deadLetters.all()) == 1
	}, 5*time.Second, 5*time.Millisecond)

	cancel()
	d.Wait()

	letter := deadLetters.all()[0]
	assert.Equal(t, "j1", letter.JobID)
	assert.Contains(t, letter.LastError, "no handler registered")
}

func TestDispatcherEnqueueRespectsContext(t *testing.T) {
	d := NewDispatcher(nil, 1, 1)
	// Never started, so the single buffer slot fills and the second
	// enqueue blocks until the context expires.
	ctx := context.Background()
	require.NoError(t, d.Enqueue(ctx, NewInvalidateJob(1)))

	shortCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	err := d.Enqueue(shortCtx, NewInvalidateJob(2))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
