package workers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerEnqueuesAllCountersOnStart(t *testing.T) {
	queue := &fakeQueue{}
	s := NewScheduler(queue, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	// The first pass runs at startup, not an interval later.
	require.Eventually(t, func() bool {
		return len(queue.enqueued()) == len(CounterTypes)
	}, time.Second, 5*time.Millisecond)

	var counters []CounterType
	for _, job := range queue.enqueued() {
		assert.Equal(t, JobReconcile, job.Type)
		counters = append(counters, job.Counter)
	}
	assert.ElementsMatch(t, CounterTypes, counters)
}

func TestSchedulerRepeatsEachInterval(t *testing.T) {
	queue := &fakeQueue{}
	s := NewScheduler(queue, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	require.Eventually(t, func() bool {
		return len(queue.enqueued()) >= 2*len(CounterTypes)
	}, time.Second, 5*time.Millisecond)
}
