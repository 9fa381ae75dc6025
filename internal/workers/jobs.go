// Package workers contains the fan-out-on-write feed materialization
// pipeline: the bulk idempotent writer, the fan-out and backfill workers
// that feed it, the cache invalidation worker, the counter reconciliation
// job, and the dispatcher the four run under.
package workers

import (
	"context"

	"github.com/feedline/backend/internal/models"
	"github.com/google/uuid"
)

// JobType identifies which worker handles a job.
type JobType string

const (
	JobFanOut     JobType = "feed.fan_out"
	JobBackfill   JobType = "feed.backfill"
	JobInvalidate JobType = "feed.invalidate"
	JobReconcile  JobType = "counters.reconcile"
)

// CounterType selects one denormalized counter for a reconciliation
// sub-job.
type CounterType string

const (
	CounterFollowers CounterType = models.ColumnFollowersCount
	CounterFollowing CounterType = models.ColumnFollowingCount
	CounterPosts     CounterType = models.ColumnPostsCount
)

// CounterTypes lists every reconcilable counter, in the order the
// scheduler enqueues them.
var CounterTypes = []CounterType{CounterFollowers, CounterFollowing, CounterPosts}

// Job is the fixed serializable argument tuple a worker is invoked with.
// Exactly one group of fields is meaningful per type: PostID for fan-out,
// FollowerID+FollowedID for backfill, AuthorID for invalidation, Counter
// for reconciliation.
type Job struct {
	ID         string      `json:"id"`
	Type       JobType     `json:"type"`
	PostID     string      `json:"post_id,omitempty"`
	FollowerID uint        `json:"follower_id,omitempty"`
	FollowedID uint        `json:"followed_id,omitempty"`
	AuthorID   uint        `json:"author_id,omitempty"`
	Counter    CounterType `json:"counter,omitempty"`
}

// Queue is the producer side of the delivery substrate. Delivery is
// at-least-once: a worker may see the same job more than once and two
// jobs never have a guaranteed order, even for the same entity.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
}

// NewFanOutJob builds a fan-out job for a freshly created post.
func NewFanOutJob(postID string) Job {
	return Job{ID: uuid.NewString(), Type: JobFanOut, PostID: postID}
}

// NewBackfillJob builds a backfill job for a freshly created follow edge.
func NewBackfillJob(followerID, followedID uint) Job {
	return Job{ID: uuid.NewString(), Type: JobBackfill, FollowerID: followerID, FollowedID: followedID}
}

// NewInvalidateJob builds a cache invalidation job for the author's
// follower set.
func NewInvalidateJob(authorID uint) Job {
	return Job{ID: uuid.NewString(), Type: JobInvalidate, AuthorID: authorID}
}

// NewReconcileJob builds a reconciliation sub-job for one counter type.
func NewReconcileJob(counter CounterType) Job {
	return Job{ID: uuid.NewString(), Type: JobReconcile, Counter: counter}
}
