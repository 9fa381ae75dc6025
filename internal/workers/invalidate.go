package workers

import (
	"context"
	"log"

	"github.com/feedline/backend/internal/cache"
	"github.com/feedline/backend/internal/repositories"
	"github.com/feedline/backend/pkg/metrics"
)

// defaultFollowerPageSize bounds how many follower IDs the invalidation
// worker holds in memory at once.
const defaultFollowerPageSize = 1000

// InvalidationWorker clears cached feed pages for every follower of an
// author who just posted. Strictly best-effort: nothing here ever fails
// the triggering flow, because every cache entry expires on its TTL and a
// miss recomputes from the feed entry store.
type InvalidationWorker struct {
	followRepo repositories.FollowRepository
	cache      cache.Cache
	pageSize   int
}

// NewInvalidationWorker creates a new InvalidationWorker. pageSize <= 0
// selects the default of 1000.
func NewInvalidationWorker(followRepo repositories.FollowRepository, c cache.Cache, pageSize int) *InvalidationWorker {
	if pageSize <= 0 {
		pageSize = defaultFollowerPageSize
	}
	return &InvalidationWorker{
		followRepo: followRepo,
		cache:      c,
		pageSize:   pageSize,
	}
}

// Run walks the author's follower set in bounded pages and drops every
// cached feed page per follower. Always returns nil.
func (w *InvalidationWorker) Run(ctx context.Context, authorID uint) error {
	afterID := uint(0)
	for {
		followerIDs, err := w.followRepo.GetFollowerIDsPage(authorID, afterID, w.pageSize)
		if err != nil {
			log.Printf("invalidate: listing followers of %d after %d: %v", authorID, afterID, err)
			metrics.CacheInvalidationFailures.Inc()
			return nil
		}
		for _, followerID := range followerIDs {
			if err := w.cache.DeletePrefix(ctx, cache.FeedKeyPrefix(followerID)); err != nil {
				log.Printf("invalidate: feed cache of user %d: %v", followerID, err)
				metrics.CacheInvalidationFailures.Inc()
				continue
			}
			metrics.CacheInvalidations.Inc()
		}
		if len(followerIDs) < w.pageSize {
			return nil
		}
		afterID = followerIDs[len(followerIDs)-1]
	}
}
