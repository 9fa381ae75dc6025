package workers

import (
	"context"
	"fmt"
	"log"

	"github.com/feedline/backend/internal/repositories"
)

// defaultReconcilePageSize bounds how many account IDs one reconciliation
// pass holds in memory.
const defaultReconcilePageSize = 500

// CounterReconciler rebuilds one denormalized counter for every account
// from the true cardinality of the underlying relationship. Writes are
// absolute and idempotent: running a pass twice with no graph changes in
// between leaves every counter unchanged. The guarantee is eventual
// correctness, not a consistent snapshot.
type CounterReconciler struct {
	userRepo   repositories.UserRepository
	followRepo repositories.FollowRepository
	postRepo   repositories.PostRepository
	pageSize   int
}

// NewCounterReconciler creates a new CounterReconciler. pageSize <= 0
// selects the default of 500.
func NewCounterReconciler(userRepo repositories.UserRepository, followRepo repositories.FollowRepository, postRepo repositories.PostRepository, pageSize int) *CounterReconciler {
	if pageSize <= 0 {
		pageSize = defaultReconcilePageSize
	}
	return &CounterReconciler{
		userRepo:   userRepo,
		followRepo: followRepo,
		postRepo:   postRepo,
		pageSize:   pageSize,
	}
}

// Run recomputes the given counter for every account, paging through the
// account table in ID order.
func (r *CounterReconciler) Run(ctx context.Context, counter CounterType) error {
	switch counter {
	case CounterFollowers, CounterFollowing, CounterPosts:
	default:
		return fmt.Errorf("unknown counter type %q", counter)
	}

	var reconciled int
	afterID := uint(0)
	for {
		ids, err := r.userRepo.GetUserIDsPage(afterID, r.pageSize)
		if err != nil {
			return err
		}
		for _, id := range ids {
			value, err := r.cardinality(ctx, counter, id)
			if err != nil {
				return err
			}
			if err := r.userRepo.UpdateCounter(id, string(counter), value); err != nil {
				return err
			}
			reconciled++
		}
		if len(ids) < r.pageSize {
			break
		}
		afterID = ids[len(ids)-1]
	}

	log.Printf("reconcile: %s rebuilt for %d accounts", counter, reconciled)
	return nil
}

// cardinality returns the current true value of the counter for one
// account.
func (r *CounterReconciler) cardinality(ctx context.Context, counter CounterType, userID uint) (int64, error) {
	switch counter {
	case CounterFollowers:
		return r.followRepo.GetFollowersCount(userID)
	case CounterFollowing:
		return r.followRepo.GetFollowingCount(userID)
	case CounterPosts:
		return r.postRepo.CountTopLevelPosts(ctx, userID)
	default:
		return 0, fmt.Errorf("unknown counter type %q", counter)
	}
}
