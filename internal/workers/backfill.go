package workers

import (
	"context"
	"log"

	"github.com/feedline/backend/internal/models"
	"github.com/feedline/backend/internal/repositories"
)

// defaultBackfillLimit caps how much history a new follower receives.
// Policy, not a tuning knob: a new follower sees recent context, not the
// followed account's entire archive.
const defaultBackfillLimit = 50

// BackfillWorker seeds a new follower's feed with the followed account's
// most recent top-level posts, so a fresh follow edge feels populated
// immediately.
type BackfillWorker struct {
	userRepo repositories.UserRepository
	postRepo repositories.PostRepository
	writer   *FeedWriter
	limit    int
}

// NewBackfillWorker creates a new BackfillWorker. limit <= 0 selects the
// default window of 50 posts.
func NewBackfillWorker(userRepo repositories.UserRepository, postRepo repositories.PostRepository, writer *FeedWriter, limit int) *BackfillWorker {
	if limit <= 0 {
		limit = defaultBackfillLimit
	}
	return &BackfillWorker{
		userRepo: userRepo,
		postRepo: postRepo,
		writer:   writer,
		limit:    limit,
	}
}

// Run populates followerID's feed from followedID's recent history.
func (w *BackfillWorker) Run(ctx context.Context, followerID, followedID uint) error {
	// Both accounts must still resolve; either may have vanished between
	// enqueue and execution.
	if _, err := w.userRepo.GetUserByID(followerID); err != nil {
		if repositories.IsNotFound(err) {
			return nil
		}
		return err
	}
	if _, err := w.userRepo.GetUserByID(followedID); err != nil {
		if repositories.IsNotFound(err) {
			return nil
		}
		return err
	}

	posts, err := w.postRepo.GetRecentTopLevelPosts(ctx, followedID, int64(w.limit))
	if err != nil {
		return err
	}
	// The query is bounded, but the cap is policy: enforce it here too.
	if len(posts) > w.limit {
		posts = posts[:w.limit]
	}
	if len(posts) == 0 {
		return nil
	}

	entries := make([]models.FeedEntry, 0, len(posts))
	for _, post := range posts {
		entries = append(entries, models.FeedEntry{
			RecipientID: followerID,
			PostID:      post.ID.Hex(),
			AuthorID:    followedID,
			CreatedAt:   post.CreatedAt,
		})
	}

	result, err := w.writer.Write(ctx, entries)
	if err != nil {
		return err
	}
	log.Printf("backfill: user %d <- %d recent posts of user %d (%d inserted, %d skipped)",
		followerID, len(posts), followedID, result.Inserted, result.Skipped)
	return nil
}
