package workers

import (
	"context"
	"log"

	"github.com/feedline/backend/internal/models"
	"github.com/feedline/backend/internal/repositories"
)

// FanOutWorker materializes a new top-level post into every follower's
// feed. Triggered once per post creation; safe to run again for the same
// post because the writer absorbs duplicates.
type FanOutWorker struct {
	postRepo   repositories.PostRepository
	followRepo repositories.FollowRepository
	writer     *FeedWriter
	queue      Queue
}

// NewFanOutWorker creates a new FanOutWorker. queue receives the
// follow-up cache invalidation job and may be nil in tests.
func NewFanOutWorker(postRepo repositories.PostRepository, followRepo repositories.FollowRepository, writer *FeedWriter, queue Queue) *FanOutWorker {
	return &FanOutWorker{
		postRepo:   postRepo,
		followRepo: followRepo,
		writer:     writer,
		queue:      queue,
	}
}

// Run fans the post out to the author's followers.
func (w *FanOutWorker) Run(ctx context.Context, postID string) error {
	post, err := w.postRepo.GetPostByID(ctx, postID)
	if err != nil {
		if repositories.IsNotFound(err) {
			// Deleted between enqueue and execution.
			return nil
		}
		return err
	}
	if post.IsReply() {
		// Replies surface in their parent's thread, not in follower feeds.
		return nil
	}
	if post.AuthorID == 0 {
		return nil
	}

	followerIDs, err := w.followRepo.GetFollowerIDs(post.AuthorID)
	if err != nil {
		return err
	}
	if len(followerIDs) == 0 {
		return nil
	}

	entries := make([]models.FeedEntry, 0, len(followerIDs))
	for _, followerID := range followerIDs {
		entries = append(entries, models.FeedEntry{
			RecipientID: followerID,
			PostID:      post.ID.Hex(),
			AuthorID:    post.AuthorID,
			CreatedAt:   post.CreatedAt,
		})
	}

	result, err := w.writer.Write(ctx, entries)
	if err != nil {
		return err
	}
	log.Printf("fan-out: post %s -> %d followers (%d inserted, %d skipped)",
		postID, len(followerIDs), result.Inserted, result.Skipped)

	// Stale cached feed pages for these followers are now wrong; hand the
	// cleanup to the invalidation worker. Failure to enqueue never fails
	// the fan-out, entries expire on TTL anyway.
	if w.queue != nil {
		if err := w.queue.Enqueue(ctx, NewInvalidateJob(post.AuthorID)); err != nil {
			log.Printf("fan-out: enqueue invalidation for author %d: %v", post.AuthorID, err)
		}
	}
	return nil
}
