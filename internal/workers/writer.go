package workers

import (
	"context"

	"github.com/feedline/backend/internal/models"
	"github.com/feedline/backend/internal/repositories"
	"github.com/feedline/backend/pkg/metrics"
)

// defaultBatchSize bounds the memory and transaction footprint of a
// single bulk write, independent of follower count or backlog size.
const defaultBatchSize = 1000

// BatchResult reports what a bulk write actually did. Skipped counts
// candidates whose (recipient, post) pair already existed.
type BatchResult struct {
	Inserted int64
	Skipped  int64
}

// FeedWriter is the bulk idempotent writer shared by every producer of
// feed rows. It splits candidates into fixed-size batches and tolerates
// duplicate-key collisions without aborting a batch; duplicate-key is the
// sole exception class it absorbs, everything else propagates.
type FeedWriter struct {
	feedRepo  repositories.FeedRepository
	batchSize int
}

// NewFeedWriter creates a new FeedWriter. batchSize <= 0 selects the
// default of 1000.
func NewFeedWriter(feedRepo repositories.FeedRepository, batchSize int) *FeedWriter {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &FeedWriter{feedRepo: feedRepo, batchSize: batchSize}
}

// Write inserts the candidate entries in bounded batches and returns how
// many were stored versus skipped as duplicates.
func (w *FeedWriter) Write(ctx context.Context, entries []models.FeedEntry) (BatchResult, error) {
	var result BatchResult
	for start := 0; start < len(entries); start += w.batchSize {
		end := start + w.batchSize
		if end > len(entries) {
			end = len(entries)
		}
		batch := entries[start:end]

		inserted, err := w.feedRepo.InsertBatch(ctx, batch)
		if err != nil {
			if !repositories.IsDuplicateKey(err) {
				return result, err
			}
			// The store rejected the whole batch on the unique key instead
			// of skipping the colliding rows (no conflict-clause support).
			// Fall back to row-at-a-time so the rest of the batch commits.
			inserted, err = w.writeRows(ctx, batch)
			if err != nil {
				return result, err
			}
		}
		result.Inserted += inserted
		result.Skipped += int64(len(batch)) - inserted
	}

	metrics.FeedRowsInserted.Add(float64(result.Inserted))
	metrics.FeedRowsSkipped.Add(float64(result.Skipped))
	return result, nil
}

// writeRows inserts entries one at a time, skipping duplicates.
func (w *FeedWriter) writeRows(ctx context.Context, entries []models.FeedEntry) (int64, error) {
	var inserted int64
	for i := range entries {
		n, err := w.feedRepo.InsertBatch(ctx, entries[i:i+1])
		if err != nil {
			if repositories.IsDuplicateKey(err) {
				continue
			}
			return inserted, err
		}
		inserted += n
	}
	return inserted, nil
}
