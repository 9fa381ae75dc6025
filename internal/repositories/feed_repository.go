package repositories

import (
	"context"
	"time"

	"github.com/feedline/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FeedRepository defines the interface for the materialized feed store.
// Rows are appended by the fan-out and backfill workers and bulk-deleted
// when a post, an author account, or a follow edge goes away; nothing
// ever updates a row in place.
type FeedRepository interface {
	// InsertBatch inserts the given entries in a single statement, silently
	// skipping any entry whose (recipient_id, post_id) pair already exists.
	// Returns the number of rows actually inserted.
	InsertBatch(ctx context.Context, entries []models.FeedEntry) (int64, error)

	// ListByRecipient returns the recipient's feed page in reverse
	// chronological order. A non-zero before cursor restricts the page to
	// entries strictly older than it.
	ListByRecipient(ctx context.Context, recipientID uint, before time.Time, limit int) ([]models.FeedEntry, error)

	DeleteByPost(ctx context.Context, postID string) error
	DeleteByAuthor(ctx context.Context, authorID uint) error
	DeleteByRecipientAndAuthor(ctx context.Context, recipientID, authorID uint) error
}

// PostgresFeedRepository implements FeedRepository for PostgreSQL
type PostgresFeedRepository struct {
	db *gorm.DB
}

// NewPostgresFeedRepository creates a new PostgresFeedRepository
func NewPostgresFeedRepository(db *gorm.DB) *PostgresFeedRepository {
	return &PostgresFeedRepository{db: db}
}

// InsertBatch inserts feed entries, ignoring duplicate (recipient, post) pairs
func (r *PostgresFeedRepository) InsertBatch(ctx context.Context, entries []models.FeedEntry) (int64, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "recipient_id"}, {Name: "post_id"}},
		DoNothing: true,
	}).Create(&entries)
	return res.RowsAffected, res.Error
}

// ListByRecipient returns one reverse-chronological feed page. This is the
// sole read contract the feed API depends on: a single index-ordered scan
// over (recipient_id, created_at DESC), never a join.
func (r *PostgresFeedRepository) ListByRecipient(ctx context.Context, recipientID uint, before time.Time, limit int) ([]models.FeedEntry, error) {
	var entries []models.FeedEntry
	q := r.db.WithContext(ctx).Where("recipient_id = ?", recipientID)
	if !before.IsZero() {
		q = q.Where("created_at < ?", before)
	}
	err := q.Order("created_at DESC").Limit(limit).Find(&entries).Error
	return entries, err
}

// DeleteByPost removes every feed row referencing the post
func (r *PostgresFeedRepository) DeleteByPost(ctx context.Context, postID string) error {
	return r.db.WithContext(ctx).Where("post_id = ?", postID).Delete(&models.FeedEntry{}).Error
}

// DeleteByAuthor removes every feed row fanned out from the author
func (r *PostgresFeedRepository) DeleteByAuthor(ctx context.Context, authorID uint) error {
	return r.db.WithContext(ctx).Where("author_id = ?", authorID).Delete(&models.FeedEntry{}).Error
}

// DeleteByRecipientAndAuthor removes the author's rows from one recipient's
// feed. Runs on unfollow, scoped by the (recipient_id, author_id) index.
func (r *PostgresFeedRepository) DeleteByRecipientAndAuthor(ctx context.Context, recipientID, authorID uint) error {
	return r.db.WithContext(ctx).
		Where("recipient_id = ? AND author_id = ?", recipientID, authorID).
		Delete(&models.FeedEntry{}).Error
}
