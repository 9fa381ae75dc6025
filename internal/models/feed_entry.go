package models

import "time"

// FeedEntry is one materialized feed row: post PostID is visible in
// RecipientID's feed. AuthorID and CreatedAt are denormalized from the
// post so that feed reads and unfollow cleanup never join to the post
// store. Rows are only ever inserted or bulk-deleted, never updated.
//
// The unique index on (recipient_id, post_id) is the concurrency-safety
// mechanism for the whole fan-out pipeline: two overlapping attempts to
// insert the same row converge to exactly one stored row.
type FeedEntry struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	RecipientID uint      `json:"recipient_id" gorm:"uniqueIndex:idx_feed_recipient_post,priority:1;index:idx_feed_recipient_created,priority:1;index:idx_feed_recipient_author,priority:1"`
	PostID      string    `json:"post_id" gorm:"uniqueIndex:idx_feed_recipient_post,priority:2"`
	AuthorID    uint      `json:"author_id" gorm:"index:idx_feed_recipient_author,priority:2"`
	CreatedAt   time.Time `json:"created_at" gorm:"index:idx_feed_recipient_created,priority:2,sort:desc"`
}
