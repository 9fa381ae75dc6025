// Package cache abstracts the read-through response cache behind an
// explicit two-operation invalidation contract: point delete and prefix
// delete. Prefix deletion exists because one logical feed has many
// physical cache entries, one per pagination cursor a past read used.
//
// The cache is never a source of correctness. Every value it holds can be
// recomputed from the feed entry store, and every entry carries a TTL as
// a safety net, so invalidation is strictly best-effort.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache is the interface every backend implements. DeletePrefix is
// advisory: a backend that cannot enumerate keys by prefix reports the
// gap through its error instead of claiming success, and callers must
// not treat the error as fatal.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// FeedKeyPrefix returns the key prefix shared by every cached feed page
// of one recipient.
func FeedKeyPrefix(recipientID uint) string {
	return fmt.Sprintf("feed:%d:", recipientID)
}

// FeedPageKey returns the cache key for one feed page. beforeNanos is
// the pagination cursor in unix nanoseconds (0 for the first page).
func FeedPageKey(recipientID uint, beforeNanos int64, limit int) string {
	return fmt.Sprintf("%s%d:%d", FeedKeyPrefix(recipientID), beforeNanos, limit)
}
