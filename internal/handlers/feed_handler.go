package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/feedline/backend/internal/cache"
	"github.com/feedline/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// defaultFeedCacheTTL is the safety net for cache entries the
// invalidation worker never reaches.
const defaultFeedCacheTTL = 5 * time.Minute

// FeedHandler serves the materialized feed read path: one index-ordered
// scan over the feed entry store, behind a best-effort response cache.
type FeedHandler struct {
	feedRepository repositories.FeedRepository
	cache          cache.Cache
	cacheTTL       time.Duration
}

// NewFeedHandler creates a new FeedHandler. cacheTTL <= 0 selects the
// default of five minutes.
func NewFeedHandler(feedRepo repositories.FeedRepository, c cache.Cache, cacheTTL time.Duration) *FeedHandler {
	if cacheTTL <= 0 {
		cacheTTL = defaultFeedCacheTTL
	}
	return &FeedHandler{
		feedRepository: feedRepo,
		cache:          c,
		cacheTTL:       cacheTTL,
	}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
}

// GetFeed returns one reverse-chronological page of the current user's
// feed. Pagination is cursor-based: pass the returned next_before value
// as ?before= to fetch the following page.
func (h *FeedHandler) GetFeed(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 50 {
		limit = 20
	}
	// The cursor carries the boundary entry's created_at at full precision;
	// anything coarser would drop entries sharing its truncated timestamp.
	beforeNanos, _ := strconv.ParseInt(c.QueryParam("before"), 10, 64)
	var before time.Time
	if beforeNanos > 0 {
		before = time.Unix(0, beforeNanos)
	}

	key := cache.FeedPageKey(currentUserID, beforeNanos, limit)
	if cached, ok, err := h.cache.Get(c.Request().Context(), key); err != nil {
		// Cache trouble never fails a read; recompute from the store.
		log.Printf("feed: cache get %s: %v", key, err)
	} else if ok {
		return c.JSONBlob(http.StatusOK, []byte(cached))
	}

	entries, err := h.feedRepository.ListByRecipient(c.Request().Context(), currentUserID, before, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var nextBefore int64
	if len(entries) == limit {
		nextBefore = entries[len(entries)-1].CreatedAt.UnixNano()
	}

	body, err := json.Marshal(echo.Map{
		"success": true,
		"data":    echo.Map{"entries": entries},
		"meta": echo.Map{
			"count":       len(entries),
			"next_before": nextBefore,
		},
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.cache.Set(c.Request().Context(), key, string(body), h.cacheTTL); err != nil {
		log.Printf("feed: cache set %s: %v", key, err)
	}

	return c.JSONBlob(http.StatusOK, body)
}
