package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/feedline/backend/internal/models"
	"github.com/feedline/backend/internal/repositories"
	"github.com/feedline/backend/internal/workers"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles follow/unfollow HTTP requests
type FollowHandler struct {
	followRepository repositories.FollowRepository
	userRepository   repositories.UserRepository
	feedRepository   repositories.FeedRepository
	queue            workers.Queue
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(followRepo repositories.FollowRepository, userRepo repositories.UserRepository, feedRepo repositories.FeedRepository, queue workers.Queue) *FollowHandler {
	return &FollowHandler{
		followRepository: followRepo,
		userRepository:   userRepo,
		feedRepository:   feedRepo,
		queue:            queue,
	}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.FollowUser)
	g.DELETE("/users/:id/follow", h.UnfollowUser)
}

// FollowUser follows a user and seeds the new feed relationship
func (h *FollowHandler) FollowUser(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	targetID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	if currentUserID == uint(targetID) {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot follow yourself")
	}

	if _, err := h.userRepository.GetUserByID(uint(targetID)); err != nil {
		if repositories.IsNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Check if already following
	isFollowing, err := h.followRepository.IsFollowing(currentUserID, uint(targetID))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if isFollowing {
		return echo.NewHTTPError(http.StatusConflict, "Already following this user")
	}

	follow := &models.Follow{
		FollowerID:  currentUserID,
		FollowingID: uint(targetID),
	}

	if err := h.followRepository.CreateFollow(follow); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Update counts; the reconciliation job repairs any drift.
	if err := h.userRepository.IncrementFollowingCount(currentUserID); err != nil {
		log.Printf("follow %d -> %d: incrementing following count: %v", currentUserID, targetID, err)
	}
	if err := h.userRepository.IncrementFollowersCount(uint(targetID)); err != nil {
		log.Printf("follow %d -> %d: incrementing followers count: %v", currentUserID, targetID, err)
	}

	// Seed the new follower's feed with recent history, out of band.
	if err := h.queue.Enqueue(c.Request().Context(), workers.NewBackfillJob(currentUserID, uint(targetID))); err != nil {
		log.Printf("follow %d -> %d: enqueue backfill: %v", currentUserID, targetID, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"following": true}})
}

// UnfollowUser unfollows a user and removes their posts from the feed
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	targetID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	if err := h.followRepository.DeleteFollow(currentUserID, uint(targetID)); err != nil {
		if repositories.IsNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "Follow relationship not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Update counts
	if err := h.userRepository.DecrementFollowingCount(currentUserID); err != nil {
		log.Printf("unfollow %d -> %d: decrementing following count: %v", currentUserID, targetID, err)
	}
	if err := h.userRepository.DecrementFollowersCount(uint(targetID)); err != nil {
		log.Printf("unfollow %d -> %d: decrementing followers count: %v", currentUserID, targetID, err)
	}

	// Bulk delete scoped by (recipient, author): the unfollowed account's
	// posts leave this user's materialized feed.
	if err := h.feedRepository.DeleteByRecipientAndAuthor(c.Request().Context(), currentUserID, uint(targetID)); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"following": false}})
}
