package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/feedline/backend/internal/models"
	"github.com/feedline/backend/internal/repositories"
	"github.com/feedline/backend/internal/workers"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	postRepository repositories.PostRepository
	userRepository repositories.UserRepository
	feedRepository repositories.FeedRepository
	queue          workers.Queue
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(postRepo repositories.PostRepository, userRepo repositories.UserRepository, feedRepo repositories.FeedRepository, queue workers.Queue) *PostHandler {
	return &PostHandler{
		postRepository: postRepo,
		userRepository: userRepo,
		feedRepository: feedRepo,
		queue:          queue,
	}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts/:id", h.GetPost)
	g.GET("/posts", h.GetPosts)
	g.DELETE("/posts/:id", h.DeletePost)
}

// CreatePost creates a new post. Top-level posts are fanned out to the
// author's followers asynchronously; the request returns as soon as the
// post itself is stored.
func (h *PostHandler) CreatePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	post := &models.Post{
		AuthorID:  currentUserID,
		Content:   req.Content,
		ImageURLs: req.ImageURLs,
	}

	if req.ParentID != "" {
		parentID, err := primitive.ObjectIDFromHex(req.ParentID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid parent post ID")
		}
		parent, err := h.postRepository.GetPostByID(c.Request().Context(), req.ParentID)
		if err != nil {
			if repositories.IsNotFound(err) {
				return echo.NewHTTPError(http.StatusNotFound, "Parent post not found")
			}
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if parent.IsReply() {
			return echo.NewHTTPError(http.StatusBadRequest, "Cannot reply to a reply")
		}
		post.ParentID = &parentID
	}

	if err := h.postRepository.CreatePost(c.Request().Context(), post); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if !post.IsReply() {
		if err := h.userRepository.IncrementPostsCount(currentUserID); err != nil {
			log.Printf("create post %s: incrementing posts count: %v", post.ID.Hex(), err)
		}
		// Fan-out runs out of band; a failed enqueue leaves the post
		// readable on the author's profile and is logged for operators.
		if err := h.queue.Enqueue(c.Request().Context(), workers.NewFanOutJob(post.ID.Hex())); err != nil {
			log.Printf("create post %s: enqueue fan-out: %v", post.ID.Hex(), err)
		}
	}

	return c.JSON(http.StatusCreated, post)
}

// GetPost retrieves a post by ID
func (h *PostHandler) GetPost(c echo.Context) error {
	postID := c.Param("id")

	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, post)
}

// GetPosts retrieves posts by author
func (h *PostHandler) GetPosts(c echo.Context) error {
	authorID, err := strconv.ParseUint(c.QueryParam("author_id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid author ID")
	}
	skip, _ := strconv.ParseInt(c.QueryParam("skip"), 10, 64)
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if limit == 0 {
		limit = 10 // Default limit
	}

	posts, err := h.postRepository.GetPostsByAuthor(c.Request().Context(), uint(authorID), skip, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, posts)
}

// DeletePost deletes a post and cascades to every feed row referencing it
func (h *PostHandler) DeletePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	postID := c.Param("id")

	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if post.AuthorID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to delete this post")
	}

	if err := h.postRepository.DeletePost(c.Request().Context(), postID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// No orphaned feed row may outlive its post.
	if err := h.feedRepository.DeleteByPost(c.Request().Context(), postID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if !post.IsReply() {
		if err := h.userRepository.DecrementPostsCount(currentUserID); err != nil {
			log.Printf("delete post %s: decrementing posts count: %v", postID, err)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
