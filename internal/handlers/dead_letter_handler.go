package handlers

import (
	"net/http"
	"strconv"

	"github.com/feedline/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// DeadLetterHandler serves the operator view of permanently failed
// background jobs. Read-only; re-driving a dead letter is a manual
// operation outside the API.
type DeadLetterHandler struct {
	deadLetterRepository repositories.DeadLetterRepository
}

// NewDeadLetterHandler creates a new DeadLetterHandler
func NewDeadLetterHandler(deadLetterRepo repositories.DeadLetterRepository) *DeadLetterHandler {
	return &DeadLetterHandler{deadLetterRepository: deadLetterRepo}
}

// RegisterDeadLetterRoutes registers dead-letter routes
func (h *DeadLetterHandler) RegisterDeadLetterRoutes(g *echo.Group) {
	g.GET("/dead-letters", h.GetDeadLetters)
}

// GetDeadLetters returns the most recent dead letters, newest first
func (h *DeadLetterHandler) GetDeadLetters(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 200 {
		limit = 50
	}

	letters, err := h.deadLetterRepository.GetRecentDeadLetters(limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"dead_letters": letters},
		"meta":    echo.Map{"count": len(letters)},
	})
}
