package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/feedline/backend/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubDeadLetterRepo serves a fixed letter set and records the limit it
// was asked for.
type stubDeadLetterRepo struct {
	letters        []models.DeadLetter
	requestedLimit int
}

func (s *stubDeadLetterRepo) CreateDeadLetter(letter *models.DeadLetter) error {
	s.letters = append(s.letters, *letter)
	return nil
}

func (s *stubDeadLetterRepo) GetRecentDeadLetters(limit int) ([]models.DeadLetter, error) {
	s.requestedLimit = limit
	if len(s.letters) > limit {
		return s.letters[:limit], nil
	}
	return s.letters, nil
}

func getDeadLetters(t *testing.T, h *DeadLetterHandler, userID uint, query string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/dead-letters?"+query, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != 0 {
		c.Set("user", &models.JwtCustomClaims{UserID: userID})
	}
	if err := h.GetDeadLetters(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestGetDeadLettersReturnsRecentFailures(t *testing.T) {
	repo := &stubDeadLetterRepo{letters: []models.DeadLetter{
		{JobID: "j2", JobType: "feed.fan_out", LastError: "store down", Attempts: 3},
		{JobID: "j1", JobType: "feed.backfill", LastError: "store down", Attempts: 3},
	}}
	h := NewDeadLetterHandler(repo)

	rec := getDeadLetters(t, h, 1, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			DeadLetters []models.DeadLetter `json:"dead_letters"`
		} `json:"data"`
		Meta struct {
			Count int `json:"count"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Data.DeadLetters, 2)
	assert.Equal(t, "j2", resp.Data.DeadLetters[0].JobID)
	assert.Equal(t, 2, resp.Meta.Count)
}

func TestGetDeadLettersClampsLimit(t *testing.T) {
	repo := &stubDeadLetterRepo{}
	h := NewDeadLetterHandler(repo)

	getDeadLetters(t, h, 1, "limit=5000")
	assert.Equal(t, 50, repo.requestedLimit)

	getDeadLetters(t, h, 1, "limit=10")
	assert.Equal(t, 10, repo.requestedLimit)
}

func TestGetDeadLettersRequiresAuthentication(t *testing.T) {
	h := NewDeadLetterHandler(&stubDeadLetterRepo{})
	rec := getDeadLetters(t, h, 0, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
