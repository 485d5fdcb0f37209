package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelclub/movienight/internal/repository"
)

type stubValidator struct {
	groupID uint64
	err     error
}

func (s stubValidator) Validate(echo.Context) (uint64, error) { return s.groupID, s.err }

func runSessionAuth(t *testing.T, v SessionValidator) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	reached := false
	h := sessionAuthWith(v)(func(c echo.Context) error {
		reached = true
		id, ok := GroupID(c)
		require.True(t, ok)
		assert.Equal(t, uint64(7), id)
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return rec, reached
}

func TestSessionAuthInjectsGroupID(t *testing.T) {
	rec, reached := runSessionAuth(t, stubValidator{groupID: 7})
	assert.True(t, reached)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionAuthRejectsUnknownAndExpiredAlike(t *testing.T) {
	for name, err := range map[string]error{
		"unknown token": repository.ErrNotFound,
		"expired token": repository.ErrSessionExpired,
	} {
		t.Run(name, func(t *testing.T) {
			rec, reached := runSessionAuth(t, stubValidator{err: err})
			assert.False(t, reached)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"error":"invalid or expired session"}`, rec.Body.String())
		})
	}
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := echo.New().NewContext(req, httptest.NewRecorder())
	assert.Empty(t, bearerToken(c))

	req.Header.Set("Authorization", "Bearer abc123")
	assert.Equal(t, "abc123", bearerToken(c))

	req.Header.Set("Authorization", "Basic abc123")
	assert.Empty(t, bearerToken(c))
}
