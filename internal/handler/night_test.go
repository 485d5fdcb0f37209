package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelclub/movienight/internal/movie"
	"github.com/reelclub/movienight/internal/queue"
	"github.com/reelclub/movienight/internal/repository"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newNightHandler(nights *fakeNightStore, groups *fakeGroupStore) *NightHandler {
	h := NewNightHandler(nights, groups, testLogger())
	h.publishSelected = func(context.Context, queue.MovieSelectedEvent) error { return nil }
	h.publishCancelled = func(context.Context, queue.NightCancelledEvent) error { return nil }
	return h
}

// newCtx builds an echo context for a JSON request, optionally authenticated
// as groupID and carrying a night id path param.
func newCtx(t *testing.T, method string, body any, groupID uint64, nightID string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/", &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	if groupID != 0 {
		c.Set("group_id", groupID)
	}
	if nightID != "" {
		c.SetParamNames("id")
		c.SetParamValues(nightID)
	}
	return c, rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func seedNight(nights *fakeNightStore, groupID uint64, startsAt string) repository.MovieNight {
	n := repository.MovieNight{
		GroupID:     groupID,
		StartsAt:    startsAt,
		Timezone:    "UTC",
		Nominations: map[string]movie.Movie{},
	}
	_ = nights.Create(context.Background(), &n)
	return n
}

func TestCreateNightValidatesDate(t *testing.T) {
	h := newNightHandler(newFakeNightStore(), newFakeGroupStore())

	c, rec := newCtx(t, http.MethodPost, createNightReq{Date: "next friday"}, 1, "")
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = newCtx(t, http.MethodPost, createNightReq{Date: "2026-09-04 20:00", Timezone: "PST"}, 1, "")
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "2026-09-04 20:00:00", body["date"])
	assert.Equal(t, "PST", body["timezone"])
	assert.Empty(t, body["nominations"])
	assert.Nil(t, body["selected_id"])
}

func TestNominateMergesByExternalID(t *testing.T) {
	nights := newFakeNightStore()
	h := newNightHandler(nights, newFakeGroupStore())
	n := seedNight(nights, 1, "2026-09-04 20:00:00")

	first := nominateReq{Movie: movie.Movie{ID: "tt0133093", Title: "The Matrix", Year: 1999}}
	c, rec := newCtx(t, http.MethodPost, first, 1, "1")
	require.NoError(t, h.Nominate(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// Re-nominating the same id replaces the inlined record in place.
	second := nominateReq{Movie: movie.Movie{ID: "tt0133093", Title: "The Matrix", Year: 1999, RuntimeMin: 136}}
	c, rec = newCtx(t, http.MethodPost, second, 1, "1")
	require.NoError(t, h.Nominate(c))
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := nights.GetByID(context.Background(), n.ID)
	require.NoError(t, err)
	require.Len(t, stored.Nominations, 1)
	assert.Equal(t, 136, stored.Nominations["tt0133093"].RuntimeMin)
}

func TestNominateOtherGroupsNightIs404(t *testing.T) {
	nights := newFakeNightStore()
	h := newNightHandler(nights, newFakeGroupStore())
	seedNight(nights, 2, "2026-09-04 20:00:00")

	req := nominateReq{Movie: movie.Movie{ID: "tt0133093"}}
	c, rec := newCtx(t, http.MethodPost, req, 1, "1")
	require.NoError(t, h.Nominate(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPickSingleCandidate(t *testing.T) {
	nights := newFakeNightStore()
	h := newNightHandler(nights, newFakeGroupStore())
	n := seedNight(nights, 1, "2026-09-04 20:00:00")
	n.Nominations["tt0111161"] = movie.Movie{ID: "tt0111161", Title: "The Shawshank Redemption"}
	require.NoError(t, nights.SaveNominations(context.Background(), n.ID, n.Nominations))

	c, rec := newCtx(t, http.MethodPost, nil, 1, "1")
	require.NoError(t, h.Pick(c))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "tt0111161", body["selected_id"])

	stored, err := nights.GetByID(context.Background(), n.ID)
	require.NoError(t, err)
	assert.Equal(t, "tt0111161", stored.SelectedID.String)
}

func TestPickWithNoCandidatesConflicts(t *testing.T) {
	nights := newFakeNightStore()
	h := newNightHandler(nights, newFakeGroupStore())
	seedNight(nights, 1, "2026-09-04 20:00:00")

	c, rec := newCtx(t, http.MethodPost, nil, 1, "1")
	require.NoError(t, h.Pick(c))
	assert.Equal(t, http.StatusConflict, rec.Code)

	stored, err := nights.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, stored.SelectedID.Valid)
}

func TestPickIsUniformOverCandidates(t *testing.T) {
	nights := newFakeNightStore()
	h := newNightHandler(nights, newFakeGroupStore())
	n := seedNight(nights, 1, "2026-09-04 20:00:00")
	n.Nominations["tt0000001"] = movie.Movie{ID: "tt0000001"}
	n.Nominations["tt0000002"] = movie.Movie{ID: "tt0000002"}
	require.NoError(t, nights.SaveNominations(context.Background(), n.ID, n.Nominations))

	const trials = 1000
	counts := map[string]int{}
	for i := 0; i < trials; i++ {
		c, rec := newCtx(t, http.MethodPost, nil, 1, "1")
		require.NoError(t, h.Pick(c))
		require.Equal(t, http.StatusOK, rec.Code)
		counts[decodeBody(t, rec)["selected_id"].(string)]++
	}

	// With p=0.5 the count is ~500 with sigma ~15.8; 400..600 is over
	// six sigma out, so a correct draw essentially never fails this.
	for _, id := range []string{"tt0000001", "tt0000002"} {
		assert.Greater(t, counts[id], 400, "candidate %s drawn %d of %d", id, counts[id], trials)
		assert.Less(t, counts[id], 600, "candidate %s drawn %d of %d", id, counts[id], trials)
	}
}

func TestClearSelection(t *testing.T) {
	nights := newFakeNightStore()
	h := newNightHandler(nights, newFakeGroupStore())
	n := seedNight(nights, 1, "2026-09-04 20:00:00")
	n.Nominations["tt0111161"] = movie.Movie{ID: "tt0111161"}
	require.NoError(t, nights.SaveNominations(context.Background(), n.ID, n.Nominations))

	// Nothing selected yet.
	c, rec := newCtx(t, http.MethodDelete, nil, 1, "1")
	require.NoError(t, h.Clear(c))
	assert.Equal(t, http.StatusConflict, rec.Code)

	c, rec = newCtx(t, http.MethodPost, nil, 1, "1")
	require.NoError(t, h.Pick(c))
	require.Equal(t, http.StatusOK, rec.Code)

	c, rec = newCtx(t, http.MethodDelete, nil, 1, "1")
	require.NoError(t, h.Clear(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	stored, err := nights.GetByID(context.Background(), n.ID)
	require.NoError(t, err)
	assert.False(t, stored.SelectedID.Valid)
	// Nominations survive a clear so the group can redraw.
	assert.Len(t, stored.Nominations, 1)
}

func TestCancelIsNotIdempotent(t *testing.T) {
	nights := newFakeNightStore()
	h := newNightHandler(nights, newFakeGroupStore())
	seedNight(nights, 1, "2026-09-04 20:00:00")

	c, rec := newCtx(t, http.MethodDelete, nil, 1, "1")
	require.NoError(t, h.Cancel(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	c, rec = newCtx(t, http.MethodDelete, nil, 1, "1")
	require.NoError(t, h.Cancel(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWatchedIsDistinctPastSelections(t *testing.T) {
	nights := newFakeNightStore()
	h := newNightHandler(nights, newFakeGroupStore())
	h.now = func() time.Time {
		return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	}

	sel := func(startsAt, id string) {
		n := seedNight(nights, 1, startsAt)
		require.NoError(t, nights.SetSelected(context.Background(), n.ID, &id))
	}
	sel("2026-08-01 20:00:00", "tt0111161")
	sel("2026-08-08 20:00:00", "tt0111161") // rewatch, counted once
	sel("2026-08-15 20:00:00", "tt0133093")
	sel("2026-12-01 20:00:00", "tt0068646") // future, excluded

	c, rec := newCtx(t, http.MethodGet, nil, 1, "")
	require.NoError(t, h.Watched(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		MovieIDs []string `json:"movie_ids"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.ElementsMatch(t, []string{"tt0111161", "tt0133093"}, body.MovieIDs)
}

func TestListWithoutSessionIsUnauthorized(t *testing.T) {
	h := newNightHandler(newFakeNightStore(), newFakeGroupStore())
	c, rec := newCtx(t, http.MethodGet, nil, 0, "")
	require.NoError(t, h.List(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
