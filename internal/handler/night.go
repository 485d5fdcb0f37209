package handler

import (
	"context"
	"math/rand"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/reelclub/movienight/internal/middleware"
	"github.com/reelclub/movienight/internal/movie"
	"github.com/reelclub/movienight/internal/queue"
	"github.com/reelclub/movienight/internal/repository"
	"github.com/reelclub/movienight/internal/schedule"
	queue_publisher "github.com/reelclub/movienight/internal/service"
)

// inputTime is the wall-clock layout accepted when scheduling a night.
const inputTime = "2006-01-02 15:04"

// NightHandler implements the movie-night lifecycle for authenticated
// members: create, nominate, pick, clear, cancel, list, watched.
type NightHandler struct {
	Nights NightStore
	Groups GroupStore
	Log    *logrus.Logger

	// Injection points for tests; constructor fills in the real ones.
	now              func() time.Time
	randIntN         func(int) int
	publishSelected  func(context.Context, queue.MovieSelectedEvent) error
	publishCancelled func(context.Context, queue.NightCancelledEvent) error
}

func NewNightHandler(n NightStore, g GroupStore, log *logrus.Logger) *NightHandler {
	return &NightHandler{
		Nights:           n,
		Groups:           g,
		Log:              log,
		now:              time.Now,
		randIntN:         rand.Intn,
		publishSelected:  queue_publisher.PublishMovieSelected,
		publishCancelled: queue_publisher.PublishNightCancelled,
	}
}

// ----- DTOs -----

type createNightReq struct {
	Date        string `json:"date"` // "YYYY-MM-DD HH:MM" wall clock in Timezone
	Timezone    string `json:"timezone"`
	Description string `json:"description"`
	EventSecret string `json:"event_secret"` // optional; gates public nomination on this night
}

type nominateReq struct {
	Movie movie.Movie `json:"movie"`
}

// nightResp is the member-facing night shape. The event secret is included
// only here (the owner set it and shares it); public responses omit it.
type nightResp struct {
	ID          uint64           `json:"id"`
	Date        string           `json:"date"`
	Timezone    string           `json:"timezone"`
	Description string           `json:"description"`
	Upcoming    bool             `json:"upcoming"`
	Display     schedule.Display `json:"display"`
	Nominations []movie.Display  `json:"nominations"`
	SelectedID  *string          `json:"selected_id"`
	EventSecret *string          `json:"event_secret,omitempty"`
}

func (h *NightHandler) toResp(n repository.MovieNight, viewerOffset int) nightResp {
	resp := nightResp{
		ID:          n.ID,
		Date:        n.StartsAt,
		Timezone:    n.Timezone,
		Description: n.Description,
		Upcoming:    n.Upcoming(h.now()),
		Display:     schedule.Format(n.StartsAt, n.Timezone, viewerOffset),
		Nominations: projectNominations(n.Nominations),
	}
	if n.SelectedID.Valid {
		v := n.SelectedID.String
		resp.SelectedID = &v
	}
	if n.EventSecret.Valid {
		v := n.EventSecret.String
		resp.EventSecret = &v
	}
	return resp
}

// projectNominations flattens the nomination map into displays sorted by
// external id so list order is stable across calls.
func projectNominations(m map[string]movie.Movie) []movie.Display {
	ids := nominationKeys(m)
	out := make([]movie.Display, 0, len(ids))
	for _, id := range ids {
		out = append(out, movie.Project(m[id]))
	}
	return out
}

func nominationKeys(m map[string]movie.Movie) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// viewerOffset reads the viewer's UTC offset in whole hours from the
// tz_offset query parameter. Absent or malformed values mean UTC.
func viewerOffset(c echo.Context) int {
	n, err := strconv.Atoi(c.QueryParam("tz_offset"))
	if err != nil {
		return 0
	}
	return n
}

// Create schedules a new night for the caller's group with an empty
// nomination map and no selection.
func (h *NightHandler) Create(c echo.Context) error {
	groupID, ok := middleware.GroupID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createNightReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	date := strings.TrimSpace(req.Date)
	if date == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date required"})
	}
	if _, err := time.Parse(inputTime, date); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD HH:MM"})
	}
	tz := strings.TrimSpace(req.Timezone)
	if tz == "" {
		tz = "UTC"
	}

	n := repository.MovieNight{
		GroupID:     groupID,
		StartsAt:    date + ":00",
		Timezone:    tz,
		Description: strings.TrimSpace(req.Description),
		Nominations: map[string]movie.Movie{},
	}
	if s := strings.TrimSpace(req.EventSecret); s != "" {
		n.EventSecret.String, n.EventSecret.Valid = s, true
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Nights.Create(ctx, &n); err != nil {
		h.Log.WithError(err).Error("create night failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create night failed"})
	}
	return c.JSON(http.StatusCreated, h.toResp(n, viewerOffset(c)))
}

// List returns all of the group's nights ordered by date, each annotated
// upcoming/past and carrying display strings for the viewer's offset.
func (h *NightHandler) List(c echo.Context) error {
	groupID, ok := middleware.GroupID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	nights, err := h.Nights.ListByGroup(ctx, groupID)
	if err != nil {
		h.Log.WithError(err).Error("list nights failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list nights failed"})
	}
	off := viewerOffset(c)
	items := make([]nightResp, 0, len(nights))
	for _, n := range nights {
		items = append(items, h.toResp(n, off))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Nominate merges a movie into the night's nomination map keyed by its
// external id. Nominating the same movie again overwrites the inlined
// record; the map never grows a duplicate entry.
func (h *NightHandler) Nominate(c echo.Context) error {
	groupID, ok := middleware.GroupID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid night id"})
	}
	var req nominateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Movie.ID) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "movie.imdb_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	n, err := h.Nights.GetForGroup(ctx, id, groupID)
	if err != nil {
		return h.nightErr(c, err, "load night failed")
	}

	n.Nominations[req.Movie.ID] = req.Movie
	if err := h.Nights.SaveNominations(ctx, n.ID, n.Nominations); err != nil {
		h.Log.WithError(err).Error("save nominations failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "nominate failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"night_id":    n.ID,
		"nominations": projectNominations(n.Nominations),
	})
}

// Pick selects uniformly at random among the nomination keys and stores
// the winner. An empty nomination set is a 409, not a crash; the draw is
// uniform over current keys and weighted by nothing else.
func (h *NightHandler) Pick(c echo.Context) error {
	groupID, ok := middleware.GroupID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid night id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	n, err := h.Nights.GetForGroup(ctx, id, groupID)
	if err != nil {
		return h.nightErr(c, err, "load night failed")
	}
	if len(n.Nominations) == 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "no candidates nominated"})
	}

	keys := nominationKeys(n.Nominations)
	selected := keys[h.randIntN(len(keys))]
	if err := h.Nights.SetSelected(ctx, n.ID, &selected); err != nil {
		h.Log.WithError(err).Error("set selected failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "pick failed"})
	}

	// Best effort: a broker outage never fails the pick.
	handle := ""
	if g, err := h.Groups.GetByID(ctx, groupID); err == nil {
		handle = g.Handle
	}
	_ = h.publishSelected(ctx, queue.MovieSelectedEvent{
		NightID:     n.ID,
		GroupID:     groupID,
		GroupHandle: handle,
		MovieID:     selected,
		MovieTitle:  movie.Project(n.Nominations[selected]).Title,
		StartsAt:    n.StartsAt,
		SelectedAt:  h.now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, echo.Map{
		"night_id":    n.ID,
		"selected_id": selected,
		"selected":    movie.Project(n.Nominations[selected]),
	})
}

// Clear unsets the night's selection, returning it to plain Scheduled. The
// nomination map is untouched. Clearing with nothing selected is a 409.
func (h *NightHandler) Clear(c echo.Context) error {
	groupID, ok := middleware.GroupID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid night id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	n, err := h.Nights.GetForGroup(ctx, id, groupID)
	if err != nil {
		return h.nightErr(c, err, "load night failed")
	}
	if !n.SelectedID.Valid {
		return c.JSON(http.StatusConflict, echo.Map{"error": "nothing to clear"})
	}
	if err := h.Nights.SetSelected(ctx, n.ID, nil); err != nil {
		h.Log.WithError(err).Error("clear selected failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "clear failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"night_id": n.ID, "selected_id": nil})
}

// Cancel deletes the night outright. There is no soft delete; the second
// cancel of the same id is a 404.
func (h *NightHandler) Cancel(c echo.Context) error {
	groupID, ok := middleware.GroupID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid night id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	n, err := h.Nights.GetForGroup(ctx, id, groupID)
	if err != nil {
		return h.nightErr(c, err, "load night failed")
	}
	if err := h.Nights.Delete(ctx, n.ID, groupID); err != nil {
		return h.nightErr(c, err, "cancel night failed")
	}

	handle := ""
	if g, err := h.Groups.GetByID(ctx, groupID); err == nil {
		handle = g.Handle
	}
	_ = h.publishCancelled(ctx, queue.NightCancelledEvent{
		NightID:     n.ID,
		GroupID:     groupID,
		GroupHandle: handle,
		StartsAt:    n.StartsAt,
		Nominations: len(n.Nominations),
		CancelledAt: h.now().UTC().Format(time.RFC3339),
	})

	return c.NoContent(http.StatusNoContent)
}

// Watched returns the distinct ids selected on the group's past nights.
// Future nights are excluded even when they already carry a selection.
func (h *NightHandler) Watched(c echo.Context) error {
	groupID, ok := middleware.GroupID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ids, err := h.Nights.WatchedMovieIDs(ctx, groupID, h.now())
	if err != nil {
		h.Log.WithError(err).Error("watched lookup failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "watched lookup failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"movie_ids": ids})
}

// nightErr maps store failures for a night lookup: an unknown id (or an id
// owned by another group) is a 404; anything else is a 500.
func (h *NightHandler) nightErr(c echo.Context, err error, msg string) error {
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "night not found"})
	}
	h.Log.WithError(err).Error(msg)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": msg})
}
