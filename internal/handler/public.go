package handler

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/reelclub/movienight/internal/movie"
	"github.com/reelclub/movienight/internal/repository"
	"github.com/reelclub/movienight/internal/schedule"
)

// PublicHandler serves the profile surface: anyone who knows a group's
// handle can view its schedule, and with the right shared secret can
// nominate movies or extend the roster without an account.
//
// Two distinct secrets gate the two writes: the group's secret word covers
// roster additions, while each night carries its own event secret for
// nominations. They look alike in the UI flow but are stored and checked
// independently and must never be conflated.
type PublicHandler struct {
	Groups GroupStore
	Nights NightStore
	Roster RosterStore
	Log    *logrus.Logger

	now func() time.Time
}

func NewPublicHandler(g GroupStore, n NightStore, r RosterStore, log *logrus.Logger) *PublicHandler {
	return &PublicHandler{Groups: g, Nights: n, Roster: r, Log: log, now: time.Now}
}

type publicNominateReq struct {
	Secret string      `json:"secret"` // the night's event secret
	Movie  movie.Movie `json:"movie"`
}

type publicRosterReq struct {
	SecretWord string      `json:"secret_word"` // the group's secret word
	Movie      movie.Movie `json:"movie"`
}

// publicNight is a night as shown to visitors: no event secret, no
// description of who nominated what beyond the titles themselves.
type publicNight struct {
	ID          uint64           `json:"id"`
	Date        string           `json:"date"`
	Timezone    string           `json:"timezone"`
	Description string           `json:"description"`
	Upcoming    bool             `json:"upcoming"`
	Display     schedule.Display `json:"display"`
	Nominations []movie.Display  `json:"nominations"`
	Selected    *movie.Display   `json:"selected,omitempty"`
	HasSecret   bool             `json:"has_secret"`
}

// Profile renders a group's schedule for visitors. An unknown handle is a
// plain 404 — the handle is meant to be shareable, so unlike sign-in this
// response may say whether the group exists.
func (h *PublicHandler) Profile(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	g, err := h.Groups.GetByHandle(ctx, c.Param("handle"))
	if err != nil {
		return h.groupErr(c, err)
	}

	nights, err := h.Nights.ListByGroup(ctx, g.ID)
	if err != nil {
		h.Log.WithError(err).Error("list nights failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "profile failed"})
	}

	off := viewerOffset(c)
	items := make([]publicNight, 0, len(nights))
	for _, n := range nights {
		pn := publicNight{
			ID:          n.ID,
			Date:        n.StartsAt,
			Timezone:    n.Timezone,
			Description: n.Description,
			Upcoming:    n.Upcoming(h.now()),
			Display:     schedule.Format(n.StartsAt, n.Timezone, off),
			Nominations: projectNominations(n.Nominations),
			HasSecret:   n.EventSecret.Valid,
		}
		if n.SelectedID.Valid {
			sel := movie.Project(n.Nominations[n.SelectedID.String])
			sel.ID = n.SelectedID.String
			pn.Selected = &sel
		}
		items = append(items, pn)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"handle":          g.Handle,
		"name":            g.DisplayName,
		"has_secret_word": g.SecretWord.Valid,
		"nights":          items,
	})
}

// Nominate lets a visitor add a movie to one specific night. The gate is
// the night's own event secret: absent secret means the night is open,
// mismatch is a 403 so the UI can re-prompt, and a night id that does not
// belong to this handle's group is a 404.
func (h *PublicHandler) Nominate(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid night id"})
	}
	var req publicNominateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Movie.ID) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "movie.imdb_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	g, err := h.Groups.GetByHandle(ctx, c.Param("handle"))
	if err != nil {
		return h.groupErr(c, err)
	}
	n, err := h.Nights.GetByID(ctx, id)
	if err != nil || n.GroupID != g.ID {
		if err != nil && err != repository.ErrNotFound {
			h.Log.WithError(err).Error("load night failed")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "nominate failed"})
		}
		return c.JSON(http.StatusNotFound, echo.Map{"error": "night not found"})
	}
	if n.EventSecret.Valid && !secretsMatch(req.Secret, n.EventSecret.String) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "wrong secret"})
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

// AddToRoster lets a visitor catalogue a movie. The gate here is the
// group's secret word, not any night's event secret; a group with no
// secret word configured accepts the write from anyone.
func (h *PublicHandler) AddToRoster(c echo.Context) error {
	var req publicRosterReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Movie.ID) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "movie.imdb_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	g, err := h.Groups.GetByHandle(ctx, c.Param("handle"))
	if err != nil {
		return h.groupErr(c, err)
	}
	if g.SecretWord.Valid && !secretsMatch(req.SecretWord, g.SecretWord.String) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "wrong secret word"})
	}

	if err := h.Roster.Add(ctx, req.Movie); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "movie already catalogued"})
		}
		h.Log.WithError(err).Error("add to roster failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "add to roster failed"})
	}
	return c.JSON(http.StatusCreated, movie.Project(req.Movie))
}

func (h *PublicHandler) groupErr(c echo.Context, err error) error {
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "group not found"})
	}
	h.Log.WithError(err).Error("group lookup failed")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
}

func secretsMatch(given, stored string) bool {
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(given)), []byte(stored)) == 1
}
