package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/reelclub/movienight/internal/movie"
	"github.com/reelclub/movienight/internal/repository"
)

// RosterHandler manages the global movie catalog for authenticated members.
type RosterHandler struct {
	Roster RosterStore
	Log    *logrus.Logger
}

func NewRosterHandler(r RosterStore, log *logrus.Logger) *RosterHandler {
	return &RosterHandler{Roster: r, Log: log}
}

type addRosterReq struct {
	Movie movie.Movie `json:"movie"`
}

// List returns the whole catalog projected into the flat display shape,
// absent fields replaced by their fallbacks.
func (h *RosterHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	entries, err := h.Roster.List(ctx)
	if err != nil {
		h.Log.WithError(err).Error("list roster failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list roster failed"})
	}
	items := make([]movie.Display, 0, len(entries))
	for _, e := range entries {
		items = append(items, movie.Project(e.Metadata))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Add catalogues a movie. The metadata is captured verbatim from the
// request; a duplicate external id is a 409 and leaves the original
// metadata in place.
func (h *RosterHandler) Add(c echo.Context) error {
	var req addRosterReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Movie.ID) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "movie.imdb_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Roster.Add(ctx, req.Movie); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "movie already catalogued"})
		}
		h.Log.WithError(err).Error("add to roster failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "add to roster failed"})
	}
	return c.JSON(http.StatusCreated, movie.Project(req.Movie))
}

// Remove deletes a catalog entry. Nights that already nominated or
// selected the movie keep their inlined copies untouched.
func (h *RosterHandler) Remove(c echo.Context) error {
	imdbID := strings.TrimSpace(c.Param("imdb_id"))
	if imdbID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "imdb_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Roster.Remove(ctx, imdbID); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not in roster"})
		}
		h.Log.WithError(err).Error("remove from roster failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "remove from roster failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
