package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/reelclub/movienight/internal/metadata"
	"github.com/reelclub/movienight/internal/movie"
)

// MetadataHandler proxies the movie metadata provider so the browser never
// needs the provider API key.
type MetadataHandler struct {
	Movies MetadataClient
	Log    *logrus.Logger
}

func NewMetadataHandler(m MetadataClient, log *logrus.Logger) *MetadataHandler {
	return &MetadataHandler{Movies: m, Log: log}
}

// Search runs a paged free-text title search against the provider.
func (h *MetadataHandler) Search(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "q required"})
	}
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, err := h.Movies.Search(ctx, query, page)
	if err != nil {
		return h.providerErr(c, err, "movie search failed")
	}
	return c.JSON(http.StatusOK, res)
}

// ByID fetches one movie's full detail record, already converted into the
// canonical shape.
func (h *MetadataHandler) ByID(c echo.Context) error {
	imdbID := strings.TrimSpace(c.Param("imdb_id"))
	if imdbID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "imdb_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	m, err := h.Movies.ByID(ctx, imdbID)
	if err != nil {
		return h.providerErr(c, err, "movie lookup failed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"movie":   m,
		"display": movie.Project(m),
	})
}

// providerErr distinguishes the provider's explicit "not found" from an
// outage: the former is the caller's 404, the latter a 502.
func (h *MetadataHandler) providerErr(c echo.Context, err error, msg string) error {
	if errors.Is(err, metadata.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
	}
	h.Log.WithError(err).Warn(msg)
	return c.JSON(http.StatusBadGateway, echo.Map{"error": "metadata provider unavailable"})
}
