// Package handler exposes HTTP handlers for the member and public surfaces.
// Handlers accept small store interfaces rather than concrete repositories
// so tests can substitute in-memory fakes; the repository types satisfy
// them directly.
package handler

import (
	"context"
	"time"

	"github.com/reelclub/movienight/internal/metadata"
	"github.com/reelclub/movienight/internal/movie"
	"github.com/reelclub/movienight/internal/repository"
)

// GroupStore is the identity-store surface the handlers need.
type GroupStore interface {
	Create(ctx context.Context, handle, displayName, passwordHash, betaKey string, secretWord *string) (uint64, error)
	GetByHandle(ctx context.Context, handle string) (repository.Group, error)
	GetByID(ctx context.Context, id uint64) (repository.Group, error)
	BetaKeyExists(ctx context.Context, key string) (bool, error)
	BetaKeyInUse(ctx context.Context, key string) (bool, error)
}

// SessionStore issues and extends the per-group convenience session.
type SessionStore interface {
	IssueOrExtend(ctx context.Context, groupID uint64, ttl time.Duration) (repository.Session, error)
}

// NightStore is the movie-night aggregate surface.
type NightStore interface {
	Create(ctx context.Context, n *repository.MovieNight) error
	GetByID(ctx context.Context, id uint64) (repository.MovieNight, error)
	GetForGroup(ctx context.Context, id, groupID uint64) (repository.MovieNight, error)
	ListByGroup(ctx context.Context, groupID uint64) ([]repository.MovieNight, error)
	SaveNominations(ctx context.Context, id uint64, nominations map[string]movie.Movie) error
	SetSelected(ctx context.Context, id uint64, selected *string) error
	Delete(ctx context.Context, id, groupID uint64) error
	WatchedMovieIDs(ctx context.Context, groupID uint64, now time.Time) ([]string, error)
}

// RosterStore is the global movie catalog surface.
type RosterStore interface {
	Add(ctx context.Context, m movie.Movie) error
	Remove(ctx context.Context, imdbID string) error
	List(ctx context.Context) ([]repository.RosterEntry, error)
}

// MetadataClient is the movie metadata provider surface.
type MetadataClient interface {
	ByID(ctx context.Context, imdbID string) (movie.Movie, error)
	Search(ctx context.Context, query string, page int) (metadata.SearchResult, error)
}
