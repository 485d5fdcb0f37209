package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/reelclub/movienight/internal/movie"
)

// RosterEntry mirrors the 'roster' table: one globally unique external
// movie id plus the metadata blob captured verbatim when the movie was
// catalogued. Entries are never mutated in place.
type RosterEntry struct {
	IMDBID    string
	Metadata  movie.Movie
	CreatedAt time.Time
}

type RosterRepo struct{ DB *sql.DB }

func NewRosterRepo(db *sql.DB) *RosterRepo { return &RosterRepo{DB: db} }

// Add catalogues a movie. The external id is the primary key across the
// whole system, so a second add with the same id fails with ErrConflict;
// there is no upsert and no metadata refresh on duplicates.
func (r *RosterRepo) Add(ctx context.Context, m movie.Movie) error {
	blob, err := json.Marshal(m)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO roster (imdb_id, metadata) VALUES (?,?)",
		m.ID, blob)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrConflict
		}
		return err
	}
	return nil
}

// Remove deletes a roster entry permanently. Nights that already nominated
// or selected the movie keep their inlined copies; the roster is a
// convenience catalog, not a source of truth referenced by foreign key.
func (r *RosterRepo) Remove(ctx context.Context, imdbID string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM roster WHERE imdb_id=?", imdbID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns every catalogued movie ordered by external id. A metadata blob
// that fails to decode degrades to a record carrying only the id, so one
// bad row cannot take the whole listing down.
func (r *RosterRepo) List(ctx context.Context) ([]RosterEntry, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT imdb_id, metadata, created_at FROM roster ORDER BY imdb_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]RosterEntry, 0)
	for rows.Next() {
		var (
			e    RosterEntry
			blob []byte
		)
		if err := rows.Scan(&e.IMDBID, &blob, &e.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(blob, &e.Metadata); err != nil {
			e.Metadata = movie.Movie{ID: e.IMDBID}
		}
		if e.Metadata.ID == "" {
			e.Metadata.ID = e.IMDBID
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
