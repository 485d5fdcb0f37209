package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/reelclub/movienight/internal/movie"
)

// dbTime is the layout for the naive starts_at column. The stored value is
// local wall-clock text for the night's own timezone; it is never
// normalized to UTC.
const dbTime = "2006-01-02 15:04:05"

// MovieNight mirrors the 'movie_nights' table. Nominations live inline as
// a JSON map keyed by external movie id, so nominating the same movie twice
// overwrites rather than duplicates. SelectedID, when valid, is always one
// of the nomination keys. EventSecret gates public nomination on this one
// night and is a different credential from the group's secret word.
type MovieNight struct {
	ID          uint64
	GroupID     uint64
	StartsAt    string // naive "YYYY-MM-DD HH:MM:SS" wall-clock text
	Timezone    string
	Description string
	EventSecret sql.NullString
	Nominations map[string]movie.Movie
	SelectedID  sql.NullString
	CreatedAt   time.Time
}

// Upcoming reports whether the night is still ahead of now when its stored
// timestamp is read naively. Purely a display-time filter; never persisted.
func (n MovieNight) Upcoming(now time.Time) bool {
	return n.StartsAt > now.UTC().Format(dbTime)
}

type NightRepo struct{ DB *sql.DB }

func NewNightRepo(db *sql.DB) *NightRepo { return &NightRepo{DB: db} }

const nightCols = "id, group_id, starts_at, timezone, description, event_secret, nominations, selected_id, created_at"

// Create inserts a Scheduled night with an empty nomination map and no
// selection, assigning the generated id back onto n.
func (r *NightRepo) Create(ctx context.Context, n *MovieNight) error {
	if n.Nominations == nil {
		n.Nominations = map[string]movie.Movie{}
	}
	blob, err := json.Marshal(n.Nominations)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO movie_nights (group_id, starts_at, timezone, description, event_secret, nominations) VALUES (?,?,?,?,?,?)",
		n.GroupID, n.StartsAt, n.Timezone, n.Description, n.EventSecret, blob)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	return nil
}

// GetByID fetches a night with no group filter. Only the public profile
// path may use it, and only after resolving the owning group from the
// handle in the URL.
func (r *NightRepo) GetByID(ctx context.Context, id uint64) (MovieNight, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+nightCols+" FROM movie_nights WHERE id=? LIMIT 1", id)
	return scanNight(row)
}

// GetForGroup fetches a night scoped to its owning group. Member-path
// reads must go through here: omitting the group filter would let one
// group's session act on another group's nights.
func (r *NightRepo) GetForGroup(ctx context.Context, id, groupID uint64) (MovieNight, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+nightCols+" FROM movie_nights WHERE id=? AND group_id=? LIMIT 1", id, groupID)
	return scanNight(row)
}

// ListByGroup returns every night for a group ordered by date.
func (r *NightRepo) ListByGroup(ctx context.Context, groupID uint64) ([]MovieNight, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+nightCols+" FROM movie_nights WHERE group_id=? ORDER BY starts_at", groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]MovieNight, 0)
	for rows.Next() {
		n, err := scanNight(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// SaveNominations writes the whole nomination map back. Two concurrent
// nominate calls both read-modify-write this column, so the last writer
// wins and the earlier nomination can be silently dropped. That lost-update
// race is an accepted limitation at this scale; no merge logic beyond
// per-key overwrite exists.
func (r *NightRepo) SaveNominations(ctx context.Context, id uint64, nominations map[string]movie.Movie) error {
	blob, err := json.Marshal(nominations)
	if err != nil {
		return err
	}
	// No RowsAffected check: MySQL reports zero rows when the new value
	// equals the old one, and re-nominating an identical payload is legal.
	_, err = r.DB.ExecContext(ctx,
		"UPDATE movie_nights SET nominations=? WHERE id=?", blob, id)
	return err
}

// SetSelected writes the selected external id, or clears it when selected
// is nil. Callers keep the invariant that a non-null selection is a key of
// the nomination map.
func (r *NightRepo) SetSelected(ctx context.Context, id uint64, selected *string) error {
	var v sql.NullString
	if selected != nil {
		v = sql.NullString{String: *selected, Valid: true}
	}
	_, err := r.DB.ExecContext(ctx,
		"UPDATE movie_nights SET selected_id=? WHERE id=?", v, id)
	return err
}

// Delete cancels a night by removing its row. There is no cancelled marker
// or soft delete; cancelling an already cancelled night is ErrNotFound.
func (r *NightRepo) Delete(ctx context.Context, id, groupID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM movie_nights WHERE id=? AND group_id=?", id, groupID)
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

// WatchedMovieIDs collects the distinct selected ids across the group's
// past nights. Recomputed on every call; at this scale a scan beats cache
// invalidation.
func (r *NightRepo) WatchedMovieIDs(ctx context.Context, groupID uint64, now time.Time) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT DISTINCT selected_id FROM movie_nights WHERE group_id=? AND selected_id IS NOT NULL AND starts_at <= ?",
		groupID, now.UTC().Format(dbTime))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNight(row rowScanner) (MovieNight, error) {
	var (
		n        MovieNight
		startsAt time.Time
		blob     []byte
	)
	err := row.Scan(&n.ID, &n.GroupID, &startsAt, &n.Timezone, &n.Description,
		&n.EventSecret, &blob, &n.SelectedID, &n.CreatedAt)
	if err == sql.ErrNoRows {
		return MovieNight{}, ErrNotFound
	}
	if err != nil {
		return MovieNight{}, err
	}
	// The driver parses DATETIME with parseTime=true; re-render the same
	// wall-clock digits so StartsAt stays naive text, never an instant.
	n.StartsAt = startsAt.Format(dbTime)
	n.Nominations = map[string]movie.Movie{}
	if len(blob) > 0 {
		if err := json.Unmarshal(blob, &n.Nominations); err != nil {
			return MovieNight{}, err
		}
	}
	return n, nil
}
