package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/reelclub/movienight/internal/utils"
)

// Session mirrors the 'sessions' table. The token doubles as the primary
// key and the opaque credential handed to clients. group_id carries a
// UNIQUE constraint: each group has at most one live convenience session,
// and repeated sign-ins extend that row's expiry instead of inserting
// another.
type Session struct {
	Token     string
	GroupID   uint64
	ExpiresAt time.Time
}

type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// IssueOrExtend returns the group's session, minting a row on first
// sign-in and pushing the expiry out by ttl on every subsequent one. The
// existing token is reused so a sign-in on a second device does not
// invalidate the first.
func (r *SessionRepo) IssueOrExtend(ctx context.Context, groupID uint64, ttl time.Duration) (Session, error) {
	exp := time.Now().UTC().Add(ttl)

	var token string
	err := r.DB.QueryRowContext(ctx,
		"SELECT token FROM sessions WHERE group_id=? LIMIT 1", groupID).Scan(&token)
	switch {
	case err == sql.ErrNoRows:
		token, err = utils.NewSessionToken()
		if err != nil {
			return Session{}, err
		}
		if _, err := r.DB.ExecContext(ctx,
			"INSERT INTO sessions (token, group_id, expires_at) VALUES (?,?,?)",
			token, groupID, exp); err != nil {
			return Session{}, err
		}
	case err != nil:
		return Session{}, err
	default:
		if _, err := r.DB.ExecContext(ctx,
			"UPDATE sessions SET expires_at=? WHERE group_id=?", exp, groupID); err != nil {
			return Session{}, err
		}
	}
	return Session{Token: token, GroupID: groupID, ExpiresAt: exp}, nil
}

// Validate resolves a token to its owning group id. A missing row returns
// ErrNotFound; a row past its expiry returns ErrSessionExpired. Expiry is
// enforced here, on every call, rather than by any background eviction.
func (r *SessionRepo) Validate(ctx context.Context, token string) (uint64, error) {
	var (
		groupID   uint64
		expiresAt time.Time
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT group_id, expires_at FROM sessions WHERE token=? LIMIT 1",
		token).Scan(&groupID, &expiresAt)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	if !expiresAt.After(time.Now().UTC()) {
		return 0, ErrSessionExpired
	}
	return groupID, nil
}
