package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// Group mirrors the 'groups' table. SecretWord gates public roster writes
// for the group; it is nullable, and a group without one accepts public
// writes from anyone. PasswordHash and BetaKey must never be echoed back to
// clients.
type Group struct {
	ID           uint64
	Handle       string
	DisplayName  string
	PasswordHash string
	SecretWord   sql.NullString
	BetaKey      string
	CreatedAt    time.Time
}

type GroupRepo struct{ DB *sql.DB }

func NewGroupRepo(db *sql.DB) *GroupRepo { return &GroupRepo{DB: db} }

// NormalizeHandle lowercases and trims a group handle. Handles are stored
// and compared in this form only.
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimSpace(handle))
}

// Create inserts a group and returns its ID. A duplicate handle maps to
// ErrHandleTaken via the MySQL 1062 duplicate-key error.
func (r *GroupRepo) Create(ctx context.Context, handle, displayName, passwordHash, betaKey string, secretWord *string) (uint64, error) {
	handle = NormalizeHandle(handle)
	var secret sql.NullString
	if secretWord != nil && *secretWord != "" {
		secret = sql.NullString{String: *secretWord, Valid: true}
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO `groups` (handle, display_name, password_hash, secret_word, beta_key) VALUES (?,?,?,?,?)",
		handle, displayName, passwordHash, secret, betaKey)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrHandleTaken
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByHandle fetches a group by normalized handle. Returns ErrNotFound
// when no group has claimed it.
func (r *GroupRepo) GetByHandle(ctx context.Context, handle string) (Group, error) {
	handle = NormalizeHandle(handle)
	var g Group
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,handle,display_name,password_hash,secret_word,beta_key,created_at FROM `groups` WHERE handle=? LIMIT 1",
		handle).Scan(&g.ID, &g.Handle, &g.DisplayName, &g.PasswordHash, &g.SecretWord, &g.BetaKey, &g.CreatedAt)
	if err == sql.ErrNoRows {
		return Group{}, ErrNotFound
	}
	return g, err
}

// GetByID fetches a group by id.
func (r *GroupRepo) GetByID(ctx context.Context, id uint64) (Group, error) {
	var g Group
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,handle,display_name,password_hash,secret_word,beta_key,created_at FROM `groups` WHERE id=? LIMIT 1",
		id).Scan(&g.ID, &g.Handle, &g.DisplayName, &g.PasswordHash, &g.SecretWord, &g.BetaKey, &g.CreatedAt)
	if err == sql.ErrNoRows {
		return Group{}, ErrNotFound
	}
	return g, err
}

// BetaKeyExists reports whether a beta key has been issued. Signup checks
// existence only; whether the key is already in use is reported separately
// by BetaKeyInUse and deliberately not enforced at signup.
func (r *GroupRepo) BetaKeyExists(ctx context.Context, key string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM beta_keys WHERE key_code=?", key).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// BetaKeyInUse reports whether some group already signed up with the key.
func (r *GroupRepo) BetaKeyInUse(ctx context.Context, key string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM `groups` WHERE beta_key=?", key).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
