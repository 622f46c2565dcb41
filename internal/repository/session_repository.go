package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/karthicware/ultra-bms-sub010/internal/auth"
)

// SessionRepo persists login sessions.  It implements auth.SessionStore.
// Sessions are keyed by an opaque UUID, so concurrent writers touch
// disjoint rows and last-write-wins per row is sufficient.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

const sessionCols = "id, account_id, access_hash, access_exp, refresh_hash, refresh_exp, last_activity, created_at, is_active"

// Insert stores a new session row.
func (r *SessionRepo) Insert(ctx context.Context, s *auth.Session) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO sessions (id, account_id, access_hash, access_exp, refresh_hash, refresh_exp, last_activity, created_at, is_active) VALUES (?,?,?,?,?,?,?,?,?)",
		s.ID, s.AccountID, s.AccessHash, s.AccessExp, s.RefreshHash, s.RefreshExp, s.LastActivity, s.CreatedAt, s.Active)
	return err
}

// Get fetches a session by id.
func (r *SessionRepo) Get(ctx context.Context, id string) (auth.Session, error) {
	return r.scanOne(ctx, "SELECT "+sessionCols+" FROM sessions WHERE id=? LIMIT 1", id)
}

// GetByRefreshHash fetches a session by its current refresh token hash.
func (r *SessionRepo) GetByRefreshHash(ctx context.Context, hash string) (auth.Session, error) {
	return r.scanOne(ctx, "SELECT "+sessionCols+" FROM sessions WHERE refresh_hash=? LIMIT 1", hash)
}

func (r *SessionRepo) scanOne(ctx context.Context, q string, arg any) (auth.Session, error) {
	var s auth.Session
	err := r.DB.QueryRowContext(ctx, q, arg).Scan(
		&s.ID, &s.AccountID, &s.AccessHash, &s.AccessExp, &s.RefreshHash, &s.RefreshExp,
		&s.LastActivity, &s.CreatedAt, &s.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return auth.Session{}, auth.ErrSessionNotFound
		}
		return auth.Session{}, err
	}
	return s, nil
}

// ActiveByAccount returns the account's active sessions, oldest first.
func (r *SessionRepo) ActiveByAccount(ctx context.Context, accountID uint64) ([]auth.Session, error) {
	return r.scanMany(ctx,
		"SELECT "+sessionCols+" FROM sessions WHERE account_id=? AND is_active=1 ORDER BY created_at",
		accountID)
}

// StaleActive returns active sessions past either timeout boundary.
func (r *SessionRepo) StaleActive(ctx context.Context, idleBefore, createdBefore time.Time) ([]auth.Session, error) {
	return r.scanMany(ctx,
		"SELECT "+sessionCols+" FROM sessions WHERE is_active=1 AND (last_activity < ? OR created_at < ?)",
		idleBefore, createdBefore)
}

func (r *SessionRepo) scanMany(ctx context.Context, q string, args ...any) ([]auth.Session, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []auth.Session
	for rows.Next() {
		var s auth.Session
		if err := rows.Scan(&s.ID, &s.AccountID, &s.AccessHash, &s.AccessExp, &s.RefreshHash,
			&s.RefreshExp, &s.LastActivity, &s.CreatedAt, &s.Active); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Touch records request activity on a session.
func (r *SessionRepo) Touch(ctx context.Context, id string, at time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET last_activity=? WHERE id=? AND is_active=1", at, id)
	return err
}

// UpdateTokens swaps both token hashes after a refresh rotation.
func (r *SessionRepo) UpdateTokens(ctx context.Context, id, accessHash string, accessExp time.Time, refreshHash string, refreshExp time.Time, at time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET access_hash=?, access_exp=?, refresh_hash=?, refresh_exp=?, last_activity=? WHERE id=? AND is_active=1",
		accessHash, accessExp, refreshHash, refreshExp, at, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return auth.ErrSessionNotFound
	}
	return nil
}

// Deactivate marks a session revoked.  Already inactive rows are left
// untouched so the call is idempotent.
func (r *SessionRepo) Deactivate(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET is_active=0 WHERE id=?", id)
	return err
}

// DeleteInactiveBefore purges revoked sessions older than cutoff.  Keeping
// revoked rows for a while helps audit; the sweep decides the cutoff.
func (r *SessionRepo) DeleteInactiveBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM sessions WHERE is_active=0 AND created_at < ?", cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
