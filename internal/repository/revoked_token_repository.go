package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/karthicware/ultra-bms-sub010/internal/auth"
)

// RevokedTokenRepo persists the token blacklist.  It implements
// auth.RevocationStore.  token_hash is the primary key; re-revoking an
// already present hash refreshes the reason, keeps the later of the two
// expiries and is not an error.
type RevokedTokenRepo struct{ DB *sql.DB }

func NewRevokedTokenRepo(db *sql.DB) *RevokedTokenRepo { return &RevokedTokenRepo{DB: db} }

// Revoke records a token hash as rejected until expiresAt.
func (r *RevokedTokenRepo) Revoke(ctx context.Context, hash string, kind auth.TokenKind, expiresAt time.Time, reason string) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO revoked_tokens (token_hash, kind, expires_at, reason)
		 VALUES (?,?,?,?)
		 ON DUPLICATE KEY UPDATE
		   expires_at=GREATEST(expires_at, VALUES(expires_at)),
		   reason=VALUES(reason)`,
		hash, string(kind), expiresAt, reason)
	return err
}

// IsRevoked reports whether hash has an unexpired blacklist entry.  Expired
// entries are ignored rather than deleted here; the sweep reclaims them.
func (r *RevokedTokenRepo) IsRevoked(ctx context.Context, hash string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM revoked_tokens WHERE token_hash=? AND expires_at > ? LIMIT 1",
		hash, time.Now().UTC()).Scan(&one)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// DeleteExpired removes entries whose own expiry has passed.  An expired
// token is self-rejecting, so its blacklist row carries no information.
func (r *RevokedTokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM revoked_tokens WHERE expires_at <= ?", now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
