package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/karthicware/ultra-bms-sub010/internal/auth"
	"github.com/karthicware/ultra-bms-sub010/internal/utils"
)

// AccountRepo persists credential holders.  It implements auth.AccountStore
// so the credential gate never sees SQL.
type AccountRepo struct{ DB *sql.DB }

func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{DB: db} }

const accountCols = "id, org_id, email, password_hash, role, is_active, failed_logins, locked_until"

// Create inserts an account and returns its ID.  Emails are normalized to
// lower case before insert so lookups are case-insensitive.
func (r *AccountRepo) Create(ctx context.Context, orgID uint64, email, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO accounts (org_id, email, password_hash, role) VALUES (?,?,?,?)",
		orgID, email, hash, role)
	if err != nil {
		// MySQL 1062 = duplicate key
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ByEmail fetches an account by normalized email.
func (r *AccountRepo) ByEmail(ctx context.Context, email string) (auth.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(ctx, "SELECT "+accountCols+" FROM accounts WHERE email=? LIMIT 1", email)
}

// ByID fetches an account by id.
func (r *AccountRepo) ByID(ctx context.Context, id uint64) (auth.Account, error) {
	return r.scanOne(ctx, "SELECT "+accountCols+" FROM accounts WHERE id=? LIMIT 1", id)
}

func (r *AccountRepo) scanOne(ctx context.Context, q string, arg any) (auth.Account, error) {
	var (
		a           auth.Account
		lockedUntil sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx, q, arg).Scan(
		&a.ID, &a.OrgID, &a.Email, &a.PasswordHash, &a.Role, &a.Active, &a.FailedLogins, &lockedUntil)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return auth.Account{}, auth.ErrAccountNotFound
		}
		return auth.Account{}, err
	}
	if lockedUntil.Valid {
		t := lockedUntil.Time.UTC()
		a.LockedUntil = &t
	}
	return a, nil
}

// RegisterFailure bumps the failure counter and arms a lockout once the
// counter reaches threshold.  The two statements are a single transaction
// so a concurrent success cannot observe a half-applied failure.
func (r *AccountRepo) RegisterFailure(ctx context.Context, id uint64, threshold int, lockFor time.Duration, now time.Time) (*time.Time, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"UPDATE accounts SET failed_logins = failed_logins + 1 WHERE id=?", id); err != nil {
		return nil, err
	}

	var failed int
	if err := tx.QueryRowContext(ctx,
		"SELECT failed_logins FROM accounts WHERE id=?", id).Scan(&failed); err != nil {
		return nil, err
	}

	var lockedUntil *time.Time
	if failed >= threshold {
		until := now.Add(lockFor).UTC()
		if _, err := tx.ExecContext(ctx,
			"UPDATE accounts SET locked_until=? WHERE id=?", until, id); err != nil {
			return nil, err
		}
		lockedUntil = &until
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return lockedUntil, nil
}

// ClearFailures zeroes the failure counter and lifts any lockout.  Called
// only on verified successful authentication.
func (r *AccountRepo) ClearFailures(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE accounts SET failed_logins=0, locked_until=NULL WHERE id=?", id)
	return err
}

// UpdatePassword replaces the password hash.  Session revocation is the
// caller's concern (logout everywhere on password change).
func (r *AccountRepo) UpdatePassword(ctx context.Context, id uint64, password string, cost int) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE accounts SET password_hash=? WHERE id=?", hash, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return auth.ErrAccountNotFound
	}
	return nil
}
