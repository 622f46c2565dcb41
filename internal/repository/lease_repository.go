package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Lease lifecycle states.  DRAFT leases can be edited freely; activation
// flips the unit to OCCUPIED inside the same transaction, and the two
// terminal states free it again.
const (
	LeaseDraft      = "DRAFT"
	LeaseActive     = "ACTIVE"
	LeaseEnded      = "ENDED"
	LeaseTerminated = "TERMINATED"
)

// Lease ties a tenant to a unit for a period at an agreed rent.
type Lease struct {
	ID           uint64     `json:"id"`
	OrgID        uint64     `json:"-"`
	UnitID       uint64     `json:"unit_id"`
	TenantID     uint64     `json:"tenant_id"`
	StartDate    time.Time  `json:"start_date"`
	EndDate      time.Time  `json:"end_date"`
	RentCents    int64      `json:"rent_cents"`
	DepositCents int64      `json:"deposit_cents"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"-"`
}

// LeaseRepo encapsulates database queries for leases.
type LeaseRepo struct{ DB *sql.DB }

func NewLeaseRepo(db *sql.DB) *LeaseRepo { return &LeaseRepo{DB: db} }

const leaseCols = "id, org_id, unit_id, tenant_id, start_date, end_date, rent_cents, deposit_cents, status, created_at, updated_at"

// Create inserts a DRAFT lease.
func (r *LeaseRepo) Create(ctx context.Context, l *Lease) error {
	l.Status = LeaseDraft
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO leases (org_id, unit_id, tenant_id, start_date, end_date, rent_cents, deposit_cents, status) VALUES (?,?,?,?,?,?,?,?)",
		l.OrgID, l.UnitID, l.TenantID, l.StartDate, l.EndDate, l.RentCents, l.DepositCents, l.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)
	return r.DB.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM leases WHERE id=?", l.ID).
		Scan(&l.CreatedAt, &l.UpdatedAt)
}

// GetByIDAndOrg fetches a live lease scoped to the organization.
func (r *LeaseRepo) GetByIDAndOrg(ctx context.Context, id, orgID uint64) (*Lease, error) {
	var l Lease
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+leaseCols+" FROM leases WHERE id=? AND org_id=? AND deleted_at IS NULL",
		id, orgID).
		Scan(&l.ID, &l.OrgID, &l.UnitID, &l.TenantID, &l.StartDate, &l.EndDate,
			&l.RentCents, &l.DepositCents, &l.Status, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

// ListByOrg returns all live leases for an organization, newest first.
func (r *LeaseRepo) ListByOrg(ctx context.Context, orgID uint64) ([]*Lease, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+leaseCols+" FROM leases WHERE org_id=? AND deleted_at IS NULL ORDER BY id DESC",
		orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Lease
	for rows.Next() {
		var l Lease
		if err := rows.Scan(&l.ID, &l.OrgID, &l.UnitID, &l.TenantID, &l.StartDate, &l.EndDate,
			&l.RentCents, &l.DepositCents, &l.Status, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

// Activate moves a DRAFT lease to ACTIVE and marks its unit OCCUPIED.  Both
// writes happen in one transaction; a unit already occupied by another
// active lease aborts with ErrConflict.
func (r *LeaseRepo) Activate(ctx context.Context, id, orgID uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var unitID uint64
	err = tx.QueryRowContext(ctx,
		"SELECT unit_id FROM leases WHERE id=? AND org_id=? AND status=? AND deleted_at IS NULL FOR UPDATE",
		id, orgID, LeaseDraft).Scan(&unitID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE units SET status=? WHERE id=? AND org_id=? AND status=? AND deleted_at IS NULL",
		UnitOccupied, unitID, orgID, UnitVacant)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConflict
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE leases SET status=? WHERE id=?", LeaseActive, id); err != nil {
		return err
	}
	return tx.Commit()
}

// Close moves an ACTIVE lease to ENDED or TERMINATED and frees the unit.
func (r *LeaseRepo) Close(ctx context.Context, id, orgID uint64, status string) error {
	if status != LeaseEnded && status != LeaseTerminated {
		return ErrConflict
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var unitID uint64
	err = tx.QueryRowContext(ctx,
		"SELECT unit_id FROM leases WHERE id=? AND org_id=? AND status=? AND deleted_at IS NULL FOR UPDATE",
		id, orgID, LeaseActive).Scan(&unitID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE units SET status=? WHERE id=?", UnitVacant, unitID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE leases SET status=? WHERE id=?", status, id); err != nil {
		return err
	}
	return tx.Commit()
}
