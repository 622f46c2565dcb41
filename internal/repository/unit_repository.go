package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Unit occupancy states.
const (
	UnitVacant   = "VACANT"
	UnitOccupied = "OCCUPIED"
)

// Unit is a rentable space inside a property.
type Unit struct {
	ID        uint64     `json:"id"`
	OrgID     uint64     `json:"-"`
	PropertyID uint64    `json:"property_id"`
	Label     string     `json:"label"`
	Floor     int        `json:"floor"`
	Bedrooms  int        `json:"bedrooms"`
	RentCents int64      `json:"rent_cents"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"-"`
}

// UnitRepo encapsulates database queries for units.
type UnitRepo struct{ DB *sql.DB }

func NewUnitRepo(db *sql.DB) *UnitRepo { return &UnitRepo{DB: db} }

const unitCols = "id, org_id, property_id, label, floor, bedrooms, rent_cents, status, created_at, updated_at"

// Create inserts a unit under a property.  New units start VACANT.
func (r *UnitRepo) Create(ctx context.Context, u *Unit) error {
	u.Status = UnitVacant
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO units (org_id, property_id, label, floor, bedrooms, rent_cents, status) VALUES (?,?,?,?,?,?,?)",
		u.OrgID, u.PropertyID, u.Label, u.Floor, u.Bedrooms, u.RentCents, u.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return r.DB.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM units WHERE id=?", u.ID).
		Scan(&u.CreatedAt, &u.UpdatedAt)
}

// GetByIDAndOrg fetches a live unit scoped to the organization.
func (r *UnitRepo) GetByIDAndOrg(ctx context.Context, id, orgID uint64) (*Unit, error) {
	var u Unit
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+unitCols+" FROM units WHERE id=? AND org_id=? AND deleted_at IS NULL",
		id, orgID).
		Scan(&u.ID, &u.OrgID, &u.PropertyID, &u.Label, &u.Floor, &u.Bedrooms, &u.RentCents, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// ListByProperty returns live units of one property ordered by label.
func (r *UnitRepo) ListByProperty(ctx context.Context, propertyID, orgID uint64) ([]*Unit, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+unitCols+" FROM units WHERE property_id=? AND org_id=? AND deleted_at IS NULL ORDER BY label",
		propertyID, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Unit
	for rows.Next() {
		var u Unit
		if err := rows.Scan(&u.ID, &u.OrgID, &u.PropertyID, &u.Label, &u.Floor, &u.Bedrooms, &u.RentCents, &u.Status, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &u)
	}
	return out, rows.Err()
}

// Update replaces the mutable descriptive fields of a unit.  Occupancy is
// driven by the lease lifecycle, not by this method.
func (r *UnitRepo) Update(ctx context.Context, id, orgID uint64, label string, floor, bedrooms int, rentCents int64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE units SET label=?, floor=?, bedrooms=?, rent_cents=? WHERE id=? AND org_id=? AND deleted_at IS NULL",
		label, floor, bedrooms, rentCents, id, orgID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete stamps deleted_at.  Occupied units cannot be deleted.
func (r *UnitRepo) SoftDelete(ctx context.Context, id, orgID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE units SET deleted_at=NOW() WHERE id=? AND org_id=? AND status=? AND deleted_at IS NULL",
		id, orgID, UnitVacant)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish missing from occupied for a useful error.
		if _, gerr := r.GetByIDAndOrg(ctx, id, orgID); gerr != nil {
			return gerr
		}
		return ErrConflict
	}
	return nil
}
