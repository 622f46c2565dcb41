package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Vendor is an external contractor that work orders can be assigned to.
type Vendor struct {
	ID        uint64     `json:"id"`
	OrgID     uint64     `json:"-"`
	Name      string     `json:"name"`
	Trade     string     `json:"trade"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"-"`
}

// VendorRepo encapsulates database queries for vendors.
type VendorRepo struct{ DB *sql.DB }

func NewVendorRepo(db *sql.DB) *VendorRepo { return &VendorRepo{DB: db} }

const vendorCols = "id, org_id, name, trade, email, phone, created_at, updated_at"

// Create inserts a vendor record.
func (r *VendorRepo) Create(ctx context.Context, v *Vendor) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO vendors (org_id, name, trade, email, phone) VALUES (?,?,?,?,?)",
		v.OrgID, v.Name, v.Trade, v.Email, v.Phone)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	v.ID = uint64(id)
	return r.DB.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM vendors WHERE id=?", v.ID).
		Scan(&v.CreatedAt, &v.UpdatedAt)
}

// GetByIDAndOrg fetches a live vendor scoped to the organization.
func (r *VendorRepo) GetByIDAndOrg(ctx context.Context, id, orgID uint64) (*Vendor, error) {
	var v Vendor
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+vendorCols+" FROM vendors WHERE id=? AND org_id=? AND deleted_at IS NULL",
		id, orgID).
		Scan(&v.ID, &v.OrgID, &v.Name, &v.Trade, &v.Email, &v.Phone, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

// ListByOrg returns all live vendors ordered by name.
func (r *VendorRepo) ListByOrg(ctx context.Context, orgID uint64) ([]*Vendor, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+vendorCols+" FROM vendors WHERE org_id=? AND deleted_at IS NULL ORDER BY name",
		orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Vendor
	for rows.Next() {
		var v Vendor
		if err := rows.Scan(&v.ID, &v.OrgID, &v.Name, &v.Trade, &v.Email, &v.Phone, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, rows.Err()
}

// Update replaces the mutable contact fields.
func (r *VendorRepo) Update(ctx context.Context, id, orgID uint64, name, trade, email, phone string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE vendors SET name=?, trade=?, email=?, phone=? WHERE id=? AND org_id=? AND deleted_at IS NULL",
		name, trade, email, phone, id, orgID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete stamps deleted_at.
func (r *VendorRepo) SoftDelete(ctx context.Context, id, orgID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE vendors SET deleted_at=NOW() WHERE id=? AND org_id=? AND deleted_at IS NULL",
		id, orgID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
