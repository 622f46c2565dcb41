package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// Tenant is a person or company renting units from the organization.
type Tenant struct {
	ID        uint64     `json:"id"`
	OrgID     uint64     `json:"-"`
	FullName  string     `json:"full_name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"-"`
}

// TenantRepo encapsulates database queries for tenants.
type TenantRepo struct{ DB *sql.DB }

func NewTenantRepo(db *sql.DB) *TenantRepo { return &TenantRepo{DB: db} }

const tenantCols = "id, org_id, full_name, email, phone, created_at, updated_at"

// Create inserts a tenant record.
func (r *TenantRepo) Create(ctx context.Context, t *Tenant) error {
	t.Email = strings.ToLower(strings.TrimSpace(t.Email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO tenants (org_id, full_name, email, phone) VALUES (?,?,?,?)",
		t.OrgID, t.FullName, t.Email, t.Phone)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return r.DB.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM tenants WHERE id=?", t.ID).
		Scan(&t.CreatedAt, &t.UpdatedAt)
}

// GetByIDAndOrg fetches a live tenant scoped to the organization.
func (r *TenantRepo) GetByIDAndOrg(ctx context.Context, id, orgID uint64) (*Tenant, error) {
	var t Tenant
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+tenantCols+" FROM tenants WHERE id=? AND org_id=? AND deleted_at IS NULL",
		id, orgID).
		Scan(&t.ID, &t.OrgID, &t.FullName, &t.Email, &t.Phone, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ListByOrg returns all live tenants ordered by name.
func (r *TenantRepo) ListByOrg(ctx context.Context, orgID uint64) ([]*Tenant, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+tenantCols+" FROM tenants WHERE org_id=? AND deleted_at IS NULL ORDER BY full_name",
		orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Tenant
	for rows.Next() {
		var t Tenant
		if err := rows.Scan(&t.ID, &t.OrgID, &t.FullName, &t.Email, &t.Phone, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

// Update replaces the mutable contact fields.
func (r *TenantRepo) Update(ctx context.Context, id, orgID uint64, fullName, email, phone string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"UPDATE tenants SET full_name=?, email=?, phone=? WHERE id=? AND org_id=? AND deleted_at IS NULL",
		fullName, email, phone, id, orgID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete stamps deleted_at.  A tenant with an ACTIVE lease cannot be
// deleted.
func (r *TenantRepo) SoftDelete(ctx context.Context, id, orgID uint64) error {
	var active int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM leases WHERE tenant_id=? AND status=? AND deleted_at IS NULL",
		id, LeaseActive).Scan(&active); err != nil {
		return err
	}
	if active > 0 {
		return ErrConflict
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE tenants SET deleted_at=NOW() WHERE id=? AND org_id=? AND deleted_at IS NULL",
		id, orgID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
