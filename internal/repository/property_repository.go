package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// Property represents a building or complex managed by an organization.
// Units belong to properties; work orders and compliance schedules refer to
// them.  Rows are soft-deleted via deleted_at.
type Property struct {
	ID          uint64     `json:"id"`
	OrgID       uint64     `json:"-"`
	Name        string     `json:"name"`
	AddressLine string     `json:"address_line"`
	City        string     `json:"city"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"-"`
}

// PropertyRepo encapsulates database queries for properties.
type PropertyRepo struct{ DB *sql.DB }

func NewPropertyRepo(db *sql.DB) *PropertyRepo { return &PropertyRepo{DB: db} }

const propertyCols = "id, org_id, name, address_line, city, created_at, updated_at"

// Create inserts a property and populates generated fields on the model.
func (r *PropertyRepo) Create(ctx context.Context, p *Property) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO properties (org_id, name, address_line, city) VALUES (?,?,?,?)",
		p.OrgID, p.Name, p.AddressLine, p.City)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return r.DB.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM properties WHERE id=?", p.ID).
		Scan(&p.CreatedAt, &p.UpdatedAt)
}

// GetByIDAndOrg fetches a live property scoped to the organization.
func (r *PropertyRepo) GetByIDAndOrg(ctx context.Context, id, orgID uint64) (*Property, error) {
	var p Property
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+propertyCols+" FROM properties WHERE id=? AND org_id=? AND deleted_at IS NULL",
		id, orgID).
		Scan(&p.ID, &p.OrgID, &p.Name, &p.AddressLine, &p.City, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListByOrg returns all live properties for an organization ordered by id.
func (r *PropertyRepo) ListByOrg(ctx context.Context, orgID uint64) ([]*Property, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+propertyCols+" FROM properties WHERE org_id=? AND deleted_at IS NULL ORDER BY id",
		orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Property
	for rows.Next() {
		var p Property
		if err := rows.Scan(&p.ID, &p.OrgID, &p.Name, &p.AddressLine, &p.City, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// Update replaces the mutable fields of a property.
func (r *PropertyRepo) Update(ctx context.Context, id, orgID uint64, name, addressLine, city string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE properties SET name=?, address_line=?, city=? WHERE id=? AND org_id=? AND deleted_at IS NULL",
		name, addressLine, city, id, orgID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete stamps deleted_at; the row survives for lifecycle queries.
func (r *PropertyRepo) SoftDelete(ctx context.Context, id, orgID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE properties SET deleted_at=NOW() WHERE id=? AND org_id=? AND deleted_at IS NULL",
		id, orgID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
