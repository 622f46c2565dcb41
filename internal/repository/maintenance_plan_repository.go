package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// MaintenancePlan describes recurring preventive maintenance on a property
// or a specific unit (HVAC service, pump inspection).  Like compliance
// schedules, the recurrence sweep advances next_due in a guarded statement
// and creates one work order per advance.
type MaintenancePlan struct {
	ID           uint64     `json:"id"`
	OrgID        uint64     `json:"-"`
	PropertyID   uint64     `json:"property_id"`
	UnitID       *uint64    `json:"unit_id,omitempty"`
	Title        string     `json:"title"`
	IntervalDays int        `json:"interval_days"`
	NextDue      time.Time  `json:"next_due"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"-"`
}

// MaintenancePlanRepo encapsulates database queries for maintenance plans.
type MaintenancePlanRepo struct{ DB *sql.DB }

func NewMaintenancePlanRepo(db *sql.DB) *MaintenancePlanRepo { return &MaintenancePlanRepo{DB: db} }

const planCols = "id, org_id, property_id, unit_id, title, interval_days, next_due, created_at, updated_at"

// Create inserts a plan.
func (r *MaintenancePlanRepo) Create(ctx context.Context, p *MaintenancePlan) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO maintenance_plans (org_id, property_id, unit_id, title, interval_days, next_due) VALUES (?,?,?,?,?,?)",
		p.OrgID, p.PropertyID, p.UnitID, p.Title, p.IntervalDays, p.NextDue)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return r.DB.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM maintenance_plans WHERE id=?", p.ID).
		Scan(&p.CreatedAt, &p.UpdatedAt)
}

// GetByIDAndOrg fetches a live plan scoped to the organization.
func (r *MaintenancePlanRepo) GetByIDAndOrg(ctx context.Context, id, orgID uint64) (*MaintenancePlan, error) {
	var p MaintenancePlan
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+planCols+" FROM maintenance_plans WHERE id=? AND org_id=? AND deleted_at IS NULL",
		id, orgID).
		Scan(&p.ID, &p.OrgID, &p.PropertyID, &p.UnitID, &p.Title, &p.IntervalDays, &p.NextDue, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListByOrg returns live plans ordered by next_due.
func (r *MaintenancePlanRepo) ListByOrg(ctx context.Context, orgID uint64) ([]*MaintenancePlan, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+planCols+" FROM maintenance_plans WHERE org_id=? AND deleted_at IS NULL ORDER BY next_due",
		orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*MaintenancePlan
	for rows.Next() {
		var p MaintenancePlan
		if err := rows.Scan(&p.ID, &p.OrgID, &p.PropertyID, &p.UnitID, &p.Title, &p.IntervalDays,
			&p.NextDue, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// Due returns live plans whose next_due is at or before asOf.
func (r *MaintenancePlanRepo) Due(ctx context.Context, asOf time.Time) ([]*MaintenancePlan, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+planCols+" FROM maintenance_plans WHERE next_due <= ? AND deleted_at IS NULL",
		asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*MaintenancePlan
	for rows.Next() {
		var p MaintenancePlan
		if err := rows.Scan(&p.ID, &p.OrgID, &p.PropertyID, &p.UnitID, &p.Title, &p.IntervalDays,
			&p.NextDue, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// Advance moves next_due one interval forward, guarded so a sweep rerun
// affects zero rows.
func (r *MaintenancePlanRepo) Advance(ctx context.Context, id uint64, dueOn time.Time) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE maintenance_plans
		 SET next_due = DATE_ADD(next_due, INTERVAL interval_days DAY)
		 WHERE id=? AND next_due <= ?`,
		id, dueOn)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SoftDelete stamps deleted_at.
func (r *MaintenancePlanRepo) SoftDelete(ctx context.Context, id, orgID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE maintenance_plans SET deleted_at=NOW() WHERE id=? AND org_id=? AND deleted_at IS NULL",
		id, orgID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
