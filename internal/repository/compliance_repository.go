package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ComplianceSchedule is a recurring statutory obligation on a property
// (fire inspection, elevator certificate, and so on).  The generation sweep
// turns each due schedule into a work order and advances next_due by the
// frequency; last_generated records when the sweep last acted on the row.
type ComplianceSchedule struct {
	ID            uint64     `json:"id"`
	OrgID         uint64     `json:"-"`
	PropertyID    uint64     `json:"property_id"`
	Name          string     `json:"name"`
	FrequencyDays int        `json:"frequency_days"`
	NextDue       time.Time  `json:"next_due"`
	LastGenerated *time.Time `json:"last_generated,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"-"`
}

// ComplianceRepo encapsulates database queries for compliance schedules.
type ComplianceRepo struct{ DB *sql.DB }

func NewComplianceRepo(db *sql.DB) *ComplianceRepo { return &ComplianceRepo{DB: db} }

const complianceCols = "id, org_id, property_id, name, frequency_days, next_due, last_generated, created_at, updated_at"

// Create inserts a schedule.
func (r *ComplianceRepo) Create(ctx context.Context, s *ComplianceSchedule) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO compliance_schedules (org_id, property_id, name, frequency_days, next_due) VALUES (?,?,?,?,?)",
		s.OrgID, s.PropertyID, s.Name, s.FrequencyDays, s.NextDue)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return r.DB.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM compliance_schedules WHERE id=?", s.ID).
		Scan(&s.CreatedAt, &s.UpdatedAt)
}

// GetByIDAndOrg fetches a live schedule scoped to the organization.
func (r *ComplianceRepo) GetByIDAndOrg(ctx context.Context, id, orgID uint64) (*ComplianceSchedule, error) {
	var (
		s    ComplianceSchedule
		last sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+complianceCols+" FROM compliance_schedules WHERE id=? AND org_id=? AND deleted_at IS NULL",
		id, orgID).
		Scan(&s.ID, &s.OrgID, &s.PropertyID, &s.Name, &s.FrequencyDays, &s.NextDue, &last, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if last.Valid {
		t := last.Time.UTC()
		s.LastGenerated = &t
	}
	return &s, nil
}

// ListByOrg returns live schedules ordered by next_due.
func (r *ComplianceRepo) ListByOrg(ctx context.Context, orgID uint64) ([]*ComplianceSchedule, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+complianceCols+" FROM compliance_schedules WHERE org_id=? AND deleted_at IS NULL ORDER BY next_due",
		orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*ComplianceSchedule
	for rows.Next() {
		var (
			s    ComplianceSchedule
			last sql.NullTime
		)
		if err := rows.Scan(&s.ID, &s.OrgID, &s.PropertyID, &s.Name, &s.FrequencyDays, &s.NextDue,
			&last, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		if last.Valid {
			t := last.Time.UTC()
			s.LastGenerated = &t
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

// Due returns live schedules whose next_due is at or before asOf.
func (r *ComplianceRepo) Due(ctx context.Context, asOf time.Time) ([]*ComplianceSchedule, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+complianceCols+" FROM compliance_schedules WHERE next_due <= ? AND deleted_at IS NULL",
		asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*ComplianceSchedule
	for rows.Next() {
		var (
			s    ComplianceSchedule
			last sql.NullTime
		)
		if err := rows.Scan(&s.ID, &s.OrgID, &s.PropertyID, &s.Name, &s.FrequencyDays, &s.NextDue,
			&last, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		if last.Valid {
			t := last.Time.UTC()
			s.LastGenerated = &t
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

// Advance moves next_due one frequency forward and stamps last_generated.
// The next_due guard alone keeps the generation sweep idempotent (a rerun
// after the advance matches zero rows) while still letting a schedule that
// fell several intervals behind catch up one interval per pass.
func (r *ComplianceRepo) Advance(ctx context.Context, id uint64, dueOn, generatedAt time.Time) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE compliance_schedules
		 SET next_due = DATE_ADD(next_due, INTERVAL frequency_days DAY), last_generated=?
		 WHERE id=? AND next_due <= ?`,
		generatedAt, id, dueOn)
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
func (r *ComplianceRepo) SoftDelete(ctx context.Context, id, orgID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE compliance_schedules SET deleted_at=NOW() WHERE id=? AND org_id=? AND deleted_at IS NULL",
		id, orgID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
