package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Work order states and priorities.
const (
	WorkOrderOpen       = "OPEN"
	WorkOrderAssigned   = "ASSIGNED"
	WorkOrderInProgress = "IN_PROGRESS"
	WorkOrderCompleted  = "COMPLETED"
	WorkOrderCancelled  = "CANCELLED"

	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
	PriorityUrgent = "URGENT"
)

// workOrderTransitions lists the legal status moves.  Terminal states have
// no outgoing edges.
var workOrderTransitions = map[string][]string{
	WorkOrderOpen:       {WorkOrderAssigned, WorkOrderCancelled},
	WorkOrderAssigned:   {WorkOrderInProgress, WorkOrderCancelled},
	WorkOrderInProgress: {WorkOrderCompleted, WorkOrderCancelled},
}

// WorkOrder is a maintenance task against a property (and optionally a
// specific unit), possibly assigned to a vendor.  Source records where the
// order came from: manual entry, a compliance schedule or a preventive
// maintenance plan.
type WorkOrder struct {
	ID          uint64     `json:"id"`
	OrgID       uint64     `json:"-"`
	PropertyID  uint64     `json:"property_id"`
	UnitID      *uint64    `json:"unit_id,omitempty"`
	VendorID    *uint64    `json:"vendor_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	Source      string     `json:"source"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"-"`
}

// Work order sources.
const (
	SourceManual      = "MANUAL"
	SourceCompliance  = "COMPLIANCE"
	SourceMaintenance = "MAINTENANCE"
)

// WorkOrderRepo encapsulates database queries for work orders.
type WorkOrderRepo struct{ DB *sql.DB }

func NewWorkOrderRepo(db *sql.DB) *WorkOrderRepo { return &WorkOrderRepo{DB: db} }

const workOrderCols = "id, org_id, property_id, unit_id, vendor_id, title, description, priority, status, source, created_at, updated_at"

// Create inserts an OPEN work order.
func (r *WorkOrderRepo) Create(ctx context.Context, w *WorkOrder) error {
	if w.Status == "" {
		w.Status = WorkOrderOpen
	}
	if w.Priority == "" {
		w.Priority = PriorityMedium
	}
	if w.Source == "" {
		w.Source = SourceManual
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO work_orders (org_id, property_id, unit_id, vendor_id, title, description, priority, status, source) VALUES (?,?,?,?,?,?,?,?,?)",
		w.OrgID, w.PropertyID, w.UnitID, w.VendorID, w.Title, w.Description, w.Priority, w.Status, w.Source)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	w.ID = uint64(id)
	return r.DB.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM work_orders WHERE id=?", w.ID).
		Scan(&w.CreatedAt, &w.UpdatedAt)
}

// GetByIDAndOrg fetches a live work order scoped to the organization.
func (r *WorkOrderRepo) GetByIDAndOrg(ctx context.Context, id, orgID uint64) (*WorkOrder, error) {
	var w WorkOrder
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+workOrderCols+" FROM work_orders WHERE id=? AND org_id=? AND deleted_at IS NULL",
		id, orgID).
		Scan(&w.ID, &w.OrgID, &w.PropertyID, &w.UnitID, &w.VendorID, &w.Title, &w.Description,
			&w.Priority, &w.Status, &w.Source, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

// ListByOrg returns live work orders, optionally filtered by status.
func (r *WorkOrderRepo) ListByOrg(ctx context.Context, orgID uint64, status string) ([]*WorkOrder, error) {
	q := "SELECT " + workOrderCols + " FROM work_orders WHERE org_id=? AND deleted_at IS NULL"
	args := []any{orgID}
	if status != "" {
		q += " AND status=?"
		args = append(args, status)
	}
	q += " ORDER BY id DESC"
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*WorkOrder
	for rows.Next() {
		var w WorkOrder
		if err := rows.Scan(&w.ID, &w.OrgID, &w.PropertyID, &w.UnitID, &w.VendorID, &w.Title,
			&w.Description, &w.Priority, &w.Status, &w.Source, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &w)
	}
	return out, rows.Err()
}

// Assign attaches a vendor and moves the order to ASSIGNED.
func (r *WorkOrderRepo) Assign(ctx context.Context, id, orgID, vendorID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE work_orders SET vendor_id=?, status=? WHERE id=? AND org_id=? AND status=? AND deleted_at IS NULL",
		vendorID, WorkOrderAssigned, id, orgID, WorkOrderOpen)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, gerr := r.GetByIDAndOrg(ctx, id, orgID); gerr != nil {
			return gerr
		}
		return ErrConflict
	}
	return nil
}

// Transition moves a work order along a legal status edge.  Illegal moves
// return ErrConflict.
func (r *WorkOrderRepo) Transition(ctx context.Context, id, orgID uint64, to string) error {
	w, err := r.GetByIDAndOrg(ctx, id, orgID)
	if err != nil {
		return err
	}
	legal := false
	for _, next := range workOrderTransitions[w.Status] {
		if next == to {
			legal = true
			break
		}
	}
	if !legal {
		return ErrConflict
	}
	// Guard on the current status so a concurrent transition loses cleanly.
	res, err := r.DB.ExecContext(ctx,
		"UPDATE work_orders SET status=? WHERE id=? AND org_id=? AND status=? AND deleted_at IS NULL",
		to, id, orgID, w.Status)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConflict
	}
	return nil
}
