package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Invoice states.
const (
	InvoiceIssued    = "ISSUED"
	InvoicePaid      = "PAID"
	InvoiceOverdue   = "OVERDUE"
	InvoiceCancelled = "CANCELLED"
)

// Invoice bills a lease for a period.  The aging sweep moves ISSUED
// invoices past their due date to OVERDUE and applies the late fee exactly
// once; late_fee_applied is the guard that keeps the sweep idempotent.
type Invoice struct {
	ID             uint64     `json:"id"`
	OrgID          uint64     `json:"-"`
	LeaseID        uint64     `json:"lease_id"`
	AmountCents    int64      `json:"amount_cents"`
	DueDate        time.Time  `json:"due_date"`
	Status         string     `json:"status"`
	LateFeeCents   int64      `json:"late_fee_cents"`
	LateFeeApplied bool       `json:"late_fee_applied"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// InvoiceRepo encapsulates database queries for invoices.
type InvoiceRepo struct{ DB *sql.DB }

func NewInvoiceRepo(db *sql.DB) *InvoiceRepo { return &InvoiceRepo{DB: db} }

const invoiceCols = "id, org_id, lease_id, amount_cents, due_date, status, late_fee_cents, late_fee_applied, paid_at, created_at, updated_at"

// Create inserts an ISSUED invoice.
func (r *InvoiceRepo) Create(ctx context.Context, inv *Invoice) error {
	inv.Status = InvoiceIssued
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO invoices (org_id, lease_id, amount_cents, due_date, status) VALUES (?,?,?,?,?)",
		inv.OrgID, inv.LeaseID, inv.AmountCents, inv.DueDate, inv.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	inv.ID = uint64(id)
	return r.DB.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM invoices WHERE id=?", inv.ID).
		Scan(&inv.CreatedAt, &inv.UpdatedAt)
}

// GetByIDAndOrg fetches an invoice scoped to the organization.
func (r *InvoiceRepo) GetByIDAndOrg(ctx context.Context, id, orgID uint64) (*Invoice, error) {
	var (
		inv    Invoice
		paidAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+invoiceCols+" FROM invoices WHERE id=? AND org_id=?", id, orgID).
		Scan(&inv.ID, &inv.OrgID, &inv.LeaseID, &inv.AmountCents, &inv.DueDate, &inv.Status,
			&inv.LateFeeCents, &inv.LateFeeApplied, &paidAt, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if paidAt.Valid {
		t := paidAt.Time.UTC()
		inv.PaidAt = &t
	}
	return &inv, nil
}

// ListByOrg returns invoices, optionally filtered by status, newest first.
func (r *InvoiceRepo) ListByOrg(ctx context.Context, orgID uint64, status string) ([]*Invoice, error) {
	q := "SELECT " + invoiceCols + " FROM invoices WHERE org_id=?"
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
	var out []*Invoice
	for rows.Next() {
		var (
			inv    Invoice
			paidAt sql.NullTime
		)
		if err := rows.Scan(&inv.ID, &inv.OrgID, &inv.LeaseID, &inv.AmountCents, &inv.DueDate,
			&inv.Status, &inv.LateFeeCents, &inv.LateFeeApplied, &paidAt, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, err
		}
		if paidAt.Valid {
			t := paidAt.Time.UTC()
			inv.PaidAt = &t
		}
		out = append(out, &inv)
	}
	return out, rows.Err()
}

// MarkPaid settles an invoice.  Only ISSUED and OVERDUE invoices can be
// paid.
func (r *InvoiceRepo) MarkPaid(ctx context.Context, id, orgID uint64, at time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE invoices SET status=?, paid_at=? WHERE id=? AND org_id=? AND status IN (?,?)",
		InvoicePaid, at, id, orgID, InvoiceIssued, InvoiceOverdue)
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

// Cancel voids an ISSUED invoice.
func (r *InvoiceRepo) Cancel(ctx context.Context, id, orgID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE invoices SET status=? WHERE id=? AND org_id=? AND status=?",
		InvoiceCancelled, id, orgID, InvoiceIssued)
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

// OverdueCandidates returns the invoices AgeOverdue would touch as of the
// given instant.  The sweep reads these before aging so it can emit one
// notification per invoice; after aging, a rerun finds no candidates.
func (r *InvoiceRepo) OverdueCandidates(ctx context.Context, asOf time.Time) ([]*Invoice, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+invoiceCols+" FROM invoices WHERE status=? AND due_date < ? AND late_fee_applied=0",
		InvoiceIssued, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Invoice
	for rows.Next() {
		var (
			inv    Invoice
			paidAt sql.NullTime
		)
		if err := rows.Scan(&inv.ID, &inv.OrgID, &inv.LeaseID, &inv.AmountCents, &inv.DueDate,
			&inv.Status, &inv.LateFeeCents, &inv.LateFeeApplied, &paidAt, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &inv)
	}
	return out, rows.Err()
}

// AgeOverdue moves ISSUED invoices past their due date to OVERDUE and adds
// the late fee in the same guarded statement.  The late_fee_applied flag
// makes a rerun a no-op, so double-running the sweep cannot double-charge.
func (r *InvoiceRepo) AgeOverdue(ctx context.Context, asOf time.Time, lateFeeCents int64) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE invoices
		 SET status=?, late_fee_cents=?, late_fee_applied=1
		 WHERE status=? AND due_date < ? AND late_fee_applied=0`,
		InvoiceOverdue, lateFeeCents, InvoiceIssued, asOf)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
