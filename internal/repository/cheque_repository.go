package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Post-dated cheque states.  PENDING cheques mature to DUE when their date
// arrives (sweep-driven); the remaining moves are explicit back-office
// actions.
const (
	ChequePending   = "PENDING"
	ChequeDue       = "DUE"
	ChequeDeposited = "DEPOSITED"
	ChequeCleared   = "CLEARED"
	ChequeBounced   = "BOUNCED"
)

// chequeTransitions lists the legal manual moves; PENDING->DUE happens only
// via the maturation sweep.
var chequeTransitions = map[string][]string{
	ChequeDue:       {ChequeDeposited},
	ChequeDeposited: {ChequeCleared, ChequeBounced},
}

// PostDatedCheque is a cheque collected upfront against future rent.
type PostDatedCheque struct {
	ID          uint64    `json:"id"`
	OrgID       uint64    `json:"-"`
	LeaseID     uint64    `json:"lease_id"`
	ChequeNo    string    `json:"cheque_no"`
	BankName    string    `json:"bank_name"`
	AmountCents int64     `json:"amount_cents"`
	DueDate     time.Time `json:"due_date"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ChequeRepo encapsulates database queries for post-dated cheques.
type ChequeRepo struct{ DB *sql.DB }

func NewChequeRepo(db *sql.DB) *ChequeRepo { return &ChequeRepo{DB: db} }

const chequeCols = "id, org_id, lease_id, cheque_no, bank_name, amount_cents, due_date, status, created_at, updated_at"

// Create inserts a PENDING cheque.
func (r *ChequeRepo) Create(ctx context.Context, c *PostDatedCheque) error {
	c.Status = ChequePending
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO post_dated_cheques (org_id, lease_id, cheque_no, bank_name, amount_cents, due_date, status) VALUES (?,?,?,?,?,?,?)",
		c.OrgID, c.LeaseID, c.ChequeNo, c.BankName, c.AmountCents, c.DueDate, c.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return r.DB.QueryRowContext(ctx,
		"SELECT created_at, updated_at FROM post_dated_cheques WHERE id=?", c.ID).
		Scan(&c.CreatedAt, &c.UpdatedAt)
}

// GetByIDAndOrg fetches a cheque scoped to the organization.
func (r *ChequeRepo) GetByIDAndOrg(ctx context.Context, id, orgID uint64) (*PostDatedCheque, error) {
	var c PostDatedCheque
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+chequeCols+" FROM post_dated_cheques WHERE id=? AND org_id=?", id, orgID).
		Scan(&c.ID, &c.OrgID, &c.LeaseID, &c.ChequeNo, &c.BankName, &c.AmountCents, &c.DueDate,
			&c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ListByLease returns a lease's cheques ordered by due date.
func (r *ChequeRepo) ListByLease(ctx context.Context, leaseID, orgID uint64) ([]*PostDatedCheque, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+chequeCols+" FROM post_dated_cheques WHERE lease_id=? AND org_id=? ORDER BY due_date",
		leaseID, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*PostDatedCheque
	for rows.Next() {
		var c PostDatedCheque
		if err := rows.Scan(&c.ID, &c.OrgID, &c.LeaseID, &c.ChequeNo, &c.BankName, &c.AmountCents,
			&c.DueDate, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// Transition performs a manual status move (deposit, clear, bounce).
// Illegal moves return ErrConflict.
func (r *ChequeRepo) Transition(ctx context.Context, id, orgID uint64, to string) error {
	c, err := r.GetByIDAndOrg(ctx, id, orgID)
	if err != nil {
		return err
	}
	legal := false
	for _, next := range chequeTransitions[c.Status] {
		if next == to {
			legal = true
			break
		}
	}
	if !legal {
		return ErrConflict
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE post_dated_cheques SET status=? WHERE id=? AND org_id=? AND status=?",
		to, id, orgID, c.Status)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConflict
	}
	return nil
}

// MatureDue moves PENDING cheques whose date has arrived to DUE.  The
// status guard makes a rerun a no-op.
func (r *ChequeRepo) MatureDue(ctx context.Context, asOf time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE post_dated_cheques SET status=? WHERE status=? AND due_date <= ?",
		ChequeDue, ChequePending, asOf)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
