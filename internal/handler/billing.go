package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/karthicware/ultra-bms-sub010/internal/repository"
)

// BillingHandler exposes invoices and post-dated cheques.
type BillingHandler struct {
    Invoices *repository.InvoiceRepo
    Cheques  *repository.ChequeRepo
    Leases   *repository.LeaseRepo
}

func NewBillingHandler(invoices *repository.InvoiceRepo, cheques *repository.ChequeRepo, leases *repository.LeaseRepo) *BillingHandler {
    return &BillingHandler{Invoices: invoices, Cheques: cheques, Leases: leases}
}

type invoiceReq struct {
    LeaseID     uint64 `json:"lease_id"`
    AmountCents int64  `json:"amount_cents"`
    DueDate     string `json:"due_date"` // YYYY-MM-DD
}

type chequeReq struct {
    LeaseID     uint64 `json:"lease_id"`
    ChequeNo    string `json:"cheque_no"`
    BankName    string `json:"bank_name"`
    AmountCents int64  `json:"amount_cents"`
    DueDate     string `json:"due_date"` // YYYY-MM-DD
}

func (h *BillingHandler) CreateInvoice(c echo.Context) error {
    org, err := orgID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no session"})
    }
    var req invoiceReq
    if err := c.Bind(&req); err != nil || req.LeaseID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "lease_id is required"})
    }
    if req.AmountCents <= 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount_cents must be positive"})
    }
    due, err := time.Parse("2006-01-02", req.DueDate)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "due_date must be YYYY-MM-DD"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if _, err := h.Leases.GetByIDAndOrg(ctx, req.LeaseID, org); err != nil {
        return repoError(c, err, "could not load lease")
    }
    inv := repository.Invoice{OrgID: org, LeaseID: req.LeaseID, AmountCents: req.AmountCents, DueDate: due}
    if err := h.Invoices.Create(ctx, &inv); err != nil {
        return repoError(c, err, "could not create invoice")
    }
    return c.JSON(http.StatusCreated, inv)
}

func (h *BillingHandler) ListInvoices(c echo.Context) error {
    org, err := orgID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no session"})
    }
    status := strings.ToUpper(strings.TrimSpace(c.QueryParam("status")))

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    out, err := h.Invoices.ListByOrg(ctx, org, status)
    if err != nil {
        return repoError(c, err, "could not list invoices")
    }
    return c.JSON(http.StatusOK, echo.Map{"invoices": out})
}

func (h *BillingHandler) GetInvoice(c echo.Context) error {
    org, err := orgID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no session"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    inv, err := h.Invoices.GetByIDAndOrg(ctx, id, org)
    if err != nil {
        return repoError(c, err, "could not load invoice")
    }
    return c.JSON(http.StatusOK, inv)
}

// PayInvoice settles an ISSUED or OVERDUE invoice.
func (h *BillingHandler) PayInvoice(c echo.Context) error {
    org, err := orgID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no session"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Invoices.MarkPaid(ctx, id, org, time.Now().UTC()); err != nil {
        return repoError(c, err, "could not mark invoice paid")
    }
    return c.NoContent(http.StatusNoContent)
}

// CancelInvoice voids an ISSUED invoice; anything else is a 409.
func (h *BillingHandler) CancelInvoice(c echo.Context) error {
    org, err := orgID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no session"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Invoices.Cancel(ctx, id, org); err != nil {
        return repoError(c, err, "could not cancel invoice")
    }
    return c.NoContent(http.StatusNoContent)
}

func (h *BillingHandler) CreateCheque(c echo.Context) error {
    org, err := orgID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no session"})
    }
    var req chequeReq
    if err := c.Bind(&req); err != nil || req.LeaseID == 0 || req.ChequeNo == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "lease_id and cheque_no are required"})
    }
    if req.AmountCents <= 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount_cents must be positive"})
    }
    due, err := time.Parse("2006-01-02", req.DueDate)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "due_date must be YYYY-MM-DD"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if _, err := h.Leases.GetByIDAndOrg(ctx, req.LeaseID, org); err != nil {
        return repoError(c, err, "could not load lease")
    }
    ch := repository.PostDatedCheque{
        OrgID:       org,
        LeaseID:     req.LeaseID,
        ChequeNo:    req.ChequeNo,
        BankName:    req.BankName,
        AmountCents: req.AmountCents,
        DueDate:     due,
    }
    if err := h.Cheques.Create(ctx, &ch); err != nil {
        return repoError(c, err, "could not create cheque")
    }
    return c.JSON(http.StatusCreated, ch)
}

func (h *BillingHandler) ListCheques(c echo.Context) error {
    org, err := orgID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no session"})
    }
    leaseID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    out, err := h.Cheques.ListByLease(ctx, leaseID, org)
    if err != nil {
        return repoError(c, err, "could not list cheques")
    }
    return c.JSON(http.StatusOK, echo.Map{"cheques": out})
}

// TransitionCheque performs a manual cheque move: deposit a DUE cheque,
// then clear or bounce it.  PENDING to DUE is sweep-only and rejected here.
func (h *BillingHandler) TransitionCheque(c echo.Context) error {
    org, err := orgID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no session"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req transitionReq
    if err := c.Bind(&req); err != nil || req.Status == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "status is required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Cheques.Transition(ctx, id, org, strings.ToUpper(req.Status)); err != nil {
        return repoError(c, err, "could not transition cheque")
    }
    return c.NoContent(http.StatusNoContent)
}
