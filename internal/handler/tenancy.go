package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/karthicware/ultra-bms-sub010/internal/repository"
)

// TenancyHandler exposes tenants and the lease lifecycle.
type TenancyHandler struct {
    Tenants *repository.TenantRepo
    Leases  *repository.LeaseRepo
    Units   *repository.UnitRepo
}

func NewTenancyHandler(tenants *repository.TenantRepo, leases *repository.LeaseRepo, units *repository.UnitRepo) *TenancyHandler {
    return &TenancyHandler{Tenants: tenants, Leases: leases, Units: units}
}

type tenantReq struct {
    FullName string `json:"full_name"`
    Email    string `json:"email"`
    Phone    string `json:"phone"`
}

type leaseReq struct {
    UnitID       uint64 `json:"unit_id"`
    TenantID     uint64 `json:"tenant_id"`
    StartDate    string `json:"start_date"` // YYYY-MM-DD
    EndDate      string `json:"end_date"`   // YYYY-MM-DD
    RentCents    int64  `json:"rent_cents"`
    DepositCents int64  `json:"deposit_cents"`
}

type closeLeaseReq struct {
    Status string `json:"status"` // ENDED or TERMINATED
}

func (h *TenancyHandler) CreateTenant(c echo.Context) error {
    org, err := orgID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no session"})
    }
    var req tenantReq
    if err := c.Bind(&req); err != nil || req.FullName == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "full_name is required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    t := repository.Tenant{OrgID: org, FullName: req.FullName, Email: req.Email, Phone: req.Phone}
    if err := h.Tenants.Create(ctx, &t); err != nil {
        return repoError(c, err, "could not create tenant")
    }
    return c.JSON(http.StatusCreated, t)
}

func (h *TenancyHandler) ListTenants(c echo.Context) error {
    org, err := orgID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no session"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    out, err := h.Tenants.ListByOrg(ctx, org)
    if err != nil {
        return repoError(c, err, "could not list tenants")
    }
    return c.JSON(http.StatusOK, echo.Map{"tenants": out})
}

func (h *TenancyHandler) GetTenant(c echo.Context) error {
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

    t, err := h.Tenants.GetByIDAndOrg(ctx, id, org)
    if err != nil {
        return repoError(c, err, "could not load tenant")
    }
    return c.JSON(http.StatusOK, t)
}

func (h *TenancyHandler) UpdateTenant(c echo.Context) error {
    org, err := orgID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no session"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req tenantReq
    if err := c.Bind(&req); err != nil || req.FullName == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "full_name is required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Tenants.Update(ctx, id, org, req.FullName, req.Email, req.Phone); err != nil {
        return repoError(c, err, "could not update tenant")
    }
    return c.NoContent(http.StatusNoContent)
}

// DeleteTenant soft-deletes a tenant.  409 when an ACTIVE lease still
// references them.
func (h *TenancyHandler) DeleteTenant(c echo.Context) error {
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

    if err := h.Tenants.SoftDelete(ctx, id, org); err != nil {
        return repoError(c, err, "could not delete tenant")
    }
    return c.NoContent(http.StatusNoContent)
}

// CreateLease creates a DRAFT lease after checking that both the unit and
// the tenant belong to the caller's organization.
func (h *TenancyHandler) CreateLease(c echo.Context) error {
    org, err := orgID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no session"})
    }
    var req leaseReq
    if err := c.Bind(&req); err != nil || req.UnitID == 0 || req.TenantID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "unit_id and tenant_id are required"})
    }
    start, err := time.Parse("2006-01-02", req.StartDate)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_date must be YYYY-MM-DD"})
    }
    end, err := time.Parse("2006-01-02", req.EndDate)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_date must be YYYY-MM-DD"})
    }
    if !end.After(start) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_date must be after start_date"})
    }
    if req.RentCents <= 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "rent_cents must be positive"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if _, err := h.Units.GetByIDAndOrg(ctx, req.UnitID, org); err != nil {
        return repoError(c, err, "could not load unit")
    }
    if _, err := h.Tenants.GetByIDAndOrg(ctx, req.TenantID, org); err != nil {
        return repoError(c, err, "could not load tenant")
    }

    l := repository.Lease{
        OrgID:        org,
        UnitID:       req.UnitID,
        TenantID:     req.TenantID,
        StartDate:    start,
        EndDate:      end,
        RentCents:    req.RentCents,
        DepositCents: req.DepositCents,
    }
    if err := h.Leases.Create(ctx, &l); err != nil {
        return repoError(c, err, "could not create lease")
    }
    return c.JSON(http.StatusCreated, l)
}

func (h *TenancyHandler) ListLeases(c echo.Context) error {
    org, err := orgID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no session"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    out, err := h.Leases.ListByOrg(ctx, org)
    if err != nil {
        return repoError(c, err, "could not list leases")
    }
    return c.JSON(http.StatusOK, echo.Map{"leases": out})
}

func (h *TenancyHandler) GetLease(c echo.Context) error {
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

    l, err := h.Leases.GetByIDAndOrg(ctx, id, org)
    if err != nil {
        return repoError(c, err, "could not load lease")
    }
    return c.JSON(http.StatusOK, l)
}

// ActivateLease flips DRAFT to ACTIVE and the unit to OCCUPIED.  409 when
// the unit is already occupied.
func (h *TenancyHandler) ActivateLease(c echo.Context) error {
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

    if err := h.Leases.Activate(ctx, id, org); err != nil {
        return repoError(c, err, "could not activate lease")
    }
    return c.NoContent(http.StatusNoContent)
}

// CloseLease ends or terminates an ACTIVE lease and frees the unit.
func (h *TenancyHandler) CloseLease(c echo.Context) error {
    org, err := orgID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no session"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req closeLeaseReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
    }
    if req.Status != repository.LeaseEnded && req.Status != repository.LeaseTerminated {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be ENDED or TERMINATED"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Leases.Close(ctx, id, org, req.Status); err != nil {
        return repoError(c, err, "could not close lease")
    }
    return c.NoContent(http.StatusNoContent)
}
