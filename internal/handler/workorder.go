package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/karthicware/ultra-bms-sub010/internal/notify"
    "github.com/karthicware/ultra-bms-sub010/internal/queue"
    "github.com/karthicware/ultra-bms-sub010/internal/repository"
)

// WorkOrderHandler exposes vendors, work orders and preventive maintenance
// plans.
type WorkOrderHandler struct {
    Vendors    *repository.VendorRepo
    WorkOrders *repository.WorkOrderRepo
    Plans      *repository.MaintenancePlanRepo
    Properties *repository.PropertyRepo
}

func NewWorkOrderHandler(vendors *repository.VendorRepo, workOrders *repository.WorkOrderRepo, plans *repository.MaintenancePlanRepo, properties *repository.PropertyRepo) *WorkOrderHandler {
    return &WorkOrderHandler{Vendors: vendors, WorkOrders: workOrders, Plans: plans, Properties: properties}
}

type vendorReq struct {
    Name  string `json:"name"`
    Trade string `json:"trade"`
    Email string `json:"email"`
    Phone string `json:"phone"`
}

type workOrderReq struct {
    PropertyID  uint64  `json:"property_id"`
    UnitID      *uint64 `json:"unit_id"`
    Title       string  `json:"title"`
    Description string  `json:"description"`
    Priority    string  `json:"priority"`
}

type assignReq struct {
    VendorID uint64 `json:"vendor_id"`
}

type transitionReq struct {
    Status string `json:"status"`
}

type planReq struct {
    PropertyID   uint64  `json:"property_id"`
    UnitID       *uint64 `json:"unit_id"`
    Title        string  `json:"title"`
    IntervalDays int     `json:"interval_days"`
    NextDue      string  `json:"next_due"` // YYYY-MM-DD
}

func (h *WorkOrderHandler) CreateVendor(c echo.Context) error {
    org, err := orgID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no session"})
    }
    var req vendorReq
    if err := c.Bind(&req); err != nil || req.Name == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    v := repository.Vendor{OrgID: org, Name: req.Name, Trade: req.Trade, Email: req.Email, Phone: req.Phone}
    if err := h.Vendors.Create(ctx, &v); err != nil {
        return repoError(c, err, "could not create vendor")
    }
    return c.JSON(http.StatusCreated, v)
}

func (h *WorkOrderHandler) ListVendors(c echo.Context) error {
    org, err := orgID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no session"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    out, err := h.Vendors.ListByOrg(ctx, org)
    if err != nil {
        return repoError(c, err, "could not list vendors")
    }
    return c.JSON(http.StatusOK, echo.Map{"vendors": out})
}

func (h *WorkOrderHandler) UpdateVendor(c echo.Context) error {
    org, err := orgID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no session"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req vendorReq
    if err := c.Bind(&req); err != nil || req.Name == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Vendors.Update(ctx, id, org, req.Name, req.Trade, req.Email, req.Phone); err != nil {
        return repoError(c, err, "could not update vendor")
    }
    return c.NoContent(http.StatusNoContent)
}

func (h *WorkOrderHandler) DeleteVendor(c echo.Context) error {
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

    if err := h.Vendors.SoftDelete(ctx, id, org); err != nil {
        return repoError(c, err, "could not delete vendor")
    }
    return c.NoContent(http.StatusNoContent)
}

// CreateWorkOrder opens a manual work order and publishes a notification.
// A publish failure never fails the request; the order is already saved.
func (h *WorkOrderHandler) CreateWorkOrder(c echo.Context) error {
    org, err := orgID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no session"})
    }
    var req workOrderReq
    if err := c.Bind(&req); err != nil || req.PropertyID == 0 || req.Title == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "property_id and title are required"})
    }
    priority := strings.ToUpper(strings.TrimSpace(req.Priority))
    switch priority {
    case "", repository.PriorityLow, repository.PriorityMedium, repository.PriorityHigh, repository.PriorityUrgent:
    default:
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "priority must be LOW, MEDIUM, HIGH or URGENT"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    prop, err := h.Properties.GetByIDAndOrg(ctx, req.PropertyID, org)
    if err != nil {
        return repoError(c, err, "could not load property")
    }

    w := repository.WorkOrder{
        OrgID:       org,
        PropertyID:  req.PropertyID,
        UnitID:      req.UnitID,
        Title:       req.Title,
        Description: req.Description,
        Priority:    priority,
        Source:      repository.SourceManual,
    }
    if err := h.WorkOrders.Create(ctx, &w); err != nil {
        return repoError(c, err, "could not create work order")
    }

    _ = notify.Publish(ctx, queue.NotificationEvent{
        Kind:         queue.KindWorkOrderCreated,
        OrgID:        org,
        PropertyID:   prop.ID,
        PropertyName: prop.Name,
        WorkOrderID:  w.ID,
        Title:        w.Title,
        Priority:     w.Priority,
        OccurredAt:   time.Now().UTC().Format(time.RFC3339),
    })
    return c.JSON(http.StatusCreated, w)
}

func (h *WorkOrderHandler) ListWorkOrders(c echo.Context) error {
    org, err := orgID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no session"})
    }
    status := strings.ToUpper(strings.TrimSpace(c.QueryParam("status")))

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    out, err := h.WorkOrders.ListByOrg(ctx, org, status)
    if err != nil {
        return repoError(c, err, "could not list work orders")
    }
    return c.JSON(http.StatusOK, echo.Map{"work_orders": out})
}

func (h *WorkOrderHandler) GetWorkOrder(c echo.Context) error {
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

    w, err := h.WorkOrders.GetByIDAndOrg(ctx, id, org)
    if err != nil {
        return repoError(c, err, "could not load work order")
    }
    return c.JSON(http.StatusOK, w)
}

// AssignWorkOrder attaches a vendor to an OPEN order.
func (h *WorkOrderHandler) AssignWorkOrder(c echo.Context) error {
    org, err := orgID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no session"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req assignReq
    if err := c.Bind(&req); err != nil || req.VendorID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "vendor_id is required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if _, err := h.Vendors.GetByIDAndOrg(ctx, req.VendorID, org); err != nil {
        return repoError(c, err, "could not load vendor")
    }
    if err := h.WorkOrders.Assign(ctx, id, org, req.VendorID); err != nil {
        return repoError(c, err, "could not assign work order")
    }
    return c.NoContent(http.StatusNoContent)
}

// TransitionWorkOrder moves an order along its lifecycle; illegal moves get
// a 409.
func (h *WorkOrderHandler) TransitionWorkOrder(c echo.Context) error {
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

    if err := h.WorkOrders.Transition(ctx, id, org, strings.ToUpper(req.Status)); err != nil {
        return repoError(c, err, "could not transition work order")
    }
    return c.NoContent(http.StatusNoContent)
}

func (h *WorkOrderHandler) CreatePlan(c echo.Context) error {
    org, err := orgID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no session"})
    }
    var req planReq
    if err := c.Bind(&req); err != nil || req.PropertyID == 0 || req.Title == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "property_id and title are required"})
    }
    if req.IntervalDays < 1 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "interval_days must be at least 1"})
    }
    nextDue, err := time.Parse("2006-01-02", req.NextDue)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "next_due must be YYYY-MM-DD"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if _, err := h.Properties.GetByIDAndOrg(ctx, req.PropertyID, org); err != nil {
        return repoError(c, err, "could not load property")
    }
    p := repository.MaintenancePlan{
        OrgID:        org,
        PropertyID:   req.PropertyID,
        UnitID:       req.UnitID,
        Title:        req.Title,
        IntervalDays: req.IntervalDays,
        NextDue:      nextDue,
    }
    if err := h.Plans.Create(ctx, &p); err != nil {
        return repoError(c, err, "could not create maintenance plan")
    }
    return c.JSON(http.StatusCreated, p)
}

func (h *WorkOrderHandler) ListPlans(c echo.Context) error {
    org, err := orgID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no session"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    out, err := h.Plans.ListByOrg(ctx, org)
    if err != nil {
        return repoError(c, err, "could not list maintenance plans")
    }
    return c.JSON(http.StatusOK, echo.Map{"plans": out})
}

func (h *WorkOrderHandler) DeletePlan(c echo.Context) error {
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

    if err := h.Plans.SoftDelete(ctx, id, org); err != nil {
        return repoError(c, err, "could not delete maintenance plan")
    }
    return c.NoContent(http.StatusNoContent)
}
