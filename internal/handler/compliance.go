package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/karthicware/ultra-bms-sub010/internal/repository"
)

// ComplianceHandler exposes recurring statutory schedules.  Work order
// generation from due schedules is the sweep's job; this surface is pure
// CRUD.
type ComplianceHandler struct {
    Schedules  *repository.ComplianceRepo
    Properties *repository.PropertyRepo
}

func NewComplianceHandler(schedules *repository.ComplianceRepo, properties *repository.PropertyRepo) *ComplianceHandler {
    return &ComplianceHandler{Schedules: schedules, Properties: properties}
}

type complianceReq struct {
    PropertyID    uint64 `json:"property_id"`
    Name          string `json:"name"`
    FrequencyDays int    `json:"frequency_days"`
    NextDue       string `json:"next_due"` // YYYY-MM-DD
}

func (h *ComplianceHandler) Create(c echo.Context) error {
    org, err := orgID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no session"})
    }
    var req complianceReq
    if err := c.Bind(&req); err != nil || req.PropertyID == 0 || req.Name == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "property_id and name are required"})
    }
    if req.FrequencyDays < 1 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "frequency_days must be at least 1"})
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
    s := repository.ComplianceSchedule{
        OrgID:         org,
        PropertyID:    req.PropertyID,
        Name:          req.Name,
        FrequencyDays: req.FrequencyDays,
        NextDue:       nextDue,
    }
    if err := h.Schedules.Create(ctx, &s); err != nil {
        return repoError(c, err, "could not create schedule")
    }
    return c.JSON(http.StatusCreated, s)
}

func (h *ComplianceHandler) List(c echo.Context) error {
    org, err := orgID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no session"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    out, err := h.Schedules.ListByOrg(ctx, org)
    if err != nil {
        return repoError(c, err, "could not list schedules")
    }
    return c.JSON(http.StatusOK, echo.Map{"schedules": out})
}

func (h *ComplianceHandler) Get(c echo.Context) error {
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

    s, err := h.Schedules.GetByIDAndOrg(ctx, id, org)
    if err != nil {
        return repoError(c, err, "could not load schedule")
    }
    return c.JSON(http.StatusOK, s)
}

func (h *ComplianceHandler) Delete(c echo.Context) error {
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

    if err := h.Schedules.SoftDelete(ctx, id, org); err != nil {
        return repoError(c, err, "could not delete schedule")
    }
    return c.NoContent(http.StatusNoContent)
}
