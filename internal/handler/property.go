package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/karthicware/ultra-bms-sub010/internal/repository"
)

// PropertyHandler exposes CRUD over properties and their units.
type PropertyHandler struct {
    Properties *repository.PropertyRepo
    Units      *repository.UnitRepo
}

func NewPropertyHandler(properties *repository.PropertyRepo, units *repository.UnitRepo) *PropertyHandler {
    return &PropertyHandler{Properties: properties, Units: units}
}

type propertyReq struct {
    Name        string `json:"name"`
    AddressLine string `json:"address_line"`
    City        string `json:"city"`
}

type unitReq struct {
    Label     string `json:"label"`
    Floor     int    `json:"floor"`
    Bedrooms  int    `json:"bedrooms"`
    RentCents int64  `json:"rent_cents"`
}

func (h *PropertyHandler) CreateProperty(c echo.Context) error {
    org, err := orgID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no session"})
    }
    var req propertyReq
    if err := c.Bind(&req); err != nil || req.Name == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    p := repository.Property{OrgID: org, Name: req.Name, AddressLine: req.AddressLine, City: req.City}
    if err := h.Properties.Create(ctx, &p); err != nil {
        return repoError(c, err, "could not create property")
    }
    return c.JSON(http.StatusCreated, p)
}

func (h *PropertyHandler) ListProperties(c echo.Context) error {
    org, err := orgID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no session"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    out, err := h.Properties.ListByOrg(ctx, org)
    if err != nil {
        return repoError(c, err, "could not list properties")
    }
    return c.JSON(http.StatusOK, echo.Map{"properties": out})
}

func (h *PropertyHandler) GetProperty(c echo.Context) error {
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

    p, err := h.Properties.GetByIDAndOrg(ctx, id, org)
    if err != nil {
        return repoError(c, err, "could not load property")
    }
    return c.JSON(http.StatusOK, p)
}

func (h *PropertyHandler) UpdateProperty(c echo.Context) error {
    org, err := orgID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no session"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req propertyReq
    if err := c.Bind(&req); err != nil || req.Name == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Properties.Update(ctx, id, org, req.Name, req.AddressLine, req.City); err != nil {
        return repoError(c, err, "could not update property")
    }
    return c.NoContent(http.StatusNoContent)
}

func (h *PropertyHandler) DeleteProperty(c echo.Context) error {
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

    if err := h.Properties.SoftDelete(ctx, id, org); err != nil {
        return repoError(c, err, "could not delete property")
    }
    return c.NoContent(http.StatusNoContent)
}

// CreateUnit adds a unit under a property.  The property is fetched first
// so a unit can never be attached across organizations.
func (h *PropertyHandler) CreateUnit(c echo.Context) error {
    org, err := orgID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no session"})
    }
    propID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req unitReq
    if err := c.Bind(&req); err != nil || req.Label == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "label is required"})
    }
    if req.RentCents < 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "rent_cents must not be negative"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if _, err := h.Properties.GetByIDAndOrg(ctx, propID, org); err != nil {
        return repoError(c, err, "could not load property")
    }
    u := repository.Unit{OrgID: org, PropertyID: propID, Label: req.Label, Floor: req.Floor, Bedrooms: req.Bedrooms, RentCents: req.RentCents}
    if err := h.Units.Create(ctx, &u); err != nil {
        return repoError(c, err, "could not create unit")
    }
    return c.JSON(http.StatusCreated, u)
}

func (h *PropertyHandler) ListUnits(c echo.Context) error {
    org, err := orgID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no session"})
    }
    propID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    out, err := h.Units.ListByProperty(ctx, propID, org)
    if err != nil {
        return repoError(c, err, "could not list units")
    }
    return c.JSON(http.StatusOK, echo.Map{"units": out})
}

func (h *PropertyHandler) GetUnit(c echo.Context) error {
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

    u, err := h.Units.GetByIDAndOrg(ctx, id, org)
    if err != nil {
        return repoError(c, err, "could not load unit")
    }
    return c.JSON(http.StatusOK, u)
}

func (h *PropertyHandler) UpdateUnit(c echo.Context) error {
    org, err := orgID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no session"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req unitReq
    if err := c.Bind(&req); err != nil || req.Label == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "label is required"})
    }
    if req.RentCents < 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "rent_cents must not be negative"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Units.Update(ctx, id, org, req.Label, req.Floor, req.Bedrooms, req.RentCents); err != nil {
        return repoError(c, err, "could not update unit")
    }
    return c.NoContent(http.StatusNoContent)
}

func (h *PropertyHandler) DeleteUnit(c echo.Context) error {
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

    if err := h.Units.SoftDelete(ctx, id, org); err != nil {
        return repoError(c, err, "could not delete unit")
    }
    return c.NoContent(http.StatusNoContent)
}
