package router

import (
    "github.com/labstack/echo/v4"

    "github.com/karthicware/ultra-bms-sub010/internal/handler"
    "github.com/karthicware/ultra-bms-sub010/internal/middleware"
)

// RegisterPortfolio registers properties, units, tenants and leases.  Every
// route requires a live session; deletes additionally require ADMIN.  The
// cache middleware wraps the heavy list endpoints only.
func RegisterPortfolio(e *echo.Echo, p *handler.PropertyHandler, t *handler.TenancyHandler, sessionAuth, cache echo.MiddlewareFunc) {
    g := e.Group("/api/v1", sessionAuth, middleware.RequireRole("ADMIN", "MANAGER"))
    admin := middleware.RequireRole("ADMIN")

    // ---- Properties ----
    g.POST("/properties", p.CreateProperty)
    g.GET("/properties", p.ListProperties, cache)
    g.GET("/properties/:id", p.GetProperty)
    g.PUT("/properties/:id", p.UpdateProperty)
    g.DELETE("/properties/:id", p.DeleteProperty, admin)

    // ---- Units ----
    g.POST("/properties/:id/units", p.CreateUnit)
    g.GET("/properties/:id/units", p.ListUnits, cache)
    g.GET("/units/:id", p.GetUnit)
    g.PUT("/units/:id", p.UpdateUnit)
    g.DELETE("/units/:id", p.DeleteUnit, admin)

    // ---- Tenants ----
    g.POST("/tenants", t.CreateTenant)
    g.GET("/tenants", t.ListTenants, cache)
    g.GET("/tenants/:id", t.GetTenant)
    g.PUT("/tenants/:id", t.UpdateTenant)
    g.DELETE("/tenants/:id", t.DeleteTenant, admin)

    // ---- Leases ----
    g.POST("/leases", t.CreateLease)
    g.GET("/leases", t.ListLeases)
    g.GET("/leases/:id", t.GetLease)
    g.POST("/leases/:id/activate", t.ActivateLease)
    g.POST("/leases/:id/close", t.CloseLease)
}
