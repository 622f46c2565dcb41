package router

import (
    "github.com/labstack/echo/v4"

    "github.com/karthicware/ultra-bms-sub010/internal/handler"
    "github.com/karthicware/ultra-bms-sub010/internal/middleware"
)

// RegisterOperations registers vendors, work orders, preventive maintenance
// plans and compliance schedules.
func RegisterOperations(e *echo.Echo, w *handler.WorkOrderHandler, cs *handler.ComplianceHandler, sessionAuth echo.MiddlewareFunc) {
    g := e.Group("/api/v1", sessionAuth, middleware.RequireRole("ADMIN", "MANAGER"))
    admin := middleware.RequireRole("ADMIN")

    // ---- Vendors ----
    g.POST("/vendors", w.CreateVendor)
    g.GET("/vendors", w.ListVendors)
    g.PUT("/vendors/:id", w.UpdateVendor)
    g.DELETE("/vendors/:id", w.DeleteVendor, admin)

    // ---- Work orders ----
    g.POST("/work-orders", w.CreateWorkOrder)
    g.GET("/work-orders", w.ListWorkOrders)
    g.GET("/work-orders/:id", w.GetWorkOrder)
    g.POST("/work-orders/:id/assign", w.AssignWorkOrder)
    g.POST("/work-orders/:id/transition", w.TransitionWorkOrder)

    // ---- Maintenance plans ----
    g.POST("/maintenance-plans", w.CreatePlan)
    g.GET("/maintenance-plans", w.ListPlans)
    g.DELETE("/maintenance-plans/:id", w.DeletePlan, admin)

    // ---- Compliance schedules ----
    g.POST("/compliance-schedules", cs.Create)
    g.GET("/compliance-schedules", cs.List)
    g.GET("/compliance-schedules/:id", cs.Get)
    g.DELETE("/compliance-schedules/:id", cs.Delete, admin)
}
