package router

import (
    "github.com/labstack/echo/v4"

    "github.com/karthicware/ultra-bms-sub010/internal/handler"
    "github.com/karthicware/ultra-bms-sub010/internal/middleware"
)

// RegisterBilling registers invoices and post-dated cheques.
func RegisterBilling(e *echo.Echo, b *handler.BillingHandler, sessionAuth echo.MiddlewareFunc) {
    g := e.Group("/api/v1", sessionAuth, middleware.RequireRole("ADMIN", "MANAGER"))

    // ---- Invoices ----
    g.POST("/invoices", b.CreateInvoice)
    g.GET("/invoices", b.ListInvoices)
    g.GET("/invoices/:id", b.GetInvoice)
    g.POST("/invoices/:id/pay", b.PayInvoice)
    g.POST("/invoices/:id/cancel", b.CancelInvoice)

    // ---- Post-dated cheques ----
    g.POST("/cheques", b.CreateCheque)
    g.GET("/leases/:id/cheques", b.ListCheques)
    g.POST("/cheques/:id/transition", b.TransitionCheque)
}
