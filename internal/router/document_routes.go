package router

import (
    "github.com/labstack/echo/v4"

    "github.com/karthicware/ultra-bms-sub010/internal/handler"
    "github.com/karthicware/ultra-bms-sub010/internal/middleware"
)

// RegisterDocuments registers document upload, listing and signed download.
// The download route is deliberately outside the session group: the HMAC in
// the signed link is its access control, so links keep working in mail
// clients and browser tabs without a token.
func RegisterDocuments(e *echo.Echo, d *handler.DocumentHandler, sessionAuth echo.MiddlewareFunc) {
    g := e.Group("/api/v1", sessionAuth, middleware.RequireRole("ADMIN", "MANAGER"))

    g.POST("/documents", d.Upload)
    g.GET("/documents", d.List)
    g.GET("/documents/:id/link", d.Link)
    g.DELETE("/documents/:id", d.Delete, middleware.RequireRole("ADMIN"))

    e.GET("/api/v1/documents/download", d.Download)
}
