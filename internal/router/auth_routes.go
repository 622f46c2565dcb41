package router

import (
    "github.com/labstack/echo/v4"

    "github.com/karthicware/ultra-bms-sub010/internal/handler"
    "github.com/karthicware/ultra-bms-sub010/internal/middleware"
)

// RegisterAuth registers the credential and session endpoints.
// Unauthenticated operations live under /api/v1/auth; session-scoped ones
// under /api/v1 behind SessionAuth.  The login limiter sits in front of the
// whole auth group so register and refresh share the same flood protection
// as login (the credential gate's own per-identity window is independent of
// it).
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, sessionAuth, loginLimiter echo.MiddlewareFunc) {
    g := e.Group("/api/v1/auth", loginLimiter)
    g.POST("/register", a.Register, sessionAuth, middleware.RequireRole("ADMIN"))
    g.POST("/login", a.Login)
    g.POST("/refresh", a.Refresh)

    s := e.Group("/api/v1", sessionAuth)
    s.POST("/auth/logout", a.Logout)
    s.POST("/auth/logout-all", a.LogoutAll)
    s.POST("/auth/change-password", a.ChangePassword)
    s.GET("/auth/sessions", a.Sessions)
    s.GET("/me", a.Me)
}
