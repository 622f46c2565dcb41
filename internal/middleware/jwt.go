package middleware // middleware provides reusable HTTP request processing for handlers

import (
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/karthicware/ultra-bms-sub010/internal/auth"
    "github.com/karthicware/ultra-bms-sub010/internal/utils"
)

// SessionAuth returns an Echo middleware that validates a Bearer access
// token and binds the request to its live session.  Three checks run in
// order: signature and expiry (pure parse), the revocation store (a token
// may be cryptographically valid yet revoked by logout, timeout or
// password reset), and a session touch (which also trips the idle and
// absolute timeouts).  On success the account id, org id, role and session
// id are injected into the request context under "account_id", "org_id",
// "role" and "session_id".
func SessionAuth(secret string, revoked auth.RevocationStore, registry *auth.Registry) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            header := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(header, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(header, "Bearer ")

            claims, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }

            ctx := c.Request().Context()
            isRevoked, err := revoked.IsRevoked(ctx, utils.HashToken(raw))
            if err != nil {
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": "auth check failed"})
            }
            if isRevoked {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token revoked"})
            }

            if err := registry.Touch(ctx, claims.SessionID); err != nil {
                if errors.Is(err, auth.ErrSessionExpired) || errors.Is(err, auth.ErrSessionNotFound) {
                    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session expired"})
                }
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": "auth check failed"})
            }

            c.Set("account_id", claims.AccountID)
            c.Set("org_id", claims.OrgID)
            c.Set("role", claims.Role)
            c.Set("session_id", claims.SessionID)
            return next(c)
        }
    }
}
