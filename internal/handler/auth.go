package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/karthicware/ultra-bms-sub010/internal/auth"
    "github.com/karthicware/ultra-bms-sub010/internal/config"
    "github.com/karthicware/ultra-bms-sub010/internal/repository"
    "github.com/karthicware/ultra-bms-sub010/internal/utils"
)

// AuthHandler exposes the credential and session endpoints.  All the actual
// policy lives in auth.CredentialGate and auth.Registry; this layer only
// translates between HTTP and those collaborators.
type AuthHandler struct {
    Gate     *auth.CredentialGate
    Registry *auth.Registry
    Accounts *repository.AccountRepo
    Cfg      *config.Config
}

func NewAuthHandler(gate *auth.CredentialGate, registry *auth.Registry, accounts *repository.AccountRepo, cfg *config.Config) *AuthHandler {
    return &AuthHandler{Gate: gate, Registry: registry, Accounts: accounts, Cfg: cfg}
}

type registerReq struct {
    OrgID    uint64 `json:"org_id"`
    Email    string `json:"email"`
    Password string `json:"password"`
    Role     string `json:"role"`
}

type loginReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}

type refreshReq struct {
    RefreshToken string `json:"refresh_token"`
}

type changePasswordReq struct {
    CurrentPassword string `json:"current_password"`
    NewPassword     string `json:"new_password"`
}

// tokenResp is the shape returned by login and refresh.
type tokenResp struct {
    AccessToken      string    `json:"access_token"`
    AccessExpiresAt  time.Time `json:"access_expires_at"`
    RefreshToken     string    `json:"refresh_token"`
    RefreshExpiresAt time.Time `json:"refresh_expires_at"`
    SessionID        string    `json:"session_id"`
}

type sessionResp struct {
    ID           string    `json:"id"`
    CreatedAt    time.Time `json:"created_at"`
    LastActivity time.Time `json:"last_activity"`
    Current      bool      `json:"current"`
}

func tokenRespFrom(as auth.AuthSession) tokenResp {
    return tokenResp{
        AccessToken:      as.Access.Token,
        AccessExpiresAt:  as.Access.Exp,
        RefreshToken:     as.Refresh.Raw,
        RefreshExpiresAt: as.Refresh.Exp,
        SessionID:        as.Session.ID,
    }
}

// Register creates a back-office account.  Only ADMIN and MANAGER roles
// exist; anything else is rejected before touching the database.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    req.Role = strings.ToUpper(strings.TrimSpace(req.Role))
    if req.OrgID == 0 || req.Email == "" || len(req.Password) < 8 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "org_id, email and a password of at least 8 characters are required"})
    }
    if req.Role != "ADMIN" && req.Role != "MANAGER" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be ADMIN or MANAGER"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    id, err := h.Accounts.Create(ctx, req.OrgID, req.Email, req.Password, req.Role, h.Cfg.BcryptCost)
    if err != nil {
        if errors.Is(err, repository.ErrEmailExists) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create account"})
    }
    return c.JSON(http.StatusCreated, echo.Map{"id": id, "email": req.Email, "role": req.Role})
}

// Login runs the credential gate.  The three failure modes map onto
// distinct statuses so clients can tell "slow down" (429) from "locked
// out" (423) from plain bad credentials (401).
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    as, err := h.Gate.Authenticate(ctx, req.Email, req.Password)
    if err != nil {
        switch {
        case errors.Is(err, auth.ErrRateLimited):
            c.Response().Header().Set("Retry-After", "60")
            return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "too many attempts, try again later"})
        case errors.Is(err, auth.ErrAccountLocked):
            return c.JSON(http.StatusLocked, echo.Map{"error": "account temporarily locked"})
        case errors.Is(err, auth.ErrInvalidCredential):
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid email or password"})
        default:
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
        }
    }
    return c.JSON(http.StatusOK, tokenRespFrom(as))
}

// Refresh exchanges a refresh token for a fresh pair, rotating the refresh
// token.  Every failure is a flat 401; distinguishing "expired" from
// "revoked" from "unknown" would only help an attacker.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    as, err := h.Gate.Refresh(ctx, req.RefreshToken)
    if err != nil {
        if errors.Is(err, auth.ErrInvalidCredential) {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
    }
    return c.JSON(http.StatusOK, tokenRespFrom(as))
}

// Logout revokes the current session.  Requires a valid access token, so
// the session id comes from context rather than the body.
func (h *AuthHandler) Logout(c echo.Context) error {
    sid, _ := c.Get("session_id").(string)
    if sid == "" {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no session"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Registry.Revoke(ctx, sid, auth.ReasonLogout); err != nil {
        if errors.Is(err, auth.ErrSessionNotFound) {
            return c.NoContent(http.StatusNoContent)
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
    }
    return c.NoContent(http.StatusNoContent)
}

// LogoutAll revokes every active session of the account, including the one
// making the request.
func (h *AuthHandler) LogoutAll(c echo.Context) error {
    aid, err := accountID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no session"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Registry.RevokeAll(ctx, aid, auth.ReasonLogout); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
    }
    return c.NoContent(http.StatusNoContent)
}

// Sessions lists the caller's active sessions, oldest first, flagging the
// one serving this request.
func (h *AuthHandler) Sessions(c echo.Context) error {
    aid, err := accountID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no session"})
    }
    current, _ := c.Get("session_id").(string)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    sessions, err := h.Registry.ActiveSessions(ctx, aid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list sessions"})
    }
    out := make([]sessionResp, 0, len(sessions))
    for _, s := range sessions {
        out = append(out, sessionResp{
            ID:           s.ID,
            CreatedAt:    s.CreatedAt,
            LastActivity: s.LastActivity,
            Current:      s.ID == current,
        })
    }
    return c.JSON(http.StatusOK, echo.Map{"sessions": out})
}

// Me returns the authenticated account's profile.
func (h *AuthHandler) Me(c echo.Context) error {
    aid, err := accountID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no session"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    acct, err := h.Accounts.ByID(ctx, aid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load account"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "id":     acct.ID,
        "org_id": acct.OrgID,
        "email":  acct.Email,
        "role":   acct.Role,
    })
}

// ChangePassword verifies the current password, swaps the hash and revokes
// every session of the account.  The client has to log in again; that is
// the point.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
    aid, err := accountID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no session"})
    }
    var req changePasswordReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
    }
    if len(req.NewPassword) < 8 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "new password must be at least 8 characters"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    acct, err := h.Accounts.ByID(ctx, aid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load account"})
    }
    if !utils.VerifyPassword(acct.PasswordHash, req.CurrentPassword) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "current password is incorrect"})
    }
    if err := h.Accounts.UpdatePassword(ctx, aid, req.NewPassword, h.Cfg.BcryptCost); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not change password"})
    }
    if err := h.Registry.RevokeAll(ctx, aid, auth.ReasonPasswordReset); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "password changed but sessions were not revoked"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "password changed, please log in again"})
}
