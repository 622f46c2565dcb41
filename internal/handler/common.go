package handler // handler implements the HTTP endpoints of the back-office API

import (
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/karthicware/ultra-bms-sub010/internal/repository"
)

// accountID extracts the authenticated account id injected by SessionAuth.
func accountID(c echo.Context) (uint64, error) {
    if v, ok := c.Get("account_id").(uint64); ok && v != 0 {
        return v, nil
    }
    return 0, errors.New("no account in context")
}

// orgID extracts the authenticated organization id injected by SessionAuth.
func orgID(c echo.Context) (uint64, error) {
    if v, ok := c.Get("org_id").(uint64); ok && v != 0 {
        return v, nil
    }
    return 0, errors.New("no org in context")
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
    return strconv.ParseUint(c.Param(name), 10, 64)
}

// repoError maps repository sentinel errors onto HTTP responses.  Unmapped
// errors become a generic 500 with the given message.
func repoError(c echo.Context, err error, fallback string) error {
    switch {
    case errors.Is(err, repository.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
    case errors.Is(err, repository.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    case errors.Is(err, repository.ErrConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": fallback})
    }
}
