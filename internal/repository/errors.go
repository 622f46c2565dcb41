// Package repository contains data access logic separated from HTTP
// handlers.  Repositories are thin structs over *sql.DB issuing raw SQL;
// sentinel errors let handlers map failures to HTTP statuses without
// inspecting driver errors.  Business rows are scoped by org_id and use a
// nullable deleted_at column for soft deletion: every read filters
// `deleted_at IS NULL` so lifecycle queries stay total.
package repository

import "errors"

// ErrNotFound is returned when a lookup matches no live row.  Handlers
// translate this into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource outside their organization.  Handlers translate this into 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because of
// conflicting state, such as an illegal status transition or a duplicate
// unique value.  Handlers translate this into HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned when an account registration collides with an
// existing email.
var ErrEmailExists = errors.New("email already exists")
