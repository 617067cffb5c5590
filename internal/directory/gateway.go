// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package directory

import (
	"context"
	"errors"
	"fmt"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotFound indicates the directory holds no record for the identifier.
	ErrNotFound = errors.New("user not found")

	// ErrUnsupportedRole indicates a lookup for a role without a lookup endpoint.
	ErrUnsupportedRole = errors.New("role has no lookup endpoint")
)

// TransportError is any gateway failure other than a missing record: network
// errors, server errors, decoding problems, rejected updates.
type TransportError struct {
	Op      string // "fetch_student", "fetch_all", "update", ...
	Status  int    // HTTP status when there was one, 0 otherwise
	Message string // server-provided or summarized message
	Err     error  // underlying error (if any)
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s failed (HTTP %d): %s", e.Op, e.Status, msg)
	}
	return fmt.Sprintf("%s failed: %s", e.Op, msg)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// =============================================================================
// GATEWAY
// =============================================================================

// Gateway is the directory as seen by the dashboard. Lookups are role
// specific; there is no "any role" lookup. FetchAll returns every record
// regardless of role. All identifiers passed in are canonical.
type Gateway interface {
	FetchParent(ctx context.Context, id string) (UserRecord, error)
	FetchProfessor(ctx context.Context, id string) (UserRecord, error)
	FetchStudent(ctx context.Context, id string) (UserRecord, error)
	FetchAll(ctx context.Context) ([]UserRecord, error)
	Update(ctx context.Context, id string, patch Patch) (UserRecord, error)
}

// FetchByRole dispatches a lookup to the endpoint for role. It does not check
// the role of the returned record; that is the caller's invariant to enforce.
func FetchByRole(ctx context.Context, gw Gateway, role Role, id string) (UserRecord, error) {
	switch role {
	case RoleParent:
		return gw.FetchParent(ctx, id)
	case RoleProfessor:
		return gw.FetchProfessor(ctx, id)
	case RoleStudent:
		return gw.FetchStudent(ctx, id)
	}
	return UserRecord{}, fmt.Errorf("%w: %s", ErrUnsupportedRole, role)
}
