// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package lookup runs single-identifier, role-scoped directory lookups and
// owns their result state.
//
// A lookup is split in two so a UI can show the pending state before the
// gateway call starts:
//
//	ticket, err := ctrl.Begin(directory.RoleStudent, "123.456.789-00")
//	// state is now Pending, previous result cleared
//	res, err := ctrl.Complete(ctx, ticket)
//
// Submit does both in one call. Every Begin takes a new sequence number and a
// completion is applied only if no later Begin happened in the meantime, so
// the most recently issued lookup always wins.
package lookup

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/jeranaias/classdesk/internal/directory"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrEmptyIdentifier is returned when the identifier has nothing to look up.
	// UIs disable submission instead of showing this.
	ErrEmptyIdentifier = errors.New("identifier is required")

	// ErrRoleNotEligible is returned for roles without a lookup endpoint.
	ErrRoleNotEligible = errors.New("role cannot be looked up")

	// ErrSuperseded is returned by Complete when a newer lookup was issued
	// before this one resolved. Its result is discarded.
	ErrSuperseded = errors.New("lookup superseded by a newer request")
)

// NotFoundMessage is shown for missing records and role mismatches alike.
const NotFoundMessage = "User not found or does not match the selected type"

// =============================================================================
// STATE
// =============================================================================

// Status is the lookup result kind.
type Status int

const (
	StatusNotStarted Status = iota
	StatusPending
	StatusFound
	StatusNotFound
	StatusTransportError
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "not_started"
	case StatusPending:
		return "pending"
	case StatusFound:
		return "found"
	case StatusNotFound:
		return "not_found"
	case StatusTransportError:
		return "transport_error"
	}
	return "unknown"
}

// Query is one submitted lookup.
type Query struct {
	Role       directory.Role
	Raw        string // as typed
	Identifier string // canonical
}

// Result is the controller state after the latest applied transition.
type Result struct {
	Status Status
	Query  Query

	// Record is set only when Status is StatusFound.
	Record *directory.UserRecord

	// RoleMismatch is set when the gateway returned a record of another role.
	// The status is still StatusNotFound.
	RoleMismatch bool

	// Message is the user-readable error for StatusNotFound and
	// StatusTransportError. Transport messages are passed through verbatim.
	Message string

	// Err is the gateway error for StatusTransportError.
	Err error
}

// Found reports whether the result holds a record.
func (r Result) Found() bool {
	return r.Status == StatusFound && r.Record != nil
}

// Ticket identifies one issued lookup.
type Ticket struct {
	seq   uint64
	Query Query
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller orchestrates lookups against a Gateway. It never touches the
// roster. Safe for concurrent use.
type Controller struct {
	gw directory.Gateway

	mu     sync.Mutex
	seq    uint64
	result Result
}

// NewController creates a controller in the NotStarted state.
func NewController(gw directory.Gateway) *Controller {
	return &Controller{gw: gw}
}

// Result returns the current state.
func (c *Controller) Result() Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// Pending reports whether the latest lookup is still in flight.
func (c *Controller) Pending() bool {
	return c.Result().Status == StatusPending
}

// Begin validates the input, resets the state to Pending with no result and
// returns the ticket to Complete. On validation errors the state is unchanged.
func (c *Controller) Begin(role directory.Role, raw string) (Ticket, error) {
	if strings.TrimSpace(raw) == "" {
		return Ticket{}, ErrEmptyIdentifier
	}
	if !role.Lookupable() {
		return Ticket{}, ErrRoleNotEligible
	}
	id := directory.Normalize(raw)
	if id == "" {
		return Ticket{}, ErrEmptyIdentifier
	}

	q := Query{Role: role, Raw: raw, Identifier: id}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.result = Result{Status: StatusPending, Query: q}
	return Ticket{seq: c.seq, Query: q}, nil
}

// Complete performs the gateway call for t and applies its outcome. If a newer
// Begin happened meanwhile, the outcome is dropped and ErrSuperseded returned
// together with the discarded result.
func (c *Controller) Complete(ctx context.Context, t Ticket) (Result, error) {
	rec, err := directory.FetchByRole(ctx, c.gw, t.Query.Role, t.Query.Identifier)
	res := resolve(t.Query, rec, err)

	c.mu.Lock()
	defer c.mu.Unlock()
	if t.seq != c.seq {
		return res, ErrSuperseded
	}
	c.result = res
	return res, nil
}

// Submit is Begin followed by Complete.
func (c *Controller) Submit(ctx context.Context, role directory.Role, raw string) (Result, error) {
	t, err := c.Begin(role, raw)
	if err != nil {
		return Result{}, err
	}
	return c.Complete(ctx, t)
}

// Reset returns to NotStarted. Any lookup still in flight is discarded when it
// completes.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.result = Result{}
}

// resolve maps a gateway outcome to a result, enforcing that a record found
// under another role is never reported as found.
func resolve(q Query, rec directory.UserRecord, err error) Result {
	switch {
	case err == nil && rec.Identifier == "":
		return Result{Status: StatusNotFound, Query: q, Message: NotFoundMessage}
	case err == nil && rec.Role == q.Role:
		found := rec
		return Result{Status: StatusFound, Query: q, Record: &found}
	case err == nil:
		return Result{Status: StatusNotFound, Query: q, RoleMismatch: true, Message: NotFoundMessage}
	case directory.IsNotFound(err):
		return Result{Status: StatusNotFound, Query: q, Message: NotFoundMessage}
	default:
		return Result{Status: StatusTransportError, Query: q, Message: err.Error(), Err: err}
	}
}
