// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package selection models the record currently selected on the dashboard
// and the two modal flows over it: a read-only detail view and an edit form.
//
// Both flows share one Context whose Mode is a single enumeration, so viewing
// and editing can never be active at the same time:
//
//	ModeNone -> ModeViewing(record) -> ModeNone
//	ModeNone -> ModeEditing(record, draft) -> [submitting] -> ModeNone | ModeEditing
package selection

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jeranaias/classdesk/internal/directory"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNoRecord is returned when a modal is opened without a record.
	ErrNoRecord = errors.New("no record selected")

	// ErrNotOpen is returned when an edit operation runs outside an edit session.
	ErrNotOpen = errors.New("edit session is not open")

	// ErrSubmitInFlight is returned when a submit is attempted while one is
	// already running, or when the selection changes during a submit.
	ErrSubmitInFlight = errors.New("an update is already in progress")
)

// UpdateRejectedError wraps a failed update. The draft is kept.
type UpdateRejectedError struct {
	Identifier string
	Err        error
}

// Error implements the error interface.
func (e *UpdateRejectedError) Error() string {
	return fmt.Sprintf("failed to update user: %v", e.Err)
}

// Unwrap returns the gateway error.
func (e *UpdateRejectedError) Unwrap() error {
	return e.Err
}

// RefreshError means the update went through but the roster could not be
// re-fetched afterwards. The edit session is closed regardless.
type RefreshError struct {
	Err error
}

// Error implements the error interface.
func (e *RefreshError) Error() string {
	return fmt.Sprintf("user updated, but the roster could not be refreshed: %v", e.Err)
}

// Unwrap returns the refresh error.
func (e *RefreshError) Unwrap() error {
	return e.Err
}

// =============================================================================
// CONTEXT
// =============================================================================

// Mode is what the selection is being used for.
type Mode int

const (
	ModeNone Mode = iota
	ModeViewing
	ModeEditing
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeViewing:
		return "viewing"
	case ModeEditing:
		return "editing"
	}
	return "unknown"
}

// State is a copy of the selection at one point in time.
type State struct {
	Mode   Mode
	Record *directory.UserRecord // source of truth as selected
	Draft  *directory.UserRecord // editing only

	Submitting bool
	Err        error // last submit failure, editing only
}

// Context owns the selected record and the active mode. Safe for concurrent use.
type Context struct {
	mu    sync.Mutex
	state State
}

// NewContext returns an empty selection.
func NewContext() *Context {
	return &Context{}
}

// State returns a copy of the current selection.
func (c *Context) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyLocked()
}

// Mode returns the active mode.
func (c *Context) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Mode
}

func (c *Context) copyLocked() State {
	s := c.state
	if s.Record != nil {
		r := *s.Record
		s.Record = &r
	}
	if s.Draft != nil {
		d := *s.Draft
		s.Draft = &d
	}
	return s
}

// enter switches to mode with rec selected. The previous mode, if any, is
// replaced, except while a submit is running.
func (c *Context) enter(mode Mode, rec *directory.UserRecord) error {
	if rec == nil {
		return ErrNoRecord
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Submitting {
		return ErrSubmitInFlight
	}

	selected := *rec
	next := State{Mode: mode, Record: &selected}
	if mode == ModeEditing {
		draft := selected
		next.Draft = &draft
	}
	c.state = next
	return nil
}

// leave returns to ModeNone if mode is active. It is a no-op for any other
// mode, so closing one modal never closes the other.
func (c *Context) leave(mode Mode) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Mode != mode {
		return nil
	}
	if c.state.Submitting {
		return ErrSubmitInFlight
	}
	c.state = State{}
	return nil
}
