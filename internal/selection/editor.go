// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package selection

import (
	"context"

	"github.com/jeranaias/classdesk/internal/directory"
)

// EditorState is the edit flow's state.
type EditorState int

const (
	EditorClosed EditorState = iota
	EditorOpen
	EditorSubmitting
)

// String implements fmt.Stringer.
func (s EditorState) String() string {
	switch s {
	case EditorClosed:
		return "closed"
	case EditorOpen:
		return "open"
	case EditorSubmitting:
		return "submitting"
	}
	return "unknown"
}

// Refresher re-fetches the roster after a successful update.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Submission is an accepted submit waiting to be completed.
type Submission struct {
	Original directory.UserRecord
	Draft    directory.UserRecord
	Patch    directory.Patch
}

// Editor coordinates editing the selected record. At most one submit is in
// flight at a time; a second one is rejected, not queued.
type Editor struct {
	sel    *Context
	gw     directory.Gateway
	roster Refresher
}

// NewEditor creates an edit coordinator over sel that updates through gw and
// refreshes roster on success. roster may be nil.
func NewEditor(sel *Context, gw directory.Gateway, roster Refresher) *Editor {
	return &Editor{sel: sel, gw: gw, roster: roster}
}

// State returns the edit flow's state.
func (e *Editor) State() EditorState {
	s := e.sel.State()
	switch {
	case s.Mode != ModeEditing:
		return EditorClosed
	case s.Submitting:
		return EditorSubmitting
	default:
		return EditorOpen
	}
}

// Open starts editing a full copy of rec.
func (e *Editor) Open(rec *directory.UserRecord) error {
	return e.sel.enter(ModeEditing, rec)
}

// Close abandons the edit session and its draft. Rejected while submitting.
func (e *Editor) Close() error {
	return e.sel.leave(ModeEditing)
}

// Draft returns the current draft.
func (e *Editor) Draft() (directory.UserRecord, bool) {
	s := e.sel.State()
	if s.Mode != ModeEditing || s.Draft == nil {
		return directory.UserRecord{}, false
	}
	return *s.Draft, true
}

// Err returns the last submit failure of this session.
func (e *Editor) Err() error {
	s := e.sel.State()
	if s.Mode != ModeEditing {
		return nil
	}
	return s.Err
}

// SetDraft replaces the draft. The identifier and role always come from the
// selected record. Rejected while submitting.
func (e *Editor) SetDraft(draft directory.UserRecord) error {
	e.sel.mu.Lock()
	defer e.sel.mu.Unlock()
	s := &e.sel.state
	if s.Mode != ModeEditing {
		return ErrNotOpen
	}
	if s.Submitting {
		return ErrSubmitInFlight
	}
	draft.Identifier = s.Record.Identifier
	draft.Role = s.Record.Role
	s.Draft = &draft
	return nil
}

// BeginSubmit moves to submitting with draft. It fails with ErrNotOpen when
// no session is open and ErrSubmitInFlight when a submit is already running.
func (e *Editor) BeginSubmit(draft directory.UserRecord) (Submission, error) {
	e.sel.mu.Lock()
	defer e.sel.mu.Unlock()
	s := &e.sel.state
	if s.Mode != ModeEditing {
		return Submission{}, ErrNotOpen
	}
	if s.Submitting {
		return Submission{}, ErrSubmitInFlight
	}

	draft.Identifier = s.Record.Identifier
	draft.Role = s.Record.Role
	d := draft
	s.Draft = &d
	s.Submitting = true
	s.Err = nil

	return Submission{
		Original: *s.Record,
		Draft:    draft,
		Patch:    directory.Diff(*s.Record, draft),
	}, nil
}

// Complete sends sub to the gateway. On success the session closes and the
// roster is re-fetched; a failed re-fetch is reported as *RefreshError with
// the updated record still returned. On failure the session returns to open
// with the draft intact and a *UpdateRejectedError is returned and recorded.
func (e *Editor) Complete(ctx context.Context, sub Submission) (directory.UserRecord, error) {
	updated, err := e.gw.Update(ctx, sub.Original.Identifier, sub.Patch)

	e.sel.mu.Lock()
	s := &e.sel.state
	if err != nil {
		rejected := &UpdateRejectedError{Identifier: sub.Original.Identifier, Err: err}
		s.Submitting = false
		s.Err = rejected
		e.sel.mu.Unlock()
		return directory.UserRecord{}, rejected
	}
	e.sel.state = State{}
	e.sel.mu.Unlock()

	if e.roster != nil {
		if err := e.roster.Refresh(ctx); err != nil {
			return updated, &RefreshError{Err: err}
		}
	}
	return updated, nil
}

// Submit is BeginSubmit followed by Complete.
func (e *Editor) Submit(ctx context.Context, draft directory.UserRecord) (directory.UserRecord, error) {
	sub, err := e.BeginSubmit(draft)
	if err != nil {
		return directory.UserRecord{}, err
	}
	return e.Complete(ctx, sub)
}
