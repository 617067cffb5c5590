// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package workflow wires the dashboard core together: one gateway, one lookup
// controller, one roster cache and one selection shared by the detail view
// and the editor. Every operation is also written to the audit trail.
//
// UIs drive it in two phases where the gateway is involved, so the pending
// state is visible before the call starts:
//
//	ticket, err := wf.BeginLookup(role, raw) // synchronous
//	res, err := wf.CompleteLookup(ctx, ticket) // in a goroutine / tea.Cmd
package workflow

import (
	"context"
	"errors"
	"log"

	"github.com/jeranaias/classdesk/internal/audit"
	"github.com/jeranaias/classdesk/internal/directory"
	"github.com/jeranaias/classdesk/internal/lookup"
	"github.com/jeranaias/classdesk/internal/roster"
	"github.com/jeranaias/classdesk/internal/selection"
)

// Workflow is the dashboard's state container. Safe for concurrent use.
type Workflow struct {
	gw       directory.Gateway
	lookup   *lookup.Controller
	roster   *roster.Cache
	sel      *selection.Context
	detail   *selection.Detail
	editor   *selection.Editor
	audit    *audit.Logger
	operator string
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithAudit records operations to l.
func WithAudit(l *audit.Logger) Option {
	return func(w *Workflow) { w.audit = l }
}

// WithOperator sets the name stamped on audit lines.
func WithOperator(name string) Option {
	return func(w *Workflow) { w.operator = name }
}

// New creates a workflow over gw.
func New(gw directory.Gateway, opts ...Option) *Workflow {
	w := &Workflow{gw: gw}
	for _, opt := range opts {
		opt(w)
	}
	w.lookup = lookup.NewController(gw)
	w.roster = roster.NewCache(gw)
	w.sel = selection.NewContext()
	w.detail = selection.NewDetail(w.sel)
	w.editor = selection.NewEditor(w.sel, gw, w.roster)
	return w
}

// Lookup returns the lookup controller.
func (w *Workflow) Lookup() *lookup.Controller { return w.lookup }

// Roster returns the roster cache.
func (w *Workflow) Roster() *roster.Cache { return w.roster }

// Detail returns the read-only view.
func (w *Workflow) Detail() *selection.Detail { return w.detail }

// Editor returns the edit coordinator.
func (w *Workflow) Editor() *selection.Editor { return w.editor }

// Selection returns the current selection.
func (w *Workflow) Selection() selection.State { return w.sel.State() }

// Operator returns the audit operator name.
func (w *Workflow) Operator() string { return w.operator }

func (w *Workflow) record(e audit.Event) {
	e.Operator = w.operator
	if err := w.audit.Log(e); err != nil {
		log.Printf("audit: %v", err)
	}
}

// =============================================================================
// SESSION
// =============================================================================

// Mount starts a session: it records SESSION_START and fetches the roster
// once. A failed fetch leaves the roster empty and is returned for display.
func (w *Workflow) Mount(ctx context.Context) error {
	w.record(audit.Event{Type: audit.EventSessionStart, Success: true})
	return w.RefreshRoster(ctx)
}

// Unmount records SESSION_END.
func (w *Workflow) Unmount() {
	w.record(audit.Event{Type: audit.EventSessionEnd, Success: true})
}

// RefreshRoster replaces the roster with a fresh fetch.
func (w *Workflow) RefreshRoster(ctx context.Context) error {
	err := w.roster.Refresh(ctx)
	e := audit.Event{Type: audit.EventRosterRefresh, Success: err == nil}
	if err != nil {
		log.Printf("roster refresh failed: %v", err)
		e.Error = err.Error()
	}
	w.record(e)
	return err
}

// FilteredRoster returns the roster records of role whose display name
// contains query, case-insensitively.
func (w *Workflow) FilteredRoster(role directory.Role, query string) []directory.UserRecord {
	return roster.Filter(w.roster.Snapshot(), role, query)
}

// =============================================================================
// LOOKUP
// =============================================================================

// BeginLookup validates and issues a lookup, leaving the controller Pending.
func (w *Workflow) BeginLookup(role directory.Role, raw string) (lookup.Ticket, error) {
	return w.lookup.Begin(role, raw)
}

// CompleteLookup runs the gateway call for t. Superseded completions are
// neither applied nor audited.
func (w *Workflow) CompleteLookup(ctx context.Context, t lookup.Ticket) (lookup.Result, error) {
	res, err := w.lookup.Complete(ctx, t)
	if errors.Is(err, lookup.ErrSuperseded) {
		return res, err
	}

	e := audit.Event{
		Type:       audit.EventLookup,
		Role:       res.Query.Role,
		Identifier: res.Query.Identifier,
		Success:    res.Found(),
	}
	switch res.Status {
	case lookup.StatusNotFound:
		e.Outcome = "not_found"
		if res.RoleMismatch {
			e.Outcome = "role_mismatch"
		}
	case lookup.StatusTransportError:
		e.Error = res.Message
	}
	w.record(e)
	return res, nil
}

// SubmitLookup is BeginLookup followed by CompleteLookup.
func (w *Workflow) SubmitLookup(ctx context.Context, role directory.Role, raw string) (lookup.Result, error) {
	t, err := w.BeginLookup(role, raw)
	if err != nil {
		return lookup.Result{}, err
	}
	return w.CompleteLookup(ctx, t)
}

// CloseResults clears the lookup result.
func (w *Workflow) CloseResults() {
	w.lookup.Reset()
}

// =============================================================================
// VIEW / EDIT
// =============================================================================

// View opens the detail view on rec.
func (w *Workflow) View(rec *directory.UserRecord) error {
	return w.detail.Open(rec)
}

// Edit opens the editor on rec.
func (w *Workflow) Edit(rec *directory.UserRecord) error {
	return w.editor.Open(rec)
}

// BeginSubmitEdit moves the editor to submitting with draft.
func (w *Workflow) BeginSubmitEdit(draft directory.UserRecord) (selection.Submission, error) {
	return w.editor.BeginSubmit(draft)
}

// CompleteSubmitEdit sends sub, refreshing the roster on success.
func (w *Workflow) CompleteSubmitEdit(ctx context.Context, sub selection.Submission) (directory.UserRecord, error) {
	updated, err := w.editor.Complete(ctx, sub)

	e := audit.Event{
		Type:       audit.EventUpdate,
		Role:       sub.Original.Role,
		Identifier: sub.Original.Identifier,
	}
	var rejected *selection.UpdateRejectedError
	var refresh *selection.RefreshError
	switch {
	case errors.As(err, &rejected):
		e.Error = rejected.Err.Error()
	case errors.As(err, &refresh):
		e.Success = true
		log.Printf("roster refresh after update failed: %v", refresh.Err)
	case err == nil:
		e.Success = true
	default:
		e.Error = err.Error()
	}
	w.record(e)

	if err == nil {
		w.record(audit.Event{Type: audit.EventRosterRefresh, Success: true})
	} else if refresh != nil {
		w.record(audit.Event{Type: audit.EventRosterRefresh, Error: refresh.Err.Error()})
	}
	return updated, err
}

// SubmitEdit is BeginSubmitEdit followed by CompleteSubmitEdit.
func (w *Workflow) SubmitEdit(ctx context.Context, draft directory.UserRecord) (directory.UserRecord, error) {
	sub, err := w.BeginSubmitEdit(draft)
	if err != nil {
		return directory.UserRecord{}, err
	}
	return w.CompleteSubmitEdit(ctx, sub)
}
