// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package dashboard is the Bubble Tea front end for the lookup-and-edit
// workflow: a lookup panel, a filterable roster and the view/edit modals.
//
// All gateway calls run as tea.Cmds. The synchronous half of each operation
// (Begin) runs inside Update so the pending state renders before the call
// starts; the workflow owns the state, the model only owns focus, inputs and
// toasts.
package dashboard

import (
	"context"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/classdesk/internal/directory"
	"github.com/jeranaias/classdesk/internal/lookup"
	"github.com/jeranaias/classdesk/internal/selection"
	"github.com/jeranaias/classdesk/internal/ui/components"
	"github.com/jeranaias/classdesk/internal/ui/styles"
	"github.com/jeranaias/classdesk/internal/workflow"
)

// focusArea is the part of the screen receiving keys when no modal is open.
type focusArea int

const (
	focusLookupRole focusArea = iota
	focusIdentifier
	focusRosterRole
	focusFilter
	focusRoster
	focusCount
)

// Options configures a dashboard Model.
type Options struct {
	// Operator is shown in the header.
	Operator string
	// Source describes the directory, e.g. "http://localhost:8080".
	Source string
	// DefaultRole preselects the lookup and roster role. Defaults to STUDENT.
	DefaultRole directory.Role
	// Compact hides the roster's email column.
	Compact bool
	// Theme defaults to styles.NewTheme().
	Theme *styles.Theme
	// Clipboard writes text to the system clipboard. Defaults to
	// clipboard.WriteAll.
	Clipboard func(string) error
}

// Model is the dashboard's Bubble Tea model.
type Model struct {
	wf     *workflow.Workflow
	opts   Options
	theme  *styles.Theme
	keys   KeyMap
	ctx    context.Context
	cancel context.CancelFunc

	width  int
	height int

	focus      focusArea
	lookupRole directory.Role
	rosterRole directory.Role
	identifier textinput.Model
	filter     textinput.Model
	cursor     int

	form         *editForm
	spinner      spinner.Model
	toasts       *components.ToastManager
	toastTicking bool
	refreshing   bool
	mounted      bool
	quitting     bool
}

// New creates a dashboard over wf.
func New(wf *workflow.Workflow, opts Options) Model {
	if !opts.DefaultRole.Lookupable() {
		opts.DefaultRole = directory.RoleStudent
	}
	if opts.Theme == nil {
		opts.Theme = styles.NewTheme()
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}

	id := textinput.New()
	id.Placeholder = "000.000.000-00"
	id.Prompt = ""
	id.CharLimit = 14
	id.Width = 16
	id.Focus()

	filter := textinput.New()
	filter.Placeholder = "filter by name"
	filter.Prompt = ""
	filter.CharLimit = 80
	filter.Width = 24

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = opts.Theme.PendingText

	ctx, cancel := context.WithCancel(context.Background())
	return Model{
		wf:         wf,
		opts:       opts,
		theme:      opts.Theme,
		keys:       DefaultKeyMap(),
		ctx:        ctx,
		cancel:     cancel,
		focus:      focusIdentifier,
		lookupRole: opts.DefaultRole,
		rosterRole: opts.DefaultRole,
		identifier: id,
		filter:     filter,
		spinner:    sp,
		toasts:     components.NewToastManager(),
		refreshing: true,
	}
}

// Init loads the roster.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.mountCmd(), m.spinner.Tick)
}

// =============================================================================
// COMMANDS
// =============================================================================

func (m Model) mountCmd() tea.Cmd {
	wf, ctx := m.wf, m.ctx
	return func() tea.Msg {
		return mountedMsg{err: wf.Mount(ctx)}
	}
}

func (m Model) refreshCmd() tea.Cmd {
	wf, ctx := m.wf, m.ctx
	return func() tea.Msg {
		return rosterLoadedMsg{err: wf.RefreshRoster(ctx)}
	}
}

func (m Model) lookupCmd(t lookup.Ticket) tea.Cmd {
	wf, ctx := m.wf, m.ctx
	return func() tea.Msg {
		res, err := wf.CompleteLookup(ctx, t)
		return lookupDoneMsg{result: res, err: err}
	}
}

func (m Model) submitCmd(sub selection.Submission) tea.Cmd {
	wf, ctx := m.wf, m.ctx
	return func() tea.Msg {
		updated, err := wf.CompleteSubmitEdit(ctx, sub)
		return submitDoneMsg{updated: updated, err: err}
	}
}

func (m Model) copyCmd(id string) tea.Cmd {
	write := m.opts.Clipboard
	text := directory.FormatIdentifier(id)
	return func() tea.Msg {
		return clipboardMsg{text: text, err: write(directory.Normalize(id))}
	}
}

// =============================================================================
// ACCESSORS
// =============================================================================

// busy reports whether a gateway call is running.
func (m Model) busy() bool {
	return m.refreshing || m.wf.Lookup().Pending() || m.wf.Editor().State() == selection.EditorSubmitting
}

// visibleRoster returns the roster filtered by the roster role and filter text.
func (m Model) visibleRoster() []directory.UserRecord {
	return m.wf.FilteredRoster(m.rosterRole, m.filter.Value())
}

// selectedRosterRecord returns the roster row under the cursor.
func (m Model) selectedRosterRecord() (*directory.UserRecord, bool) {
	rows := m.visibleRoster()
	if len(rows) == 0 {
		return nil, false
	}
	i := m.cursor
	if i >= len(rows) {
		i = len(rows) - 1
	}
	rec := rows[i]
	return &rec, true
}

// resultRecord returns the found lookup record.
func (m Model) resultRecord() (*directory.UserRecord, bool) {
	res := m.wf.Lookup().Result()
	if !res.Found() {
		return nil, false
	}
	return res.Record, true
}
