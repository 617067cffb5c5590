// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/classdesk/internal/directory"
	"github.com/jeranaias/classdesk/internal/directory/directorytest"
	"github.com/jeranaias/classdesk/internal/lookup"
	"github.com/jeranaias/classdesk/internal/selection"
	"github.com/jeranaias/classdesk/internal/ui/components"
	"github.com/jeranaias/classdesk/internal/ui/styles"
	"github.com/jeranaias/classdesk/internal/workflow"
)

// =============================================================================
// HARNESS
// =============================================================================

func records() []directory.UserRecord {
	return []directory.UserRecord{
		{Identifier: "11111111111", DisplayName: "Ana Lima", Email: "ana@x.test", Role: directory.RoleStudent, Active: true},
		{Identifier: "44444444444", DisplayName: "Abel Souza", Email: "abel@x.test", Role: directory.RoleStudent},
		{Identifier: "22222222222", DisplayName: "Bruno Dias", Email: "bruno@x.test", Role: directory.RoleProfessor, Active: true},
		{Identifier: "33333333333", DisplayName: "Carla Reis", Email: "carla@x.test", Role: directory.RoleParent},
	}
}

type clip struct {
	mu   sync.Mutex
	text string
}

func (c *clip) write(s string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = s
	return nil
}

func (c *clip) get() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

func newModel(t *testing.T, fake *directorytest.Fake) (Model, *clip) {
	t.Helper()
	c := &clip{}
	m := New(workflow.New(fake), Options{
		Operator:  "tester",
		Source:    "memory",
		Theme:     styles.NewThemeWithProfile(termenv.Ascii, true),
		Clipboard: c.write,
	})
	m = drain(t, m, m.Init())
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model), c
}

// run executes cmd, giving up on commands that block (cursor blinks).
func run(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(50 * time.Millisecond):
		return nil
	}
}

// drain runs cmd and feeds resulting messages back into the model until
// nothing is left. Timer-driven ticks are skipped.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 200, "message loop did not settle")
		c := queue[0]
		queue = queue[1:]
		switch msg := run(c).(type) {
		case nil, tea.QuitMsg, spinner.TickMsg, components.ToastTickMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			next, nc := m.Update(msg)
			m = next.(Model)
			queue = append(queue, nc)
		}
	}
	return m
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "shift+tab":
			msg = tea.KeyMsg{Type: tea.KeyShiftTab}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		case "space":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		case "backspace":
			msg = tea.KeyMsg{Type: tea.KeyBackspace}
		case "ctrl+r":
			msg = tea.KeyMsg{Type: tea.KeyCtrlR}
		case "ctrl+s":
			msg = tea.KeyMsg{Type: tea.KeyCtrlS}
		case "ctrl+c":
			msg = tea.KeyMsg{Type: tea.KeyCtrlC}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, cmd := m.Update(msg)
		m = drain(t, next.(Model), cmd)
	}
	return m
}

func focusRosterList(t *testing.T, m Model) Model {
	t.Helper()
	return press(t, m, "tab", "tab", "tab")
}

// =============================================================================
// MOUNT
// =============================================================================

func TestInit_LoadsRoster(t *testing.T) {
	fake := directorytest.NewFake(records()...)
	m, _ := newModel(t, fake)

	assert.True(t, m.mounted)
	assert.False(t, m.refreshing)
	assert.Equal(t, 1, fake.CallCount("all"))
	assert.Len(t, m.visibleRoster(), 2, "default role is student")

	view := m.View()
	assert.Contains(t, view, "Ana Lima")
	assert.Contains(t, view, "tester")
	assert.NotContains(t, view, "Bruno Dias")
}

func TestInit_FailureShowsToast(t *testing.T) {
	fake := directorytest.NewFake(records()...)
	fake.AllHook = func() ([]directory.UserRecord, error) {
		return nil, &directory.TransportError{Op: "fetch_all", Status: 503, Message: "maintenance"}
	}
	m, _ := newModel(t, fake)

	assert.True(t, m.mounted)
	assert.Empty(t, m.visibleRoster())
	require.True(t, m.toasts.HasToasts())
	assert.Contains(t, m.toasts.Toasts()[0].Message, "maintenance")
	assert.Contains(t, m.View(), "No users.")
}

// =============================================================================
// LOOKUP
// =============================================================================

func TestLookup_FormatsAndFinds(t *testing.T) {
	m, _ := newModel(t, directorytest.NewFake(records()...))

	m = press(t, m, "1", "1", "1", "1", "1", "1", "1", "1", "1", "1", "1")
	assert.Equal(t, "111.111.111-11", m.identifier.Value())

	m = press(t, m, "enter")
	res := m.wf.Lookup().Result()
	require.Equal(t, lookup.StatusFound, res.Status)
	assert.Equal(t, "Ana Lima", res.Record.DisplayName)
	assert.Contains(t, m.View(), "ana@x.test")
}

func TestLookup_IgnoresNonDigits(t *testing.T) {
	m, _ := newModel(t, directorytest.NewFake(records()...))

	m = press(t, m, "a", "1", "2", "-", "3")
	assert.Equal(t, "123", m.identifier.Value())

	m = press(t, m, "4", "backspace")
	assert.Equal(t, "123", m.identifier.Value())
}

func TestLookup_PastedFormattedIdentifier(t *testing.T) {
	m, _ := newModel(t, directorytest.NewFake(records()...))

	m = press(t, m, "222.222.222-22")
	assert.Equal(t, "222.222.222-22", m.identifier.Value())
}

func TestLookup_EmptyDoesNothing(t *testing.T) {
	fake := directorytest.NewFake(records()...)
	m, _ := newModel(t, fake)

	m = press(t, m, "enter")
	assert.Equal(t, lookup.StatusNotStarted, m.wf.Lookup().Result().Status)
	assert.Zero(t, fake.CallCount("student"))
}

func TestLookup_RoleMismatch(t *testing.T) {
	fake := directorytest.NewFake(records()...)
	m, _ := newModel(t, fake)

	// Student role selected, professor identifier.
	m = press(t, m, "22222222222", "enter")
	res := m.wf.Lookup().Result()
	assert.Equal(t, lookup.StatusNotFound, res.Status)
	assert.Contains(t, m.View(), lookup.NotFoundMessage)
}

func TestLookup_RoleSelectorChangesEndpoint(t *testing.T) {
	fake := directorytest.NewFake(records()...)
	m, _ := newModel(t, fake)

	m = press(t, m, "shift+tab", "right", "enter")
	assert.Equal(t, directory.RoleProfessor, m.lookupRole)
	assert.Equal(t, focusIdentifier, m.focus)

	m = press(t, m, "22222222222", "enter")
	assert.True(t, m.wf.Lookup().Result().Found())
	assert.Equal(t, 1, fake.CallCount("professor"))
}

func TestLookup_PendingShownWhileGatewayBlocks(t *testing.T) {
	fake := directorytest.NewFake(records()...)
	m, _ := newModel(t, fake)
	fake.Gate = make(chan struct{})

	m = press(t, m, "11111111111")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	assert.Equal(t, lookup.StatusPending, m.wf.Lookup().Result().Status)
	assert.Contains(t, m.View(), "Looking up Student 111.111.111-11")

	close(fake.Gate)
	m = drain(t, m, cmd)
	assert.True(t, m.wf.Lookup().Result().Found())
}

func TestLookup_SubmitIgnoredWhilePending(t *testing.T) {
	fake := directorytest.NewFake(records()...)
	m, _ := newModel(t, fake)
	fake.Gate = make(chan struct{})

	m = press(t, m, "11111111111")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	next, second := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	assert.Nil(t, second)

	close(fake.Gate)
	m = drain(t, m, cmd)
	assert.Equal(t, 1, fake.CallCount("student"))
	assert.True(t, m.wf.Lookup().Result().Found())

	m = press(t, m, "enter")
	assert.Equal(t, 2, fake.CallCount("student"), "resolved lookups can be resubmitted")
}

func TestLookup_CloseResultsClearsField(t *testing.T) {
	m, _ := newModel(t, directorytest.NewFake(records()...))

	m = press(t, m, "11111111111", "enter", "x")
	assert.Equal(t, lookup.StatusNotStarted, m.wf.Lookup().Result().Status)
	assert.Empty(t, m.identifier.Value())

	m = press(t, m, "11111111111", "enter", "esc")
	assert.Equal(t, lookup.StatusNotStarted, m.wf.Lookup().Result().Status)
}

func TestLookup_CopyIdentifier(t *testing.T) {
	m, c := newModel(t, directorytest.NewFake(records()...))

	m = press(t, m, "11111111111", "enter", "y")
	assert.Equal(t, "11111111111", c.get())
	require.True(t, m.toasts.HasToasts())
	assert.Equal(t, "Copied 111.111.111-11", m.toasts.Toasts()[0].Message)
}

// =============================================================================
// ROSTER
// =============================================================================

func TestRoster_FilterAndNavigate(t *testing.T) {
	m, _ := newModel(t, directorytest.NewFake(records()...))

	m = press(t, m, "tab", "tab")
	require.Equal(t, focusFilter, m.focus)
	m = press(t, m, "A", "B", "E")
	rows := m.visibleRoster()
	require.Len(t, rows, 1)
	assert.Equal(t, "Abel Souza", rows[0].DisplayName)

	m = press(t, m, "esc")
	assert.Len(t, m.visibleRoster(), 2)

	m = press(t, m, "enter")
	require.Equal(t, focusRoster, m.focus)
	m = press(t, m, "j")
	assert.Equal(t, 1, m.cursor)
	m = press(t, m, "j")
	assert.Equal(t, 1, m.cursor, "cursor stops at the last row")
	m = press(t, m, "k", "k")
	assert.Equal(t, 0, m.cursor)
}

func TestRoster_RoleSwitchResetsCursor(t *testing.T) {
	m, _ := newModel(t, directorytest.NewFake(records()...))

	m = focusRosterList(t, m)
	m = press(t, m, "j")
	m = press(t, m, "shift+tab", "shift+tab", "right")
	assert.Equal(t, directory.RoleProfessor, m.rosterRole)
	assert.Equal(t, 0, m.cursor)
	assert.Equal(t, "Bruno Dias", m.visibleRoster()[0].DisplayName)
}

func TestRoster_Refresh(t *testing.T) {
	fake := directorytest.NewFake(records()...)
	m, _ := newModel(t, fake)

	fake.Set(directory.UserRecord{Identifier: "55555555555", DisplayName: "Zeca Alves", Role: directory.RoleStudent})
	m = press(t, m, "ctrl+r")
	assert.Equal(t, 2, fake.CallCount("all"))
	assert.Len(t, m.visibleRoster(), 3)
}

func TestRoster_RefreshFailureKeepsSnapshot(t *testing.T) {
	fake := directorytest.NewFake(records()...)
	m, _ := newModel(t, fake)

	fake.AllHook = func() ([]directory.UserRecord, error) { return nil, errors.New("offline") }
	m = press(t, m, "ctrl+r")
	assert.Len(t, m.visibleRoster(), 2)
	require.True(t, m.toasts.HasToasts())
	assert.Contains(t, m.toasts.Toasts()[0].Message, "offline")
}

// =============================================================================
// MODALS
// =============================================================================

func TestViewModal_OpenAndClose(t *testing.T) {
	m, _ := newModel(t, directorytest.NewFake(records()...))

	m = focusRosterList(t, m)
	m = press(t, m, "enter")
	require.Equal(t, selection.ModeViewing, m.wf.Selection().Mode)
	assert.Contains(t, m.View(), "User details")

	// Letter keys do not leak into other panels while the modal is open.
	m = press(t, m, "j")
	assert.Equal(t, 0, m.cursor)

	m = press(t, m, "esc")
	assert.Equal(t, selection.ModeNone, m.wf.Selection().Mode)
}

func TestViewModal_SwitchToEdit(t *testing.T) {
	m, _ := newModel(t, directorytest.NewFake(records()...))

	m = focusRosterList(t, m)
	m = press(t, m, "v", "e")
	assert.Equal(t, selection.ModeEditing, m.wf.Selection().Mode)
	require.NotNil(t, m.form)
	assert.Equal(t, "Ana Lima", m.form.fields[0].input.Value())
}

func TestEditModal_SubmitsChangedFields(t *testing.T) {
	fake := directorytest.NewFake(records()...)
	m, _ := newModel(t, fake)

	m = focusRosterList(t, m)
	m = press(t, m, "e", "backspace", "backspace", "backspace", "backspace", "Rosa")
	m = press(t, m, "shift+tab", "space")
	assert.False(t, m.form.active)

	m = press(t, m, "ctrl+s")
	assert.Equal(t, selection.ModeNone, m.wf.Selection().Mode)
	assert.Nil(t, m.form)

	calls := fake.Calls()
	last := calls[len(calls)-1]
	require.Equal(t, "all", last.Op, "roster is refreshed after the update")
	update := calls[len(calls)-2]
	require.Equal(t, "update", update.Op)
	require.NotNil(t, update.Patch.DisplayName)
	assert.Equal(t, "Ana Rosa", *update.Patch.DisplayName)
	require.NotNil(t, update.Patch.Active)
	assert.False(t, *update.Patch.Active)
	assert.Nil(t, update.Patch.Email)

	assert.Equal(t, "Ana Rosa", m.visibleRoster()[0].DisplayName)
	assert.Contains(t, m.toasts.Toasts()[0].Message, "Updated Ana Rosa")
}

func TestEditModal_FailureKeepsDraft(t *testing.T) {
	fake := directorytest.NewFake(records()...)
	fake.UpdateHook = func(string, directory.Patch) (directory.UserRecord, error) {
		return directory.UserRecord{}, &directory.TransportError{Op: "update", Status: 422, Message: "rejected"}
	}
	m, _ := newModel(t, fake)

	m = focusRosterList(t, m)
	m = press(t, m, "e", "tab", "!", "ctrl+s")
	require.Equal(t, selection.ModeEditing, m.wf.Selection().Mode)
	require.NotNil(t, m.form)
	assert.Equal(t, "ana@x.test!", m.form.fields[1].input.Value())

	draft, ok := m.wf.Editor().Draft()
	require.True(t, ok)
	assert.Equal(t, "ana@x.test!", draft.Email)
	assert.Contains(t, m.View(), "rejected")
	assert.Equal(t, 1, fake.CallCount("all"), "no refresh after a failed update")
}

func TestEditModal_CancelRejectedWhileSubmitting(t *testing.T) {
	fake := directorytest.NewFake(records()...)
	m, _ := newModel(t, fake)

	m = focusRosterList(t, m)
	m = press(t, m, "e", "!")
	fake.Gate = make(chan struct{})

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	m = next.(Model)
	assert.Equal(t, selection.EditorSubmitting, m.wf.Editor().State())
	assert.Contains(t, m.View(), "Saving")

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(Model)
	assert.Equal(t, selection.ModeEditing, m.wf.Selection().Mode)

	close(fake.Gate)
	m = drain(t, m, cmd)
	assert.Equal(t, selection.ModeNone, m.wf.Selection().Mode)
}

func TestEditModal_CancelDiscardsDraft(t *testing.T) {
	fake := directorytest.NewFake(records()...)
	m, _ := newModel(t, fake)

	m = focusRosterList(t, m)
	m = press(t, m, "e", "X", "esc")
	assert.Equal(t, selection.ModeNone, m.wf.Selection().Mode)
	assert.Nil(t, m.form)
	assert.Zero(t, fake.CallCount("update"))
	assert.Equal(t, "Ana Lima", m.visibleRoster()[0].DisplayName)
}

func TestEditModal_FromLookupResult(t *testing.T) {
	m, _ := newModel(t, directorytest.NewFake(records()...))

	m = press(t, m, "11111111111", "enter", "e")
	require.Equal(t, selection.ModeEditing, m.wf.Selection().Mode)
	labels := make([]string, 0, len(m.form.fields))
	for _, f := range m.form.fields {
		labels = append(labels, f.label)
	}
	assert.Equal(t, "Name,Email,Birth date,Registration,Address,Parent", strings.Join(labels, ","))
}

// =============================================================================
// MISC
// =============================================================================

func TestNoticeMsg(t *testing.T) {
	m, _ := newModel(t, directorytest.NewFake(records()...))

	next, cmd := m.Update(NoticeMsg{Text: "Directory token reloaded"})
	m = next.(Model)
	assert.NotNil(t, cmd, "toast ticker starts")
	assert.Equal(t, components.ToastKindStatus, m.toasts.Toasts()[0].Kind)
}

func TestQuit(t *testing.T) {
	m, _ := newModel(t, directorytest.NewFake(records()...))

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = next.(Model)
	assert.True(t, m.quitting)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Error(t, m.ctx.Err())

	// "q" types into text fields instead of quitting.
	m2, _ := newModel(t, directorytest.NewFake(records()...))
	m2 = press(t, m2, "tab", "tab", "q")
	assert.False(t, m2.quitting)
	assert.Equal(t, "q", m2.filter.Value())
}

func TestView_NarrowLayout(t *testing.T) {
	m, _ := newModel(t, directorytest.NewFake(records()...))
	next, _ := m.Update(tea.WindowSizeMsg{Width: 50, Height: 30})
	m = next.(Model)

	view := m.View()
	assert.Contains(t, view, "Lookup")
	assert.Contains(t, view, "Users (2)")
}
