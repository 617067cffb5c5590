// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	"errors"
	"log"
	"unicode"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/classdesk/internal/directory"
	"github.com/jeranaias/classdesk/internal/lookup"
	"github.com/jeranaias/classdesk/internal/selection"
	"github.com/jeranaias/classdesk/internal/ui/components"
)

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case mountedMsg:
		m.mounted = true
		m.refreshing = false
		if msg.err != nil {
			log.Printf("roster load failed: %v", msg.err)
			return m, m.toast(components.ToastKindError, "Failed to load users: "+msg.err.Error())
		}
		return m, nil

	case rosterLoadedMsg:
		m.refreshing = false
		m.clampCursor()
		if msg.err != nil {
			return m, m.toast(components.ToastKindWarning, "Could not refresh roster: "+msg.err.Error())
		}
		return m, nil

	case lookupDoneMsg:
		// The controller already holds the result; superseded ones were dropped.
		if msg.err != nil && !errors.Is(msg.err, lookup.ErrSuperseded) {
			log.Printf("lookup: %v", msg.err)
		}
		return m, nil

	case submitDoneMsg:
		return m.handleSubmitDone(msg)

	case clipboardMsg:
		if msg.err != nil {
			return m, m.toast(components.ToastKindWarning, "Clipboard unavailable: "+msg.err.Error())
		}
		return m, m.toast(components.ToastKindStatus, "Copied "+msg.text)

	case NoticeMsg:
		kind := components.ToastKindStatus
		if msg.Warning {
			kind = components.ToastKindWarning
		}
		return m, m.toast(kind, msg.Text)

	case components.ToastTickMsg:
		if len(m.toasts.Tick()) == 0 {
			m.toastTicking = false
			return m, nil
		}
		return m, components.ToastTickCmd()

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m.forwardToInput(msg)
}

// toast adds a toast and starts the expiry ticker if it is not running.
func (m *Model) toast(kind components.ToastKind, text string) tea.Cmd {
	switch kind {
	case components.ToastKindError:
		m.toasts.AddError(text)
	case components.ToastKindWarning:
		m.toasts.AddWarning(text)
	case components.ToastKindSuccess:
		m.toasts.AddSuccess(text)
	default:
		m.toasts.AddStatus(text)
	}
	if m.toastTicking {
		return nil
	}
	m.toastTicking = true
	return components.ToastTickCmd()
}

// forwardToInput passes non-key messages such as cursor blinks to the inputs.
func (m Model) forwardToInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.identifier, cmd = m.identifier.Update(msg)
	cmds = append(cmds, cmd)
	m.filter, cmd = m.filter.Update(msg)
	cmds = append(cmds, cmd)
	if m.form != nil {
		cmds = append(cmds, m.form.update(msg))
	}
	return m, tea.Batch(cmds...)
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m.quit()
	}

	switch m.wf.Selection().Mode {
	case selection.ModeViewing:
		return m.handleViewKey(msg)
	case selection.ModeEditing:
		return m.handleEditKey(msg)
	}

	if key.Matches(msg, m.keys.Refresh) {
		return m.refresh()
	}
	if key.Matches(msg, m.keys.NextFocus) {
		return m.setFocus((m.focus + 1) % focusCount)
	}
	if key.Matches(msg, m.keys.PrevFocus) {
		return m.setFocus((m.focus + focusCount - 1) % focusCount)
	}

	switch m.focus {
	case focusLookupRole:
		return m.handleRoleKey(msg, false)
	case focusIdentifier:
		return m.handleIdentifierKey(msg)
	case focusRosterRole:
		return m.handleRoleKey(msg, true)
	case focusFilter:
		return m.handleFilterKey(msg)
	case focusRoster:
		return m.handleRosterKey(msg)
	}
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.wf.Unmount()
	m.cancel()
	return m, tea.Quit
}

func (m Model) setFocus(f focusArea) (tea.Model, tea.Cmd) {
	m.focus = f
	m.identifier.Blur()
	m.filter.Blur()
	switch f {
	case focusIdentifier:
		return m, m.identifier.Focus()
	case focusFilter:
		return m, m.filter.Focus()
	}
	return m, nil
}

func (m Model) refresh() (tea.Model, tea.Cmd) {
	if m.refreshing {
		return m, nil
	}
	m.refreshing = true
	return m, tea.Batch(m.refreshCmd(), m.spinner.Tick)
}

// handleRoleKey cycles the lookup or roster role selector.
func (m Model) handleRoleKey(msg tea.KeyMsg, rosterSelector bool) (tea.Model, tea.Cmd) {
	role := &m.lookupRole
	if rosterSelector {
		role = &m.rosterRole
	}
	switch {
	case key.Matches(msg, m.keys.Left):
		*role = cycleRole(*role, -1)
	case key.Matches(msg, m.keys.Right):
		*role = cycleRole(*role, 1)
	case key.Matches(msg, m.keys.Submit):
		return m.setFocus(m.focus + 1)
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	}
	if rosterSelector {
		m.cursor = 0
	}
	return m, nil
}

func cycleRole(r directory.Role, delta int) directory.Role {
	roles := directory.LookupRoles()
	idx := 0
	for i, candidate := range roles {
		if candidate == r {
			idx = i
		}
	}
	return roles[(idx+delta+len(roles))%len(roles)]
}

func (m Model) handleIdentifierKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submitLookup()
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Close):
		return m.closeResults()
	case key.Matches(msg, m.keys.View):
		if rec, ok := m.resultRecord(); ok {
			_ = m.wf.View(rec)
		}
		return m, nil
	case key.Matches(msg, m.keys.Edit):
		return m.openEditor(m.resultRecord())
	case key.Matches(msg, m.keys.Copy):
		if rec, ok := m.resultRecord(); ok {
			return m, m.copyCmd(rec.Identifier)
		}
		return m, nil
	}

	if msg.Type == tea.KeyRunes {
		digits := make([]rune, 0, len(msg.Runes))
		for _, r := range msg.Runes {
			if unicode.IsDigit(r) {
				digits = append(digits, r)
			}
		}
		if len(digits) == 0 {
			return m, nil
		}
		msg.Runes = digits
	}
	var cmd tea.Cmd
	m.identifier, cmd = m.identifier.Update(msg)
	m.identifier.SetValue(directory.FormatIdentifier(m.identifier.Value()))
	m.identifier.CursorEnd()
	return m, cmd
}

func (m Model) submitLookup() (tea.Model, tea.Cmd) {
	// One lookup in flight; enter is inert until it resolves.
	if m.wf.Lookup().Pending() {
		return m, nil
	}
	t, err := m.wf.BeginLookup(m.lookupRole, m.identifier.Value())
	if err != nil {
		// Empty identifier: submission is disabled.
		return m, nil
	}
	return m, tea.Batch(m.lookupCmd(t), m.spinner.Tick)
}

func (m Model) closeResults() (tea.Model, tea.Cmd) {
	m.wf.CloseResults()
	m.identifier.SetValue("")
	return m, nil
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit), msg.Type == tea.KeyDown:
		return m.setFocus(focusRoster)
	case key.Matches(msg, m.keys.Back):
		m.filter.SetValue("")
		m.cursor = 0
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.cursor = 0
	return m, cmd
}

func (m Model) handleRosterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.visibleRoster())-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Submit), key.Matches(msg, m.keys.View):
		if rec, ok := m.selectedRosterRecord(); ok {
			_ = m.wf.View(rec)
		}
	case key.Matches(msg, m.keys.Edit):
		return m.openEditor(m.selectedRosterRecord())
	case key.Matches(msg, m.keys.Copy):
		if rec, ok := m.selectedRosterRecord(); ok {
			return m, m.copyCmd(rec.Identifier)
		}
	case key.Matches(msg, m.keys.Search):
		return m.setFocus(focusFilter)
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	}
	return m, nil
}

func (m *Model) clampCursor() {
	n := len(m.visibleRoster())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// =============================================================================
// MODALS
// =============================================================================

func (m Model) handleViewKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rec, ok := m.wf.Detail().Record()
	switch {
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Quit):
		m.wf.Detail().Close()
	case key.Matches(msg, m.keys.Edit) && ok:
		return m.openEditor(&rec, true)
	case key.Matches(msg, m.keys.Copy) && ok:
		return m, m.copyCmd(rec.Identifier)
	}
	return m, nil
}

func (m Model) openEditor(rec *directory.UserRecord, ok bool) (tea.Model, tea.Cmd) {
	if !ok {
		return m, nil
	}
	if err := m.wf.Edit(rec); err != nil {
		log.Printf("open editor: %v", err)
		return m, nil
	}
	m.form = newEditForm(*rec)
	return m, nil
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	submitting := m.wf.Editor().State() == selection.EditorSubmitting
	switch {
	case key.Matches(msg, m.keys.Back):
		if err := m.wf.Editor().Close(); err != nil {
			// Cancel is rejected while the submit is in flight.
			return m, nil
		}
		m.form = nil
		return m, nil
	case submitting || m.form == nil:
		return m, nil
	case key.Matches(msg, m.keys.Save):
		return m.submitEdit()
	case key.Matches(msg, m.keys.NextFocus), key.Matches(msg, m.keys.Down) && msg.Type != tea.KeyRunes:
		m.form.move(1)
		return m, nil
	case key.Matches(msg, m.keys.PrevFocus), key.Matches(msg, m.keys.Up) && msg.Type != tea.KeyRunes:
		m.form.move(-1)
		return m, nil
	case m.form.onToggle():
		if key.Matches(msg, m.keys.Toggle) || key.Matches(msg, m.keys.Submit) {
			m.form.active = !m.form.active
			m.syncDraft()
		}
		return m, nil
	}

	cmd := m.form.update(msg)
	m.syncDraft()
	return m, cmd
}

// syncDraft mirrors the form into the editor's draft.
func (m Model) syncDraft() {
	if base, ok := m.wf.Editor().Draft(); ok {
		_ = m.wf.Editor().SetDraft(m.form.draft(base))
	}
}

func (m Model) submitEdit() (tea.Model, tea.Cmd) {
	base, ok := m.wf.Editor().Draft()
	if !ok {
		return m, nil
	}
	sub, err := m.wf.BeginSubmitEdit(m.form.draft(base))
	if err != nil {
		return m, nil
	}
	return m, tea.Batch(m.submitCmd(sub), m.spinner.Tick)
}

func (m Model) handleSubmitDone(msg submitDoneMsg) (tea.Model, tea.Cmd) {
	var rejected *selection.UpdateRejectedError
	var refresh *selection.RefreshError
	switch {
	case errors.As(msg.err, &rejected):
		// The modal stays open with the draft; the error renders inside it.
		return m, nil
	case errors.As(msg.err, &refresh):
		m.form = nil
		m.clampCursor()
		return m, tea.Batch(
			m.toast(components.ToastKindSuccess, "Updated "+msg.updated.DisplayName),
			m.toast(components.ToastKindWarning, "Could not refresh roster: "+refresh.Err.Error()),
		)
	case msg.err != nil:
		m.form = nil
		return m, m.toast(components.ToastKindError, msg.err.Error())
	}
	m.form = nil
	m.clampCursor()
	return m, m.toast(components.ToastKindSuccess, "Updated "+msg.updated.DisplayName)
}
