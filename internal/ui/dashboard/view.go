// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/classdesk/internal/directory"
	"github.com/jeranaias/classdesk/internal/lookup"
	"github.com/jeranaias/classdesk/internal/roster"
	"github.com/jeranaias/classdesk/internal/selection"
	"github.com/jeranaias/classdesk/internal/ui/components"
	"github.com/jeranaias/classdesk/internal/ui/styles"
	"github.com/jeranaias/classdesk/internal/util"
)

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	width := m.width
	if width <= 0 {
		width = 100
	}
	height := m.height
	if height <= 0 {
		height = 30
	}

	header := m.renderHeader(width)
	footer := m.renderStatusBar(width)
	if toasts := components.RenderToastStack(m.toasts.Toasts(), width); toasts != "" {
		footer = toasts + "\n" + footer
	}
	bodyHeight := height - lipgloss.Height(header) - lipgloss.Height(footer)
	if bodyHeight < 8 {
		bodyHeight = 8
	}

	var body string
	switch sel := m.wf.Selection(); sel.Mode {
	case selection.ModeViewing:
		body = m.renderDetailModal(sel, width, bodyHeight)
	case selection.ModeEditing:
		body = m.renderEditModal(sel, width, bodyHeight)
	default:
		body = m.renderPanels(width, bodyHeight)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

// =============================================================================
// HEADER / FOOTER
// =============================================================================

func (m Model) renderHeader(width int) string {
	left := m.theme.HeaderBrand.Render("classdesk")
	info := []string{}
	if m.opts.Operator != "" {
		info = append(info, m.opts.Operator)
	}
	if m.opts.Source != "" {
		info = append(info, m.opts.Source)
	}
	if len(info) > 0 {
		left += "  " + m.theme.HeaderInfo.Render(strings.Join(info, " · "))
	}

	var right string
	switch {
	case m.refreshing:
		right = m.spinner.View() + m.theme.PendingText.Render(" loading users")
	case m.wf.Roster().Loaded():
		counts := roster.CountByRole(m.wf.Roster().Snapshot())
		parts := make([]string, 0, 3)
		for _, r := range directory.LookupRoles() {
			parts = append(parts, fmt.Sprintf("%d %s", counts[r], strings.ToLower(r.Label())))
		}
		right = m.theme.HeaderInfo.Render(strings.Join(parts, " · ") +
			"  " + m.wf.Roster().FetchedAt().Format("15:04"))
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderStatusBar(width int) string {
	var hints []components.KeyHint
	switch m.wf.Selection().Mode {
	case selection.ModeViewing, selection.ModeEditing:
		hints = []components.KeyHint{{Key: "C-c", Desc: "quit"}}
	default:
		switch m.focus {
		case focusLookupRole, focusRosterRole:
			hints = []components.KeyHint{{Key: "←/→", Desc: "role"}, {Key: "enter", Desc: "next"}}
		case focusIdentifier:
			hints = []components.KeyHint{{Key: "enter", Desc: "search"}}
			if _, ok := m.resultRecord(); ok {
				hints = append(hints,
					components.KeyHint{Key: "v", Desc: "view"},
					components.KeyHint{Key: "e", Desc: "edit"},
					components.KeyHint{Key: "y", Desc: "copy"})
			}
			if m.wf.Lookup().Result().Status != lookup.StatusNotStarted {
				hints = append(hints, components.KeyHint{Key: "esc", Desc: "close results"})
			}
		case focusFilter:
			hints = []components.KeyHint{{Key: "enter", Desc: "to list"}, {Key: "esc", Desc: "clear"}}
		case focusRoster:
			hints = []components.KeyHint{
				{Key: "↑/↓", Desc: "move"}, {Key: "enter", Desc: "view"},
				{Key: "e", Desc: "edit"}, {Key: "y", Desc: "copy"}, {Key: "/", Desc: "filter"},
			}
		}
		hints = append(hints,
			components.KeyHint{Key: "tab", Desc: "next"},
			components.KeyHint{Key: "C-r", Desc: "refresh"},
			components.KeyHint{Key: "C-c", Desc: "quit"})
	}
	return m.theme.StatusBar.Width(width).Render(components.RenderKeyHints(m.theme, hints))
}

// =============================================================================
// PANELS
// =============================================================================

func (m Model) renderPanels(width, height int) string {
	if m.theme.GetLayoutMode() == styles.LayoutWide || (m.width == 0 && width >= 100) {
		half := width / 2
		return lipgloss.JoinHorizontal(lipgloss.Top,
			m.renderLookupPanel(half-2, height-2),
			m.renderRosterPanel(width-half-2, height-2))
	}
	lookupHeight := height / 2
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderLookupPanel(width-2, lookupHeight-2),
		m.renderRosterPanel(width-2, height-lookupHeight-2))
}

func (m Model) panel(focused bool, width, height int) lipgloss.Style {
	style := m.theme.Panel
	if focused {
		style = m.theme.PanelFocused
	}
	return style.Width(width).Height(height)
}

func (m Model) renderRoleTabs(selected directory.Role, focused bool) string {
	tabs := make([]string, 0, 3)
	for _, r := range directory.LookupRoles() {
		if r == selected {
			tab := m.theme.RoleTabActive.Foreground(styles.RoleColor(r))
			if focused {
				tab = tab.Underline(true)
			}
			tabs = append(tabs, tab.Render(r.Label()))
			continue
		}
		tabs = append(tabs, m.theme.RoleTab.Render(r.Label()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderInput(view string, focused bool) string {
	if focused {
		return m.theme.InputFocused.Render(view)
	}
	return m.theme.Input.Render(view)
}

func (m Model) renderLookupPanel(width, height int) string {
	focused := m.focus == focusLookupRole || m.focus == focusIdentifier

	lines := []string{
		m.theme.PanelTitle.Render("Lookup"),
		m.renderRoleTabs(m.lookupRole, m.focus == focusLookupRole),
		m.theme.Label.Render("CPF") + m.renderInput(m.identifier.View(), m.focus == focusIdentifier),
		"",
	}

	res := m.wf.Lookup().Result()
	switch res.Status {
	case lookup.StatusNotStarted:
		if directory.Normalize(m.identifier.Value()) == "" {
			lines = append(lines, m.theme.Muted.Render("Type a CPF and press enter."))
		} else {
			lines = append(lines, m.theme.Muted.Render("Press enter to search."))
		}
	case lookup.StatusPending:
		lines = append(lines, m.spinner.View()+m.theme.PendingText.Render(
			" Looking up "+res.Query.Role.Label()+" "+directory.FormatIdentifier(res.Query.Identifier)))
	case lookup.StatusFound:
		lines = append(lines, components.RenderRecord(m.theme, *res.Record, width-16))
	case lookup.StatusNotFound, lookup.StatusTransportError:
		lines = append(lines, m.theme.ErrorText.Render(res.Message))
	}

	return m.panel(focused, width, height).Render(strings.Join(lines, "\n"))
}

func (m Model) renderRosterPanel(width, height int) string {
	focused := m.focus >= focusRosterRole
	rows := m.visibleRoster()

	title := fmt.Sprintf("Users (%d)", len(rows))
	lines := []string{
		m.theme.PanelTitle.Render(title),
		m.renderRoleTabs(m.rosterRole, m.focus == focusRosterRole),
		m.theme.Label.Render("Filter") + m.renderInput(m.filter.View(), m.focus == focusFilter),
		"",
	}

	switch {
	case !m.mounted:
		lines = append(lines, m.spinner.View()+m.theme.PendingText.Render(" Loading users"))
	case len(rows) == 0:
		lines = append(lines, m.theme.Muted.Render("No users."))
	default:
		visible := height - len(lines)
		if visible < 1 {
			visible = 1
		}
		start := 0
		if m.cursor >= visible {
			start = m.cursor - visible + 1
		}
		end := start + visible
		if end > len(rows) {
			end = len(rows)
		}
		for i := start; i < end; i++ {
			lines = append(lines, m.renderRow(rows[i], i == m.cursor && m.focus == focusRoster, width))
		}
	}

	return m.panel(focused, width, height).Render(strings.Join(lines, "\n"))
}

func (m Model) renderRow(rec directory.UserRecord, selected bool, width int) string {
	nameWidth := 24
	if width < 60 {
		nameWidth = 16
	}
	cols := []string{
		styles.RenderActive(rec.Active),
		util.PadRight(util.TruncateWidth(rec.DisplayName, nameWidth), nameWidth),
		directory.FormatIdentifier(rec.Identifier),
	}
	if !m.opts.Compact && width >= 60 {
		rest := width - nameWidth - 22
		if rest > 8 {
			cols = append(cols, util.TruncateWidth(rec.Email, rest))
		}
	}
	row := strings.Join(cols, " ")
	if selected {
		return m.theme.RowSelected.Render(row)
	}
	return m.theme.Row.Render(row)
}

// =============================================================================
// MODALS
// =============================================================================

func (m Model) renderDetailModal(sel selection.State, width, height int) string {
	if sel.Record == nil {
		return ""
	}
	return components.RenderModal(m.theme, "User details",
		components.RenderRecord(m.theme, *sel.Record, 0),
		[]components.KeyHint{{Key: "e", Desc: "edit"}, {Key: "y", Desc: "copy cpf"}, {Key: "esc", Desc: "close"}},
		width, height)
}

func (m Model) renderEditModal(sel selection.State, width, height int) string {
	if sel.Record == nil || m.form == nil {
		return ""
	}
	title := "Edit " + sel.Record.Role.Label() + " " + directory.FormatIdentifier(sel.Record.Identifier)

	body := m.form.view(m.theme)
	var hints []components.KeyHint
	if sel.Submitting {
		body += "\n\n" + m.spinner.View() + m.theme.PendingText.Render(" Saving")
	} else {
		if sel.Err != nil {
			body += "\n\n" + styles.RenderError(sel.Err.Error())
		}
		hints = []components.KeyHint{
			{Key: "tab", Desc: "next field"}, {Key: "space", Desc: "toggle active"},
			{Key: "C-s", Desc: "save"}, {Key: "esc", Desc: "cancel"},
		}
	}
	return components.RenderModal(m.theme, title, body, hints, width, height)
}
