// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/classdesk/internal/directory"
	"github.com/jeranaias/classdesk/internal/ui/styles"
	"github.com/jeranaias/classdesk/internal/util"
)

// RoleBadge renders the role label in its color.
func RoleBadge(r directory.Role) string {
	return lipgloss.NewStyle().Foreground(styles.RoleColor(r)).Bold(true).Render(r.Label())
}

// RenderRecord renders a record as label/value lines: name, email, role,
// status, identifier, then the role's optional attributes. Empty optional
// attributes are skipped. Values are truncated to valueWidth columns when
// valueWidth > 0.
func RenderRecord(theme *styles.Theme, rec directory.UserRecord, valueWidth int) string {
	fit := func(s string) string {
		if valueWidth > 0 {
			return util.TruncateWidth(s, valueWidth)
		}
		return s
	}

	status := "Inactive"
	if rec.Active {
		status = "Active"
	}

	lines := []string{
		theme.Label.Render("Name") + theme.Value.Render(fit(rec.DisplayName)),
		theme.Label.Render("Email") + theme.Value.Render(fit(rec.Email)),
		theme.Label.Render("Role") + RoleBadge(rec.Role),
		theme.Label.Render("Status") + styles.RenderActive(rec.Active) + " " + theme.Value.Render(status),
		theme.Label.Render("CPF") + theme.Value.Render(directory.FormatIdentifier(rec.Identifier)),
	}
	for _, f := range rec.OptionalFields() {
		if f.Value == "" {
			continue
		}
		v := f.Value
		if f.Key == "linked_student" || f.Key == "linked_parent" {
			v = directory.FormatIdentifier(v)
		}
		lines = append(lines, theme.Label.Render(f.Label)+theme.Value.Render(fit(v)))
	}
	return strings.Join(lines, "\n")
}
