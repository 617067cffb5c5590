// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/classdesk/internal/ui/styles"
)

// KeyHint is one "key description" pair in a help line.
type KeyHint struct {
	Key  string
	Desc string
}

// RenderKeyHints renders hints as "key desc  key desc".
func RenderKeyHints(theme *styles.Theme, hints []KeyHint) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, theme.ShortcutKey.Render(h.Key)+" "+theme.ShortcutDesc.Render(h.Desc))
	}
	return strings.Join(parts, "  ")
}

// RenderModal draws a titled box centered in width x height. The box is at
// most 72 columns wide.
func RenderModal(theme *styles.Theme, title, body string, hints []KeyHint, width, height int) string {
	boxWidth := 72
	if width > 0 && width-4 < boxWidth {
		boxWidth = width - 4
	}
	if boxWidth < 30 {
		boxWidth = 30
	}

	content := theme.ModalTitle.Render(title) + "\n" + body
	if len(hints) > 0 {
		content += "\n\n" + RenderKeyHints(theme, hints)
	}
	box := theme.Modal.Width(boxWidth).Render(content)

	if width <= 0 || height <= 0 {
		return box
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
