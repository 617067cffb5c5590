// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/classdesk/internal/directory"
)

func TestNewThemeWithProfile(t *testing.T) {
	theme := NewThemeWithProfile(termenv.TrueColor, true)
	assert.True(t, theme.HasTrueColor)
	assert.True(t, theme.IsDark)
	assert.NotEmpty(t, theme.Panel.Render("x"))
	assert.NotEmpty(t, theme.Modal.Render("x"))

	ascii := NewThemeWithProfile(termenv.Ascii, false)
	assert.False(t, ascii.HasTrueColor)
}

func TestLayoutMode(t *testing.T) {
	theme := NewThemeWithProfile(termenv.Ascii, false)

	tests := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutMedium},
		{99, LayoutMedium},
		{100, LayoutWide},
	}
	for _, tt := range tests {
		theme.SetSize(tt.width, 30)
		assert.Equal(t, tt.want, theme.GetLayoutMode(), "width %d", tt.width)
	}
}

func TestRoleColor(t *testing.T) {
	assert.Equal(t, Cyan, RoleColor(directory.RoleStudent))
	assert.Equal(t, Purple, RoleColor(directory.RoleProfessor))
	assert.Equal(t, Amber, RoleColor(directory.RoleParent))
	assert.Equal(t, TextSecondary, RoleColor("OTHER"))
}

func TestRenderActive(t *testing.T) {
	assert.Contains(t, RenderActive(true), StatusIndicators.Active)
	assert.Contains(t, RenderActive(false), StatusIndicators.Inactive)
	assert.Contains(t, RenderError("boom"), "[X] boom")
	assert.Contains(t, RenderSuccess("saved"), "[OK] saved")
}
