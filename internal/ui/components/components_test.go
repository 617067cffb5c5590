// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/classdesk/internal/directory"
	"github.com/jeranaias/classdesk/internal/ui/styles"
)

func testTheme() *styles.Theme {
	return styles.NewThemeWithProfile(termenv.Ascii, true)
}

func TestToastManager(t *testing.T) {
	m := NewToastManager()
	assert.False(t, m.HasToasts())

	first := m.AddError("roster failed")
	m.AddSuccess("saved")
	toasts := m.Toasts()
	require.Len(t, toasts, 2)
	assert.Equal(t, "saved", toasts[0].Message, "newest first")
	assert.Equal(t, ToastKindError, toasts[1].Kind)
	assert.Equal(t, ErrorToastDuration, toasts[1].Duration)

	m.Remove(first)
	assert.Len(t, m.Toasts(), 1)
}

func TestToastManager_MaxToasts(t *testing.T) {
	m := NewToastManager()
	for i := 0; i < 5; i++ {
		m.AddStatus("n")
	}
	assert.Len(t, m.Toasts(), 3)
}

func TestToastManager_TickExpires(t *testing.T) {
	m := NewToastManager()
	m.Add(Toast{Message: "old", CreatedAt: time.Now().Add(-time.Minute), Duration: time.Second})
	m.AddWarning("fresh")

	remaining := m.Tick()
	require.Len(t, remaining, 1)
	assert.Equal(t, "fresh", remaining[0].Message)
}

func TestRenderToast(t *testing.T) {
	out := RenderToast(newToast(ToastKindError, "failed to load users", time.Second*5), 80)
	assert.Contains(t, out, "[X]")
	assert.Contains(t, out, "failed to load users")

	assert.Empty(t, RenderToastStack(nil, 80))
	assert.NotEmpty(t, RenderToastStack([]Toast{newToast(ToastKindStatus, "hi", time.Second)}, 80))
}

func TestWrapText(t *testing.T) {
	out := wrapText("one two three four five six", 10)
	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, len(line), 10)
	}
	assert.Equal(t, "short", wrapText("short", 10))
}

func TestRenderRecord(t *testing.T) {
	rec := directory.UserRecord{
		Identifier:    "12345678900",
		DisplayName:   "Carla Reis",
		Email:         "carla@x.test",
		Role:          directory.RoleParent,
		Phone:         "555-0101",
		LinkedStudent: "11111111111",
	}
	out := RenderRecord(testTheme(), rec, 0)
	assert.Contains(t, out, "Carla Reis")
	assert.Contains(t, out, "123.456.789-00")
	assert.Contains(t, out, "Parent")
	assert.Contains(t, out, "Inactive")
	assert.Contains(t, out, "111.111.111-11")
	assert.NotContains(t, out, "Address", "empty optional fields are skipped")
	assert.NotContains(t, out, "Registration", "fields of other roles are skipped")
}

func TestRenderModal(t *testing.T) {
	out := RenderModal(testTheme(), "User details", "body", []KeyHint{{"esc", "close"}}, 100, 30)
	assert.Contains(t, out, "User details")
	assert.Contains(t, out, "esc close")
	assert.Len(t, strings.Split(out, "\n"), 30)
}
