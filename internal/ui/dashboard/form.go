// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/classdesk/internal/directory"
	"github.com/jeranaias/classdesk/internal/ui/styles"
)

// formField is one editable text attribute.
type formField struct {
	key   string
	label string
	input textinput.Model
}

// editForm holds the edit modal's inputs. The last focus position is the
// active toggle rather than a text field.
type editForm struct {
	fields []formField
	active bool
	focus  int
}

func newEditForm(rec directory.UserRecord) *editForm {
	f := &editForm{active: rec.Active}
	f.add("name", "Name", rec.DisplayName, 120)
	f.add("email", "Email", rec.Email, 254)
	for _, opt := range rec.OptionalFields() {
		f.add(opt.Key, opt.Label, opt.Value, 200)
	}
	f.fields[0].input.Focus()
	return f
}

func (f *editForm) add(key, label, value string, limit int) {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = limit
	ti.Width = 40
	ti.SetValue(value)
	f.fields = append(f.fields, formField{key: key, label: label, input: ti})
}

// onToggle reports whether focus is on the active toggle.
func (f *editForm) onToggle() bool {
	return f.focus == len(f.fields)
}

func (f *editForm) move(delta int) {
	if !f.onToggle() {
		f.fields[f.focus].input.Blur()
	}
	n := len(f.fields) + 1
	f.focus = (f.focus + delta + n) % n
	if !f.onToggle() {
		f.fields[f.focus].input.Focus()
	}
}

// update forwards msg to the focused text field.
func (f *editForm) update(msg tea.Msg) tea.Cmd {
	if f.onToggle() {
		return nil
	}
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return cmd
}

// draft applies the form values to a copy of base.
func (f *editForm) draft(base directory.UserRecord) directory.UserRecord {
	d := base
	for _, field := range f.fields {
		d.SetField(field.key, strings.TrimSpace(field.input.Value()))
	}
	d.Active = f.active
	return d
}

func (f *editForm) view(theme *styles.Theme) string {
	var b strings.Builder
	for i, field := range f.fields {
		label := theme.Label.Render(field.label)
		input := theme.Input.Render(field.input.View())
		if i == f.focus {
			input = theme.InputFocused.Render(field.input.View())
		}
		b.WriteString(label + input + "\n")
	}

	toggle := styles.RenderActive(f.active) + " "
	if f.active {
		toggle += "Active"
	} else {
		toggle += "Inactive"
	}
	if f.onToggle() {
		toggle = theme.InputFocused.Render(toggle)
	} else {
		toggle = theme.Input.Render(toggle)
	}
	b.WriteString(theme.Label.Render("Status") + toggle)
	return b.String()
}
