// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package selection

import "github.com/jeranaias/classdesk/internal/directory"

// Detail is the read-only record view. It has no mutation operations.
type Detail struct {
	sel *Context
}

// NewDetail creates a detail presenter over sel.
func NewDetail(sel *Context) *Detail {
	return &Detail{sel: sel}
}

// Open shows rec. It fails with ErrNoRecord when rec is nil.
func (d *Detail) Open(rec *directory.UserRecord) error {
	return d.sel.enter(ModeViewing, rec)
}

// Close hides the view and clears the held record. Closing an already
// closed view is a no-op.
func (d *Detail) Close() {
	// Leaving viewing mode never conflicts with a submit.
	_ = d.sel.leave(ModeViewing)
}

// IsOpen reports whether the view is showing.
func (d *Detail) IsOpen() bool {
	return d.sel.Mode() == ModeViewing
}

// Record returns the displayed record.
func (d *Detail) Record() (directory.UserRecord, bool) {
	s := d.sel.State()
	if s.Mode != ModeViewing || s.Record == nil {
		return directory.UserRecord{}, false
	}
	return *s.Record, true
}
