// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	"github.com/jeranaias/classdesk/internal/directory"
	"github.com/jeranaias/classdesk/internal/lookup"
)

// =============================================================================
// GATEWAY MESSAGES
// =============================================================================

// mountedMsg is sent once the initial roster fetch finishes.
type mountedMsg struct {
	err error
}

// rosterLoadedMsg is sent when a manual roster refresh finishes.
type rosterLoadedMsg struct {
	err error
}

// lookupDoneMsg carries a completed lookup. Superseded lookups arrive with
// err set to lookup.ErrSuperseded and are ignored.
type lookupDoneMsg struct {
	result lookup.Result
	err    error
}

// submitDoneMsg carries the outcome of an edit submit.
type submitDoneMsg struct {
	updated directory.UserRecord
	err     error
}

// =============================================================================
// UI MESSAGES
// =============================================================================

// clipboardMsg reports a clipboard write.
type clipboardMsg struct {
	text string
	err  error
}

// NoticeMsg shows a toast from outside the dashboard, for example when the
// config watcher picks up a rotated token.
type NoticeMsg struct {
	Text    string
	Warning bool
}
