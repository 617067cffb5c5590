// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the classdesk dashboard.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection. Status is never conveyed by color alone: every colored state also
has a shape ("●"/"○" for active, "[X]" for errors).

	theme := styles.NewTheme()
	theme.SetSize(width, height)
	if theme.GetLayoutMode() == styles.LayoutNarrow {
		// stack panels vertically
	}
*/
package styles
