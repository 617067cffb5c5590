// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package roster

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jeranaias/classdesk/internal/directory"
)

// Filter returns the records of snapshot whose role is role and whose display
// name contains query, ignoring case. An empty query keeps every record of the
// role. Order is preserved and snapshot is not modified.
func Filter(snapshot []directory.UserRecord, role directory.Role, query string) []directory.UserRecord {
	// cases.Caser is stateful; use a fresh one per call.
	lower := cases.Lower(language.Und)
	needle := lower.String(query)

	out := make([]directory.UserRecord, 0, len(snapshot))
	for _, rec := range snapshot {
		if rec.Role != role {
			continue
		}
		if needle != "" && !strings.Contains(lower.String(rec.DisplayName), needle) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// CountByRole returns how many records of each role snapshot holds.
func CountByRole(snapshot []directory.UserRecord) map[directory.Role]int {
	counts := make(map[directory.Role]int)
	for _, rec := range snapshot {
		counts[rec.Role]++
	}
	return counts
}
