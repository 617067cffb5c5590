// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package directory

import "strings"

// IdentifierDigits is the length of a complete identifier (CPF).
const IdentifierDigits = 11

// Normalize strips every non-digit from raw, keeping the remaining digits in
// their original order. It is the canonical lookup key.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatIdentifier renders the digits of raw with the 999.999.999-99 mask.
// Partial input is formatted progressively and digits beyond the mask are
// dropped, so the result is suitable for an input field as the user types.
func FormatIdentifier(raw string) string {
	digits := Normalize(raw)
	if len(digits) > IdentifierDigits {
		digits = digits[:IdentifierDigits]
	}

	var b strings.Builder
	for i, r := range digits {
		switch i {
		case 3, 6:
			b.WriteByte('.')
		case 9:
			b.WriteByte('-')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// MaskIdentifier hides all but the last two digits ("*********00"). Used for
// audit lines and logs.
func MaskIdentifier(id string) string {
	digits := Normalize(id)
	if len(digits) <= 2 {
		return strings.Repeat("*", len(digits))
	}
	return strings.Repeat("*", len(digits)-2) + digits[len(digits)-2:]
}
