// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package directory defines the user directory model shared by every part of
// classdesk: the record shape, the role enumeration, identifier handling and
// the Gateway contract that concrete directories implement.
//
// # Key Types
//
//   - UserRecord: one directory entry, keyed by its canonical identifier
//   - Role: ADMIN, PROFESSOR, PARENT or STUDENT
//   - Patch: the mutable subset of a record sent on update
//   - Gateway: role-specific lookup, full roster fetch and update
//
// # Identifiers
//
// Identifiers are typed by people with formatting (dots, dashes, spaces).
// Normalize strips everything but digits and must be applied before any
// Gateway lookup. FormatIdentifier is its display-only counterpart:
//
//	directory.Normalize("123.456.789-00")      // "12345678900"
//	directory.FormatIdentifier("12345678900")  // "123.456.789-00"
//
// # Errors
//
// Gateways report a missing record with ErrNotFound and every other failure
// as a *TransportError. Callers treat transport errors as opaque and never
// retry them automatically.
package directory
