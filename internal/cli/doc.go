// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the classdesk command line: argument parsing, the
// non-interactive commands (lookup, roster, seed, serve, config, version),
// error display with exit codes, and JSON output for scripting.
//
// The dashboard itself lives in internal/ui/dashboard; main only decides
// between the two.
package cli
