// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds small helpers shared across classdesk: atomic file
// writes for config and column-aware string fitting for the terminal views.
package util
