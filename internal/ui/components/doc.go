// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides reusable rendering pieces for the dashboard:
// toasts, modal boxes, key hint lines and record field lists.
//
// Toasts are non-blocking notifications inspired by lazygit's toast system.
// They appear in the bottom-right corner and auto-dismiss, so a failed
// roster fetch never blocks the lookup panel.
package components
