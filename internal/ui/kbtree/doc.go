// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package kbtree renders the knowledge base in the TUI.
//
// Two Bubble Tea models project the same scanned tree independently:
//
//   - Panel is the inline tree beside the chat. It expands and collapses
//     folders and toggles file selection only.
//   - Browser is the standalone screen. It shows one folder at a time,
//     folders first, selects files and whole folders, and carries the
//     create, rename, delete, import and preview actions.
//
// Neither model shares memory with the other. The browser talks to the
// main screen through a selection.Session and runs every filesystem call
// through app.Host inside a tea.Cmd.
package kbtree
