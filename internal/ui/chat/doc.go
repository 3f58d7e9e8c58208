// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the main screen of the TUI.
//
// The main screen holds the conversation, the inline knowledge-base panel
// and the header with the connection status, the KB toggle and the active
// agent. It also owns the screen switch to the standalone browser: when the
// browser is open the main screen keeps listening on its bus mailbox and
// adopts every selection the browser publishes.
//
// Run wires the model to a Bubble Tea program and the KB watcher.
package chat
