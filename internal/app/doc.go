// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app wires the knowledge base, converter, context assembler, chat
// client and agent store together and exposes them to the screens as
// request/response calls.
//
// Every Host method returns a value with Success and Error instead of an
// error, so a failed operation can be shown in a status line while the
// screen keeps its last good snapshot.
package app
