// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package context turns a KB selection into the text sent to the model.
//
// A selection holds files and folders. At send time it is resolved against
// the latest scan into a flat list of file paths: directly selected files
// first, in selection order, then the visible files beneath each selected
// folder in tree order. Each file becomes one block:
//
//	--- leave-policy.md ---
//	<file content>
//
// Blocks are joined by a blank line. Files that no longer exist are
// reported as missing and left out.
//
// # Usage
//
//	asm := context.NewAssembler(store, context.WithMaxFileBytes(64<<10))
//	res, err := asm.Build(ctx, snapshot, sel.Payload())
//	msgs = append(msgs, llm.NewSystemMessage(res.Text))
package context
