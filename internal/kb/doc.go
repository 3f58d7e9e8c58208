// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package kb implements the knowledge base: a plain directory tree of
// Markdown and text notes that is the only source of truth.
//
// # Key Types
//
//   - Scanner: walks the root into an immutable Snapshot of TreeNode values
//   - Store: create, save, rename and delete entries relative to the root
//   - Expand: resolve a selected folder into the file paths it contains
//   - Error: structured failure carrying an ErrorKind and the OS message
//
// There is no cache or index. Every mutation is followed by a fresh Scan,
// and a Snapshot is handed to other screens by value (Clone) so no two
// screens share a live tree.
//
// # Usage
//
//	scanner := kb.NewScanner(root)
//	snap, err := scanner.Scan(ctx)
//	files := kb.Expand("policies/hr", snap.Nodes)
//
//	store := kb.NewStore(root)
//	newPath, err := store.Rename("policies/old.md", "new.md")
package kb
