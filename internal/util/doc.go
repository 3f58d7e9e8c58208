// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across sparkrag.
//
// # Key Functions
//
// File Operations:
//   - AtomicWriteFile: crash-safe write, creating parent directories
//   - ReplaceFile: crash-safe overwrite that requires the parent to exist
//
// String Utilities:
//   - TruncateRunes, TruncateWidth, PadRight: UTF-8 and cell-width safe
//   - FormatSize: human file sizes (B, KB, MB)
//
// # Usage
//
//	// Never leaves a half-written note behind
//	err := util.AtomicWriteFile(path, data, 0644)
//
//	// Tree row label
//	label := util.PadRight(node.Name, 30) + util.FormatSize(node.Size)
package util
