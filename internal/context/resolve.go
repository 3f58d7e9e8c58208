// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package context

import (
	"github.com/jeranaias/sparkrag/internal/kb"
	"github.com/jeranaias/sparkrag/internal/selection"
)

// Resolve flattens a selection into file paths against nodes. Folder
// expansion is recomputed on every call. When dedupe is false a file that
// is both selected directly and reachable through a selected folder appears
// twice.
func Resolve(sel selection.Payload, nodes []kb.TreeNode, dedupe bool) []string {
	out := make([]string, 0, len(sel.Files))
	seen := make(map[string]struct{})

	add := func(p string) {
		if dedupe {
			if _, ok := seen[p]; ok {
				return
			}
			seen[p] = struct{}{}
		}
		out = append(out, p)
	}

	for _, f := range sel.Files {
		add(f)
	}
	for _, folder := range sel.Folders {
		for _, f := range kb.Expand(folder, nodes) {
			add(f)
		}
	}
	return out
}
