// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kb

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// writeTree creates files under root. Keys ending in "/" are folders.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if rel[len(rel)-1] == '/' {
			if err := os.MkdirAll(full, 0755); err != nil {
				t.Fatalf("mkdir %s: %v", rel, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("mkdir %s: %v", rel, err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
}

// allPaths lists every node path in the tree, sorted.
func allPaths(nodes []TreeNode) []string {
	var out []string
	Walk(nodes, func(n TreeNode) bool {
		out = append(out, n.Path)
		return true
	})
	sort.Strings(out)
	return out
}
