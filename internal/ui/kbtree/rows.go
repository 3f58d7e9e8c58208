// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kbtree

import (
	"fmt"

	"github.com/jeranaias/sparkrag/internal/kb"
)

// row is one visible line of a tree.
type row struct {
	node  kb.TreeNode
	depth int
}

// flatten lists the visible rows of nodes. Children of a folder appear only
// when its path is in expanded. Scan order is kept.
func flatten(nodes []kb.TreeNode, expanded map[string]bool) []row {
	var out []row
	var walk func(nodes []kb.TreeNode, depth int)
	walk = func(nodes []kb.TreeNode, depth int) {
		for _, n := range nodes {
			out = append(out, row{node: n, depth: depth})
			if n.IsFolder() && expanded[n.Path] {
				walk(n.Children, depth+1)
			}
		}
	}
	walk(nodes, 0)
	return out
}

// foldersFirst orders the items of one folder the way the browser shows
// them: folders, then files, each group in scan order.
func foldersFirst(items []kb.TreeNode) []kb.TreeNode {
	out := make([]kb.TreeNode, 0, len(items))
	for _, n := range items {
		if n.IsFolder() {
			out = append(out, n)
		}
	}
	for _, n := range items {
		if !n.IsFolder() {
			out = append(out, n)
		}
	}
	return out
}

// indexOf returns the index of path in rows, or -1.
func indexOf(rows []row, path string) int {
	for i, r := range rows {
		if r.node.Path == path {
			return i
		}
	}
	return -1
}

// pruneExpanded drops expansion entries for folders that no longer exist.
func pruneExpanded(expanded map[string]bool, nodes []kb.TreeNode) {
	for p := range expanded {
		if _, ok := kb.FindFolder(nodes, p); !ok {
			delete(expanded, p)
		}
	}
}

func fileCountLabel(n kb.TreeNode) string {
	c := kb.CountFiles(n.Children)
	if c == 1 {
		return "1 file"
	}
	return fmt.Sprintf("%d files", c)
}

// window returns the [start, end) slice of n rows that keeps cursor
// visible in height lines, starting from offset.
func window(offset, cursor, height, n int) (int, int) {
	if height < 1 {
		height = 1
	}
	if cursor < offset {
		offset = cursor
	}
	if cursor >= offset+height {
		offset = cursor - height + 1
	}
	if maxOff := n - height; offset > maxOff {
		offset = maxOff
	}
	if offset < 0 {
		offset = 0
	}
	end := offset + height
	if end > n {
		end = n
	}
	return offset, end
}

func clamp(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
