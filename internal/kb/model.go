// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kb

import (
	"path"
	"strings"
	"time"
)

// NodeKind distinguishes folders from files in the tree.
type NodeKind string

const (
	KindFolder NodeKind = "folder"
	KindFile   NodeKind = "file"
)

// TreeNode is one scanned entry. Path is slash-joined relative to the KB
// root and is the identity key used by selection, rename and delete.
type TreeNode struct {
	Name     string     `json:"name"`
	Path     string     `json:"path"`
	Kind     NodeKind   `json:"type"`
	Children []TreeNode `json:"children,omitempty"`
	Size     int64      `json:"size,omitempty"`
}

// IsFolder reports whether n is a folder.
func (n TreeNode) IsFolder() bool { return n.Kind == KindFolder }

// Clone returns a deep copy of n.
func (n TreeNode) Clone() TreeNode {
	out := n
	out.Children = cloneNodes(n.Children)
	return out
}

func cloneNodes(nodes []TreeNode) []TreeNode {
	if nodes == nil {
		return nil
	}
	out := make([]TreeNode, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

// Snapshot is the result of one full scan of the KB root.
type Snapshot struct {
	Root      string     `json:"path"`
	Nodes     []TreeNode `json:"structure"`
	ScannedAt time.Time  `json:"scanned_at"`
}

// Clone returns a deep copy safe to hand to another screen.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Nodes = cloneNodes(s.Nodes)
	return out
}

// ChildPath joins a parent path and a child name the way the scanner does:
// root children carry no prefix.
func ChildPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

// BaseName returns the final segment of a relative path.
func BaseName(p string) string {
	return path.Base(p)
}

// ParentPath returns the parent of a relative path, "" for root children.
func ParentPath(p string) string {
	dir := path.Dir(p)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}

// ItemsAt returns the children of the folder at folderPath. An empty
// folderPath returns the root items. A path that does not resolve to a
// folder returns nil.
func ItemsAt(nodes []TreeNode, folderPath string) []TreeNode {
	folder, ok := FindFolder(nodes, folderPath)
	if !ok {
		return nil
	}
	if folderPath == "" {
		return nodes
	}
	return folder.Children
}

// FindFolder walks nodes segment by segment. The empty path resolves to a
// synthetic root folder.
func FindFolder(nodes []TreeNode, folderPath string) (TreeNode, bool) {
	if folderPath == "" {
		return TreeNode{Kind: KindFolder, Children: nodes}, true
	}
	current := nodes
	var found TreeNode
	for _, part := range strings.Split(folderPath, "/") {
		ok := false
		for _, n := range current {
			if n.Kind == KindFolder && n.Name == part {
				found, ok = n, true
				break
			}
		}
		if !ok {
			return TreeNode{}, false
		}
		current = found.Children
	}
	return found, true
}

// Find returns the node at p regardless of kind.
func Find(nodes []TreeNode, p string) (TreeNode, bool) {
	if p == "" {
		return TreeNode{}, false
	}
	folder, ok := FindFolder(nodes, ParentPath(p))
	if !ok {
		return TreeNode{}, false
	}
	name := BaseName(p)
	for _, n := range folder.Children {
		if n.Name == name {
			return n, true
		}
	}
	return TreeNode{}, false
}

// CountFiles returns the number of files beneath nodes, recursively.
func CountFiles(nodes []TreeNode) int {
	count := 0
	for _, n := range nodes {
		if n.Kind == KindFile {
			count++
		} else {
			count += CountFiles(n.Children)
		}
	}
	return count
}

// Walk visits every node depth-first in tree order. Returning false from fn
// skips the node's children.
func Walk(nodes []TreeNode, fn func(TreeNode) bool) {
	for _, n := range nodes {
		if fn(n) && n.Kind == KindFolder {
			Walk(n.Children, fn)
		}
	}
}
