// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kb

// Expand resolves folderPath against the tree and returns every file path
// beneath it, recursively, in tree order. An unresolvable path (for example
// a selected folder deleted since the last scan) yields an empty, non-nil
// slice; it is not an error. The empty path expands the whole root.
func Expand(folderPath string, nodes []TreeNode) []string {
	files := []string{}
	folder, ok := FindFolder(nodes, folderPath)
	if !ok {
		return files
	}
	Walk(folder.Children, func(n TreeNode) bool {
		if n.Kind == KindFile {
			files = append(files, n.Path)
		}
		return true
	})
	return files
}
