// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "strings"

// TreeChars for tree rendering (ASCII-safe).
var TreeChars = struct {
	Pipe   string
	Tee    string
	Corner string
	Dash   string
}{
	Pipe:   "|",
	Tee:    "+",
	Corner: "`",
	Dash:   "-",
}

// RenderTreeLine creates a tree line prefix.
// isLast: true if this is the last item in the list
func RenderTreeLine(isLast bool) string {
	if isLast {
		return TreeChars.Corner + TreeChars.Dash + " "
	}
	return TreeChars.Tee + TreeChars.Dash + " "
}

// Indent returns the prefix for an entry depth levels down.
func Indent(depth int) string {
	if depth <= 0 {
		return ""
	}
	return strings.Repeat("  ", depth)
}

// Checkbox renders a selection mark.
func Checkbox(checked bool) string {
	if checked {
		return "[x]"
	}
	return "[ ]"
}

// Arrow renders the expand state of a folder.
func Arrow(expanded bool) string {
	if expanded {
		return "v"
	}
	return ">"
}

// FolderIcon and FileIcon prefix entries in the browser.
const (
	FolderIcon = "[D]"
	FileIcon   = "   "
)
