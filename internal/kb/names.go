// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kb

import (
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// visibleExts are the only file types the tree shows.
var visibleExts = map[string]bool{
	".md":  true,
	".txt": true,
}

// IsHidden reports whether an entry name is excluded from the tree.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

// IsVisibleFile reports whether a file name has a tree-visible extension.
func IsVisibleFile(name string) bool {
	return visibleExts[strings.ToLower(filepath.Ext(name))]
}

// CleanName validates a single entry name typed by the user. Blank input is
// rejected with KindEmptyInput before any filesystem call; names with path
// separators or dot segments are rejected with KindInvalidName. The result
// is NFC-normalized so the same name typed on different platforms maps to
// the same path key.
func CleanName(op, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", NewError(op, "", KindEmptyInput, nil)
	}
	name = norm.NFC.String(name)
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return "", NewError(op, name, KindInvalidName, nil)
	}
	return name, nil
}

// CheckPath validates a slash-separated path key relative to the KB root
// and returns it unchanged apart from surrounding slashes. Path keys come
// from a scan and name entries that already exist, so they are never
// trimmed or normalized; only empty, "." and ".." segments are rejected.
func CheckPath(op, rel string) (string, error) {
	rel = strings.Trim(filepath.ToSlash(rel), "/")
	if rel == "" {
		return "", NewError(op, "", KindEmptyInput, nil)
	}
	for _, part := range strings.Split(rel, "/") {
		if part == "" || part == "." || part == ".." || strings.ContainsRune(part, 0) {
			return "", NewError(op, rel, KindInvalidName, nil)
		}
	}
	return rel, nil
}

// CleanPath is CheckPath with the last segment cleaned as a new name. It
// serves paths typed by the user for entries that may not exist yet.
func CleanPath(op, rel string) (string, error) {
	rel, err := CheckPath(op, strings.TrimSpace(rel))
	if err != nil {
		return "", err
	}
	name, err := CleanName(op, path.Base(rel))
	if err != nil {
		return "", err
	}
	return ChildPath(ParentPath(rel), name), nil
}

// NoteFromInput turns the name typed in a "new file" prompt into the file
// name and initial content: ".md" is appended when missing and the note
// starts with a level-one heading of the name.
func NoteFromInput(input string) (name, content string, err error) {
	name, err = CleanName("create file", input)
	if err != nil {
		return "", "", err
	}
	title := strings.Replace(name, ".md", "", 1)
	if !strings.HasSuffix(name, ".md") {
		name += ".md"
	}
	return name, "# " + title + "\n\n", nil
}
