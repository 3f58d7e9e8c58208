// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package selection

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Payload is the wire form of a selection.
type Payload struct {
	Files   []string `json:"files"`
	Folders []string `json:"folders"`
}

// UnmarshalJSON also accepts a bare array of file paths, the form used by
// the files-only inline panel.
func (p *Payload) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var files []string
		if err := json.Unmarshal(data, &files); err != nil {
			return err
		}
		*p = Payload{Files: files}
		return nil
	}
	type plain Payload
	var out plain
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*p = Payload(out)
	return nil
}

// Clone returns a copy that shares no backing arrays with p.
func (p Payload) Clone() Payload {
	return Payload{
		Files:   append([]string{}, p.Files...),
		Folders: append([]string{}, p.Folders...),
	}
}

// pathSet is an insertion-ordered set of paths.
type pathSet struct {
	order []string
	index map[string]struct{}
}

func newPathSet() *pathSet {
	return &pathSet{index: make(map[string]struct{})}
}

func (s *pathSet) has(p string) bool {
	_, ok := s.index[p]
	return ok
}

func (s *pathSet) add(p string) bool {
	if s.has(p) {
		return false
	}
	s.index[p] = struct{}{}
	s.order = append(s.order, p)
	return true
}

func (s *pathSet) remove(p string) bool {
	if !s.has(p) {
		return false
	}
	delete(s.index, p)
	for i, existing := range s.order {
		if existing == p {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *pathSet) list() []string {
	return append([]string{}, s.order...)
}

func (s *pathSet) equal(o *pathSet) bool {
	if len(s.index) != len(o.index) {
		return false
	}
	for p := range s.index {
		if !o.has(p) {
			return false
		}
	}
	return true
}

// State is one screen's selection: a set of file paths and a set of folder
// paths, compared by exact string equality. A folder and files inside it
// may both be selected; nothing is pruned implicitly.
type State struct {
	files   *pathSet
	folders *pathSet
}

// NewState returns an empty selection.
func NewState() *State {
	return &State{files: newPathSet(), folders: newPathSet()}
}

// FromPayload builds a State from a received payload.
func FromPayload(p Payload) *State {
	s := NewState()
	s.Replace(p)
	return s
}

// Replace discards the current selection and adopts p.
func (s *State) Replace(p Payload) {
	s.files = newPathSet()
	s.folders = newPathSet()
	for _, f := range p.Files {
		s.files.add(f)
	}
	for _, f := range p.Folders {
		s.folders.add(f)
	}
}

// ToggleFile flips a file's membership and reports whether it is now
// selected.
func (s *State) ToggleFile(path string) bool {
	if s.files.remove(path) {
		return false
	}
	s.files.add(path)
	return true
}

// ToggleFolder flips a folder's membership and reports whether it is now
// selected.
func (s *State) ToggleFolder(path string) bool {
	if s.folders.remove(path) {
		return false
	}
	s.folders.add(path)
	return true
}

// SelectFile adds path to the file set.
func (s *State) SelectFile(path string) { s.files.add(path) }

// RemoveFile removes path from the file set.
func (s *State) RemoveFile(path string) { s.files.remove(path) }

// RemoveFolder removes path from the folder set.
func (s *State) RemoveFolder(path string) { s.folders.remove(path) }

// Discard drops exactly path from both sets after it was deleted.
// Descendants of a deleted folder stay selected; they expand to nothing
// and read as missing at send time.
func (s *State) Discard(path string) {
	s.files.remove(path)
	s.folders.remove(path)
}

// HasFile reports whether path is a selected file.
func (s *State) HasFile(path string) bool { return s.files.has(path) }

// HasFolder reports whether path is a selected folder.
func (s *State) HasFolder(path string) bool { return s.folders.has(path) }

// Files returns the selected files in selection order.
func (s *State) Files() []string { return s.files.list() }

// Folders returns the selected folders in selection order.
func (s *State) Folders() []string { return s.folders.list() }

// FileCount returns the number of selected files.
func (s *State) FileCount() int { return len(s.files.order) }

// FolderCount returns the number of selected folders.
func (s *State) FolderCount() int { return len(s.folders.order) }

// Empty reports whether nothing is selected.
func (s *State) Empty() bool { return s.FileCount() == 0 && s.FolderCount() == 0 }

// Clear removes everything.
func (s *State) Clear() { s.Replace(Payload{}) }

// Payload returns a copy of the selection for sending to another screen.
func (s *State) Payload() Payload {
	return Payload{Files: s.files.list(), Folders: s.folders.list()}
}

// Equal reports set equality of both the file and folder sets.
func (s *State) Equal(o *State) bool {
	return s.files.equal(o.files) && s.folders.equal(o.folders)
}

// Summary renders the selection count line, e.g. "2 folders, 3 files
// selected".
func (s *State) Summary() string {
	files, folders := s.FileCount(), s.FolderCount()
	switch {
	case folders > 0 && files > 0:
		return fmt.Sprintf("%s, %s selected", plural(folders, "folder"), plural(files, "file"))
	case folders > 0:
		return plural(folders, "folder") + " selected"
	default:
		return plural(files, "file") + " selected"
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
