// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kb

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/jeranaias/sparkrag/internal/logging"
	"github.com/jeranaias/sparkrag/internal/util"
)

// Store applies mutations to the KB directory. It keeps no tree of its own;
// callers re-scan after every successful call.
type Store struct {
	root string
	log  *zap.Logger
}

// NewStore creates a store rooted at root.
func NewStore(root string) *Store {
	return &Store{root: root, log: logging.Named("kb.store")}
}

// Root returns the KB root directory.
func (s *Store) Root() string { return s.root }

// Abs resolves a relative KB path to an absolute filesystem path. Paths that
// would escape the root are rejected with KindInvalidName.
func (s *Store) Abs(rel string) (string, error) {
	return s.resolve("resolve", rel)
}

func (s *Store) resolve(op, rel string) (string, error) {
	rootAbs, err := filepath.Abs(s.root)
	if err != nil {
		return "", wrapFS(op, s.root, err)
	}
	rel = filepath.ToSlash(rel)
	if rel == "" {
		return rootAbs, nil
	}
	if filepath.IsAbs(rel) || strings.HasPrefix(rel, "/") {
		return "", NewError(op, rel, KindInvalidName, errors.New("path must be relative to the knowledge base"))
	}
	full := filepath.Join(rootAbs, filepath.FromSlash(rel))
	inside, err := filepath.Rel(rootAbs, full)
	if err != nil || inside == ".." || strings.HasPrefix(inside, ".."+string(filepath.Separator)) {
		return "", NewError(op, rel, KindInvalidName, errors.New("path escapes the knowledge base"))
	}
	return full, nil
}

// CreateFolder creates rel and any missing parents. Creating an existing
// folder is not an error. rel is used as given; callers clean new names
// with CleanName first.
func (s *Store) CreateFolder(rel string) error {
	const op = "create folder"
	clean, err := CheckPath(op, rel)
	if err != nil {
		return err
	}
	full, err := s.resolve(op, clean)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(full, 0755); err != nil {
		return wrapFS(op, clean, err)
	}
	s.log.Info("folder created", zap.String("path", clean))
	return nil
}

// CreateFile writes content to rel, creating parent folders and replacing
// any existing file.
func (s *Store) CreateFile(rel, content string) error {
	const op = "create file"
	clean, err := CheckPath(op, rel)
	if err != nil {
		return err
	}
	full, err := s.resolve(op, clean)
	if err != nil {
		return err
	}
	if err := util.AtomicWriteFile(full, []byte(content), 0644); err != nil {
		return wrapFS(op, clean, err)
	}
	s.log.Info("file created", zap.String("path", clean), zap.Int("bytes", len(content)))
	return nil
}

// SaveFile overwrites rel with content. Unlike CreateFile the parent folder
// must already exist.
func (s *Store) SaveFile(rel, content string) error {
	const op = "save file"
	clean, err := CheckPath(op, rel)
	if err != nil {
		return err
	}
	full, err := s.resolve(op, clean)
	if err != nil {
		return err
	}
	if err := util.ReplaceFile(full, []byte(content), 0644); err != nil {
		if errors.Is(err, util.ErrParentMissing) {
			return NewError(op, clean, KindNotFound, err)
		}
		return wrapFS(op, clean, err)
	}
	s.log.Debug("file saved", zap.String("path", clean), zap.Int("bytes", len(content)))
	return nil
}

// ReadFile returns the content of the file at rel.
func (s *Store) ReadFile(rel string) (string, error) {
	const op = "read file"
	rel, err := CheckPath(op, rel)
	if err != nil {
		return "", err
	}
	full, err := s.resolve(op, rel)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", wrapFS(op, rel, err)
	}
	return string(data), nil
}

// Rename renames the entry at oldRel to newName inside the same parent and
// returns the new relative path. newName is a bare name; moving across
// folders is not supported. An existing entry with the new name is not
// overwritten.
func (s *Store) Rename(oldRel, newName string) (string, error) {
	const op = "rename"
	oldClean, err := CheckPath(op, oldRel)
	if err != nil {
		return "", err
	}
	name, err := CleanName(op, newName)
	if err != nil {
		return "", err
	}
	newRel := ChildPath(ParentPath(oldClean), name)
	if newRel == oldClean {
		return newRel, nil
	}

	oldFull, err := s.resolve(op, oldClean)
	if err != nil {
		return "", err
	}
	newFull, err := s.resolve(op, newRel)
	if err != nil {
		return "", err
	}

	if _, err := os.Lstat(oldFull); err != nil {
		return "", wrapFS(op, oldClean, err)
	}
	// Case-only renames on case-insensitive filesystems stat as existing.
	if _, err := os.Lstat(newFull); err == nil && !strings.EqualFold(oldClean, newRel) {
		return "", NewError(op, newRel, KindAlreadyExists, fs.ErrExist)
	}

	if err := os.Rename(oldFull, newFull); err != nil {
		return "", wrapFS(op, oldClean, err)
	}
	s.log.Info("renamed", zap.String("from", oldClean), zap.String("to", newRel))
	return newRel, nil
}

// Delete removes rel immediately: folders recursively, files singly. There
// is no trash and no dry run; confirmation belongs to the caller.
func (s *Store) Delete(rel string) error {
	const op = "delete"
	clean, err := CheckPath(op, rel)
	if err != nil {
		return err
	}
	full, err := s.resolve(op, clean)
	if err != nil {
		return err
	}

	info, err := os.Lstat(full)
	if err != nil {
		return wrapFS(op, clean, err)
	}
	if info.IsDir() {
		err = os.RemoveAll(full)
	} else {
		err = os.Remove(full)
	}
	if err != nil {
		return wrapFS(op, clean, err)
	}
	s.log.Info("deleted", zap.String("path", clean), zap.Bool("folder", info.IsDir()))
	return nil
}
