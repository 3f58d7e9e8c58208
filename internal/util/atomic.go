// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrParentMissing is returned by ReplaceFile when the target directory does
// not exist.
var ErrParentMissing = errors.New("parent directory does not exist")

// AtomicWriteFile writes data to path through a temp file in the same
// directory followed by fsync and rename. Missing parent directories are
// created. On any failure the temp file is removed and the target is left
// untouched.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}
	return writeViaTemp(absPath, data, perm)
}

// ReplaceFile is AtomicWriteFile without the directory creation: it fails
// with ErrParentMissing when the parent of path does not exist.
func ReplaceFile(path string, data []byte, perm os.FileMode) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}
	info, err := os.Stat(filepath.Dir(absPath))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", filepath.Dir(absPath), ErrParentMissing)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory: %w", filepath.Dir(absPath), ErrParentMissing)
	}
	return writeViaTemp(absPath, data, perm)
}

func writeViaTemp(absPath string, data []byte, perm os.FileMode) error {
	// Same directory as the target so the rename stays on one filesystem.
	f, err := os.CreateTemp(filepath.Dir(absPath), ".tmp-")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := f.Name()

	success := false
	defer func() {
		if !success {
			f.Close()
			os.Remove(tempPath)
		}
	}()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	// RELIABILITY: data hits disk before the rename makes it visible
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync data to disk: %w", err)
	}

	// Close before rename (Windows)
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tempPath, perm); err != nil {
		return fmt.Errorf("failed to set file permissions: %w", err)
	}

	if err := os.Rename(tempPath, absPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}
