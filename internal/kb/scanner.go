// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kb

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/sparkrag/internal/logging"
)

// DefaultMaxDepth bounds recursion so a symlink cycle cannot recurse forever.
const DefaultMaxDepth = 32

// Scanner walks a KB root into a Snapshot.
type Scanner struct {
	root     string
	maxDepth int
	log      *zap.Logger
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithMaxDepth sets the recursion bound. Values below 1 are ignored.
func WithMaxDepth(depth int) ScannerOption {
	return func(s *Scanner) {
		if depth > 0 {
			s.maxDepth = depth
		}
	}
}

// NewScanner creates a scanner for root.
func NewScanner(root string, opts ...ScannerOption) *Scanner {
	s := &Scanner{
		root:     root,
		maxDepth: DefaultMaxDepth,
		log:      logging.Named("kb.scan"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the directory being scanned.
func (s *Scanner) Root() string { return s.root }

// Scan reads the whole tree. Entries whose names start with "." or "_" are
// skipped at every depth, files other than .md/.txt are invisible, and
// order is whatever the directory listing returns. A missing root fails
// with KindNotFound.
func (s *Scanner) Scan(ctx context.Context) (Snapshot, error) {
	info, err := os.Stat(s.root)
	if err != nil {
		return Snapshot{}, wrapFS("scan", s.root, err)
	}
	if !info.IsDir() {
		return Snapshot{}, NewError("scan", s.root, KindIO, errors.New("not a directory"))
	}

	start := time.Now()
	nodes, err := s.scanDir(ctx, s.root, "", 0)
	if err != nil {
		return Snapshot{}, err
	}

	s.log.Debug("scan complete",
		zap.String("root", s.root),
		zap.Int("files", CountFiles(nodes)),
		zap.Duration("took", time.Since(start)),
	)
	return Snapshot{Root: s.root, Nodes: nodes, ScannedAt: time.Now()}, nil
}

func (s *Scanner) scanDir(ctx context.Context, dir, rel string, depth int) ([]TreeNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, wrapFS("scan", dir, err)
	}

	nodes := make([]TreeNode, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if IsHidden(name) {
			continue
		}
		full := filepath.Join(dir, name)
		childRel := ChildPath(rel, name)

		// Stat follows symlinks so a linked folder is scanned as a folder.
		info, err := os.Stat(full)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				// Removed between listing and stat, or a dangling link.
				continue
			}
			return nil, wrapFS("scan", full, err)
		}

		if info.IsDir() {
			node := TreeNode{Name: name, Path: childRel, Kind: KindFolder, Children: []TreeNode{}}
			if depth+1 >= s.maxDepth {
				s.log.Warn("max scan depth reached", zap.String("path", childRel), zap.Int("depth", depth+1))
			} else {
				children, err := s.scanDir(ctx, full, childRel, depth+1)
				if err != nil {
					return nil, err
				}
				node.Children = children
			}
			nodes = append(nodes, node)
			continue
		}

		if !IsVisibleFile(name) {
			continue
		}
		nodes = append(nodes, TreeNode{Name: name, Path: childRel, Kind: KindFile, Size: info.Size()})
	}
	return nodes, nil
}

// Scan is a convenience wrapper scanning root with default options.
func Scan(ctx context.Context, root string) (Snapshot, error) {
	return NewScanner(root).Scan(ctx)
}
