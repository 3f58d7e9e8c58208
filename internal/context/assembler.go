// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package context

import (
	"context"
	"errors"
	"os"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/sparkrag/internal/kb"
	"github.com/jeranaias/sparkrag/internal/logging"
	"github.com/jeranaias/sparkrag/internal/selection"
)

// TruncationMarker is appended to a file cut at the byte limit.
const TruncationMarker = "\n[truncated]"

// readParallelism bounds concurrent file reads during Build.
const readParallelism = 8

// Result is the assembled KB context.
type Result struct {
	// Text is the joined blocks, empty when nothing resolved.
	Text string

	// Files lists the included paths in block order.
	Files []string

	// Missing lists resolved paths that could not be read.
	Missing []string

	// Truncated lists paths cut at the byte limit.
	Truncated []string
}

// Empty reports whether no file made it into the context.
func (r Result) Empty() bool { return len(r.Files) == 0 }

// Assembler builds KB context strings from selections.
type Assembler struct {
	store        *kb.Store
	cache        *ContentCache
	dedupe       bool
	maxFileBytes int
	log          *zap.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithDedupe drops repeated paths from the resolved list.
func WithDedupe(on bool) Option {
	return func(a *Assembler) { a.dedupe = on }
}

// WithMaxFileBytes caps each file's content. Zero means no limit.
func WithMaxFileBytes(n int) Option {
	return func(a *Assembler) { a.maxFileBytes = n }
}

// WithCache replaces the default content cache; nil disables caching.
func WithCache(c *ContentCache) Option {
	return func(a *Assembler) { a.cache = c }
}

// NewAssembler returns an assembler reading through store.
func NewAssembler(store *kb.Store, opts ...Option) *Assembler {
	a := &Assembler{
		store: store,
		cache: NewContentCache(0, 0),
		log:   logging.Named("context"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type readResult struct {
	content   string
	missing   bool
	truncated bool
}

// Build resolves sel against snap and reads every resulting file. Unreadable
// files are listed in Result.Missing; only context cancellation is returned
// as an error.
func (a *Assembler) Build(ctx context.Context, snap kb.Snapshot, sel selection.Payload) (Result, error) {
	paths := Resolve(sel, snap.Nodes, a.dedupe)
	reads := make([]readResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(readParallelism)
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			reads[i] = a.read(p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	var res Result
	blocks := make([]string, 0, len(paths))
	for i, p := range paths {
		r := reads[i]
		if r.missing {
			res.Missing = append(res.Missing, p)
			continue
		}
		if r.truncated {
			res.Truncated = append(res.Truncated, p)
		}
		res.Files = append(res.Files, p)
		blocks = append(blocks, Block(kb.BaseName(p), r.content))
	}
	res.Text = strings.Join(blocks, "\n\n")

	a.log.Debug("context assembled",
		zap.Int("files", len(res.Files)),
		zap.Int("missing", len(res.Missing)),
		zap.Int("truncated", len(res.Truncated)),
		zap.Int("bytes", len(res.Text)),
	)
	return res, nil
}

func (a *Assembler) read(rel string) readResult {
	abs, err := a.store.Abs(rel)
	if err != nil {
		a.log.Warn("context path rejected", zap.String("path", rel), zap.Error(err))
		return readResult{missing: true}
	}
	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		if err == nil {
			err = errors.New("is a directory")
		}
		a.log.Warn("context file missing", zap.String("path", rel), zap.Error(err))
		return readResult{missing: true}
	}

	content, ok := "", false
	if a.cache != nil {
		content, ok = a.cache.Get(abs, info.ModTime(), info.Size())
	}
	if !ok {
		content, err = a.store.ReadFile(rel)
		if err != nil {
			a.log.Warn("context file unreadable", zap.String("path", rel), zap.Error(err))
			return readResult{missing: true}
		}
		if a.cache != nil {
			a.cache.Put(abs, content, info.ModTime(), info.Size())
		}
	}

	if a.maxFileBytes > 0 && len(content) > a.maxFileBytes {
		return readResult{content: cutBytes(content, a.maxFileBytes) + TruncationMarker, truncated: true}
	}
	return readResult{content: content}
}

// Block formats one file for the context string.
func Block(name, content string) string {
	return "--- " + name + " ---\n" + content
}

// cutBytes shortens s to at most n bytes without splitting a rune.
func cutBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
