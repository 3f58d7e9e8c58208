// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/sparkrag/internal/kb"
	"github.com/jeranaias/sparkrag/internal/logging"
	"github.com/jeranaias/sparkrag/internal/util"
)

// DefaultDateFormat is the date layout of the provenance line.
const DefaultDateFormat = "2006-01-02"

// Result is the outcome of converting one dropped item. Folder results
// carry the per-file outcomes of the directory conversion in Details.
type Result struct {
	SourcePath   string      `json:"sourcePath"`
	Success      bool        `json:"success"`
	Kind         kb.NodeKind `json:"type,omitempty"`
	ProducedName string      `json:"name,omitempty"`
	Converted    bool        `json:"converted"`
	OriginalName string      `json:"originalName,omitempty"`
	Error        string      `json:"error,omitempty"`
	Details      []Result    `json:"details,omitempty"`

	// Err is the structured failure behind Error.
	Err error `json:"-"`
}

// DirReport summarizes a directory conversion.
type DirReport struct {
	// Converted counts files that were transformed; Markdown copies are
	// not counted.
	Converted int
	Results   []Result
}

// Failed returns the number of failed results.
func (r DirReport) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.Success {
			n++
		}
	}
	return n
}

// Converter writes converted notes under a KB root.
type Converter struct {
	store      *kb.Store
	registry   *Registry
	now        func() time.Time
	dateFormat string
	log        *zap.Logger
}

// Option configures a Converter.
type Option func(*Converter)

// WithRegistry replaces the default format registry.
func WithRegistry(r *Registry) Option {
	return func(c *Converter) { c.registry = r }
}

// WithClock sets the time source for provenance dates.
func WithClock(now func() time.Time) Option {
	return func(c *Converter) { c.now = now }
}

// WithDateFormat sets the provenance date layout.
func WithDateFormat(layout string) Option {
	return func(c *Converter) {
		if layout != "" {
			c.dateFormat = layout
		}
	}
}

// New creates a converter writing into the KB rooted at kbRoot.
func New(kbRoot string, opts ...Option) *Converter {
	c := &Converter{
		store:      kb.NewStore(kbRoot),
		registry:   DefaultRegistry(),
		now:        time.Now,
		dateFormat: DefaultDateFormat,
		log:        logging.Named("convert"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Registry returns the format registry in use.
func (c *Converter) Registry() *Registry { return c.registry }

// ConvertFile converts sourcePath into <targetFolder>/<base>.md inside the
// KB. targetFolder is relative to the KB root; "" is the root itself.
func (c *Converter) ConvertFile(ctx context.Context, sourcePath, targetFolder string) Result {
	destDir, err := c.store.Abs(targetFolder)
	if err != nil {
		return c.fail(sourcePath, err)
	}
	return c.convertInto(ctx, sourcePath, destDir)
}

// ConvertDirectory mirrors sourceDir into destDir (relative to the KB root),
// converting every file it finds depth-first. Hidden and non-visible files
// are converted too. Per-file failures are recorded in the report and never
// stop the walk; the returned error is only for failures that prevent the
// walk itself.
func (c *Converter) ConvertDirectory(ctx context.Context, sourceDir, destDir string) (DirReport, error) {
	destAbs, err := c.store.Abs(destDir)
	if err != nil {
		return DirReport{}, err
	}
	if err := checkNotNested(sourceDir, destAbs); err != nil {
		return DirReport{}, err
	}
	var report DirReport
	if err := c.convertDir(ctx, sourceDir, destAbs, &report); err != nil {
		return report, err
	}
	c.log.Info("directory converted",
		zap.String("source", sourceDir),
		zap.String("dest", destDir),
		zap.Int("converted", report.Converted),
		zap.Int("failed", report.Failed()),
	)
	return report, nil
}

func (c *Converter) convertDir(ctx context.Context, sourceDir, destAbs string, report *DirReport) error {
	if err := os.MkdirAll(destAbs, 0755); err != nil {
		return kb.NewError("convert directory", destAbs, kb.KindIO, err)
	}

	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return kb.NewError("convert directory", sourceDir, kindFor(err), err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		src := filepath.Join(sourceDir, entry.Name())
		if entry.IsDir() {
			// A failing subfolder is recorded and its siblings still run.
			if err := c.convertDir(ctx, src, filepath.Join(destAbs, entry.Name()), report); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				res := c.fail(src, err)
				res.Kind = kb.KindFolder
				report.Results = append(report.Results, res)
			}
			continue
		}
		res := c.convertInto(ctx, src, destAbs)
		if res.Success && res.Converted {
			report.Converted++
		}
		report.Results = append(report.Results, res)
	}
	return nil
}

// errDestInsideSource rejects a directory conversion that would walk into
// its own output.
var errDestInsideSource = errors.New("destination folder is inside the source folder")

// checkNotNested fails when destAbs is sourceDir or lies beneath it.
// Symlinks are resolved on the longest existing prefix of each path.
func checkNotNested(sourceDir, destAbs string) error {
	src, err := realPath(sourceDir)
	if err != nil {
		return kb.NewError("convert directory", sourceDir, kindFor(err), err)
	}
	dst, err := realPath(destAbs)
	if err != nil {
		return kb.NewError("convert directory", destAbs, kindFor(err), err)
	}
	rel, err := filepath.Rel(src, dst)
	if err != nil {
		return nil
	}
	if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
		return kb.NewError("convert directory", sourceDir, kb.KindInvalidName, errDestInsideSource)
	}
	return nil
}

// realPath makes p absolute and resolves symlinks in the part of it that
// exists. The missing tail is appended unchanged.
func realPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	var tail []string
	for dir := abs; ; dir = filepath.Dir(dir) {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			return filepath.Join(append([]string{resolved}, tail...)...), nil
		}
		if parent := filepath.Dir(dir); parent == dir {
			return abs, nil
		}
		tail = append([]string{filepath.Base(dir)}, tail...)
	}
}

// ImportBatch handles a drop of files and folders onto targetFolder. It
// returns one result per source in order; folders are converted with
// ConvertDirectory into a subfolder of the same name.
func (c *Converter) ImportBatch(ctx context.Context, sources []string, targetFolder string) []Result {
	results := make([]Result, 0, len(sources))
	for _, src := range sources {
		info, err := os.Stat(src)
		if err != nil {
			results = append(results, c.fail(src, kb.NewError("import", src, kindFor(err), err)))
			continue
		}
		if !info.IsDir() {
			results = append(results, c.ConvertFile(ctx, src, targetFolder))
			continue
		}

		name := filepath.Base(src)
		report, err := c.ConvertDirectory(ctx, src, kb.ChildPath(strings.Trim(targetFolder, "/"), name))
		res := Result{
			SourcePath:   src,
			Kind:         kb.KindFolder,
			ProducedName: name,
			OriginalName: name,
			Details:      report.Results,
		}
		if err != nil {
			res.Error = reason(err)
			res.Err = err
		} else {
			res.Success = true
			res.Converted = report.Converted > 0
		}
		results = append(results, res)
	}
	return results
}

// convertInto converts one file into the absolute directory destDir.
func (c *Converter) convertInto(ctx context.Context, sourcePath, destDir string) Result {
	originalName := filepath.Base(sourcePath)
	ext := filepath.Ext(originalName)

	handler, ok := c.registry.Lookup(ext)
	if !ok {
		return c.fail(sourcePath, kb.NewError("convert", originalName, kb.KindUnsupportedFormat,
			fmt.Errorf("unsupported file type: %s", strings.ToLower(ext))))
	}

	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return c.fail(sourcePath, kb.NewError("convert", sourcePath, kindFor(err), err))
	}

	base := strings.TrimSuffix(originalName, ext)
	producedName := base + ".md"
	destPath := filepath.Join(destDir, producedName)

	if handler.Copy {
		if err := util.AtomicWriteFile(destPath, data, 0644); err != nil {
			return c.fail(sourcePath, kb.NewError("copy", producedName, kb.KindIO, err))
		}
		c.log.Debug("markdown copied", zap.String("source", sourcePath), zap.String("dest", destPath))
		return Result{
			SourcePath:   sourcePath,
			Success:      true,
			Kind:         kb.KindFile,
			ProducedName: producedName,
			OriginalName: originalName,
		}
	}

	text, err := handler.Extractor.Extract(ctx, data)
	if err != nil {
		if handler.FailureReason != "" {
			err = fmt.Errorf("%s: %w", handler.FailureReason, err)
			return c.failReason(sourcePath, handler.FailureReason,
				kb.NewError("convert", originalName, kb.KindExtractionFailed, err))
		}
		return c.fail(sourcePath, kb.NewError("convert", originalName, kb.KindExtractionFailed, err))
	}

	if handler.Fence != "" {
		text = "```" + handler.Fence + "\n" + strings.TrimRight(text, "\r\n") + "\n```"
	}
	note := c.wrap(base, handler.Label, text)

	if err := util.AtomicWriteFile(destPath, []byte(note), 0644); err != nil {
		return c.fail(sourcePath, kb.NewError("convert", producedName, kb.KindIO, err))
	}

	c.log.Info("document converted",
		zap.String("source", sourcePath),
		zap.String("dest", destPath),
		zap.String("format", handler.Label),
		zap.Int("chars", len(text)),
	)
	return Result{
		SourcePath:   sourcePath,
		Success:      true,
		Kind:         kb.KindFile,
		ProducedName: producedName,
		Converted:    true,
		OriginalName: originalName,
	}
}

// wrap lays out a converted note: title, provenance, rule, body.
func (c *Converter) wrap(title, label, body string) string {
	var sb strings.Builder
	sb.WriteString("# ")
	sb.WriteString(title)
	sb.WriteString("\n\n*Converted from ")
	sb.WriteString(label)
	sb.WriteString(" on ")
	sb.WriteString(c.now().Format(c.dateFormat))
	sb.WriteString("*\n\n---\n\n")
	sb.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		sb.WriteString("\n")
	}
	return sb.String()
}

func (c *Converter) fail(sourcePath string, err error) Result {
	return c.failReason(sourcePath, reason(err), err)
}

func (c *Converter) failReason(sourcePath, msg string, err error) Result {
	c.log.Warn("conversion failed", zap.String("source", sourcePath), zap.Error(err))
	return Result{
		SourcePath:   sourcePath,
		Kind:         kb.KindFile,
		OriginalName: filepath.Base(sourcePath),
		Error:        msg,
		Err:          err,
	}
}

// reason returns the user-facing message of err without the op prefix.
func reason(err error) string {
	var kerr *kb.Error
	if errors.As(err, &kerr) && kerr.Err != nil {
		return kerr.Err.Error()
	}
	return err.Error()
}

func kindFor(err error) kb.ErrorKind {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return kb.KindNotFound
	case errors.Is(err, os.ErrPermission):
		return kb.KindPermissionDenied
	}
	return kb.KindIO
}
