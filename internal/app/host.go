// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/jeranaias/sparkrag/internal/convert"
	"github.com/jeranaias/sparkrag/internal/kb"
	"github.com/jeranaias/sparkrag/internal/logging"
)

// Response is the common result envelope.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	// Kind names the failure class, e.g. "NotFound".
	Kind string `json:"kind,omitempty"`
}

// OK is the successful Response.
func OK() Response { return Response{Success: true} }

// Fail converts err into a failed Response.
func Fail(err error) Response {
	if err == nil {
		return OK()
	}
	return Response{Error: err.Error(), Kind: kb.KindOf(err).String()}
}

// Err returns the failure as an error, or nil on success.
func (r Response) Err() error {
	if r.Success {
		return nil
	}
	return fmt.Errorf("%s", r.Error)
}

// ScanResponse carries a snapshot.
type ScanResponse struct {
	Response
	Snapshot kb.Snapshot `json:"snapshot"`
}

// PathResponse carries the path an operation produced.
type PathResponse struct {
	Response
	Path string `json:"path,omitempty"`
}

// ContentResponse carries file content.
type ContentResponse struct {
	Response
	Path    string `json:"path"`
	Content string `json:"content"`
}

// AttachResponse carries a file attached to the next chat message.
type AttachResponse struct {
	Response
	Name    string `json:"name"`
	Content string `json:"content"`
}

// ImportResponse carries per-item import results and the status line text.
type ImportResponse struct {
	Response
	Results []convert.Result `json:"results"`
	Summary string           `json:"summary"`
	Level   Level            `json:"level"`
}

// Level grades a status message.
type Level string

// Status levels.
const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Host performs KB operations for the screens.
type Host struct {
	store     *kb.Store
	scanner   *kb.Scanner
	converter *convert.Converter
	log       *zap.Logger
}

// NewHost builds a host over an existing store, scanner and converter.
func NewHost(store *kb.Store, scanner *kb.Scanner, converter *convert.Converter) *Host {
	return &Host{
		store:     store,
		scanner:   scanner,
		converter: converter,
		log:       logging.Named("app"),
	}
}

// Root returns the KB root.
func (h *Host) Root() string { return h.store.Root() }

// Store exposes the underlying store.
func (h *Host) Store() *kb.Store { return h.store }

// Converter exposes the underlying converter.
func (h *Host) Converter() *convert.Converter { return h.converter }

// Scan reads the whole tree.
func (h *Host) Scan(ctx context.Context) ScanResponse {
	snap, err := h.scanner.Scan(ctx)
	if err != nil {
		h.log.Warn("scan failed", zap.String("root", h.store.Root()), zap.Error(err))
		return ScanResponse{Response: Fail(err)}
	}
	return ScanResponse{Response: OK(), Snapshot: snap}
}

// CreateFolder makes folder name inside parent.
func (h *Host) CreateFolder(parent, name string) PathResponse {
	clean, err := kb.CleanName("create folder", name)
	if err != nil {
		return PathResponse{Response: Fail(err)}
	}
	p := kb.ChildPath(parent, clean)
	if err := h.store.CreateFolder(p); err != nil {
		return PathResponse{Response: Fail(err)}
	}
	return PathResponse{Response: OK(), Path: p}
}

// NewNote creates a Markdown note in folder from the name typed by the
// user, following the ".md" suffix and heading convention. An existing
// note is left alone.
func (h *Host) NewNote(folder, input string) PathResponse {
	name, content, err := kb.NoteFromInput(input)
	if err != nil {
		return PathResponse{Response: Fail(err)}
	}
	p := kb.ChildPath(folder, name)
	full, err := h.store.Abs(p)
	if err != nil {
		return PathResponse{Response: Fail(err)}
	}
	if _, err := os.Lstat(full); err == nil {
		return PathResponse{Response: Fail(kb.NewError("create file", p, kb.KindAlreadyExists, fs.ErrExist))}
	}
	if err := h.store.CreateFile(p, content); err != nil {
		return PathResponse{Response: Fail(err)}
	}
	return PathResponse{Response: OK(), Path: p}
}

// CreateFile writes content to a path typed by the user, creating parents.
// The file name is cleaned like any new name.
func (h *Host) CreateFile(path, content string) Response {
	clean, err := kb.CleanPath("create file", path)
	if err != nil {
		return Fail(err)
	}
	return Fail(h.store.CreateFile(clean, content))
}

// SaveFile overwrites an existing location.
func (h *Host) SaveFile(path, content string) Response {
	return Fail(h.store.SaveFile(path, content))
}

// ReadFile returns a note's content.
func (h *Host) ReadFile(path string) ContentResponse {
	content, err := h.store.ReadFile(path)
	if err != nil {
		return ContentResponse{Response: Fail(err), Path: path}
	}
	return ContentResponse{Response: OK(), Path: path, Content: content}
}

// Rename gives path a new base name in the same folder.
func (h *Host) Rename(path, newName string) PathResponse {
	newPath, err := h.store.Rename(path, newName)
	if err != nil {
		return PathResponse{Response: Fail(err)}
	}
	return PathResponse{Response: OK(), Path: newPath}
}

// Delete removes path. Callers confirm with the user first.
func (h *Host) Delete(path string) Response {
	return Fail(h.store.Delete(path))
}

// Import converts the dropped sources into folder.
func (h *Host) Import(ctx context.Context, sources []string, folder string) ImportResponse {
	cleaned := make([]string, 0, len(sources))
	for _, s := range sources {
		if s = strings.TrimSpace(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	if len(cleaned) == 0 {
		return ImportResponse{
			Response: Fail(kb.NewError("import", folder, kb.KindEmptyInput, fmt.Errorf("no files to import"))),
			Summary:  "No files to import",
			Level:    LevelError,
		}
	}

	results := h.converter.ImportBatch(ctx, cleaned, folder)
	summary, level := ImportSummary(results)
	h.log.Info("import finished", zap.String("folder", folder), zap.String("summary", summary))

	resp := ImportResponse{Response: OK(), Results: results, Summary: summary, Level: level}
	if level == LevelError {
		resp.Response = Response{Error: summary, Kind: kb.KindIO.String()}
	}
	return resp
}

// Attach reads a file from anywhere on disk for a one-off chat attachment.
// Documents the converter can extract (PDF, DOCX, ...) are turned into
// text; everything else is read as is.
func (h *Host) Attach(ctx context.Context, path string) AttachResponse {
	path = strings.TrimSpace(path)
	if path == "" {
		return AttachResponse{Response: Fail(kb.NewError("attach", "", kb.KindEmptyInput, nil))}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return AttachResponse{Response: Fail(kb.NewError("attach", path, kb.KindOf(wrapOS(err)), err))}
	}

	name := filepath.Base(path)
	content := string(data)
	if handler, ok := h.converter.Registry().Lookup(filepath.Ext(name)); ok && !handler.Copy && handler.Fence == "" {
		text, err := handler.Extractor.Extract(ctx, data)
		if err != nil {
			return AttachResponse{Response: Fail(kb.NewError("attach", name, kb.KindExtractionFailed, err))}
		}
		content = text
	}
	h.log.Debug("file attached", zap.String("path", path), zap.Int("chars", len(content)))
	return AttachResponse{Response: OK(), Name: name, Content: content}
}

// wrapOS tags a raw filesystem error with its kb kind.
func wrapOS(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return kb.NewError("attach", "", kb.KindNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return kb.NewError("attach", "", kb.KindPermissionDenied, err)
	default:
		return err
	}
}

// ImportSummary renders the status line for an import: all succeeded,
// all failed, or a mix.
func ImportSummary(results []convert.Result) (string, Level) {
	var ok, failed, converted int
	for _, r := range results {
		if r.Success {
			ok++
		} else {
			failed++
		}
		if r.Converted {
			converted++
		}
	}

	switch {
	case len(results) == 0:
		return "No files to import", LevelError
	case failed == 0:
		msg := "Uploaded " + plural(ok, "item")
		if converted > 0 {
			msg += fmt.Sprintf(" (%d converted)", converted)
		}
		return msg, LevelSuccess
	case ok == 0:
		return "Failed to upload files", LevelError
	default:
		return fmt.Sprintf("Uploaded %d, failed %d", ok, failed), LevelWarning
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
