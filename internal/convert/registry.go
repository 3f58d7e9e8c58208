// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package convert

import (
	"context"
	"sort"
	"strings"
)

// Extractor turns raw document bytes into plain text.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, data []byte) (string, error)

// Extract calls f.
func (f ExtractorFunc) Extract(ctx context.Context, data []byte) (string, error) {
	return f(ctx, data)
}

// Handler describes how one extension is converted.
type Handler struct {
	// Label is the provenance name in "Converted from <Label> on <date>".
	Label string

	// Extractor produces the note body. Unused when Copy is set.
	Extractor Extractor

	// Fence wraps the extracted text in a fenced code block tagged with
	// this language when non-empty.
	Fence string

	// Copy writes the source bytes unchanged and reports Converted=false.
	Copy bool

	// FailureReason replaces the extractor's error message when set.
	FailureReason string
}

// Registry maps normalized extensions (".pdf") to handlers.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// DefaultRegistry returns the registry with every supported format.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	text := TextExtractor{}

	r.Register(".pdf", Handler{Label: "PDF", Extractor: PDFExtractor{}})
	r.Register(".docx", Handler{Label: "DOCX", Extractor: DOCXExtractor{}})
	r.Register(".doc", Handler{
		Label:         "DOC",
		Extractor:     DOCXExtractor{},
		FailureReason: "DOC format not fully supported",
	})
	r.Register(".txt", Handler{Label: "TXT", Extractor: text})
	r.Register(".rtf", Handler{Label: "RTF", Extractor: RTFExtractor{}})
	r.Register(".md", Handler{Copy: true})
	r.Register(".html", Handler{Label: "HTML", Extractor: HTMLExtractor{}})
	r.Register(".htm", Handler{Label: "HTML", Extractor: HTMLExtractor{}})
	for _, ext := range []string{"json", "xml", "csv"} {
		r.Register("."+ext, Handler{Label: strings.ToUpper(ext), Extractor: RawTextExtractor{}, Fence: ext})
	}
	return r
}

// Register installs h for ext, replacing any existing handler.
func (r *Registry) Register(ext string, h Handler) {
	r.handlers[normalizeExt(ext)] = h
}

// Lookup returns the handler for ext. The second result is false for
// unsupported extensions.
func (r *Registry) Lookup(ext string) (Handler, bool) {
	h, ok := r.handlers[normalizeExt(ext)]
	return h, ok
}

// Extensions lists the registered extensions, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.handlers))
	for ext := range r.handlers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
