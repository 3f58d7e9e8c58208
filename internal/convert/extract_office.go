// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package convert

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/lu4p/cat/docxtxt"
)

// PDFExtractor reads the text layer of a PDF. Scanned PDFs without text
// produce an empty body.
type PDFExtractor struct{}

// Extract implements Extractor.
func (PDFExtractor) Extract(_ context.Context, data []byte) (text string, err error) {
	// The PDF reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// DOCXExtractor reads the document text of an OOXML package. Styling is
// discarded.
type DOCXExtractor struct{}

// Extract implements Extractor.
func (DOCXExtractor) Extract(_ context.Context, data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed docx: %v", r)
		}
	}()

	text, err = docxtxt.BytesToStr(data)
	if err != nil {
		return "", fmt.Errorf("extract docx text: %w", err)
	}
	return strings.TrimSpace(text), nil
}
