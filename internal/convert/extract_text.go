// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package convert

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// TextExtractor decodes plain text. A UTF-8 or UTF-16 byte order mark
// selects the encoding and is stripped; without one the input is UTF-8.
// Line endings are normalized to LF.
type TextExtractor struct{}

// Extract implements Extractor.
func (TextExtractor) Extract(_ context.Context, data []byte) (string, error) {
	text, err := decodeBOM(data)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(text, "\r\n", "\n"), nil
}

// RawTextExtractor is TextExtractor without line-ending changes. Fenced
// formats (JSON, XML, CSV) keep their bytes as written.
type RawTextExtractor struct{}

// Extract implements Extractor.
func (RawTextExtractor) Extract(_ context.Context, data []byte) (string, error) {
	return decodeBOM(data)
}

func decodeBOM(data []byte) (string, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}
	return string(out), nil
}

// RTFExtractor is an approximate RTF stripper: it drops nested
// destination groups, turns paragraph marks into newlines, removes
// control words and finally any leftover braces. Formatting, tables and
// escaped characters are lost.
type RTFExtractor struct{}

var (
	rtfGroup   = regexp.MustCompile(`\{\\[^{}]*\}`)
	rtfPar     = regexp.MustCompile(`\\par\b[ \n]?`)
	rtfControl = regexp.MustCompile(`\\[a-zA-Z]+-?\d*[ \n]?|\\[^a-zA-Z]`)
	rtfBraces  = regexp.MustCompile(`[{}]`)
	blankRuns  = regexp.MustCompile(`\n{3,}`)
)

// Extract implements Extractor.
func (RTFExtractor) Extract(_ context.Context, data []byte) (string, error) {
	text := string(data)
	// The document group itself starts with "{\rtf" and has to survive the
	// group pass or the whole body would go with it.
	text = rtfGroup.ReplaceAllStringFunc(text, func(group string) string {
		if strings.HasPrefix(group, `{\rtf`) {
			return group
		}
		return ""
	})
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = rtfPar.ReplaceAllString(text, "\n")
	text = rtfControl.ReplaceAllString(text, "")
	text = rtfBraces.ReplaceAllString(text, "")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text), nil
}
