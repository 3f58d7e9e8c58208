// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package convert turns dropped or imported documents into Markdown notes
// inside the knowledge base.
//
// Dispatch is by lowercased file extension through a Registry of Handlers.
// Each handler names the provenance label written into the note and the
// Extractor that turns raw bytes into text:
//
//	.pdf               PDF text layer
//	.docx, .doc        OOXML text runs (.doc is best effort)
//	.txt               plain text, BOM aware
//	.rtf               lossy control-word stripping
//	.html, .htm        tag stripping, script/style dropped
//	.json, .xml, .csv  raw text in a fenced code block
//	.md                copied byte for byte, not wrapped
//
// Anything else fails with kb.KindUnsupportedFormat and touches nothing.
// Every note is written through a temp file and rename so a failed
// conversion never leaves a partial file behind.
//
// # Usage
//
//	conv := convert.New(kbRoot)
//	res := conv.ConvertFile(ctx, "/tmp/handbook.pdf", "policies")
//	report, err := conv.ConvertDirectory(ctx, "/tmp/exports", "imported/exports")
//	results := conv.ImportBatch(ctx, droppedPaths, currentFolder)
package convert
