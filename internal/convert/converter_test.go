// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package convert

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/sparkrag/internal/kb"
)

func newTestConverter(t *testing.T) (*Converter, string, string) {
	t.Helper()
	kbRoot := t.TempDir()
	srcDir := t.TempDir()
	return New(kbRoot, WithClock(fixedClock)), kbRoot, srcDir
}

func TestConvertFile_RoundTrip(t *testing.T) {
	conv, kbRoot, srcDir := newTestConverter(t)

	testCases := []struct {
		file  string
		data  []byte
		label string
		want  string
	}{
		{"notes.txt", []byte("plain text body"), "TXT", "plain text body"},
		{"page.html", []byte("<html><body><p>html body</p><script>x()</script></body></html>"), "HTML", "html body"},
		{"legacy.htm", []byte("<p>htm body</p>"), "HTML", "htm body"},
		{"memo.rtf", []byte(`{\rtf1\ansi rtf body\par}`), "RTF", "rtf body"},
		{"data.json", []byte(`{"key": "value"}`), "JSON", "```json\n{\"key\": \"value\"}\n```"},
		{"feed.xml", []byte(`<a>1</a>`), "XML", "```xml\n<a>1</a>\n```"},
		{"table.csv", []byte("a,b\n1,2\n"), "CSV", "```csv\na,b\n1,2\n```"},
		{"report.docx", minimalDOCX(t, "docx body"), "DOCX", "docx body"},
		{"scan.pdf", minimalPDF("pdf body"), "PDF", "pdf body"},
		{"UPPER.TXT", []byte("upper ext"), "TXT", "upper ext"},
	}

	for _, tc := range testCases {
		t.Run(tc.file, func(t *testing.T) {
			src := writeFile(t, filepath.Join(srcDir, tc.file), tc.data)

			res := conv.ConvertFile(context.Background(), src, "imported")
			require.True(t, res.Success, "convert failed: %s", res.Error)

			base := strings.TrimSuffix(tc.file, filepath.Ext(tc.file))
			if res.ProducedName != base+".md" {
				t.Errorf("ProducedName = %q, want %q", res.ProducedName, base+".md")
			}
			if !res.Converted {
				t.Error("Converted = false, want true")
			}
			if res.OriginalName != tc.file || res.Kind != kb.KindFile {
				t.Errorf("result = %+v", res)
			}

			content := readFile(t, filepath.Join(kbRoot, "imported", res.ProducedName))
			header := "# " + base + "\n\n*Converted from " + tc.label + " on 2025-03-14*\n\n---\n\n"
			if !strings.HasPrefix(content, header) {
				t.Errorf("content does not start with header:\n%s", content)
			}
			if !strings.Contains(content, tc.want) {
				t.Errorf("content missing %q:\n%s", tc.want, content)
			}
		})
	}
}

func TestConvertFile_FencedKeepsRawText(t *testing.T) {
	conv, kbRoot, srcDir := newTestConverter(t)
	src := writeFile(t, filepath.Join(srcDir, "table.csv"), []byte("a,b\r\n1,2\r\n"))

	res := conv.ConvertFile(context.Background(), src, "")
	require.True(t, res.Success, "convert failed: %s", res.Error)

	got := readFile(t, filepath.Join(kbRoot, "table.md"))
	if !strings.Contains(got, "```csv\na,b\r\n1,2\n```") {
		t.Errorf("fenced body changed line endings:\n%q", got)
	}
}

func TestConvertFile_MarkdownCopiedVerbatim(t *testing.T) {
	conv, kbRoot, srcDir := newTestConverter(t)
	original := []byte("# Existing\n\nNo trailing newline, **bold**, \xe2\x9c\x93")
	src := writeFile(t, filepath.Join(srcDir, "existing.md"), original)

	res := conv.ConvertFile(context.Background(), src, "")
	require.True(t, res.Success, res.Error)
	if res.Converted {
		t.Error("Converted = true for a Markdown copy")
	}

	got, err := os.ReadFile(filepath.Join(kbRoot, "existing.md"))
	require.NoError(t, err)
	if string(got) != string(original) {
		t.Errorf("copy differs:\n got %q\nwant %q", got, original)
	}

	// Converting the copy again is still byte-identical.
	res = conv.ConvertFile(context.Background(), filepath.Join(kbRoot, "existing.md"), "")
	require.True(t, res.Success, res.Error)
	got, _ = os.ReadFile(filepath.Join(kbRoot, "existing.md"))
	if string(got) != string(original) {
		t.Error("second copy changed the bytes")
	}
}

func TestConvertFile_UnsupportedHasNoSideEffect(t *testing.T) {
	conv, kbRoot, srcDir := newTestConverter(t)
	src := writeFile(t, filepath.Join(srcDir, "image.png"), []byte{0x89, 'P', 'N', 'G'})

	res := conv.ConvertFile(context.Background(), src, "new/folder")
	if res.Success {
		t.Fatal("expected failure for .png")
	}
	if !errors.Is(res.Err, kb.ErrUnsupportedFormat) {
		t.Errorf("Err = %v, want ErrUnsupportedFormat", res.Err)
	}
	if !strings.Contains(res.Error, ".png") {
		t.Errorf("Error = %q, want it to name the extension", res.Error)
	}

	entries, err := os.ReadDir(kbRoot)
	require.NoError(t, err)
	if len(entries) != 0 {
		t.Errorf("KB root has %d entries after unsupported convert, want 0", len(entries))
	}
}

func TestConvertFile_DocFallbackReason(t *testing.T) {
	conv, kbRoot, srcDir := newTestConverter(t)
	src := writeFile(t, filepath.Join(srcDir, "old.doc"), []byte("\xd0\xcf\x11\xe0\xa1\xb1\x1a\xe1 binary word"))

	res := conv.ConvertFile(context.Background(), src, "")
	if res.Success {
		t.Fatal("expected binary .doc to fail")
	}
	if res.Error != "DOC format not fully supported" {
		t.Errorf("Error = %q, want %q", res.Error, "DOC format not fully supported")
	}
	if !errors.Is(res.Err, kb.ErrExtractionFailed) {
		t.Errorf("Err = %v, want ErrExtractionFailed", res.Err)
	}
	if _, err := os.Stat(filepath.Join(kbRoot, "old.md")); !os.IsNotExist(err) {
		t.Error("failed conversion left a file behind")
	}
}

func TestConvertFile_DocThatIsOOXML(t *testing.T) {
	conv, kbRoot, srcDir := newTestConverter(t)
	src := writeFile(t, filepath.Join(srcDir, "renamed.doc"), minimalDOCX(t, "actually docx"))

	res := conv.ConvertFile(context.Background(), src, "")
	require.True(t, res.Success, res.Error)
	content := readFile(t, filepath.Join(kbRoot, "renamed.md"))
	if !strings.Contains(content, "*Converted from DOC on") || !strings.Contains(content, "actually docx") {
		t.Errorf("content = %q", content)
	}
}

func TestConvertFile_BadTargets(t *testing.T) {
	conv, kbRoot, srcDir := newTestConverter(t)
	src := writeFile(t, filepath.Join(srcDir, "a.txt"), []byte("x"))
	writeFile(t, filepath.Join(kbRoot, "blocker"), []byte("a file, not a folder"))

	testCases := []struct {
		name   string
		source string
		target string
	}{
		{"target is a file", src, "blocker"},
		{"target escapes root", src, "../outside"},
		{"missing source", filepath.Join(srcDir, "missing.txt"), ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := conv.ConvertFile(context.Background(), tc.source, tc.target)
			if res.Success {
				t.Fatal("expected failure")
			}
			if res.Error == "" || res.Err == nil {
				t.Errorf("failure without a reason: %+v", res)
			}
		})
	}

	if _, err := os.Stat(filepath.Join(filepath.Dir(kbRoot), "outside")); !os.IsNotExist(err) {
		t.Error("conversion escaped the KB root")
	}
}

func TestConvertDirectory(t *testing.T) {
	conv, kbRoot, srcDir := newTestConverter(t)
	writeFile(t, filepath.Join(srcDir, "a.txt"), []byte("alpha"))
	writeFile(t, filepath.Join(srcDir, "b.md"), []byte("# b"))
	writeFile(t, filepath.Join(srcDir, ".hidden.txt"), []byte("hidden"))
	writeFile(t, filepath.Join(srcDir, "sub", "c.html"), []byte("<p>gamma</p>"))
	writeFile(t, filepath.Join(srcDir, "sub", "deep", "d.png"), []byte("png"))
	require.NoError(t, os.MkdirAll(filepath.Join(srcDir, "emptydir"), 0755))

	report, err := conv.ConvertDirectory(context.Background(), srcDir, "batch")
	require.NoError(t, err)

	// a.txt, .hidden.txt, sub/c.html; the .md copy does not count.
	if report.Converted != 3 {
		t.Errorf("Converted = %d, want 3", report.Converted)
	}
	if len(report.Results) != 5 {
		t.Errorf("len(Results) = %d, want 5", len(report.Results))
	}
	if report.Failed() != 1 {
		t.Errorf("Failed() = %d, want 1", report.Failed())
	}

	for _, rel := range []string{"a.md", "b.md", ".hidden.md", "sub/c.md"} {
		if _, err := os.Stat(filepath.Join(kbRoot, "batch", filepath.FromSlash(rel))); err != nil {
			t.Errorf("missing %s: %v", rel, err)
		}
	}
	for _, dir := range []string{"emptydir", "sub/deep"} {
		info, err := os.Stat(filepath.Join(kbRoot, "batch", filepath.FromSlash(dir)))
		if err != nil || !info.IsDir() {
			t.Errorf("mirrored folder %s not created eagerly", dir)
		}
	}
}

func TestConvertDirectory_MissingSource(t *testing.T) {
	conv, _, srcDir := newTestConverter(t)
	_, err := conv.ConvertDirectory(context.Background(), filepath.Join(srcDir, "nope"), "x")
	if !errors.Is(err, kb.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestConvertDirectory_DestinationInsideSource(t *testing.T) {
	kbRoot := t.TempDir()
	conv := New(kbRoot, WithClock(fixedClock))
	docs := filepath.Join(kbRoot, "docs")
	writeFile(t, filepath.Join(docs, "a.md"), []byte("# a\n"))

	testCases := []struct {
		name string
		dest string
	}{
		{"same folder", "docs"},
		{"subfolder", "docs/docs"},
		{"deep subfolder", "docs/x/y"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := conv.ConvertDirectory(context.Background(), docs, tc.dest)
			if !errors.Is(err, kb.ErrInvalidName) {
				t.Fatalf("ConvertDirectory(docs, %q) error = %v, want ErrInvalidName", tc.dest, err)
			}
		})
	}

	// Dropping a KB folder onto itself fails instead of nesting copies.
	results := conv.ImportBatch(context.Background(), []string{docs}, "docs")
	require.Len(t, results, 1)
	if results[0].Success {
		t.Error("import of a folder into itself reported success")
	}
	if !strings.Contains(results[0].Error, "inside the source") {
		t.Errorf("Error = %q", results[0].Error)
	}
	entries, err := os.ReadDir(docs)
	require.NoError(t, err)
	if len(entries) != 1 {
		t.Errorf("docs has %d entries after refused import, want 1", len(entries))
	}

	// A sibling destination is fine.
	report, err := conv.ConvertDirectory(context.Background(), docs, "docs-copy")
	require.NoError(t, err)
	if len(report.Results) != 1 || !report.Results[0].Success {
		t.Errorf("sibling import results = %+v", report.Results)
	}
}

func TestImportBatch_PartialFailure(t *testing.T) {
	conv, kbRoot, srcDir := newTestConverter(t)
	sources := []string{
		writeFile(t, filepath.Join(srcDir, "one.txt"), []byte("1")),
		writeFile(t, filepath.Join(srcDir, "two.exe"), []byte("2")),
		writeFile(t, filepath.Join(srcDir, "three.md"), []byte("3")),
		writeFile(t, filepath.Join(srcDir, "four.zip"), []byte("4")),
		writeFile(t, filepath.Join(srcDir, "five.csv"), []byte("5")),
	}

	results := conv.ImportBatch(context.Background(), sources, "drops")
	require.Len(t, results, len(sources))

	var ok, failed int
	for i, res := range results {
		if res.SourcePath != sources[i] {
			t.Errorf("result %d is for %q, want %q", i, res.SourcePath, sources[i])
		}
		if res.Success {
			ok++
		} else {
			failed++
		}
	}
	if ok != 3 || failed != 2 {
		t.Errorf("ok=%d failed=%d, want 3 and 2", ok, failed)
	}

	entries, _ := os.ReadDir(filepath.Join(kbRoot, "drops"))
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	if diff := cmp.Diff([]string{"five.md", "one.md", "three.md"}, names); diff != "" {
		t.Errorf("drop folder mismatch (-want +got):\n%s", diff)
	}
}

func TestImportBatch_Folder(t *testing.T) {
	conv, kbRoot, srcDir := newTestConverter(t)
	folder := filepath.Join(srcDir, "Policies")
	writeFile(t, filepath.Join(folder, "leave.txt"), []byte("leave"))
	writeFile(t, filepath.Join(folder, "pay.md"), []byte("# pay"))
	writeFile(t, filepath.Join(folder, "logo.png"), []byte("png"))

	results := conv.ImportBatch(context.Background(), []string{folder, filepath.Join(srcDir, "ghost.pdf")}, "")
	require.Len(t, results, 2)

	res := results[0]
	if !res.Success || res.Kind != kb.KindFolder || res.ProducedName != "Policies" {
		t.Errorf("folder result = %+v", res)
	}
	if !res.Converted {
		t.Error("folder with a .txt should report Converted")
	}
	if len(res.Details) != 3 {
		t.Errorf("Details = %d, want 3", len(res.Details))
	}
	if _, err := os.Stat(filepath.Join(kbRoot, "Policies", "leave.md")); err != nil {
		t.Errorf("folder contents not converted: %v", err)
	}

	if results[1].Success || !errors.Is(results[1].Err, kb.ErrNotFound) {
		t.Errorf("missing source result = %+v", results[1])
	}
}

func TestScenario_ScratchPDFBecomesVisible(t *testing.T) {
	conv, kbRoot, _ := newTestConverter(t)
	writeFile(t, filepath.Join(kbRoot, "notes.md"), []byte(strings.Repeat("n", 10)))
	writeFile(t, filepath.Join(kbRoot, "scratch.pdf"), minimalPDF("scratch text"))

	snap, err := kb.Scan(context.Background(), kbRoot)
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"notes.md"}, fileNames(snap.Nodes)); diff != "" {
		t.Fatalf("before convert (-want +got):\n%s", diff)
	}

	res := conv.ConvertFile(context.Background(), filepath.Join(kbRoot, "scratch.pdf"), "")
	require.True(t, res.Success, res.Error)

	snap, err = kb.Scan(context.Background(), kbRoot)
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"notes.md", "scratch.md"}, fileNames(snap.Nodes)); diff != "" {
		t.Fatalf("after convert (-want +got):\n%s", diff)
	}
	if content := readFile(t, filepath.Join(kbRoot, "scratch.md")); !strings.HasPrefix(content, "# scratch") {
		t.Errorf("scratch.md starts with %q", content[:min(len(content), 20)])
	}
}

func fileNames(nodes []kb.TreeNode) []string {
	var names []string
	for _, n := range nodes {
		if n.Kind == kb.KindFile {
			names = append(names, n.Name)
		}
	}
	sort.Strings(names)
	return names
}
