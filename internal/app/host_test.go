// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/sparkrag/internal/convert"
	"github.com/jeranaias/sparkrag/internal/kb"
)

func newTestHost(t *testing.T) *Host {
	t.Helper()
	root := t.TempDir()
	return NewHost(kb.NewStore(root), kb.NewScanner(root), convert.New(root))
}

func TestImportSummary(t *testing.T) {
	tests := []struct {
		name    string
		results []convert.Result
		want    string
		level   Level
	}{
		{"none", nil, "No files to import", LevelError},
		{"one copied", []convert.Result{{Success: true}}, "Uploaded 1 item", LevelSuccess},
		{
			"some converted",
			[]convert.Result{{Success: true, Converted: true}, {Success: true}, {Success: true, Converted: true}},
			"Uploaded 3 items (2 converted)",
			LevelSuccess,
		},
		{"all failed", []convert.Result{{}, {}}, "Failed to upload files", LevelError},
		{"mixed", []convert.Result{{Success: true}, {}, {Success: true}}, "Uploaded 2, failed 1", LevelWarning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, level := ImportSummary(tt.results)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.level, level)
		})
	}
}

func TestHost_NewNote(t *testing.T) {
	h := newTestHost(t)

	require.True(t, h.CreateFolder("", "Policies").Success)

	resp := h.NewNote("Policies", "Leave")
	require.True(t, resp.Success, resp.Error)
	assert.Equal(t, "Policies/Leave.md", resp.Path)

	content := h.ReadFile(resp.Path)
	require.True(t, content.Success)
	assert.Equal(t, "# Leave\n\n", content.Content)

	dup := h.NewNote("Policies", "Leave.md")
	assert.False(t, dup.Success)
	assert.Equal(t, "AlreadyExists", dup.Kind)
}

func TestHost_FailureKinds(t *testing.T) {
	h := newTestHost(t)

	tests := []struct {
		name string
		resp Response
		kind string
	}{
		{"empty folder name", h.CreateFolder("", "  ").Response, "EmptyInput"},
		{"slash in name", h.CreateFolder("", "a/b").Response, "InvalidName"},
		{"missing file", h.ReadFile("nope.md").Response, "NotFound"},
		{"delete missing", h.Delete("nope.md"), "NotFound"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, tt.resp.Success)
			assert.Equal(t, tt.kind, tt.resp.Kind)
			assert.Error(t, tt.resp.Err())
		})
	}
}

func TestHost_RenameAndScan(t *testing.T) {
	h := newTestHost(t)
	require.True(t, h.CreateFile("a.md", "x").Success)

	renamed := h.Rename("a.md", "b.md")
	require.True(t, renamed.Success, renamed.Error)
	assert.Equal(t, "b.md", renamed.Path)

	scan := h.Scan(context.Background())
	require.True(t, scan.Success)
	require.Len(t, scan.Snapshot.Nodes, 1)
	assert.Equal(t, "b.md", scan.Snapshot.Nodes[0].Path)
}

func TestHost_Import(t *testing.T) {
	h := newTestHost(t)
	src := t.TempDir()

	md := filepath.Join(src, "notes.md")
	txt := filepath.Join(src, "memo.txt")
	bad := filepath.Join(src, "image.png")
	require.NoError(t, os.WriteFile(md, []byte("# Notes\n"), 0o644))
	require.NoError(t, os.WriteFile(txt, []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte{0x89, 'P', 'N', 'G'}, 0o644))

	resp := h.Import(context.Background(), []string{md, txt}, "")
	require.True(t, resp.Success)
	assert.Equal(t, "Uploaded 2 items (1 converted)", resp.Summary)
	assert.Equal(t, LevelSuccess, resp.Level)

	resp = h.Import(context.Background(), []string{bad}, "")
	assert.False(t, resp.Success)
	assert.Equal(t, "Failed to upload files", resp.Summary)

	resp = h.Import(context.Background(), []string{" ", ""}, "")
	assert.False(t, resp.Success)
	assert.Equal(t, "EmptyInput", resp.Kind)
}

func TestHost_Attach(t *testing.T) {
	h := newTestHost(t)
	dir := t.TempDir()

	md := filepath.Join(dir, "notes.md")
	html := filepath.Join(dir, "page.html")
	csv := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(md, []byte("# Notes\n"), 0o644))
	require.NoError(t, os.WriteFile(html, []byte("<html><body><p>Hello</p><script>x()</script></body></html>"), 0o644))
	require.NoError(t, os.WriteFile(csv, []byte("a,b\n1,2\n"), 0o644))

	tests := []struct {
		name    string
		path    string
		want    string
		kind    string
		success bool
	}{
		{"markdown as is", md, "# Notes\n", "", true},
		{"html extracted", html, "Hello", "", true},
		{"csv raw", csv, "a,b\n1,2\n", "", true},
		{"missing", filepath.Join(dir, "nope.pdf"), "", "NotFound", false},
		{"blank", "  ", "", "EmptyInput", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := h.Attach(context.Background(), tt.path)
			require.Equal(t, tt.success, resp.Success, resp.Error)
			if !tt.success {
				assert.Equal(t, tt.kind, resp.Kind)
				return
			}
			assert.Equal(t, filepath.Base(tt.path), resp.Name)
			assert.Contains(t, resp.Content, tt.want)
			assert.NotContains(t, resp.Content, "x()")
		})
	}
}
