// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package context

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/sparkrag/internal/kb"
	"github.com/jeranaias/sparkrag/internal/selection"
)

func setupKB(t *testing.T, files map[string]string) (*kb.Store, kb.Snapshot) {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	snap, err := kb.Scan(context.Background(), root)
	require.NoError(t, err)
	return kb.NewStore(root), snap
}

func TestResolve(t *testing.T) {
	_, snap := setupKB(t, map[string]string{
		"a.md":              "a",
		"policies/hr.md":    "hr",
		"policies/it/pw.md": "pw",
		"other/x.txt":       "x",
	})

	tests := []struct {
		name   string
		sel    selection.Payload
		dedupe bool
		want   []string
	}{
		{
			name: "files then folders",
			sel:  selection.Payload{Files: []string{"a.md"}, Folders: []string{"other"}},
			want: []string{"a.md", "other/x.txt"},
		},
		{
			name: "duplicates kept by default",
			sel:  selection.Payload{Files: []string{"policies/hr.md"}, Folders: []string{"policies"}},
			want: []string{"policies/hr.md", "policies/hr.md", "policies/it/pw.md"},
		},
		{
			name:   "dedupe keeps first",
			sel:    selection.Payload{Files: []string{"policies/hr.md"}, Folders: []string{"policies"}},
			dedupe: true,
			want:   []string{"policies/hr.md", "policies/it/pw.md"},
		},
		{
			name: "missing folder expands to nothing",
			sel:  selection.Payload{Folders: []string{"gone"}},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.sel, snap.Nodes, tt.dedupe)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Resolve (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAssembler_BuildFormat(t *testing.T) {
	store, snap := setupKB(t, map[string]string{
		"notes.md":          "# Notes\nhello",
		"policies/leave.md": "Leave policy",
	})

	asm := NewAssembler(store)
	res, err := asm.Build(context.Background(), snap, selection.Payload{
		Files:   []string{"notes.md"},
		Folders: []string{"policies"},
	})
	require.NoError(t, err)

	want := "--- notes.md ---\n# Notes\nhello\n\n--- leave.md ---\nLeave policy"
	if res.Text != want {
		t.Errorf("Text =\n%q\nwant\n%q", res.Text, want)
	}
	if diff := cmp.Diff([]string{"notes.md", "policies/leave.md"}, res.Files); diff != "" {
		t.Errorf("Files (-want +got):\n%s", diff)
	}
}

// A folder deleted after selection leaves stale descendants; they read as
// missing and do not break the send.
func TestAssembler_MissingFiles(t *testing.T) {
	store, _ := setupKB(t, map[string]string{
		"keep.md":         "keep",
		"old/gone.md":     "gone",
		"old/sub/also.md": "also",
	})

	sel := selection.FromPayload(selection.Payload{
		Files:   []string{"keep.md", "old/gone.md"},
		Folders: []string{"old", "old/sub"},
	})
	require.NoError(t, store.Delete("old"))
	sel.Discard("old")

	fresh, err := kb.Scan(context.Background(), store.Root())
	require.NoError(t, err)

	res, err := NewAssembler(store).Build(context.Background(), fresh, sel.Payload())
	require.NoError(t, err)
	if res.Text != "--- keep.md ---\nkeep" {
		t.Errorf("Text = %q", res.Text)
	}
	if diff := cmp.Diff([]string{"old/gone.md"}, res.Missing); diff != "" {
		t.Errorf("Missing (-want +got):\n%s", diff)
	}
}

func TestAssembler_MaxFileBytes(t *testing.T) {
	store, snap := setupKB(t, map[string]string{
		"long.md":  strings.Repeat("é", 10),
		"short.md": "ok",
	})

	asm := NewAssembler(store, WithMaxFileBytes(5))
	res, err := asm.Build(context.Background(), snap, selection.Payload{Files: []string{"long.md", "short.md"}})
	require.NoError(t, err)

	want := "--- long.md ---\néé" + TruncationMarker + "\n\n--- short.md ---\nok"
	if res.Text != want {
		t.Errorf("Text = %q, want %q", res.Text, want)
	}
	if diff := cmp.Diff([]string{"long.md"}, res.Truncated); diff != "" {
		t.Errorf("Truncated (-want +got):\n%s", diff)
	}
}

func TestAssembler_EmptySelection(t *testing.T) {
	store, snap := setupKB(t, map[string]string{"a.md": "a"})
	res, err := NewAssembler(store).Build(context.Background(), snap, selection.Payload{})
	require.NoError(t, err)
	if !res.Empty() || res.Text != "" {
		t.Errorf("expected empty result, got %+v", res)
	}
}

func TestAssembler_Cancelled(t *testing.T) {
	store, snap := setupKB(t, map[string]string{"a.md": "a"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewAssembler(store).Build(ctx, snap, selection.Payload{Files: []string{"a.md"}}); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestAssembler_PicksUpEdits(t *testing.T) {
	store, snap := setupKB(t, map[string]string{"a.md": "first"})
	asm := NewAssembler(store)
	sel := selection.Payload{Files: []string{"a.md"}}

	res, err := asm.Build(context.Background(), snap, sel)
	require.NoError(t, err)
	require.Equal(t, "--- a.md ---\nfirst", res.Text)

	abs, err := store.Abs("a.md")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(abs, []byte("second edit"), 0o644))
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(abs, future, future))

	res, err = asm.Build(context.Background(), snap, sel)
	require.NoError(t, err)
	if res.Text != "--- a.md ---\nsecond edit" {
		t.Errorf("stale content: %q", res.Text)
	}
}

func TestContentCache(t *testing.T) {
	c := NewContentCache(2, 1000)
	now := time.Now()

	c.Put("/a", "aaa", now, 3)
	c.Put("/b", "bbb", now, 3)
	if got, ok := c.Get("/a", now, 3); !ok || got != "aaa" {
		t.Errorf("Get(/a) = %q, %v", got, ok)
	}

	// /b is least recently used and gets evicted.
	c.Put("/c", "ccc", now, 3)
	if _, ok := c.Get("/b", now, 3); ok {
		t.Error("/b should have been evicted")
	}

	// Stale stat invalidates.
	if _, ok := c.Get("/a", now.Add(time.Second), 3); ok {
		t.Error("changed mtime should miss")
	}
	if _, ok := c.Get("/a", now, 3); ok {
		t.Error("stale entry should have been removed")
	}

	// Oversized content is not cached.
	c.Put("/big", strings.Repeat("x", 200), now, 200)
	if _, ok := c.Get("/big", now, 200); ok {
		t.Error("oversized entry cached")
	}

	stats := c.Stats()
	if stats.Entries != 1 || stats.Bytes != 3 {
		t.Errorf("stats = %+v", stats)
	}

	c.Invalidate("/c")
	c.Clear()
	if c.Stats().Entries != 0 {
		t.Error("expected empty cache")
	}
}

func TestCutBytes(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 3, "hel"},
		{"héllo", 2, "h"},
		{"日本", 4, "日"},
		{"日本", 0, ""},
	}
	for _, tt := range tests {
		if got := cutBytes(tt.in, tt.n); got != tt.want {
			t.Errorf("cutBytes(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
