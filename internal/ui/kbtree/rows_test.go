// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kbtree

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jeranaias/sparkrag/internal/kb"
)

func sampleNodes() []kb.TreeNode {
	return []kb.TreeNode{
		{Name: "readme.md", Path: "readme.md", Kind: kb.KindFile, Size: 10},
		{Name: "Policies", Path: "Policies", Kind: kb.KindFolder, Children: []kb.TreeNode{
			{Name: "leave.md", Path: "Policies/leave.md", Kind: kb.KindFile, Size: 2048},
			{Name: "HR", Path: "Policies/HR", Kind: kb.KindFolder, Children: []kb.TreeNode{
				{Name: "pay.txt", Path: "Policies/HR/pay.txt", Kind: kb.KindFile},
			}},
		}},
	}
}

func rowPaths(rows []row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.node.Path
	}
	return out
}

func TestFlatten(t *testing.T) {
	tests := []struct {
		name     string
		expanded map[string]bool
		want     []string
	}{
		{"collapsed", nil, []string{"readme.md", "Policies"}},
		{
			"one level",
			map[string]bool{"Policies": true},
			[]string{"readme.md", "Policies", "Policies/leave.md", "Policies/HR"},
		},
		{
			"nested",
			map[string]bool{"Policies": true, "Policies/HR": true},
			[]string{"readme.md", "Policies", "Policies/leave.md", "Policies/HR", "Policies/HR/pay.txt"},
		},
		{
			"child expanded under collapsed parent",
			map[string]bool{"Policies/HR": true},
			[]string{"readme.md", "Policies"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rowPaths(flatten(sampleNodes(), tt.expanded))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("flatten (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFoldersFirst(t *testing.T) {
	items := sampleNodes()
	got := foldersFirst(items)
	if got[0].Path != "Policies" || got[1].Path != "readme.md" {
		t.Errorf("got %v", []string{got[0].Path, got[1].Path})
	}
	if items[0].Path != "readme.md" {
		t.Error("input was reordered")
	}
}

func TestPruneExpanded(t *testing.T) {
	expanded := map[string]bool{"Policies": true, "Gone": true, "Policies/HR": true}
	pruneExpanded(expanded, sampleNodes())
	if diff := cmp.Diff(map[string]bool{"Policies": true, "Policies/HR": true}, expanded); diff != "" {
		t.Errorf("pruneExpanded (-want +got):\n%s", diff)
	}
}

func TestFileCountLabel(t *testing.T) {
	nodes := sampleNodes()
	if got := fileCountLabel(nodes[1]); got != "2 files" {
		t.Errorf("Policies: got %q", got)
	}
	if got := fileCountLabel(nodes[1].Children[1]); got != "1 file" {
		t.Errorf("HR: got %q", got)
	}
}

func TestWindow(t *testing.T) {
	tests := []struct {
		name                 string
		offset, cursor, h, n int
		wantStart, wantEnd   int
	}{
		{"fits", 0, 2, 10, 5, 0, 5},
		{"cursor below", 0, 12, 10, 20, 3, 13},
		{"cursor above", 8, 4, 10, 20, 4, 14},
		{"clamped at end", 15, 19, 10, 20, 10, 20},
		{"empty", 0, 0, 10, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := window(tt.offset, tt.cursor, tt.h, tt.n)
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("window = [%d,%d), want [%d,%d)", start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestSplitSources(t *testing.T) {
	got := splitSources(" /a/b.pdf, ,/c/d ,")
	if diff := cmp.Diff([]string{"/a/b.pdf", "/c/d"}, got); diff != "" {
		t.Errorf("splitSources (-want +got):\n%s", diff)
	}
}
