// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agents

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/sparkrag/internal/kb"
	"github.com/jeranaias/sparkrag/internal/selection"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_AddGetList(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	hr, err := s.Add(ctx, Profile{
		Name:         "HR helper",
		SystemPrompt: "You answer HR questions.",
		DefaultKB:    []string{"policies/hr", "handbook.md"},
	})
	require.NoError(t, err)
	if hr.ID == "" {
		t.Fatal("expected generated ID")
	}

	_, err = s.Add(ctx, Profile{Name: "  Alpha  "})
	require.NoError(t, err)

	got, err := s.Get(ctx, hr.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(hr, got); diff != "" {
		t.Errorf("Get (-want +got):\n%s", diff)
	}

	list, err := s.List(ctx)
	require.NoError(t, err)
	var names []string
	for _, p := range list {
		names = append(names, p.Name)
	}
	if diff := cmp.Diff([]string{"Alpha", "HR helper"}, names); diff != "" {
		t.Errorf("List order (-want +got):\n%s", diff)
	}

	byName, err := s.GetByName(ctx, "hr HELPER")
	require.NoError(t, err)
	if byName.ID != hr.ID {
		t.Errorf("GetByName should be case-insensitive")
	}
}

func TestStore_Errors(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if _, err := s.Add(ctx, Profile{Name: "   "}); !errors.Is(err, ErrNameRequired) {
		t.Errorf("blank name: %v", err)
	}

	_, err := s.Add(ctx, Profile{Name: "Dup"})
	require.NoError(t, err)
	if _, err := s.Add(ctx, Profile{Name: "dup"}); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("duplicate name: %v", err)
	}

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get missing: %v", err)
	}
	if err := s.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete missing: %v", err)
	}
	if _, err := s.Update(ctx, Profile{ID: "missing", Name: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update missing: %v", err)
	}
}

func TestStore_UpdateDelete(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	p, err := s.Add(ctx, Profile{Name: "IT", DefaultKB: []string{"it"}})
	require.NoError(t, err)

	p.Description = "IT policies"
	p.DefaultKB = []string{"it", "security.md"}
	_, err = s.Update(ctx, p)
	require.NoError(t, err)

	got, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	if got.Description != "IT policies" || len(got.DefaultKB) != 2 {
		t.Errorf("update not stored: %+v", got)
	}

	require.NoError(t, s.Delete(ctx, p.ID))
	if _, err := s.Get(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("after delete: %v", err)
	}
}

func TestStore_EnsureDefault(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	p, err := s.EnsureDefault(ctx)
	require.NoError(t, err)
	if p.Name != DefaultName || p.SystemPrompt != DefaultSystemPrompt {
		t.Errorf("default profile = %+v", p)
	}

	again, err := s.EnsureDefault(ctx)
	require.NoError(t, err)
	if again.ID != p.ID {
		t.Error("EnsureDefault should not add a second profile")
	}
}

func TestStore_PersistsToDisk(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "agents.db")

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.Add(ctx, Profile{Name: "Kept"})
	require.NoError(t, err)
	require.NoError(t, s.Close())
	if err := s.Close(); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("second Close = %v", err)
	}

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	if _, err := s.GetByName(ctx, "Kept"); err != nil {
		t.Errorf("profile not persisted: %v", err)
	}
}

func TestParseYAML(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		names []string
	}{
		{
			name: "agents key",
			in: `
agents:
  - name: HR helper
    system_prompt: You answer HR questions.
    default_kb: [policies/hr, handbook.md]
  - name: IT
`,
			names: []string{"HR helper", "IT"},
		},
		{
			name:  "bare list",
			in:    "- name: One\n- name: Two\n",
			names: []string{"One", "Two"},
		},
		{
			name: "empty",
			in:   "  \n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseYAML(strings.NewReader(tt.in))
			require.NoError(t, err)
			var names []string
			for _, p := range got {
				names = append(names, p.Name)
			}
			if diff := cmp.Diff(tt.names, names); diff != "" {
				t.Errorf("names (-want +got):\n%s", diff)
			}
		})
	}

	if _, err := ParseYAML(strings.NewReader("agents: [")); err == nil {
		t.Error("expected parse error")
	}
}

func TestStore_ImportUpserts(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.Add(ctx, Profile{Name: "HR helper", Description: "old"})
	require.NoError(t, err)

	profiles, err := ParseYAML(strings.NewReader(`
agents:
  - name: HR helper
    description: new
  - name: Finance
`))
	require.NoError(t, err)

	res, err := s.Import(ctx, profiles)
	require.NoError(t, err)
	if res != (ImportResult{Added: 1, Updated: 1}) {
		t.Errorf("result = %+v", res)
	}
	hr, err := s.GetByName(ctx, "HR helper")
	require.NoError(t, err)
	if hr.Description != "new" {
		t.Errorf("description = %q", hr.Description)
	}
}

func TestSeed(t *testing.T) {
	nodes := []kb.TreeNode{
		{Name: "policies", Path: "policies", Kind: kb.KindFolder, Children: []kb.TreeNode{
			{Name: "hr", Path: "policies/hr", Kind: kb.KindFolder},
			{Name: "a.md", Path: "policies/a.md", Kind: kb.KindFile},
		}},
		{Name: "handbook.md", Path: "handbook.md", Kind: kb.KindFile},
	}
	p := Profile{DefaultKB: []string{"policies/hr", "handbook.md", "", "gone.md", "policies"}}

	got := Seed(p, nodes)
	want := selection.Payload{
		Files:   []string{"handbook.md", "gone.md"},
		Folders: []string{"policies/hr", "policies"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Seed (-want +got):\n%s", diff)
	}
}
