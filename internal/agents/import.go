// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jeranaias/sparkrag/internal/kb"
	"github.com/jeranaias/sparkrag/internal/selection"
)

// importFile is the YAML document shape. A bare list of profiles is also
// accepted.
type importFile struct {
	Agents []Profile `yaml:"agents"`
}

// ParseYAML decodes profiles from r.
func ParseYAML(r io.Reader) ([]Profile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parse agents yaml: %w", err)
	}
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
		var list []Profile
		if err := node.Content[0].Decode(&list); err != nil {
			return nil, fmt.Errorf("parse agents yaml: %w", err)
		}
		return list, nil
	}

	var f importFile
	if err := node.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse agents yaml: %w", err)
	}
	return f.Agents, nil
}

// ImportResult counts what an import did.
type ImportResult struct {
	Added   int
	Updated int
}

// Import upserts profiles by name: an existing profile with the same name
// is updated in place, others are added.
func (s *Store) Import(ctx context.Context, profiles []Profile) (ImportResult, error) {
	var res ImportResult
	for _, p := range profiles {
		existing, err := s.GetByName(ctx, p.Name)
		switch {
		case err == nil:
			p.ID = existing.ID
			if _, err := s.Update(ctx, p); err != nil {
				return res, err
			}
			res.Updated++
		case errors.Is(err, ErrNotFound):
			if _, err := s.Add(ctx, p); err != nil {
				return res, err
			}
			res.Added++
		default:
			return res, err
		}
	}
	return res, nil
}

// Seed turns p.DefaultKB into a selection. Paths that name a folder in
// nodes are selected as folders; everything else is selected as a file,
// so paths missing from the scan stay visible as stale selections.
func Seed(p Profile, nodes []kb.TreeNode) selection.Payload {
	out := selection.Payload{Files: []string{}, Folders: []string{}}
	for _, path := range p.DefaultKB {
		if path == "" {
			continue
		}
		if _, ok := kb.FindFolder(nodes, path); ok {
			out.Folders = append(out.Folders, path)
		} else {
			out.Files = append(out.Files, path)
		}
	}
	return out
}
