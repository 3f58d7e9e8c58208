// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jeranaias/sparkrag/internal/config"
)

// =============================================================================
// CONFIG COMMANDS
// =============================================================================

func newConfigCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change configuration",
		Long: `Show or change configuration. Keys use dot notation, for example
"chat.model" or "kb.root". Environment variables with the SPARKRAG_ prefix
override the file.`,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return o.emit(cmd, o.cfg, nil, func(w io.Writer) {
					for _, key := range config.GetAllKeys() {
						v, err := o.cfg.Get(key)
						if err != nil {
							continue
						}
						fmt.Fprintf(w, "%s = %v\n", LabelStyle.Width(24).Render(key), v)
					}
				})
			},
		},
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print one value",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := o.cfg.Get(args[0])
				return o.emit(cmd, map[string]any{args[0]: v}, err, func(w io.Writer) {
					fmt.Fprintln(w, v)
				})
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Change one value and save",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return o.setConfig(cmd, args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := o.savePath()
				return o.emit(cmd, path, err, func(w io.Writer) {
					fmt.Fprintln(w, path)
				})
			},
		},
	)
	return cmd
}

func (o *options) setConfig(cmd *cobra.Command, key, value string) error {
	cfg := o.cfg.Clone()
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	path, err := o.savePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := config.SaveTOML(cfg, path); err != nil {
		return err
	}
	o.cfg = cfg

	v, _ := cfg.Get(key)
	return o.emit(cmd, map[string]any{key: v}, nil, func(w io.Writer) {
		printOK(w, "%s = %v", key, v)
	})
}
