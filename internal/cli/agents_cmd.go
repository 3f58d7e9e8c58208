// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/sparkrag/internal/agents"
	"github.com/jeranaias/sparkrag/internal/config"
	"github.com/jeranaias/sparkrag/internal/util"
)

// =============================================================================
// AGENT COMMANDS
// =============================================================================

func newAgentsCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "Manage agent profiles",
		Long: `Manage agent profiles. A profile has its own system prompt and a list of
KB paths that become the selection when the agent is chosen (Ctrl+G in the
chat screen).`,
	}
	cmd.AddCommand(
		newAgentsListCommand(o),
		newAgentsAddCommand(o),
		newAgentsImportCommand(o),
		newAgentsRemoveCommand(o),
	)
	return cmd
}

func (o *options) openAgents() (*agents.Store, error) {
	return agents.Open(config.ExpandPath(o.cfg.Agents.DBPath))
}

func newAgentsListCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List agent profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := o.openAgents()
			if err != nil {
				return err
			}
			defer store.Close()

			if _, err := store.EnsureDefault(cmd.Context()); err != nil {
				return err
			}
			list, err := store.List(cmd.Context())
			return o.emit(cmd, list, err, func(w io.Writer) {
				for _, p := range list {
					fmt.Fprintln(w, TitleStyle.Render(p.Name))
					if p.Description != "" {
						printField(w, "Description", p.Description)
					}
					printField(w, "Prompt", util.TruncateRunes(p.SystemPrompt, max(terminalWidth()-20, 40)))
					if len(p.DefaultKB) > 0 {
						printField(w, "Default KB", strings.Join(p.DefaultKB, ", "))
					}
				}
			})
		},
	}
}

func newAgentsAddCommand(o *options) *cobra.Command {
	var p agents.Profile
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an agent profile",
		Example: `  sparkrag agents add HR --prompt "You answer HR questions." --kb Policies/HR`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := o.openAgents()
			if err != nil {
				return err
			}
			defer store.Close()

			p.Name = args[0]
			added, err := store.Add(cmd.Context(), p)
			return o.emit(cmd, added, err, func(w io.Writer) {
				printOK(w, "Added agent %s", added.Name)
			})
		},
	}
	cmd.Flags().StringVar(&p.SystemPrompt, "prompt", agents.DefaultSystemPrompt, "system prompt")
	cmd.Flags().StringVar(&p.Description, "description", "", "short description")
	cmd.Flags().StringSliceVar(&p.DefaultKB, "kb", nil, "KB path selected with the agent (repeatable)")
	return cmd
}

func newAgentsImportCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Add or update profiles from a YAML file",
		Long: `Add or update profiles from a YAML file. Profiles are matched by name.

  agents:
    - name: HR
      system_prompt: You answer HR questions.
      default_kb: [Policies/HR, readme.md]`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			profiles, err := agents.ParseYAML(f)
			if err != nil {
				return err
			}
			store, err := o.openAgents()
			if err != nil {
				return err
			}
			defer store.Close()

			res, err := store.Import(cmd.Context(), profiles)
			return o.emit(cmd, res, err, func(w io.Writer) {
				printOK(w, "Imported agents: %d added, %d updated", res.Added, res.Updated)
			})
		},
	}
}

func newAgentsRemoveCommand(o *options) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "rm <name>",
		Short: "Delete an agent profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := o.openAgents()
			if err != nil {
				return err
			}
			defer store.Close()

			p, err := store.GetByName(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			ok, err := o.confirm(yes, "delete agent "+p.Name)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
			err = store.Delete(cmd.Context(), p.ID)
			return o.emit(cmd, p, err, func(w io.Writer) {
				printOK(w, "Deleted agent %s", p.Name)
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
