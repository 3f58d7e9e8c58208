// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/jeranaias/sparkrag/internal/agents"
	"github.com/jeranaias/sparkrag/internal/app"
	"github.com/jeranaias/sparkrag/internal/kb"
	"github.com/jeranaias/sparkrag/internal/llm"
	"github.com/jeranaias/sparkrag/internal/selection"
)

// =============================================================================
// ASK AND STATUS
// =============================================================================

func newAskCommand(o *options) *cobra.Command {
	var (
		files   []string
		folders []string
		agent   string
		attach  string
		noKB    bool
	)
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask one question and print the answer",
		Long: `Ask one question and print the answer. Selected files and folders are sent
as knowledge base context. An agent's default KB paths are used when no
selection is given.`,
		Example: `  sparkrag ask "How many leave days?" -F Policies
  sparkrag ask "Summarize this" --attach ~/report.pdf --no-kb`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, snap, err := o.scanWithAgents(cmd, agent != "")
			if err != nil {
				return err
			}
			defer a.Close()

			req := app.AskRequest{
				UseKB:     !noKB,
				Selection: selection.Payload{Files: files, Folders: folders},
				Snapshot:  snap,
			}
			if agent != "" {
				p, err := a.Agents.GetByName(cmd.Context(), agent)
				if err != nil {
					return err
				}
				req.SystemPrompt = p.SystemPrompt
				if len(files) == 0 && len(folders) == 0 {
					req.Selection = agents.Seed(p, snap.Nodes)
				}
			}

			question := strings.Join(args, " ")
			if attach != "" {
				att := a.Host.Attach(cmd.Context(), attach)
				if err := att.Err(); err != nil {
					return err
				}
				question = llm.AttachFile(att.Name, att.Content, question)
			}
			req.History = []llm.ChatMessage{llm.NewUserMessage(question)}

			resp := a.Ask(cmd.Context(), req)
			return o.emit(cmd, resp, resp.Err(), func(w io.Writer) {
				fmt.Fprintln(w, renderAnswer(w, resp.Content))
				if len(resp.Context.Files) > 0 {
					fmt.Fprintln(cmd.ErrOrStderr(), DimStyle.Render(
						fmt.Sprintf("context: %d %s", len(resp.Context.Files), plural(len(resp.Context.Files), "file"))))
				}
				for _, m := range resp.Context.Missing {
					printWarn(cmd.ErrOrStderr(), "skipped %s: not readable", m)
				}
			})
		},
	}
	cmd.Flags().StringSliceVarP(&files, "file", "f", nil, "KB file to include (repeatable)")
	cmd.Flags().StringSliceVarP(&folders, "folder", "F", nil, "KB folder to include (repeatable)")
	cmd.Flags().StringVarP(&agent, "agent", "a", "", "agent profile to answer as")
	cmd.Flags().StringVar(&attach, "attach", "", "file from disk to send with the question")
	cmd.Flags().BoolVar(&noKB, "no-kb", false, "do not send KB context")
	return cmd
}

// renderAnswer formats Markdown for a terminal and leaves piped output
// untouched.
func renderAnswer(w io.Writer, content string) string {
	if !isTerminal(w) {
		return content
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(terminalWidth()-2),
	)
	if err != nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}

// scanWithAgents is scan with the agent store opened when needed.
func (o *options) scanWithAgents(cmd *cobra.Command, withAgents bool) (*app.App, kb.Snapshot, error) {
	a, err := o.openApp(withAgents)
	if err != nil {
		return nil, kb.Snapshot{}, err
	}
	resp := a.Host.Scan(cmd.Context())
	if err := resp.Err(); err != nil {
		_ = a.Close()
		return nil, kb.Snapshot{}, err
	}
	return a, resp.Snapshot, nil
}

// statusOutput is the --json shape of status.
type statusOutput struct {
	Endpoint  string `json:"endpoint"`
	Model     string `json:"model"`
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
	KBRoot    string `json:"kbRoot"`
	Files     int    `json:"files"`
}

func newStatusCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the model server and the KB",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, snap, err := o.scan(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			conn := a.CheckConnection(cmd.Context())
			out := statusOutput{
				Endpoint:  a.LLM.BaseURL(),
				Model:     a.LLM.Model(),
				Connected: conn.Success,
				Error:     conn.Error,
				KBRoot:    snap.Root,
				Files:     kb.CountFiles(snap.Nodes),
			}
			return o.emit(cmd, out, nil, func(w io.Writer) {
				fmt.Fprintln(w, TitleStyle.Render("sparkrag status"))
				printField(w, "Endpoint", out.Endpoint)
				printField(w, "Model", out.Model)
				if out.Connected {
					printField(w, "Connection", SuccessStyle.Render("Connected"))
				} else {
					printField(w, "Connection", ErrorStyle.Render("Disconnected")+" "+DimStyle.Render(out.Error))
				}
				printField(w, "KB root", out.KBRoot)
				printField(w, "KB files", out.Files)
			})
		},
	}
}
