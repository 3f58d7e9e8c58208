// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/sparkrag/internal/app"
	"github.com/jeranaias/sparkrag/internal/config"
	"github.com/jeranaias/sparkrag/internal/logging"
	"github.com/jeranaias/sparkrag/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// options holds the persistent flags and the config they resolve to.
type options struct {
	configPath string
	kbRoot     string
	jsonOut    bool
	verbose    bool

	cfg *config.Config
}

// Execute runs the command tree against os.Args.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error:"), err)
		return 1
	}
	return 0
}

// NewRootCommand builds a fresh command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "sparkrag",
		Short: "Terminal chat with a local Markdown knowledge base",
		Long: `sparkrag is a chat client for an OpenAI-compatible model server.

Notes live as plain files under the knowledge base root. Select files or
folders in the side panel (Tab) or the browser (Ctrl+B) and their content is
sent with every question.

Run without arguments to start the chat screen.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logging.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			return chat.Run(cmd.Context(), a)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "config file (default ~/.sparkrag/config.toml)")
	pf.StringVar(&opts.kbRoot, "kb", "", "knowledge base root, overrides kb.root")
	pf.BoolVar(&opts.jsonOut, "json", false, "print machine-readable JSON")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newKBCommand(opts),
		newAgentsCommand(opts),
		newConfigCommand(opts),
		newAskCommand(opts),
		newStatusCommand(opts),
		newVersionCommand(opts),
	)
	return root
}

// setup loads the config and initializes logging. The chat screen logs to
// the configured file; subcommands log warnings to stderr.
func (o *options) setup(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}

	var (
		cfg     *config.Config
		loadErr error
	)
	if o.configPath != "" {
		c, err := config.LoadFromPath(o.configPath)
		if err != nil {
			return err
		}
		cfg = c
	} else {
		c, err := config.Load()
		if c == nil {
			return err
		}
		cfg, loadErr = c, err
	}
	if o.kbRoot != "" {
		cfg.KB.Root = o.kbRoot
	}
	o.cfg = cfg

	logCfg := logging.Config{Level: "warn", Format: "console", OutputPath: "stderr"}
	if o.verbose {
		logCfg.Level = "debug"
	}
	if cmd == cmd.Root() {
		logCfg = logging.Config{
			Level:      cfg.Log.Level,
			Format:     cfg.Log.Format,
			OutputPath: config.ExpandPath(cfg.Log.Output),
		}
	}
	if err := logging.Init(logCfg); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	if loadErr != nil {
		logging.L().Warn("config file ignored, using defaults", zap.Error(loadErr))
	}
	return nil
}

// savePath is where config changes are written.
func (o *options) savePath() (string, error) {
	if o.configPath != "" {
		return o.configPath, nil
	}
	return config.ConfigPathTOML()
}

// openApp wires the application. Agents are only opened when needed so
// KB commands do not create the agent database.
func (o *options) openApp(withAgents bool) (*app.App, error) {
	var appOpts []app.Option
	if !withAgents {
		appOpts = append(appOpts, app.WithoutAgents())
	}
	return app.New(o.cfg, appOpts...)
}
