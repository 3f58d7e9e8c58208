// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/sparkrag/internal/agents"
	"github.com/jeranaias/sparkrag/internal/config"
	kbcontext "github.com/jeranaias/sparkrag/internal/context"
	"github.com/jeranaias/sparkrag/internal/convert"
	"github.com/jeranaias/sparkrag/internal/kb"
	"github.com/jeranaias/sparkrag/internal/llm"
	"github.com/jeranaias/sparkrag/internal/logging"
	"github.com/jeranaias/sparkrag/internal/selection"
	"github.com/jeranaias/sparkrag/internal/watch"
)

// MainWindowID is the bus address of the main screen.
const MainWindowID = "main"

// App holds the long-lived services of one program run.
type App struct {
	Config    *config.Config
	Host      *Host
	Assembler *kbcontext.Assembler
	LLM       *llm.Client
	Agents    *agents.Store
	Bus       *selection.Bus
	Browser   *selection.Window

	log *zap.Logger
}

// Option customizes New.
type Option func(*options)

type options struct {
	skipAgents bool
	clock      func() time.Time
}

// WithoutAgents skips opening the agent database.
func WithoutAgents() Option {
	return func(o *options) { o.skipAgents = true }
}

// WithClock sets the converter's time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.clock = now }
}

// New builds the services described by cfg. The KB root is created when
// missing.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	root := cfg.KBRoot()
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create knowledge base root: %w", err)
	}

	store := kb.NewStore(root)
	scanner := kb.NewScanner(root, kb.WithMaxDepth(cfg.KB.MaxDepth))
	convOpts := []convert.Option{convert.WithDateFormat(cfg.Convert.DateFormat)}
	if o.clock != nil {
		convOpts = append(convOpts, convert.WithClock(o.clock))
	}
	converter := convert.New(root, convOpts...)

	bus := selection.NewBus()
	a := &App{
		Config: cfg,
		Host:   NewHost(store, scanner, converter),
		Assembler: kbcontext.NewAssembler(store,
			kbcontext.WithDedupe(cfg.Context.DedupeFiles),
			kbcontext.WithMaxFileBytes(cfg.Context.MaxFileBytes),
		),
		LLM: llm.NewClient(cfg.Chat.Endpoint).
			WithModel(cfg.Chat.Model).
			WithMaxTokens(cfg.Chat.MaxTokens).
			WithTemperature(cfg.Chat.Temperature).
			WithTimeout(time.Duration(cfg.Chat.TimeoutSecs) * time.Second),
		Bus:     bus,
		Browser: selection.NewWindow(bus, MainWindowID),
		log:     logging.Named("app"),
	}

	if !o.skipAgents {
		profiles, err := agents.Open(config.ExpandPath(cfg.Agents.DBPath))
		if err != nil {
			bus.Close()
			return nil, fmt.Errorf("open agent store: %w", err)
		}
		a.Agents = profiles
	}

	a.log.Info("app ready",
		zap.String("kb_root", root),
		zap.String("endpoint", cfg.Chat.Endpoint),
		zap.String("model", cfg.Chat.Model),
	)
	return a, nil
}

// NewWatcher starts a filesystem watcher on the KB root when enabled in
// the config. It returns nil when watching is off.
func (a *App) NewWatcher() (watch.FileWatcher, error) {
	if !a.Config.KB.Watch {
		return nil, nil
	}
	w, err := watch.NewFsnotifyWatcher(a.Host.Root(), watch.Options{
		MinInterval: time.Duration(a.Config.KB.RescanIntervalMs) * time.Millisecond,
	})
	if err != nil {
		return nil, err
	}
	if err := w.Watch(); err != nil {
		_ = w.Close()
		return nil, err
	}
	return w, nil
}

// Close releases the agent database and the bus.
func (a *App) Close() error {
	a.Bus.Close()
	if a.Agents != nil {
		return a.Agents.Close()
	}
	return nil
}

// AskRequest is one chat turn.
type AskRequest struct {
	// History is the conversation so far, ending with the new user message.
	History []llm.ChatMessage

	// UseKB includes the selection as context and extends the prompt.
	UseKB     bool
	Selection selection.Payload
	Snapshot  kb.Snapshot

	// SystemPrompt overrides the base persona, e.g. from an agent.
	SystemPrompt string
}

// AskResponse is the model's reply plus what context was sent.
type AskResponse struct {
	Response
	Content string
	Context kbcontext.Result
}

// Ask assembles the KB context and sends the conversation.
func (a *App) Ask(ctx context.Context, req AskRequest) AskResponse {
	base := req.SystemPrompt
	if base == "" {
		base = llm.BasePrompt
	}
	system := llm.WithKB(base, req.UseKB)

	var kbRes kbcontext.Result
	if req.UseKB {
		var err error
		kbRes, err = a.Assembler.Build(ctx, req.Snapshot, req.Selection)
		if err != nil {
			return AskResponse{Response: Fail(err)}
		}
	}

	msgs := llm.BuildMessages(system, kbRes.Text, req.History)
	resp, err := a.LLM.Chat(ctx, msgs)
	if err != nil {
		a.log.Warn("chat failed", zap.Error(err))
		return AskResponse{Response: Response{Error: err.Error(), Kind: chatErrorKind(err)}, Context: kbRes}
	}
	return AskResponse{Response: OK(), Content: resp.GetContent(), Context: kbRes}
}

// CheckConnection reports whether the model server answers.
func (a *App) CheckConnection(ctx context.Context) Response {
	if err := a.LLM.CheckConnection(ctx); err != nil {
		return Response{Error: err.Error(), Kind: chatErrorKind(err)}
	}
	return OK()
}

func chatErrorKind(err error) string {
	switch {
	case errors.Is(err, llm.ErrUnreachable):
		return "Unreachable"
	case errors.Is(err, context.DeadlineExceeded):
		return "Timeout"
	default:
		return "API"
	}
}
