// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/sparkrag/internal/app"
	"github.com/jeranaias/sparkrag/internal/logging"
	"github.com/jeranaias/sparkrag/internal/watch"
)

// Run shows the chat screen until the user quits or ctx is cancelled.
func Run(ctx context.Context, a *app.App) error {
	log := logging.Named("chat")

	inbox, err := a.Bus.Subscribe(app.MainWindowID)
	if err != nil {
		return fmt.Errorf("subscribe main window: %w", err)
	}
	defer a.Bus.Unsubscribe(app.MainWindowID)

	var changes <-chan watch.Change
	w, err := a.NewWatcher()
	if err != nil {
		// The tree still refreshes on C-r.
		log.Warn("kb watcher disabled", zap.Error(err))
	} else if w != nil {
		defer w.Close()
		changes = w.Changes()
	}

	p := tea.NewProgram(New(a, inbox, changes), tea.WithAltScreen())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("run chat: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		p.Quit()
		return nil
	})
	return g.Wait()
}
