// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/sparkrag/internal/agents"
	"github.com/jeranaias/sparkrag/internal/app"
)

// ConnectionCheckInterval is how often the header re-probes the endpoint.
const ConnectionCheckInterval = 30 * time.Second

// =============================================================================
// CONNECTION MESSAGES
// =============================================================================

// ConnectionMsg reports a connection check.
type ConnectionMsg struct {
	Resp app.Response
}

// connectionTickMsg triggers the next check.
type connectionTickMsg struct{}

// =============================================================================
// CHAT MESSAGES
// =============================================================================

// ReplyMsg delivers the model's answer.
type ReplyMsg struct {
	Resp app.AskResponse
}

// AttachedMsg delivers a file attached to the next message.
type AttachedMsg struct {
	Resp app.AttachResponse
}

// AgentsLoadedMsg delivers the stored agent profiles.
type AgentsLoadedMsg struct {
	Profiles []agents.Profile
	Err      error
}

// =============================================================================
// COMMANDS
// =============================================================================

func checkConnectionCmd(a *app.App) tea.Cmd {
	return func() tea.Msg {
		return ConnectionMsg{Resp: a.CheckConnection(context.Background())}
	}
}

func connectionTick() tea.Cmd {
	return tea.Tick(ConnectionCheckInterval, func(time.Time) tea.Msg {
		return connectionTickMsg{}
	})
}

func askCmd(a *app.App, req app.AskRequest) tea.Cmd {
	return func() tea.Msg {
		return ReplyMsg{Resp: a.Ask(context.Background(), req)}
	}
}

func attachCmd(h *app.Host, path string) tea.Cmd {
	return func() tea.Msg {
		return AttachedMsg{Resp: h.Attach(context.Background(), path)}
	}
}

func loadAgentsCmd(store *agents.Store) tea.Cmd {
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		ctx := context.Background()
		if _, err := store.EnsureDefault(ctx); err != nil {
			return AgentsLoadedMsg{Err: err}
		}
		profiles, err := store.List(ctx)
		return AgentsLoadedMsg{Profiles: profiles, Err: err}
	}
}
