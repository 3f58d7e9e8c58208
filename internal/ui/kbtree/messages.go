// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kbtree

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/sparkrag/internal/app"
	"github.com/jeranaias/sparkrag/internal/selection"
	"github.com/jeranaias/sparkrag/internal/watch"
)

// ToastDuration is how long a status toast stays visible.
const ToastDuration = 3 * time.Second

// =============================================================================
// SCAN AND MUTATION MESSAGES
// =============================================================================

// ScannedMsg delivers a scan result. On failure the receiver keeps its last
// good snapshot.
type ScannedMsg struct {
	Resp app.ScanResponse
}

// OpDoneMsg reports a finished store operation.
type OpDoneMsg struct {
	Op   string
	Path string
	Resp app.Response
}

// ImportDoneMsg reports a finished import.
type ImportDoneMsg struct {
	Resp app.ImportResponse
}

// PreviewMsg carries a rendered note.
type PreviewMsg struct {
	Path     string
	Rendered string
	Err      error
}

// ChangedMsg is sent when the watcher saw the KB change on disk.
type ChangedMsg struct {
	Change watch.Change
}

// =============================================================================
// WINDOW MESSAGES
// =============================================================================

// SelectionMsg wraps a message delivered by the selection bus.
type SelectionMsg struct {
	Msg selection.Message
}

// OpenBrowserMsg asks the root model to show the browser.
type OpenBrowserMsg struct{}

// BrowserDoneMsg is returned by the browser when it closes.
type BrowserDoneMsg struct {
	Applied bool
}

// toastExpiredMsg clears the toast with the matching sequence number.
type toastExpiredMsg struct {
	seq int
}

// =============================================================================
// COMMANDS
// =============================================================================

// ScanCmd rescans the KB.
func ScanCmd(host *app.Host) tea.Cmd {
	return func() tea.Msg {
		return ScannedMsg{Resp: host.Scan(context.Background())}
	}
}

// WaitForSelection blocks on a bus mailbox and returns the next message. It
// returns nil once the mailbox is closed.
func WaitForSelection(ch <-chan selection.Message) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return SelectionMsg{Msg: msg}
	}
}

// WaitForChange blocks on the watcher channel. It returns nil once the
// watcher is closed.
func WaitForChange(ch <-chan watch.Change) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		change, ok := <-ch
		if !ok {
			return nil
		}
		return ChangedMsg{Change: change}
	}
}

func opCmd(op, path string, fn func() app.Response) tea.Cmd {
	return func() tea.Msg {
		return OpDoneMsg{Op: op, Path: path, Resp: fn()}
	}
}

func toastTick(seq int) tea.Cmd {
	return tea.Tick(ToastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{seq: seq}
	})
}
