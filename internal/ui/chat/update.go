// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/sparkrag/internal/agents"
	"github.com/jeranaias/sparkrag/internal/app"
	"github.com/jeranaias/sparkrag/internal/llm"
	"github.com/jeranaias/sparkrag/internal/selection"
	"github.com/jeranaias/sparkrag/internal/ui/kbtree"
	"github.com/jeranaias/sparkrag/internal/ui/styles"
)

// Update handles all messages for the main screen and routes browser
// traffic to the open session.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		if m.screen == screenBrowser && m.browser != nil {
			return m, m.browser.Update(msg)
		}
		return m.handleKey(msg)

	// ===== KNOWLEDGE BASE =====

	case kbtree.ScannedMsg:
		if msg.Resp.Success {
			m.snap = msg.Resp.Snapshot
			m.panel.SetSnapshot(msg.Resp.Snapshot)
			m.panel.SetError("")
		} else {
			m.log.Warn("scan failed", zap.String("error", msg.Resp.Error))
			m.panel.SetError(msg.Resp.Error)
		}
		if m.browser != nil {
			return m, m.browser.Update(msg)
		}
		return m, nil

	case kbtree.ChangedMsg:
		m.log.Debug("kb changed on disk", zap.Int("paths", len(msg.Change.Paths)))
		return m, tea.Batch(kbtree.ScanCmd(m.app.Host), kbtree.WaitForChange(m.changes))

	case kbtree.SelectionMsg:
		if msg.Msg.To != app.MainWindowID {
			if m.browser != nil {
				return m, m.browser.Update(msg)
			}
			return m, nil
		}
		return m.handleMailbox(msg.Msg)

	case kbtree.OpenBrowserMsg:
		return m.openBrowser()

	case kbtree.BrowserDoneMsg:
		m.closeBrowser()
		if msg.Applied {
			m.setStatus(styles.ToastSuccess, "Selection applied: "+m.sel.Summary())
		}
		return m, nil

	// ===== CONNECTION =====

	case ConnectionMsg:
		m.checking = false
		wasConnected := m.connected
		m.connected = msg.Resp.Success
		if !m.connected && wasConnected {
			m.setStatus(styles.ToastWarning, "Lost connection to "+m.app.LLM.BaseURL())
		}
		return m, nil

	case connectionTickMsg:
		m.checking = true
		return m, tea.Batch(checkConnectionCmd(m.app), connectionTick())

	// ===== CHAT =====

	case ReplyMsg:
		return m.handleReply(msg.Resp), nil

	case AttachedMsg:
		if !msg.Resp.Success {
			m.setStatus(styles.ToastError, "Error: "+msg.Resp.Error)
			return m, nil
		}
		resp := msg.Resp
		m.attachment = &resp
		m.setStatus(styles.ToastSuccess, "Attached "+resp.Name)
		return m, nil

	case AgentsLoadedMsg:
		if msg.Err != nil {
			m.log.Warn("agent profiles unavailable", zap.Error(msg.Err))
			return m, nil
		}
		m.agents = msg.Profiles
		m.agentIdx = 0
		for i, p := range m.agents {
			if p.Name == agents.DefaultName {
				m.agentIdx = i
				break
			}
		}
		return m, nil

	case spinner.TickMsg:
		if !m.sending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	// Toasts, previews and op results belong to the browser.
	if m.browser != nil {
		return m, m.browser.Update(msg)
	}
	return m, nil
}

// handleMailbox applies a message the browser sent to the main window.
func (m Model) handleMailbox(msg selection.Message) (tea.Model, tea.Cmd) {
	switch msg.Kind {
	case selection.KindSelectionChanged:
		m.sel.Replace(msg.Payload)
	case selection.KindBrowserClosed:
		// A close from an earlier session must not hide a newer one.
		if m.browser == nil || m.browser.Done() {
			m.closeBrowser()
		}
	}
	return m, kbtree.WaitForSelection(m.inbox)
}

func (m Model) openBrowser() (tea.Model, tea.Cmd) {
	session, created, err := m.app.Browser.Open(m.sel.Payload())
	if err != nil {
		m.setStatus(styles.ToastError, "Error: "+err.Error())
		return m, nil
	}
	m.screen = screenBrowser
	if !created && m.browser != nil {
		return m, nil
	}
	m.browser = kbtree.NewBrowser(m.app.Host, session, m.theme, m.app.Config.UI.ShowSizes)
	m.browser.SetSize(m.width, m.height)
	return m, m.browser.Init()
}

func (m *Model) closeBrowser() {
	m.screen = screenChat
	m.browser = nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	if m.focus == focusAttach {
		return m.handleAttachKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.SwitchFocus):
		if m.focus == focusPanel {
			m.focus = focusInput
			m.panel.Blur()
			return m, m.input.Focus()
		}
		m.focus = focusPanel
		m.panel.Focus()
		m.input.Blur()
		return m, nil

	case key.Matches(msg, m.keys.ToggleKB):
		m.useKB = !m.useKB
		if m.useKB {
			m.setStatus(styles.ToastInfo, "Knowledge base on")
		} else {
			m.setStatus(styles.ToastInfo, "Knowledge base off")
		}
		return m, nil

	case key.Matches(msg, m.keys.Browser):
		return m.openBrowser()

	case key.Matches(msg, m.keys.NextAgent):
		return m.nextAgent(), nil

	case key.Matches(msg, m.keys.Attach):
		m.focus = focusAttach
		m.input.Blur()
		m.attachIn.SetValue("")
		return m, m.attachIn.Focus()

	case key.Matches(msg, m.keys.Detach):
		if m.attachment != nil {
			m.setStatus(styles.ToastInfo, "Removed "+m.attachment.Name)
			m.attachment = nil
		}
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		m.entries = nil
		m.history = nil
		m.refreshViewport()
		return m, nil

	case key.Matches(msg, m.keys.Rescan):
		return m, kbtree.ScanCmd(m.app.Host)

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	if m.focus == focusPanel {
		return m, m.panel.Update(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Send):
		return m.send()
	case key.Matches(msg, m.keys.Newline):
		m.input.InsertString("\n")
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleAttachKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.focus = focusInput
		m.attachIn.Blur()
		return m, m.input.Focus()
	case tea.KeyEnter:
		path := strings.TrimSpace(m.attachIn.Value())
		if path == "" {
			return m, nil
		}
		m.focus = focusInput
		m.attachIn.Blur()
		return m, tea.Batch(m.input.Focus(), attachCmd(m.app.Host, path))
	}
	var cmd tea.Cmd
	m.attachIn, cmd = m.attachIn.Update(msg)
	return m, cmd
}

// nextAgent switches to the next profile and seeds the selection from its
// default KB paths.
func (m Model) nextAgent() Model {
	if len(m.agents) == 0 {
		m.setStatus(styles.ToastWarning, "No agents configured")
		return m
	}
	m.agentIdx = (m.agentIdx + 1) % len(m.agents)
	p := m.agents[m.agentIdx]
	if len(p.DefaultKB) > 0 {
		m.sel.Replace(agents.Seed(p, m.snap.Nodes))
	}
	m.setStatus(styles.ToastInfo, fmt.Sprintf("Agent: %s (%s)", p.Name, m.sel.Summary()))
	return m
}

// send posts the typed message, wrapping an attached file around it.
func (m Model) send() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.sending {
		return m, nil
	}
	if !m.connected {
		m.setStatus(styles.ToastError, "Not connected to "+m.app.LLM.BaseURL())
		return m, nil
	}

	content := text
	e := entry{role: roleUser, content: text}
	if m.attachment != nil {
		content = llm.AttachFile(m.attachment.Name, m.attachment.Content, text)
		e.attached = m.attachment.Name
		m.attachment = nil
	}
	m.entries = append(m.entries, e)
	m.history = append(m.history, llm.NewUserMessage(content))
	m.input.Reset()
	m.sending = true
	m.refreshViewport()

	req := app.AskRequest{
		History:      append([]llm.ChatMessage(nil), m.history...),
		UseKB:        m.useKB,
		Selection:    m.sel.Payload(),
		Snapshot:     m.snap.Clone(),
		SystemPrompt: m.systemPrompt(),
	}
	return m, tea.Batch(askCmd(m.app, req), m.spinner.Tick)
}

func (m Model) handleReply(resp app.AskResponse) Model {
	m.sending = false
	if !resp.Success {
		m.entries = append(m.entries, entry{role: roleError, content: "Error: " + resp.Error})
		m.refreshViewport()
		return m
	}
	m.entries = append(m.entries, entry{role: roleAssistant, content: resp.Content})
	m.history = append(m.history, llm.NewAssistantMessage(resp.Content))
	if n := len(resp.Context.Missing); n > 0 {
		m.setStatus(styles.ToastWarning, fmt.Sprintf("%d selected %s no longer in the knowledge base", n, plural(n, "file", "files")))
	}
	m.refreshViewport()
	return m
}

func (m *Model) setStatus(level styles.ToastLevel, text string) {
	m.statusLevel = level
	m.status = text
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
