// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/sparkrag/internal/ui/styles"
	"github.com/jeranaias/sparkrag/internal/util"
)

// chromeHeight is the rows used by the header, attachment line, input box
// and status bar.
const chromeHeight = 8

// minPanelWidth is the terminal width below which the inline panel hides.
const minPanelWidth = 80

func (m *Model) showPanel() bool {
	return m.width >= minPanelWidth
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)

	bodyHeight := height - chromeHeight
	if bodyHeight < 3 {
		bodyHeight = 3
	}
	chatWidth := width
	if m.showPanel() {
		chatWidth = width - panelWidth
		m.panel.SetSize(panelWidth, bodyHeight)
	}
	m.viewport.Width = chatWidth
	m.viewport.Height = bodyHeight
	m.input.SetWidth(width - 4)
	m.attachIn.Width = width - 12
	m.renderer = newRenderer(m.theme, chatWidth-4)
	if m.browser != nil {
		m.browser.SetSize(width, height)
	}
	m.refreshViewport()
}

// refreshViewport re-renders the conversation and scrolls to the end.
func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderEntries())
	m.viewport.GotoBottom()
}

func (m *Model) renderEntries() string {
	t := m.theme
	if len(m.entries) == 0 {
		return t.Empty.Render(fmt.Sprintf(
			"Welcome to Spark Chat\n\nChatting with %s at %s.\nSelect knowledge base files with Tab or C-b.",
			m.app.LLM.Model(), m.app.LLM.BaseURL()))
	}

	width := m.viewport.Width - 4
	if width < 20 {
		width = 20
	}
	var parts []string
	for _, e := range m.entries {
		switch e.role {
		case roleUser:
			text := e.content
			if e.attached != "" {
				text = "[" + e.attached + "]\n" + text
			}
			parts = append(parts, t.UserBubble.Width(width).Render(text))
		case roleAssistant:
			parts = append(parts, t.AssistantBubble.Width(width).Render(m.renderMarkdown(e.content)))
		case roleError:
			parts = append(parts, t.SystemBubble.Width(width).Render(styles.RenderError(e.content)))
		}
	}
	return strings.Join(parts, "\n")
}

func (m *Model) renderMarkdown(text string) string {
	if m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimSpace(out)
}

// View renders the main screen, or the browser while one is open.
func (m Model) View() string {
	if m.screen == screenBrowser && m.browser != nil {
		return m.browser.View()
	}

	body := m.viewport.View()
	if m.showPanel() {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, m.panel.View())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderAttachment(),
		m.theme.InputContainer.Render(m.input.View()),
		m.renderStatus(),
	)
}

func (m *Model) renderHeader() string {
	t := m.theme
	var conn string
	switch {
	case m.checking && !m.connected:
		conn = t.HeaderToggle.Render("Checking...")
	case m.connected:
		conn = t.HeaderOnline.Render("Connected")
	default:
		conn = t.HeaderOffline.Render("Disconnected")
	}

	kbState := "KB off"
	if m.useKB {
		kbState = "KB on"
	}

	items := []string{
		t.HeaderBrand.Render("Spark Chat"),
		conn,
		t.HeaderToggle.Render(kbState),
		m.app.LLM.Model(),
	}
	if p, ok := m.agent(); ok {
		items = append(items, "Agent: "+p.Name)
	}
	if m.sending {
		items = append(items, m.spinner.View()+" thinking")
	}
	return t.Header.Width(m.width).Render(strings.Join(items, "  "))
}

func (m *Model) renderAttachment() string {
	if m.focus == focusAttach {
		return m.attachIn.View()
	}
	if m.attachment == nil {
		return ""
	}
	name := util.TruncateWidth(m.attachment.Name, 40)
	return m.theme.Tag.Render("Attached: "+name) + " " +
		m.theme.ShortcutDesc.Render("(C-x to remove)")
}

func (m *Model) renderStatus() string {
	t := m.theme
	if m.status != "" {
		return styles.RenderToast(m.statusLevel, m.status)
	}
	var help []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		help = append(help, t.ShortcutKey.Render(h.Key)+" "+t.ShortcutDesc.Render(h.Desc))
	}
	if m.focus == focusPanel {
		for _, b := range m.panel.ShortHelp() {
			h := b.Help()
			help = append(help, t.ShortcutKey.Render(h.Key)+" "+t.ShortcutDesc.Render(h.Desc))
		}
	}
	return t.StatusBar.Width(m.width).Render(strings.Join(help, "  "))
}
