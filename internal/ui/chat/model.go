// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/jeranaias/sparkrag/internal/agents"
	"github.com/jeranaias/sparkrag/internal/app"
	"github.com/jeranaias/sparkrag/internal/kb"
	"github.com/jeranaias/sparkrag/internal/llm"
	"github.com/jeranaias/sparkrag/internal/logging"
	"github.com/jeranaias/sparkrag/internal/selection"
	"github.com/jeranaias/sparkrag/internal/ui/kbtree"
	"github.com/jeranaias/sparkrag/internal/ui/styles"
	"github.com/jeranaias/sparkrag/internal/watch"
)

type screen int

const (
	screenChat screen = iota
	screenBrowser
)

type focusArea int

const (
	focusInput focusArea = iota
	focusPanel
	focusAttach
)

// entryRole is who wrote a conversation entry.
type entryRole int

const (
	roleUser entryRole = iota
	roleAssistant
	roleError
)

type entry struct {
	role    entryRole
	content string
	// attached names a file sent along with a user message.
	attached string
}

// panelWidth is the inline panel's width on wide terminals.
const panelWidth = 36

// Model is the main screen.
type Model struct {
	app   *app.App
	theme *styles.Theme
	keys  KeyMap
	log   *zap.Logger

	// Screen switch. browser is non-nil while a session is open.
	screen  screen
	browser *kbtree.Browser
	inbox   <-chan selection.Message
	changes <-chan watch.Change

	sel   *selection.State
	snap  kb.Snapshot
	panel *kbtree.Panel

	input    textarea.Model
	attachIn textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	entries    []entry
	history    []llm.ChatMessage
	attachment *app.AttachResponse

	useKB     bool
	connected bool
	checking  bool
	sending   bool

	agents   []agents.Profile
	agentIdx int

	status      string
	statusLevel styles.ToastLevel

	focus  focusArea
	width  int
	height int
}

// New creates the main screen. inbox is the main window's bus mailbox;
// changes may be nil when watching is off.
func New(a *app.App, inbox <-chan selection.Message, changes <-chan watch.Change) Model {
	theme := styles.NewTheme(a.Config.UI.Theme)
	sel := selection.NewState()

	input := textarea.New()
	input.Placeholder = "Message Spark..."
	input.ShowLineNumbers = false
	input.SetHeight(3)
	input.KeyMap.InsertNewline.SetEnabled(false)
	input.Focus()

	attachIn := textinput.New()
	attachIn.Prompt = "Attach: "
	attachIn.Placeholder = "/path/to/file.pdf"

	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = theme.HeaderToggle

	return Model{
		app:      a,
		theme:    theme,
		keys:     DefaultKeyMap(),
		log:      logging.Named("chat"),
		inbox:    inbox,
		changes:  changes,
		sel:      sel,
		panel:    kbtree.NewPanel(theme, sel, a.Config.UI.ShowSizes),
		input:    input,
		attachIn: attachIn,
		viewport: viewport.New(80, 20),
		spinner:  sp,
		renderer: newRenderer(theme, 80),
		useKB:    true,
		checking: true,
	}
}

func newRenderer(theme *styles.Theme, width int) *glamour.TermRenderer {
	style := "dark"
	if !theme.IsDark {
		style = "light"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}

// Init starts the scan, the connection check, the agent load and the
// mailbox and watcher listeners.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		kbtree.ScanCmd(m.app.Host),
		checkConnectionCmd(m.app),
		connectionTick(),
		loadAgentsCmd(m.app.Agents),
		kbtree.WaitForSelection(m.inbox),
		kbtree.WaitForChange(m.changes),
	)
}

// Selection returns the main screen's current selection.
func (m Model) Selection() selection.Payload { return m.sel.Payload() }

// UseKB reports whether the knowledge base toggle is on.
func (m Model) UseKB() bool { return m.useKB }

// BrowserOpen reports whether the browser screen is showing.
func (m Model) BrowserOpen() bool { return m.screen == screenBrowser }

func (m Model) agent() (agents.Profile, bool) {
	if m.agentIdx < 0 || m.agentIdx >= len(m.agents) {
		return agents.Profile{}, false
	}
	return m.agents[m.agentIdx], true
}

func (m Model) systemPrompt() string {
	if p, ok := m.agent(); ok && p.SystemPrompt != "" {
		return p.SystemPrompt
	}
	return llm.BasePrompt
}
