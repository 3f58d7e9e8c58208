// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kbtree

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/sparkrag/internal/kb"
	"github.com/jeranaias/sparkrag/internal/selection"
	"github.com/jeranaias/sparkrag/internal/ui/styles"
	"github.com/jeranaias/sparkrag/internal/util"
)

// Panel is the inline KB tree of the main screen. It selects files only;
// folder selections made in the browser are shown but not editable here.
type Panel struct {
	theme *styles.Theme
	keys  PanelKeyMap
	sel   *selection.State

	nodes    []kb.TreeNode
	loaded   bool
	expanded map[string]bool
	rows     []row
	cursor   int
	offset   int

	width     int
	height    int
	focused   bool
	showSizes bool
	err       string
}

// NewPanel creates a panel editing sel.
func NewPanel(theme *styles.Theme, sel *selection.State, showSizes bool) *Panel {
	return &Panel{
		theme:     theme,
		keys:      DefaultPanelKeys(),
		sel:       sel,
		expanded:  make(map[string]bool),
		showSizes: showSizes,
	}
}

// SetSize sets the panel's outer dimensions.
func (p *Panel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// Focus gives the panel keyboard focus.
func (p *Panel) Focus() { p.focused = true }

// Blur removes keyboard focus.
func (p *Panel) Blur() { p.focused = false }

// Focused reports whether the panel has focus.
func (p *Panel) Focused() bool { return p.focused }

// SetSnapshot replaces the tree, keeping expansion and the cursor's entry
// where they still exist.
func (p *Panel) SetSnapshot(snap kb.Snapshot) {
	var current string
	if r, ok := p.current(); ok {
		current = r.node.Path
	}

	p.nodes = snap.Nodes
	p.loaded = true
	p.err = ""
	pruneExpanded(p.expanded, p.nodes)
	p.rows = flatten(p.nodes, p.expanded)

	if i := indexOf(p.rows, current); i >= 0 {
		p.cursor = i
	}
	p.cursor = clamp(p.cursor, 0, len(p.rows)-1)
}

// ShortHelp lists the panel bindings for the host's status bar.
func (p *Panel) ShortHelp() []key.Binding { return p.keys.ShortHelp() }

// SetError records a failed scan. The last good tree stays visible.
func (p *Panel) SetError(msg string) { p.err = msg }

func (p *Panel) current() (row, bool) {
	if p.cursor < 0 || p.cursor >= len(p.rows) {
		return row{}, false
	}
	return p.rows[p.cursor], true
}

// Update handles a key while the panel is focused.
func (p *Panel) Update(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, p.keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
	case key.Matches(msg, p.keys.Down):
		if p.cursor < len(p.rows)-1 {
			p.cursor++
		}
	case key.Matches(msg, p.keys.Expand):
		if r, ok := p.current(); ok && r.node.IsFolder() {
			p.setExpanded(r.node.Path, true)
		}
	case key.Matches(msg, p.keys.Collapse):
		p.collapse()
	case key.Matches(msg, p.keys.Toggle):
		r, ok := p.current()
		if !ok {
			return nil
		}
		if r.node.IsFolder() {
			p.setExpanded(r.node.Path, !p.expanded[r.node.Path])
			return nil
		}
		p.sel.ToggleFile(r.node.Path)
	case key.Matches(msg, p.keys.Browse):
		return func() tea.Msg { return OpenBrowserMsg{} }
	}
	return nil
}

func (p *Panel) setExpanded(path string, on bool) {
	if on {
		p.expanded[path] = true
	} else {
		delete(p.expanded, path)
	}
	p.rows = flatten(p.nodes, p.expanded)
	if i := indexOf(p.rows, path); i >= 0 {
		p.cursor = i
	}
}

// collapse closes the folder under the cursor, or moves to its parent.
func (p *Panel) collapse() {
	r, ok := p.current()
	if !ok {
		return
	}
	if r.node.IsFolder() && p.expanded[r.node.Path] {
		p.setExpanded(r.node.Path, false)
		return
	}
	if parent := kb.ParentPath(r.node.Path); parent != "" {
		if i := indexOf(p.rows, parent); i >= 0 {
			p.cursor = i
		}
	}
}

// View renders the panel.
func (p *Panel) View() string {
	t := p.theme
	var b strings.Builder

	b.WriteString(t.PanelTitle.Render("Knowledge Base"))
	b.WriteString("\n")
	b.WriteString(t.Summary.Render(p.sel.Summary()))
	b.WriteString("\n\n")

	inner := p.width - 4
	if inner < 10 {
		inner = 10
	}
	listHeight := p.height - 6
	if p.err != "" {
		listHeight--
	}

	switch {
	case !p.loaded && p.err == "":
		b.WriteString(t.Empty.Render("Loading..."))
	case len(p.rows) == 0:
		b.WriteString(t.Empty.Render("Knowledge base is empty"))
	default:
		start, end := window(p.offset, p.cursor, listHeight, len(p.rows))
		p.offset = start
		for i := start; i < end; i++ {
			b.WriteString(p.renderRow(p.rows[i], i == p.cursor, inner))
			if i < end-1 {
				b.WriteString("\n")
			}
		}
	}

	if p.err != "" {
		b.WriteString("\n")
		b.WriteString(styles.RenderError(p.err))
	}

	style := t.Panel
	if p.focused {
		style = style.BorderForeground(styles.Purple)
	}
	if p.width > 2 {
		style = style.Width(p.width - 2)
	}
	return style.Render(b.String())
}

func (p *Panel) renderRow(r row, isCursor bool, width int) string {
	t := p.theme
	n := r.node

	var mark, meta string
	nameStyle := t.TreeFile
	if n.IsFolder() {
		mark = styles.Arrow(p.expanded[n.Path])
		if p.sel.HasFolder(n.Path) {
			mark += "*"
		} else {
			mark += " "
		}
		nameStyle = t.TreeFolder
	} else {
		mark = styles.Checkbox(p.sel.HasFile(n.Path))
		if p.sel.HasFile(n.Path) {
			nameStyle = t.TreeSelected
		}
		if p.showSizes {
			meta = " " + util.FormatSize(n.Size)
		}
	}

	prefix := styles.Indent(r.depth) + mark + " "
	avail := width - util.StringWidth(prefix) - util.StringWidth(meta)
	name := util.TruncateWidth(n.Name, avail)

	line := prefix + nameStyle.Render(name) + t.TreeMeta.Render(meta)
	if isCursor && p.focused {
		return t.TreeCursor.Render(prefix+name) + t.TreeMeta.Render(meta)
	}
	return line
}
