// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kbtree

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// PANEL KEYS
// =============================================================================

// PanelKeyMap defines key bindings for the inline panel.
type PanelKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Expand   key.Binding
	Collapse key.Binding
	Toggle   key.Binding
	Browse   key.Binding
	Refresh  key.Binding
}

// DefaultPanelKeys returns the inline panel bindings.
func DefaultPanelKeys() PanelKeyMap {
	return PanelKeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j", "down"),
		),
		Expand: key.NewBinding(
			key.WithKeys("l", "right", "enter"),
			key.WithHelp("l", "expand"),
		),
		Collapse: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h", "collapse"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "space"),
			key.WithHelp("space", "select"),
		),
		Browse: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "browser"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "rescan"),
		),
	}
}

// =============================================================================
// BROWSER KEYS
// =============================================================================

// BrowserKeyMap defines key bindings for the browser screen.
type BrowserKeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Open      key.Binding
	Back      key.Binding
	Toggle    key.Binding
	NewFolder key.Binding
	NewFile   key.Binding
	Rename    key.Binding
	Delete    key.Binding
	Import    key.Binding
	Preview   key.Binding
	Clear     key.Binding
	Apply     key.Binding
	Cancel    key.Binding
}

// DefaultBrowserKeys returns the browser bindings.
func DefaultBrowserKeys() BrowserKeyMap {
	return BrowserKeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j", "down"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter", "l", "right"),
			key.WithHelp("enter", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("backspace", "h", "left"),
			key.WithHelp("bksp", "up a folder"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "space"),
			key.WithHelp("space", "select"),
		),
		NewFolder: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new folder"),
		),
		NewFile: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "new file"),
		),
		Rename: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rename"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Import: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "import"),
		),
		Preview: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "preview"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear selection"),
		),
		Apply: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "apply"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc", "q"),
			key.WithHelp("esc", "close"),
		),
	}
}

// ShortHelp lists the bindings shown in the browser footer.
func (k BrowserKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Open, k.Back, k.NewFolder, k.NewFile, k.Rename, k.Delete, k.Import, k.Preview, k.Apply, k.Cancel}
}

// ShortHelp lists the bindings shown under the panel.
func (k PanelKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Expand, k.Collapse, k.Browse}
}
