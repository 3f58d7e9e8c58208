// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the main screen bindings.
type KeyMap struct {
	Send        key.Binding
	Newline     key.Binding
	SwitchFocus key.Binding
	ToggleKB    key.Binding
	Browser     key.Binding
	NextAgent   key.Binding
	Attach      key.Binding
	Detach      key.Binding
	Clear       key.Binding
	Rescan      key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the default main screen bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "send"),
		),
		Newline: key.NewBinding(
			key.WithKeys("alt+enter", "ctrl+j"),
			key.WithHelp("C-j", "newline"),
		),
		SwitchFocus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "chat/KB"),
		),
		ToggleKB: key.NewBinding(
			key.WithKeys("ctrl+k"),
			key.WithHelp("C-k", "toggle KB"),
		),
		Browser: key.NewBinding(
			key.WithKeys("ctrl+b"),
			key.WithHelp("C-b", "browse KB"),
		),
		NextAgent: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("C-g", "next agent"),
		),
		Attach: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("C-o", "attach file"),
		),
		Detach: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("C-x", "remove file"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("C-l", "clear chat"),
		),
		Rescan: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("C-r", "rescan"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "scroll down"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
	}
}

// ShortHelp lists the bindings in the status bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.SwitchFocus, k.ToggleKB, k.Browser, k.NextAgent, k.Attach, k.Quit}
}
