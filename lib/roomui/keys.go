// Copyright 2026 The Pointdeck Authors
// SPDX-License-Identifier: Apache-2.0

package roomui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings for the room view.
type KeyMap struct {
	// Navigation within the focused region (card rail or roster).
	Up    key.Binding
	Down  key.Binding
	Left  key.Binding
	Right key.Binding

	// Focus switching between card rail, roster, and extension panel.
	FocusToggle key.Binding

	// Voting.
	Confirm key.Binding // Cast the highlighted card / confirm a form.
	Clear   key.Binding // Clear votes, reopening the round.

	// Roster actions on the highlighted member.
	MakeVoter    key.Binding
	MakeObserver key.Binding
	Kick         key.Binding

	// Room settings form.
	Settings key.Binding

	Cancel key.Binding
	Quit   key.Binding
}

// DefaultKeyMap is the built-in key binding set. Vim-style movement
// alongside arrow keys.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Left: key.NewBinding(
		key.WithKeys("h", "left"),
		key.WithHelp("h/←", "left"),
	),
	Right: key.NewBinding(
		key.WithKeys("l", "right"),
		key.WithHelp("l/→", "right"),
	),
	FocusToggle: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("Tab", "switch pane"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("Enter", "vote"),
	),
	Clear: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "new round"),
	),
	MakeVoter: key.NewBinding(
		key.WithKeys("v"),
		key.WithHelp("v", "make voter"),
	),
	MakeObserver: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "make observer"),
	),
	Kick: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "kick"),
	),
	Settings: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "settings"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "cancel"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "leave room"),
	),
}
