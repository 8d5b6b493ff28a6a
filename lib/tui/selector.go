// Copyright 2026 The Pointdeck Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Option is a single selectable item in a Selector.
type Option struct {
	Label string // Display text.
	Value string // Wire value submitted on selection.
}

// Selector is a keyboard-driven pick list used by the room settings
// form (card set choice) and the member action menu. The owning model
// routes input to it while it is open.
type Selector struct {
	Options []Option
	Cursor  int
}

// NewSelector creates a selector with the cursor on the option whose
// value matches current, or on the first option.
func NewSelector(options []Option, current string) *Selector {
	selector := &Selector{Options: options}
	for index, option := range options {
		if option.Value == current {
			selector.Cursor = index
			break
		}
	}
	return selector
}

// MoveUp moves the cursor up by one, wrapping to the bottom.
func (s *Selector) MoveUp() {
	s.Cursor--
	if s.Cursor < 0 {
		s.Cursor = len(s.Options) - 1
	}
}

// MoveDown moves the cursor down by one, wrapping to the top.
func (s *Selector) MoveDown() {
	s.Cursor++
	if s.Cursor >= len(s.Options) {
		s.Cursor = 0
	}
}

// Selected returns the currently highlighted option.
func (s *Selector) Selected() Option {
	return s.Options[s.Cursor]
}

// Render produces the selector lines, all padded to equal visible
// width with a solid background so the list reads as one surface.
func (s *Selector) Render(theme Theme) []string {
	innerWidth := 0
	for _, option := range s.Options {
		if width := ansi.StringWidth(option.Label); width > innerWidth {
			innerWidth = width
		}
	}

	background := lipgloss.NewStyle().
		Background(theme.OverlayBackground).
		Foreground(theme.NormalText)
	selected := lipgloss.NewStyle().
		Background(theme.SelectedBackground).
		Foreground(theme.SelectedForeground)

	lines := make([]string, 0, len(s.Options))
	for index, option := range s.Options {
		marker := "  "
		style := background
		if index == s.Cursor {
			marker = "> "
			style = selected
		}
		padding := strings.Repeat(" ", innerWidth-ansi.StringWidth(option.Label))
		lines = append(lines, style.Render(" "+marker+option.Label+padding+" "))
	}
	return lines
}
