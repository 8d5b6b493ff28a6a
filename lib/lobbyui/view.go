// Copyright 2026 The Pointdeck Authors
// SPDX-License-Identifier: Apache-2.0

package lobbyui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View implements tea.Model. Layout, top to bottom: header, filter
// bar, room list (or the create form), status bar.
func (m Model) View() string {
	if !m.ready {
		return "loading…"
	}

	var sections []string
	sections = append(sections, m.renderHeader())

	if filter := m.renderFilterBar(); filter != "" {
		sections = append(sections, filter)
	}

	if m.create != nil {
		sections = append(sections, m.renderCreateForm())
	} else {
		sections = append(sections, m.renderRoomList())
	}

	sections = append(sections, m.renderStatusBar())
	return strings.Join(sections, "\n\n")
}

func (m Model) renderHeader() string {
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(m.theme.HeaderForeground)
	faint := lipgloss.NewStyle().Foreground(m.theme.FaintText)

	count := len(m.lister.Rooms())
	noun := "rooms"
	if count == 1 {
		noun = "room"
	}
	return header.Render("Pointdeck") + faint.Render(fmt.Sprintf("  ·  %d %s", count, noun))
}

func (m Model) renderFilterBar() string {
	if !m.filterActive && m.filterText == "" {
		return ""
	}
	if m.filterActive {
		cursor := lipgloss.NewStyle().
			Foreground(m.theme.HeaderForeground).
			Bold(true).
			Render("▎")
		return lipgloss.NewStyle().
			Foreground(m.theme.NormalText).
			Render(" / " + m.filterText + cursor)
	}
	return lipgloss.NewStyle().
		Foreground(m.theme.FaintText).
		Render(" filter: " + m.filterText)
}

func (m Model) renderRoomList() string {
	faint := lipgloss.NewStyle().Foreground(m.theme.FaintText)
	normal := lipgloss.NewStyle().Foreground(m.theme.NormalText)
	selected := lipgloss.NewStyle().Bold(true).Foreground(m.theme.HeaderForeground)

	entries := m.visibleRooms()
	if len(entries) == 0 {
		if m.filterText != "" {
			return faint.Render("No rooms match the filter")
		}
		return faint.Render("No rooms yet; press n to create one")
	}

	var b strings.Builder
	for index, entry := range entries {
		cursor := "  "
		nameStyle := normal
		if index == m.cursor && !m.filterActive {
			cursor = "> "
			nameStyle = selected
		}

		phase := "open"
		if entry.room.VotingClosed {
			phase = "results"
		}
		detail := fmt.Sprintf("%d members · %s", len(entry.room.Members), phase)

		b.WriteString(cursor)
		b.WriteString(nameStyle.Render(fmt.Sprintf("%-30s", entry.room.Name)))
		b.WriteString(faint.Render(detail))
		b.WriteString("\n")
		if topic := firstLine(entry.room.Topic); topic != "" {
			b.WriteString("    ")
			b.WriteString(faint.Render(topic))
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// firstLine truncates a topic for list display; the room view renders
// the full markdown.
func firstLine(topic string) string {
	line, _, _ := strings.Cut(topic, "\n")
	runes := []rune(line)
	if len(runes) > 60 {
		return string(runes[:60]) + "…"
	}
	return line
}

func (m Model) renderCreateForm() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(m.theme.HeaderForeground)
	faint := lipgloss.NewStyle().Foreground(m.theme.FaintText)
	errStyle := lipgloss.NewStyle().Foreground(m.theme.ErrorText)
	cursor := lipgloss.NewStyle().
		Foreground(m.theme.HeaderForeground).
		Bold(true).
		Render("▎")

	var b strings.Builder
	b.WriteString(titleStyle.Render("New room"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Name      %s%s\n", m.create.name, cursor)
	if m.create.invalid != "" {
		b.WriteString("          ")
		b.WriteString(errStyle.Render(m.create.invalid))
		b.WriteString("\n")
	}
	b.WriteString("Card set\n")
	for _, line := range m.create.selector.Render(m.theme) {
		b.WriteString("  ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(faint.Render("Enter create · ↑/↓ card set · Esc cancel"))
	return b.String()
}

func (m Model) renderStatusBar() string {
	if m.errorText != "" {
		return lipgloss.NewStyle().
			Foreground(m.theme.ErrorText).
			Render("✗ " + m.errorText)
	}
	if m.pendingDelete != "" {
		return lipgloss.NewStyle().
			Foreground(m.theme.NormalText).
			Render(fmt.Sprintf("Delete room %q? y/n", m.pendingDelete))
	}
	if m.statusText != "" {
		return lipgloss.NewStyle().
			Foreground(m.theme.FaintText).
			Render(m.statusText)
	}
	help := "enter enter room · n new · d delete · / filter · q quit"
	if m.filterActive {
		help = "enter keep filter · esc clear"
	}
	return lipgloss.NewStyle().Foreground(m.theme.HelpText).Render(help)
}
