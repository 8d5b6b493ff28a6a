// Copyright 2026 The Pointdeck Authors
// SPDX-License-Identifier: Apache-2.0

package roomui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pointdeck/pointdeck/lib/model"
	"github.com/pointdeck/pointdeck/lib/roomsync"
)

// View implements tea.Model. Layout, top to bottom: room header,
// topic, card rail (open) or summary pane (closed), roster, extension
// panels, status bar. The settings form replaces the card and roster
// regions while open.
func (m Model) View() string {
	if !m.ready {
		return "loading…"
	}
	state := m.source.State()
	if state.Room == nil {
		return "loading…"
	}

	var sections []string
	sections = append(sections, m.renderHeader(state))

	if topic := m.renderTopicSection(state); topic != "" {
		sections = append(sections, topic)
	}

	if m.settings != nil {
		sections = append(sections, m.renderSettings())
	} else {
		if state.Room.VotingClosed {
			sections = append(sections, m.renderSummary(state))
		} else {
			sections = append(sections, m.renderCards(state))
		}
		sections = append(sections, m.renderRoster(state))
		for _, entry := range m.panels {
			sections = append(sections, m.renderPanelBox(entry))
		}
	}

	sections = append(sections, m.renderStatusBar(state))
	return strings.Join(sections, "\n\n")
}

func (m Model) renderHeader(state roomsync.State) string {
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(m.theme.HeaderForeground)
	faint := lipgloss.NewStyle().Foreground(m.theme.FaintText)

	phase := "voting open"
	if state.Room.VotingClosed {
		phase = "results"
	}
	return header.Render(state.Room.Name) + faint.Render("  ·  "+phase)
}

func (m Model) renderTopicSection(state roomsync.State) string {
	if state.Room.Topic == "" {
		return ""
	}
	return renderTopic(state.Room.Topic, m.theme, m.contentWidth())
}

func (m Model) contentWidth() int {
	if m.width > 100 {
		return 100
	}
	if m.width < 20 {
		return 20
	}
	return m.width
}

// renderCards draws the card rail. The highlighted card carries the
// cursor; the card matching the active vote is marked.
func (m Model) renderCards(state roomsync.State) string {
	deck, ok := m.source.Deck()
	if !ok {
		return ""
	}
	normal := lipgloss.NewStyle().
		Foreground(m.theme.NormalText).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.BorderColor).
		Padding(0, 1)
	selected := normal.
		BorderForeground(m.theme.HeaderForeground).
		Bold(true)
	voted := normal.
		Foreground(m.theme.VotePending).
		BorderForeground(m.theme.VotePending)

	var cards []string
	for index, card := range deck.Cards {
		style := normal
		if state.ActiveVote != nil && state.ActiveVote.Name == card.Name {
			style = voted
		}
		if index == m.cardCursor && m.focus == FocusCards {
			style = selected
		}
		cards = append(cards, style.Render(card.Name))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

// renderRoster draws the member list with role, and vote state
// appropriate to the phase: while voting is open only "voted" is
// shown for others, the local member's own card by name; once closed,
// everyone's card.
func (m Model) renderRoster(state roomsync.State) string {
	faint := lipgloss.NewStyle().Foreground(m.theme.FaintText)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(m.theme.HeaderForeground)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Members"))
	b.WriteString("\n")

	for index, member := range state.Room.Members {
		cursor := "  "
		if index == m.rosterCursor && m.focus == FocusRoster {
			cursor = "> "
		}

		roleStyle := lipgloss.NewStyle().Foreground(m.theme.RoleColor(member.Role))
		role := "voter"
		if member.Role == model.RoleObserver {
			role = "observer"
		}

		name := member.Username
		if member.Username == m.username {
			name += " (you)"
		}

		line := fmt.Sprintf("%s%-24s %s", cursor, name, roleStyle.Render(role))
		if vote := m.renderMemberVote(state, member); vote != "" {
			line += "  " + vote
		}
		b.WriteString(line)
		if index < len(state.Room.Members)-1 {
			b.WriteString("\n")
		}
	}
	if m.focus == FocusRoster {
		b.WriteString("\n")
		b.WriteString(faint.Render("  v voter · o observer · x kick"))
	}
	return b.String()
}

func (m Model) renderMemberVote(state roomsync.State, member model.RoomMember) string {
	if member.Role == model.RoleObserver {
		return ""
	}
	if state.Room.VotingClosed {
		revealed := lipgloss.NewStyle().Foreground(m.theme.VoteRevealed)
		if member.Vote == nil {
			return lipgloss.NewStyle().Foreground(m.theme.FaintText).Render("—")
		}
		return revealed.Render(member.Vote.Name)
	}

	pending := lipgloss.NewStyle().Foreground(m.theme.VotePending)
	if member.Username == m.username {
		if state.ActiveVote == nil {
			return ""
		}
		return pending.Render(state.ActiveVote.Name)
	}
	if member.Vote != nil {
		return pending.Render("voted")
	}
	return ""
}

// renderSummary draws the revealed results pane: average with the
// disagreement tier, the nearest card, and both extremes. Absent
// aggregates render placeholders instead of numbers.
func (m Model) renderSummary(state roomsync.State) string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(m.theme.HeaderForeground)
	faint := lipgloss.NewStyle().Foreground(m.theme.FaintText)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Results"))
	b.WriteString("\n")

	if state.Summary == nil || state.Summary.Votes == nil {
		b.WriteString(faint.Render("No result"))
		return b.String()
	}
	votes := state.Summary.Votes

	digits := 1
	if deck, ok := m.source.Deck(); ok {
		digits = deck.RelevantFractionDigits
	}

	tier := model.Disagreement(votes.Offset)
	tierStyle := lipgloss.NewStyle().Foreground(m.theme.DisagreementColor(tier))
	fmt.Fprintf(&b, "Average   %s  %s\n",
		model.FormatAverage(votes.Average, digits),
		tierStyle.Render(tier.String()))
	if state.Room != nil {
		count := model.NumericVoteCount(state.Room.Members)
		fmt.Fprintf(&b, "%s\n", faint.Render(fmt.Sprintf("over %d numeric votes", count)))
	}

	if votes.NearestCard != nil {
		fmt.Fprintf(&b, "Nearest   %s\n", votes.NearestCard.Name)
	} else {
		fmt.Fprintf(&b, "Nearest   %s\n", faint.Render("-/-"))
	}

	b.WriteString(m.renderExtreme("Highest", votes.Highest))
	b.WriteString("\n")
	b.WriteString(m.renderExtreme("Lowest ", votes.Lowest))
	return b.String()
}

func (m Model) renderExtreme(label string, extreme *model.VoteExtreme) string {
	faint := lipgloss.NewStyle().Foreground(m.theme.FaintText)
	if extreme == nil {
		return fmt.Sprintf("%s   %s", label, faint.Render("-/-"))
	}
	var names []string
	for _, member := range extreme.Members {
		names = append(names, member.Username)
	}
	return fmt.Sprintf("%s   %s  %s", label, extreme.Card.Name,
		faint.Render(strings.Join(names, ", ")))
}

func (m Model) renderPanelBox(entry extensionPanel) string {
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.BorderColor).
		Padding(0, 1).
		Width(m.contentWidth() - 2)
	return border.Render(entry.panel.View())
}

func (m Model) renderSettings() string {
	form := m.settings
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(m.theme.HeaderForeground)
	selectedStyle := lipgloss.NewStyle().
		Background(m.theme.SelectedBackground).
		Foreground(m.theme.SelectedForeground)
	faint := lipgloss.NewStyle().Foreground(m.theme.FaintText)

	render := func(row int, line string) string {
		if row == form.cursor && m.focus == FocusSettings {
			return selectedStyle.Render(line)
		}
		return line
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Room settings"))
	b.WriteString("\n")
	b.WriteString(render(0, fmt.Sprintf("Topic     %s▎", form.topic)))
	b.WriteString("\n")
	b.WriteString(render(1, fmt.Sprintf("Card set  %s", form.cardSet)))
	b.WriteString("\n")
	for index, ext := range form.ordered {
		mark := "[ ]"
		if form.enabled[ext.Key()] {
			mark = "[x]"
		}
		b.WriteString(render(2+index, fmt.Sprintf("%s %s", mark, ext.Label())))
		b.WriteString("\n")
	}

	if m.focus == FocusCardSetSelect && form.selector != nil {
		b.WriteString("\n")
		b.WriteString(strings.Join(form.selector.Render(m.theme), "\n"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(faint.Render("Enter save · Space toggle extension · Esc cancel"))
	return b.String()
}

func (m Model) renderStatusBar(state roomsync.State) string {
	if m.errorText != "" {
		return lipgloss.NewStyle().Foreground(m.theme.ErrorText).Render("✗ " + m.errorText)
	}
	if m.statusText != "" {
		return lipgloss.NewStyle().Foreground(m.theme.FaintText).Render(m.statusText)
	}

	help := lipgloss.NewStyle().Foreground(m.theme.HelpText)
	if state.Room.VotingClosed {
		return help.Render("c new round · s settings · Tab switch pane · q leave")
	}
	return help.Render("←/→ pick card · Enter vote · s settings · Tab switch pane · q leave")
}
