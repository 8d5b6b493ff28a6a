// Copyright 2026 The Pointdeck Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/pointdeck/pointdeck/lib/model"
)

// Theme defines the color palette for pointdeck's terminal UI. All
// colors use lipgloss ANSI 256-color codes for broad terminal
// compatibility.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Selected row or card.
	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// Member roles.
	RoleVoter    lipgloss.Color
	RoleObserver lipgloss.Color

	// Vote states in the roster: cast but hidden, revealed.
	VotePending  lipgloss.Color
	VoteRevealed lipgloss.Color

	// Disagreement tiers on the revealed summary.
	ConsensusGood lipgloss.Color
	ConsensusLow  lipgloss.Color
	ConsensusHigh lipgloss.Color

	// UI chrome.
	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color
	ErrorText        lipgloss.Color

	// Overlay surfaces (selectors, modals).
	OverlayBackground lipgloss.Color
}

// DisagreementColor returns the color for a summary disagreement tier.
func (theme Theme) DisagreementColor(tier model.DisagreementTier) lipgloss.Color {
	switch tier {
	case model.DisagreementNone:
		return theme.ConsensusGood
	case model.DisagreementLow:
		return theme.ConsensusLow
	default:
		return theme.ConsensusHigh
	}
}

// RoleColor returns the color for a member role.
func (theme Theme) RoleColor(role model.Role) lipgloss.Color {
	if role == model.RoleObserver {
		return theme.RoleObserver
	}
	return theme.RoleVoter
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	RoleVoter:    lipgloss.Color("114"), // green
	RoleObserver: lipgloss.Color("245"), // gray

	VotePending:  lipgloss.Color("220"), // amber
	VoteRevealed: lipgloss.Color("75"),  // blue

	ConsensusGood: lipgloss.Color("114"), // green
	ConsensusLow:  lipgloss.Color("220"), // amber
	ConsensusHigh: lipgloss.Color("196"), // red

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),
	ErrorText:        lipgloss.Color("196"),

	OverlayBackground: lipgloss.Color("237"),
}
