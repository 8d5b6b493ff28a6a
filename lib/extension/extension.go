// Copyright 2026 The Pointdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package extension defines the pluggable integration contract and the
// registry that filters the compiled-in set against what the
// deployment and the individual room have enabled.
//
// The host view never inspects an extension beyond this contract: it
// asks for a panel and forwards messages to it. Which panel is shown
// depends only on room state (open rooms get the room panel, revealed
// rooms the submit panel).
package extension

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pointdeck/pointdeck/lib/model"
)

// Panel is a self-contained UI fragment contributed by an extension.
// It follows the bubbletea model contract but returns Panel from
// Update so the host can hold it without type assertions.
type Panel interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Panel, tea.Cmd)
	View() string
}

// Extension is one compiled-in integration. Implementations are
// stateless from the registry's perspective; per-room state lives in
// the panels they hand out.
type Extension interface {
	// Key identifies the extension in Room.Extensions and in the
	// server's enabled-extensions list.
	Key() string

	// Label is the human-readable name shown in room settings.
	Label() string

	// RoomPanel returns the fragment rendered while voting is open.
	RoomPanel(room *model.Room) Panel

	// SubmitPanel returns the fragment rendered alongside revealed
	// results. summary may be nil when the round closed with no votes.
	SubmitPanel(room *model.Room, summary *model.VoteSummary) Panel
}

// Registry holds the fixed set of extensions compiled into this
// build, in display order.
type Registry struct {
	extensions []Extension
}

// NewRegistry creates a registry over the given extensions. Order is
// preserved through all filtering.
func NewRegistry(extensions ...Extension) *Registry {
	return &Registry{extensions: extensions}
}

// All returns every compiled-in extension.
func (r *Registry) All() []Extension {
	return r.extensions
}

// Enabled filters the registry down to the keys the deployment has
// globally enabled. Keys this build does not know are ignored.
func (r *Registry) Enabled(globalKeys []string) []Extension {
	allowed := make(map[string]bool, len(globalKeys))
	for _, key := range globalKeys {
		allowed[key] = true
	}
	var enabled []Extension
	for _, ext := range r.extensions {
		if allowed[ext.Key()] {
			enabled = append(enabled, ext)
		}
	}
	return enabled
}

// ActiveForRoom filters an enabled set down to the extensions the room
// has opted into, preserving the enabled order. Unknown room keys are
// ignored so a room configured by a newer client still loads.
func ActiveForRoom(enabled []Extension, room *model.Room) []Extension {
	var active []Extension
	for _, ext := range enabled {
		if room.HasExtension(ext.Key()) {
			active = append(active, ext)
		}
	}
	return active
}
