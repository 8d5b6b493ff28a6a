// Copyright 2026 The Pointdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package lobbyui is the room-list view. It browses the polled room
// list with fuzzy filtering, creates and deletes rooms, and hands the
// selected room name to the application for the join flow.
package lobbyui

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pointdeck/pointdeck/lib/model"
	"github.com/pointdeck/pointdeck/lib/roomsync"
	"github.com/pointdeck/pointdeck/lib/tui"
)

// RoomLister is the poller slice the lobby reads. *roomsync.ListPoller
// satisfies it.
type RoomLister interface {
	Rooms() []*model.Room
	Events() <-chan roomsync.Event
	Refresh(ctx context.Context)
	Stop()
}

// Directory is the client slice for room create and delete.
type Directory interface {
	CreateRoom(ctx context.Context, name, cardSetName string) error
	DeleteRoom(ctx context.Context, name string) error
}

// EnterRoomMsg asks the application to join the named room and switch
// to the room view.
type EnterRoomMsg struct {
	Name string
}

// listEventMsg wraps a poller event for the bubbletea loop.
type listEventMsg struct {
	event roomsync.Event
}

// mutationResultMsg reports the outcome of a create or delete.
type mutationResultMsg struct {
	err error
}

// errorFadeMsg clears the error banner.
type errorFadeMsg struct{}

// createForm is the new-room dialog. Validation runs on every save
// attempt; a failing name never reaches the network.
type createForm struct {
	name     string
	selector *tui.Selector
	invalid  string
}

// roomEntry is a list row with its filter score. Score is zero when
// no filter is active.
type roomEntry struct {
	room  *model.Room
	score int
}

// Model is the lobby bubbletea model.
type Model struct {
	lister    RoomLister
	directory Directory
	theme     tui.Theme
	keys      KeyMap
	cardSets  []model.CardSet

	width  int
	height int
	ready  bool

	cursor       int
	filterText   string
	filterActive bool

	create        *createForm
	pendingDelete string

	errorText  string
	statusText string
}

// NewModel builds the lobby over a started poller.
func NewModel(lister RoomLister, directory Directory, cardSets []model.CardSet) Model {
	return Model{
		lister:    lister,
		directory: directory,
		theme:     tui.DefaultTheme,
		keys:      DefaultKeyMap,
		cardSets:  cardSets,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return listenForListEvent(m.lister.Events())
}

// listenForListEvent blocks until the poller emits, then delivers the
// event as a message. Re-armed after each delivery.
func listenForListEvent(channel <-chan roomsync.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-channel
		if !ok {
			return nil
		}
		return listEventMsg{event: event}
	}
}

// Update implements tea.Model.
func (m Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		m.width = message.Width
		m.height = message.Height
		m.ready = true
		return m, nil

	case listEventMsg:
		listen := listenForListEvent(m.lister.Events())
		if message.event.Kind == roomsync.EventError {
			m.errorText = message.event.Err.Error()
			return m, tea.Batch(listen, fadeCmd())
		}
		m.clampCursor()
		return m, listen

	case mutationResultMsg:
		if message.err != nil {
			m.errorText = message.err.Error()
			return m, fadeCmd()
		}
		return m, nil

	case errorFadeMsg:
		m.errorText = ""
		return m, nil

	case tui.LogRecordMsg:
		m.statusText = message.Summary
		return m, tui.LogFadeCmd()

	case tui.LogFadeMsg:
		m.statusText = ""
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(message)
	}
	return m, nil
}

func fadeCmd() tea.Cmd {
	return tea.Tick(tui.LogFadeDelay, func(time.Time) tea.Msg {
		return errorFadeMsg{}
	})
}

// visibleRooms applies the fuzzy filter. With no filter the server
// order is preserved; with one, rows are sorted by descending match
// score over name and topic.
func (m Model) visibleRooms() []roomEntry {
	rooms := m.lister.Rooms()
	if m.filterText == "" {
		entries := make([]roomEntry, len(rooms))
		for i, room := range rooms {
			entries[i] = roomEntry{room: room}
		}
		return entries
	}

	pattern := []rune(m.filterText)
	slab := tui.NewFuzzySlab()
	var entries []roomEntry
	for _, room := range rooms {
		score := tui.FuzzyMatch(room.Name, pattern, slab).Score
		if topicScore := tui.FuzzyMatch(room.Topic, pattern, slab).Score; topicScore > score {
			score = topicScore
		}
		if score > 0 {
			entries = append(entries, roomEntry{room: room, score: score})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].score > entries[j].score
	})
	return entries
}

func (m *Model) clampCursor() {
	visible := len(m.visibleRooms())
	if visible == 0 {
		m.cursor = 0
	} else if m.cursor >= visible {
		m.cursor = visible - 1
	}
}

func (m Model) handleKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.create != nil {
		return m.handleCreateKey(message)
	}
	if m.pendingDelete != "" {
		return m.handleDeleteKey(message)
	}
	if m.filterActive {
		return m.handleFilterKey(message)
	}

	switch {
	case key.Matches(message, m.keys.Quit):
		m.lister.Stop()
		return m, tea.Quit

	case key.Matches(message, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(message, m.keys.Down):
		if m.cursor < len(m.visibleRooms())-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(message, m.keys.Filter):
		m.filterActive = true
		return m, nil

	case key.Matches(message, m.keys.Create):
		m.create = m.newCreateForm()
		return m, nil

	case key.Matches(message, m.keys.Delete):
		if entry, ok := m.selected(); ok {
			m.pendingDelete = entry.room.Name
		}
		return m, nil

	case key.Matches(message, m.keys.Refresh):
		return m, func() tea.Msg {
			m.lister.Refresh(context.Background())
			return nil
		}

	case key.Matches(message, m.keys.Confirm):
		if entry, ok := m.selected(); ok {
			name := entry.room.Name
			return m, func() tea.Msg { return EnterRoomMsg{Name: name} }
		}
		return m, nil

	case key.Matches(message, m.keys.Cancel):
		if m.filterText != "" {
			m.filterText = ""
			m.clampCursor()
		}
		return m, nil
	}
	return m, nil
}

func (m Model) selected() (roomEntry, bool) {
	visible := m.visibleRooms()
	if m.cursor >= len(visible) {
		return roomEntry{}, false
	}
	return visible[m.cursor], true
}

// --- Filter input ---

func (m Model) handleFilterKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch message.Type {
	case tea.KeyCtrlC:
		m.lister.Stop()
		return m, tea.Quit
	case tea.KeyEscape:
		m.filterText = ""
		m.filterActive = false
		m.clampCursor()
		return m, nil
	case tea.KeyEnter:
		// Keep the narrowed list, return focus to it.
		m.filterActive = false
		return m, nil
	case tea.KeyBackspace:
		if m.filterText != "" {
			runes := []rune(m.filterText)
			m.filterText = string(runes[:len(runes)-1])
			m.clampCursor()
		}
		return m, nil
	}
	if message.Type == tea.KeyRunes || message.Type == tea.KeySpace {
		m.filterText += string(message.Runes)
		m.cursor = 0
	}
	return m, nil
}

// --- Create form ---

func (m Model) newCreateForm() *createForm {
	options := make([]tui.Option, len(m.cardSets))
	for i, set := range m.cardSets {
		options[i] = tui.Option{Label: set.Name, Value: set.Name}
	}
	current := ""
	if len(m.cardSets) > 0 {
		current = m.cardSets[0].Name
	}
	return &createForm{selector: tui.NewSelector(options, current)}
}

// handleCreateKey routes by key type, not the letter bindings: the
// name field must accept every allowed character, including the ones
// the list view binds.
func (m Model) handleCreateKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	form := m.create

	switch message.Type {
	case tea.KeyEscape:
		m.create = nil
		return m, nil
	case tea.KeyCtrlC:
		m.lister.Stop()
		return m, tea.Quit
	case tea.KeyUp:
		form.selector.MoveUp()
		return m, nil
	case tea.KeyDown:
		form.selector.MoveDown()
		return m, nil
	case tea.KeyEnter:
		return m.submitCreate()
	case tea.KeyBackspace:
		if form.name != "" {
			runes := []rune(form.name)
			form.name = string(runes[:len(runes)-1])
			form.invalid = ""
		}
		return m, nil
	case tea.KeyRunes, tea.KeySpace:
		form.name += string(message.Runes)
		form.invalid = ""
		return m, nil
	}
	return m, nil
}

// submitCreate validates locally before any request: charset and
// length via ValidateRoomName, uniqueness against the listed rooms. A
// rejected name stays in the form with the reason inline.
func (m Model) submitCreate() (tea.Model, tea.Cmd) {
	form := m.create
	name := strings.TrimSpace(form.name)

	if err := model.ValidateRoomName(name); err != nil {
		form.invalid = err.Error()
		return m, nil
	}
	for _, room := range m.lister.Rooms() {
		if room.Name == name {
			form.invalid = "name already taken"
			return m, nil
		}
	}
	if len(form.selector.Options) == 0 {
		form.invalid = "no card sets available"
		return m, nil
	}

	cardSet := form.selector.Selected().Value
	m.create = nil
	return m, func() tea.Msg {
		if err := m.directory.CreateRoom(context.Background(), name, cardSet); err != nil {
			return mutationResultMsg{err: err}
		}
		m.lister.Refresh(context.Background())
		return EnterRoomMsg{Name: name}
	}
}

// --- Delete confirmation ---

func (m Model) handleDeleteKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	name := m.pendingDelete
	m.pendingDelete = ""
	if message.String() != "y" {
		return m, nil
	}
	return m, func() tea.Msg {
		if err := m.directory.DeleteRoom(context.Background(), name); err != nil {
			return mutationResultMsg{err: err}
		}
		m.lister.Refresh(context.Background())
		return mutationResultMsg{}
	}
}
