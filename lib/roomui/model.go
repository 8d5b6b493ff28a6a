// Copyright 2026 The Pointdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package roomui is the live voting view: the card rail, the member
// roster, the revealed summary, and the room settings form. It renders
// whatever snapshot the synchronizer currently holds and translates
// key presses into synchronizer actions; it never talks to the server
// directly.
package roomui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pointdeck/pointdeck/lib/apiclient"
	"github.com/pointdeck/pointdeck/lib/extension"
	"github.com/pointdeck/pointdeck/lib/model"
	"github.com/pointdeck/pointdeck/lib/roomsync"
	"github.com/pointdeck/pointdeck/lib/tui"
)

// Source is the synchronizer surface the view consumes. Implemented
// by *roomsync.Synchronizer.
type Source interface {
	State() roomsync.State
	Deck() (model.CardSet, bool)
	Events() <-chan roomsync.Event
	Refresh(ctx context.Context)
	CastVote(ctx context.Context, card model.Card) error
	ClearVotes(ctx context.Context) error
	EditMember(ctx context.Context, username string, action apiclient.MemberAction) error
	EditRoom(ctx context.Context, topic, cardSetName string, extensions []string) error
	Stop()
}

// LeftRoomMsg tells the enclosing program that the room view is done:
// the user left, or the server removed them. Notice is non-empty for
// involuntary exits and is shown in the lobby.
type LeftRoomMsg struct {
	Notice string
}

// FocusRegion identifies which part of the view receives keys.
type FocusRegion int

const (
	FocusCards FocusRegion = iota
	FocusRoster
	FocusExtension
	FocusSettings
	FocusCardSetSelect
)

// syncEventMsg wraps a synchronizer event for the message loop.
type syncEventMsg struct {
	event roomsync.Event
}

// mutationResultMsg reports an asynchronous action call. On success
// the synchronizer's forced pass delivers the visible update.
type mutationResultMsg struct {
	err error
}

// errorFadeMsg clears the error banner.
type errorFadeMsg struct{}

// extensionPanel pairs an active extension with its live panel.
type extensionPanel struct {
	key    string
	closed bool // Which slot the panel came from.
	panel  extension.Panel
}

// settingsForm is the in-place room edit form. It is seeded from the
// current snapshot when opened; saving submits all three fields and
// the synchronizer sends only what differs.
type settingsForm struct {
	topic    string
	cardSet  string
	enabled  map[string]bool // Extension toggles, keyed by extension key.
	ordered  []extension.Extension
	unknown  []string // Room keys this build has no extension for; passed through unchanged.
	cursor   int // 0 topic, 1 card set, 2..n extension toggles.
	selector *tui.Selector
}

// Model is the bubbletea model for the room view.
type Model struct {
	source    Source
	theme     tui.Theme
	keys      KeyMap
	username  string
	enabled   []extension.Extension
	cardSets  []model.CardSet

	width  int
	height int
	ready  bool

	focus        FocusRegion
	cardCursor   int
	rosterCursor int

	panels   []extensionPanel
	settings *settingsForm

	errorText  string
	statusText string

	leaving bool
}

// NewModel creates the room view over a started synchronizer. enabled
// is the deployment-filtered extension set; cardSets the startup
// catalog (used by the settings form).
func NewModel(source Source, username string, enabled []extension.Extension, cardSets []model.CardSet) Model {
	m := Model{
		source:   source,
		theme:    tui.DefaultTheme,
		keys:     DefaultKeyMap,
		username: username,
		enabled:  enabled,
		cardSets: cardSets,
	}
	m.panels = m.buildPanels(nil)
	return m
}

// Init starts listening for synchronizer events and initializes any
// extension panels present at entry.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{listenForSyncEvent(m.source.Events())}
	for _, entry := range m.panels {
		if cmd := entry.panel.Init(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return tea.Batch(cmds...)
}

// listenForSyncEvent blocks until the synchronizer emits, then
// delivers the event as a message. Re-armed after each delivery.
func listenForSyncEvent(channel <-chan roomsync.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-channel
		if !ok {
			return nil
		}
		return syncEventMsg{event: event}
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

	case syncEventMsg:
		return m.handleSyncEvent(message.event)

	case mutationResultMsg:
		if message.err != nil {
			m.errorText = message.err.Error()
			return m, tea.Tick(tui.LogFadeDelay, func(time.Time) tea.Msg {
				return errorFadeMsg{}
			})
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

	// Everything else may belong to an extension panel.
	return m.forwardToPanels(message)
}

func (m Model) handleSyncEvent(event roomsync.Event) (tea.Model, tea.Cmd) {
	listen := listenForSyncEvent(m.source.Events())

	switch event.Kind {
	case roomsync.EventKicked:
		m.leaving = true
		return m, func() tea.Msg {
			return LeftRoomMsg{Notice: "you have been removed from the room"}
		}

	case roomsync.EventError:
		var consistency *roomsync.ConsistencyError
		if errors.As(event.Err, &consistency) {
			m.leaving = true
			m.source.Stop()
			notice := event.Err.Error()
			return m, func() tea.Msg {
				return LeftRoomMsg{Notice: notice}
			}
		}
		m.errorText = event.Err.Error()
		return m, tea.Batch(listen, tea.Tick(tui.LogFadeDelay, func(time.Time) tea.Msg {
			return errorFadeMsg{}
		}))

	default: // EventUpdated
		m.clampCursors()
		rebuilt, initCmds := m.reconcilePanels()
		m.panels = rebuilt
		return m, tea.Batch(append(initCmds, listen)...)
	}
}

// reconcilePanels keeps one live panel per active extension, swapping
// slots when the room transitions between open and closed. Panels for
// extensions still in the same slot survive with their state.
func (m *Model) reconcilePanels() ([]extensionPanel, []tea.Cmd) {
	existing := make(map[string]extensionPanel, len(m.panels))
	for _, entry := range m.panels {
		existing[entry.key] = entry
	}
	rebuilt := m.buildPanels(existing)

	var initCmds []tea.Cmd
	for _, entry := range rebuilt {
		previous, had := existing[entry.key]
		if !had || previous.closed != entry.closed {
			if cmd := entry.panel.Init(); cmd != nil {
				initCmds = append(initCmds, cmd)
			}
		}
	}
	return rebuilt, initCmds
}

// buildPanels constructs the active panel list from the current
// snapshot, reusing entries from existing when the slot matches.
func (m *Model) buildPanels(existing map[string]extensionPanel) []extensionPanel {
	state := m.source.State()
	if state.Room == nil {
		return nil
	}
	active := extension.ActiveForRoom(m.enabled, state.Room)

	var panels []extensionPanel
	for _, ext := range active {
		closed := state.Room.VotingClosed
		if previous, had := existing[ext.Key()]; had && previous.closed == closed {
			panels = append(panels, previous)
			continue
		}
		var panel extension.Panel
		if closed {
			var votes *model.VoteSummary
			if state.Summary != nil {
				votes = state.Summary.Votes
			}
			panel = ext.SubmitPanel(state.Room, votes)
		} else {
			panel = ext.RoomPanel(state.Room)
		}
		panels = append(panels, extensionPanel{key: ext.Key(), closed: closed, panel: panel})
	}
	return panels
}

func (m Model) forwardToPanels(message tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	for index := range m.panels {
		updated, cmd := m.panels[index].panel.Update(message)
		m.panels[index].panel = updated
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) clampCursors() {
	if deck, ok := m.source.Deck(); ok && m.cardCursor >= len(deck.Cards) {
		m.cardCursor = len(deck.Cards) - 1
	}
	if m.cardCursor < 0 {
		m.cardCursor = 0
	}
	state := m.source.State()
	if state.Room != nil && m.rosterCursor >= len(state.Room.Members) {
		m.rosterCursor = len(state.Room.Members) - 1
	}
	if m.rosterCursor < 0 {
		m.rosterCursor = 0
	}
}

func (m Model) handleKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.leaving {
		return m, nil
	}
	switch m.focus {
	case FocusSettings:
		return m.handleSettingsKey(message)
	case FocusCardSetSelect:
		return m.handleCardSetSelectKey(message)
	}

	switch {
	case key.Matches(message, m.keys.Quit):
		m.leaving = true
		m.source.Stop()
		return m, func() tea.Msg { return LeftRoomMsg{} }

	case key.Matches(message, m.keys.FocusToggle):
		m.focus = m.nextFocus()
		return m, nil

	case key.Matches(message, m.keys.Settings):
		m.openSettings()
		return m, nil

	case key.Matches(message, m.keys.Clear):
		return m, m.actionCmd(func(ctx context.Context) error {
			return m.source.ClearVotes(ctx)
		})
	}

	switch m.focus {
	case FocusCards:
		return m.handleCardKey(message)
	case FocusRoster:
		return m.handleRosterKey(message)
	case FocusExtension:
		return m.forwardToPanels(message)
	}
	return m, nil
}

// nextFocus cycles cards -> roster -> extension (when a panel is
// active) -> cards.
func (m Model) nextFocus() FocusRegion {
	switch m.focus {
	case FocusCards:
		return FocusRoster
	case FocusRoster:
		if len(m.panels) > 0 {
			return FocusExtension
		}
		return FocusCards
	default:
		return FocusCards
	}
}

func (m Model) handleCardKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	deck, ok := m.source.Deck()
	if !ok || len(deck.Cards) == 0 {
		return m, nil
	}
	switch {
	case key.Matches(message, m.keys.Left), key.Matches(message, m.keys.Up):
		if m.cardCursor > 0 {
			m.cardCursor--
		}
	case key.Matches(message, m.keys.Right), key.Matches(message, m.keys.Down):
		if m.cardCursor < len(deck.Cards)-1 {
			m.cardCursor++
		}
	case key.Matches(message, m.keys.Confirm):
		state := m.source.State()
		if state.Room != nil && state.Room.VotingClosed {
			return m, nil
		}
		card := deck.Cards[m.cardCursor]
		return m, m.actionCmd(func(ctx context.Context) error {
			return m.source.CastVote(ctx, card)
		})
	}
	return m, nil
}

func (m Model) handleRosterKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	state := m.source.State()
	if state.Room == nil || len(state.Room.Members) == 0 {
		return m, nil
	}
	members := state.Room.Members

	switch {
	case key.Matches(message, m.keys.Up):
		if m.rosterCursor > 0 {
			m.rosterCursor--
		}
	case key.Matches(message, m.keys.Down):
		if m.rosterCursor < len(members)-1 {
			m.rosterCursor++
		}
	case key.Matches(message, m.keys.MakeVoter):
		return m, m.memberActionCmd(members[m.rosterCursor].Username, apiclient.SetVoter)
	case key.Matches(message, m.keys.MakeObserver):
		return m, m.memberActionCmd(members[m.rosterCursor].Username, apiclient.SetObserver)
	case key.Matches(message, m.keys.Kick):
		target := members[m.rosterCursor].Username
		if target == m.username {
			m.errorText = "cannot kick yourself; leave with q"
			return m, tea.Tick(tui.LogFadeDelay, func(time.Time) tea.Msg {
				return errorFadeMsg{}
			})
		}
		return m, m.memberActionCmd(target, apiclient.Kick)
	}
	return m, nil
}

func (m Model) memberActionCmd(username string, action apiclient.MemberAction) tea.Cmd {
	return m.actionCmd(func(ctx context.Context) error {
		return m.source.EditMember(ctx, username, action)
	})
}

// actionCmd runs a synchronizer action off the event loop and reports
// the outcome. Successful actions already forced a reconciliation
// pass, so the next syncEventMsg carries the visible change.
func (m Model) actionCmd(action func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return mutationResultMsg{err: action(context.Background())}
	}
}

// --- Settings form ---

func (m *Model) openSettings() {
	state := m.source.State()
	if state.Room == nil {
		return
	}
	form := &settingsForm{
		topic:   state.Room.Topic,
		cardSet: state.Room.CardSetName,
		enabled: make(map[string]bool, len(m.enabled)),
		ordered: m.enabled,
	}
	for _, ext := range m.enabled {
		form.enabled[ext.Key()] = state.Room.HasExtension(ext.Key())
	}
	known := make(map[string]bool, len(m.enabled))
	for _, ext := range m.enabled {
		known[ext.Key()] = true
	}
	for _, key := range state.Room.Extensions {
		if !known[key] {
			form.unknown = append(form.unknown, key)
		}
	}
	m.settings = form
	m.focus = FocusSettings
}

// handleSettingsKey routes by key type, not the letter bindings: the
// topic field must accept every character, including the ones the
// room view binds. Arrow keys move between rows, space toggles an
// extension row, enter saves (or opens the card set selector).
func (m Model) handleSettingsKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	form := m.settings
	rows := 2 + len(form.ordered)

	switch message.Type {
	case tea.KeyEscape:
		m.settings = nil
		m.focus = FocusCards
		return m, nil

	case tea.KeyUp:
		if form.cursor > 0 {
			form.cursor--
		}
		return m, nil

	case tea.KeyDown:
		if form.cursor < rows-1 {
			form.cursor++
		}
		return m, nil

	case tea.KeyEnter:
		if form.cursor == 1 {
			// Open the card set selector.
			options := make([]tui.Option, 0, len(m.cardSets))
			for _, set := range m.cardSets {
				options = append(options, tui.Option{Label: set.Name, Value: set.Name})
			}
			form.selector = tui.NewSelector(options, form.cardSet)
			m.focus = FocusCardSetSelect
			return m, nil
		}
		return m.saveSettings()

	case tea.KeyBackspace:
		if form.cursor == 0 && form.topic != "" {
			runes := []rune(form.topic)
			form.topic = string(runes[:len(runes)-1])
		}
		return m, nil
	}

	if message.Type == tea.KeyRunes || message.Type == tea.KeySpace {
		if form.cursor == 0 {
			form.topic += string(message.Runes)
		} else if form.cursor >= 2 && message.Type == tea.KeySpace {
			ext := form.ordered[form.cursor-2]
			form.enabled[ext.Key()] = !form.enabled[ext.Key()]
		}
	}
	return m, nil
}

func (m Model) handleCardSetSelectKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	form := m.settings
	switch {
	case key.Matches(message, m.keys.Cancel):
		form.selector = nil
		m.focus = FocusSettings
	case key.Matches(message, m.keys.Up):
		form.selector.MoveUp()
	case key.Matches(message, m.keys.Down):
		form.selector.MoveDown()
	case key.Matches(message, m.keys.Confirm):
		form.cardSet = form.selector.Selected().Value
		form.selector = nil
		m.focus = FocusSettings
	}
	return m, nil
}

func (m Model) saveSettings() (tea.Model, tea.Cmd) {
	form := m.settings
	var extensions []string
	for _, ext := range form.ordered {
		if form.enabled[ext.Key()] {
			extensions = append(extensions, ext.Key())
		}
	}
	extensions = append(extensions, form.unknown...)
	topic := form.topic
	cardSet := form.cardSet

	m.settings = nil
	m.focus = FocusCards
	return m, m.actionCmd(func(ctx context.Context) error {
		return m.source.EditRoom(ctx, topic, cardSet, extensions)
	})
}
