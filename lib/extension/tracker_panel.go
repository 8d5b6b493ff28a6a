// Copyright 2026 The Pointdeck Authors
// SPDX-License-Identifier: Apache-2.0

package extension

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pointdeck/pointdeck/lib/async"
	"github.com/pointdeck/pointdeck/lib/model"
)

// Estimates pushed to the tracker use a fixed precision; the card
// set's display precision is a room concern, not a tracker one.
const estimateFractionDigits = 2

type trackerResultsMsg struct {
	query string
	ideas []Idea
	err   error
}

type trackerLinkLoadedMsg struct {
	link *IdeaLink
	err  error
}

type trackerLinkSavedMsg struct {
	link IdeaLink
	err  error
}

type trackerSubmitDoneMsg struct {
	err error
}

// trackerSearchPanel is the open-round panel: a debounced idea search
// whose selection is persisted as the room's idea link.
type trackerSearchPanel struct {
	tracker *Tracker
	room    string

	query   string
	results []Idea
	cursor  int
	linked  *IdeaLink
	errText string

	searches *async.Debouncer[string]
	memo     *async.Memo[string, []Idea]
	incoming chan trackerResultsMsg
}

func newTrackerSearchPanel(tracker *Tracker, room string) *trackerSearchPanel {
	panel := &trackerSearchPanel{
		tracker:  tracker,
		room:     room,
		incoming: make(chan trackerResultsMsg, 4),
	}
	panel.memo = async.NewMemo(func(ctx context.Context, query string) ([]Idea, error) {
		return tracker.ideas.SearchIdeas(ctx, query)
	})
	panel.searches = async.NewDebouncer(tracker.clk, tracker.debounce, func(query string) {
		ideas, err := panel.memo.Get(context.Background(), query)
		select {
		case panel.incoming <- trackerResultsMsg{query: query, ideas: ideas, err: err}:
		default:
		}
	})
	return panel
}

func (p *trackerSearchPanel) Init() tea.Cmd {
	return tea.Batch(p.loadLink, p.listenForResults)
}

func (p *trackerSearchPanel) loadLink() tea.Msg {
	raw, err := p.tracker.store.RoomExtensionConfig(context.Background(), p.room, TrackerKey)
	if err != nil {
		return trackerLinkLoadedMsg{err: err}
	}
	if len(raw) == 0 {
		return trackerLinkLoadedMsg{}
	}
	var link IdeaLink
	if err := json.Unmarshal(raw, &link); err != nil {
		return trackerLinkLoadedMsg{err: err}
	}
	if link.IdeaID == "" {
		return trackerLinkLoadedMsg{}
	}
	return trackerLinkLoadedMsg{link: &link}
}

func (p *trackerSearchPanel) listenForResults() tea.Msg {
	return <-p.incoming
}

func (p *trackerSearchPanel) Update(msg tea.Msg) (Panel, tea.Cmd) {
	switch msg := msg.(type) {
	case trackerLinkLoadedMsg:
		if msg.err != nil {
			p.errText = msg.err.Error()
			return p, nil
		}
		p.linked = msg.link
		return p, nil

	case trackerResultsMsg:
		if msg.err != nil {
			p.errText = msg.err.Error()
			return p, p.listenForResults
		}
		// A stale response for a query the user has already left
		// behind is dropped; the in-flight one will arrive.
		if msg.query == p.query {
			p.results = msg.ideas
			p.cursor = 0
			p.errText = ""
		}
		return p, p.listenForResults

	case trackerLinkSavedMsg:
		if msg.err != nil {
			p.errText = msg.err.Error()
			return p, nil
		}
		link := msg.link
		p.linked = &link
		p.query = ""
		p.results = nil
		p.cursor = 0
		return p, nil

	case tea.KeyMsg:
		return p.handleKey(msg)
	}
	return p, nil
}

func (p *trackerSearchPanel) handleKey(msg tea.KeyMsg) (Panel, tea.Cmd) {
	switch msg.String() {
	case "up":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down":
		if p.cursor < len(p.results)-1 {
			p.cursor++
		}
	case "enter":
		if p.cursor >= 0 && p.cursor < len(p.results) {
			return p, p.saveLink(p.results[p.cursor])
		}
	case "backspace":
		if p.query != "" {
			runes := []rune(p.query)
			p.setQuery(string(runes[:len(runes)-1]))
		}
	default:
		if msg.Type == tea.KeyRunes {
			p.setQuery(p.query + string(msg.Runes))
		}
	}
	return p, nil
}

func (p *trackerSearchPanel) setQuery(query string) {
	p.query = query
	if query == "" {
		p.searches.Stop()
		p.results = nil
		p.cursor = 0
		return
	}
	p.searches.Call(query)
}

func (p *trackerSearchPanel) saveLink(idea Idea) tea.Cmd {
	return func() tea.Msg {
		link := IdeaLink{IdeaID: idea.ID, IdeaTitle: idea.Title}
		err := p.tracker.store.PatchRoomExtensionConfig(context.Background(), p.room, TrackerKey, link)
		return trackerLinkSavedMsg{link: link, err: err}
	}
}

func (p *trackerSearchPanel) View() string {
	var b strings.Builder
	if p.linked != nil {
		fmt.Fprintf(&b, "Linked idea: %s (%s)\n", p.linked.IdeaTitle, p.linked.IdeaID)
	} else {
		b.WriteString("No idea linked\n")
	}
	fmt.Fprintf(&b, "Search ideas: %s▎\n", p.query)
	for index, idea := range p.results {
		marker := "  "
		if index == p.cursor {
			marker = "▸ "
		}
		fmt.Fprintf(&b, "%s%s (%s)\n", marker, idea.Title, idea.ID)
	}
	if p.errText != "" {
		fmt.Fprintf(&b, "! %s\n", p.errText)
	}
	return strings.TrimRight(b.String(), "\n")
}

// trackerSubmitPanel is the revealed-round panel: one keystroke pushes
// the round's average onto the linked idea.
type trackerSubmitPanel struct {
	tracker *Tracker
	room    string
	summary *model.VoteSummary

	link      *IdeaLink
	submitted bool
	errText   string
}

func newTrackerSubmitPanel(tracker *Tracker, room string, summary *model.VoteSummary) *trackerSubmitPanel {
	return &trackerSubmitPanel{tracker: tracker, room: room, summary: summary}
}

func (p *trackerSubmitPanel) Init() tea.Cmd {
	return p.loadLink
}

func (p *trackerSubmitPanel) loadLink() tea.Msg {
	raw, err := p.tracker.store.RoomExtensionConfig(context.Background(), p.room, TrackerKey)
	if err != nil {
		return trackerLinkLoadedMsg{err: err}
	}
	if len(raw) == 0 {
		return trackerLinkLoadedMsg{}
	}
	var link IdeaLink
	if err := json.Unmarshal(raw, &link); err != nil {
		return trackerLinkLoadedMsg{err: err}
	}
	if link.IdeaID == "" {
		return trackerLinkLoadedMsg{}
	}
	return trackerLinkLoadedMsg{link: &link}
}

func (p *trackerSubmitPanel) estimate() (string, bool) {
	if p.summary == nil || p.summary.Average == nil {
		return "", false
	}
	return model.FormatAverage(p.summary.Average, estimateFractionDigits), true
}

func (p *trackerSubmitPanel) Update(msg tea.Msg) (Panel, tea.Cmd) {
	switch msg := msg.(type) {
	case trackerLinkLoadedMsg:
		if msg.err != nil {
			p.errText = msg.err.Error()
			return p, nil
		}
		p.link = msg.link
		return p, nil

	case trackerSubmitDoneMsg:
		if msg.err != nil {
			p.errText = msg.err.Error()
			return p, nil
		}
		p.submitted = true
		p.errText = ""
		return p, nil

	case tea.KeyMsg:
		if msg.String() != "enter" || p.submitted || p.link == nil {
			return p, nil
		}
		estimate, ok := p.estimate()
		if !ok {
			return p, nil
		}
		link := *p.link
		return p, func() tea.Msg {
			err := p.tracker.ideas.SubmitEstimate(context.Background(), link.IdeaID, estimate)
			return trackerSubmitDoneMsg{err: err}
		}
	}
	return p, nil
}

func (p *trackerSubmitPanel) View() string {
	if p.link == nil {
		return "No idea linked"
	}
	estimate, ok := p.estimate()
	if !ok {
		return fmt.Sprintf("Linked idea: %s (no numeric result to submit)", p.link.IdeaTitle)
	}
	if p.submitted {
		return fmt.Sprintf("Estimate %s submitted to %s", estimate, p.link.IdeaTitle)
	}
	status := fmt.Sprintf("Press enter to submit estimate %s to %s", estimate, p.link.IdeaTitle)
	if p.errText != "" {
		status += "\n! " + p.errText
	}
	return status
}
