// Copyright 2026 The Pointdeck Authors
// SPDX-License-Identifier: Apache-2.0

package extension

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pointdeck/pointdeck/lib/clock"
	"github.com/pointdeck/pointdeck/lib/model"
	"github.com/pointdeck/pointdeck/lib/testutil"
)

type fakeSearcher struct {
	mu        sync.Mutex
	queries   []string
	ideas     []Idea
	submits   []string
	submitted string
}

func (f *fakeSearcher) SearchIdeas(ctx context.Context, query string) ([]Idea, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	return f.ideas, nil
}

func (f *fakeSearcher) SubmitEstimate(ctx context.Context, ideaID, estimate string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits = append(f.submits, ideaID)
	f.submitted = estimate
	return nil
}

func (f *fakeSearcher) queryLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

type fakeStore struct {
	mu      sync.Mutex
	configs map[string]json.RawMessage
}

func newFakeStore() *fakeStore {
	return &fakeStore{configs: make(map[string]json.RawMessage)}
}

func (f *fakeStore) RoomExtensionConfig(ctx context.Context, room, key string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.configs[room+"/"+key], nil
}

func (f *fakeStore) PatchRoomExtensionConfig(ctx context.Context, room, key string, content any) error {
	raw, err := json.Marshal(content)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configs[room+"/"+key] = raw
	return nil
}

func testTracker(searcher IdeaSearcher, store ConfigStore, fake *clock.FakeClock) *Tracker {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewTrackerForTesting(searcher, store, fake, logger, 300*time.Millisecond)
}

func typeText(panel Panel, text string) Panel {
	for _, r := range text {
		panel, _ = panel.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return panel
}

func TestSearchDebounceCoalescesKeystrokes(t *testing.T) {
	searcher := &fakeSearcher{ideas: []Idea{{ID: "I-1", Title: "Login flow"}}}
	fake := clock.Fake(time.Unix(0, 0))
	tracker := testTracker(searcher, newFakeStore(), fake)

	panel := tracker.RoomPanel(&model.Room{Name: "r1"})
	panel = typeText(panel, "login")

	if calls := searcher.queryLog(); len(calls) != 0 {
		t.Fatalf("search fired before the quiet window: %v", calls)
	}
	fake.Advance(300 * time.Millisecond)
	calls := searcher.queryLog()
	if len(calls) != 1 || calls[0] != "login" {
		t.Fatalf("queries = %v, want exactly [login]", calls)
	}

	// The debounced result reaches the panel through its channel.
	search := panel.(*trackerSearchPanel)
	msg := testutil.RequireReceive(t, search.incoming, 5*time.Second, "search results")
	panel, _ = panel.Update(msg)
	if view := panel.View(); !containsLine(view, "▸ Login flow (I-1)") {
		t.Errorf("results missing from view:\n%s", view)
	}
}

func TestSearchMemoizesRepeatedQueries(t *testing.T) {
	searcher := &fakeSearcher{ideas: []Idea{{ID: "I-1", Title: "Login flow"}}}
	fake := clock.Fake(time.Unix(0, 0))
	tracker := testTracker(searcher, newFakeStore(), fake)

	panel := tracker.RoomPanel(&model.Room{Name: "r1"})
	panel = typeText(panel, "login")
	fake.Advance(300 * time.Millisecond)

	// Erase and retype the same query: the memo answers the second
	// window without a network call.
	for range "login" {
		panel, _ = panel.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	}
	panel = typeText(panel, "login")
	fake.Advance(300 * time.Millisecond)

	if calls := searcher.queryLog(); len(calls) != 1 {
		t.Fatalf("queries = %v, want a single remote call", calls)
	}
}

func TestSelectingIdeaPersistsRoomLink(t *testing.T) {
	searcher := &fakeSearcher{ideas: []Idea{{ID: "I-7", Title: "Billing"}}}
	store := newFakeStore()
	fake := clock.Fake(time.Unix(0, 0))
	tracker := testTracker(searcher, store, fake)

	panel := tracker.RoomPanel(&model.Room{Name: "r1"})
	panel = typeText(panel, "bil")
	fake.Advance(300 * time.Millisecond)
	search := panel.(*trackerSearchPanel)
	msg := testutil.RequireReceive(t, search.incoming, 5*time.Second, "search results")
	panel, _ = panel.Update(msg)

	panel, cmd := panel.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter on a result must produce a save command")
	}
	panel, _ = panel.Update(cmd())

	raw, err := store.RoomExtensionConfig(context.Background(), "r1", TrackerKey)
	if err != nil {
		t.Fatalf("RoomExtensionConfig: %v", err)
	}
	var link IdeaLink
	if err := json.Unmarshal(raw, &link); err != nil {
		t.Fatalf("unmarshal link: %v", err)
	}
	if link.IdeaID != "I-7" || link.IdeaTitle != "Billing" {
		t.Errorf("link = %+v", link)
	}
	if view := panel.View(); !containsLine(view, "Linked idea: Billing (I-7)") {
		t.Errorf("link missing from view:\n%s", view)
	}
}

func TestSubmitPanelPushesEstimate(t *testing.T) {
	searcher := &fakeSearcher{}
	store := newFakeStore()
	if err := store.PatchRoomExtensionConfig(context.Background(), "r1", TrackerKey,
		IdeaLink{IdeaID: "I-7", IdeaTitle: "Billing"}); err != nil {
		t.Fatalf("seed link: %v", err)
	}
	fake := clock.Fake(time.Unix(0, 0))
	tracker := testTracker(searcher, store, fake)

	average := 5.25
	panel := tracker.SubmitPanel(&model.Room{Name: "r1"}, &model.VoteSummary{Average: &average})
	panel, _ = panel.Update(panel.Init()())

	panel, cmd := panel.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter must produce a submit command")
	}
	panel, _ = panel.Update(cmd())

	searcher.mu.Lock()
	defer searcher.mu.Unlock()
	if len(searcher.submits) != 1 || searcher.submits[0] != "I-7" {
		t.Fatalf("submits = %v", searcher.submits)
	}
	if searcher.submitted != "5.25" {
		t.Errorf("estimate = %q, want 5.25", searcher.submitted)
	}
	if view := panel.View(); !containsLine(view, "Estimate 5.25 submitted to Billing") {
		t.Errorf("confirmation missing:\n%s", view)
	}
}

func TestSubmitPanelWithoutNumericResult(t *testing.T) {
	store := newFakeStore()
	if err := store.PatchRoomExtensionConfig(context.Background(), "r1", TrackerKey,
		IdeaLink{IdeaID: "I-7", IdeaTitle: "Billing"}); err != nil {
		t.Fatalf("seed link: %v", err)
	}
	tracker := testTracker(&fakeSearcher{}, store, clock.Fake(time.Unix(0, 0)))

	panel := tracker.SubmitPanel(&model.Room{Name: "r1"}, &model.VoteSummary{})
	panel, _ = panel.Update(panel.Init()())

	if _, cmd := panel.Update(tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Error("nil average must not submit")
	}
}

func TestIdeaClientWireFormat(t *testing.T) {
	var gotSearch, gotSubmit *http.Request
	var submitBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			gotSearch = r.Clone(r.Context())
			w.Write([]byte(`{"ideas":[{"id":"I-1","title":"Login"}]}`))
		case http.MethodPut:
			gotSubmit = r.Clone(r.Context())
			submitBody, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer server.Close()

	client := NewIdeaClientForTesting(http.DefaultTransport, server.URL, "secret")

	ideas, err := client.SearchIdeas(context.Background(), "log in")
	if err != nil {
		t.Fatalf("SearchIdeas: %v", err)
	}
	if len(ideas) != 1 || ideas[0].ID != "I-1" {
		t.Fatalf("ideas = %v", ideas)
	}
	if got := gotSearch.URL.RawQuery; got != "query=log+in" {
		t.Errorf("search query = %q", got)
	}
	if got := gotSearch.Header.Get("Authorization"); got != "Bearer secret" {
		t.Errorf("Authorization = %q", got)
	}

	if err := client.SubmitEstimate(context.Background(), "I-1", "5.25"); err != nil {
		t.Fatalf("SubmitEstimate: %v", err)
	}
	if got := gotSubmit.URL.Path; got != "/ideas/I-1/estimate" {
		t.Errorf("submit path = %q", got)
	}
	var payload map[string]string
	if err := json.Unmarshal(submitBody, &payload); err != nil {
		t.Fatalf("submit body: %v", err)
	}
	if payload["estimate"] != "5.25" {
		t.Errorf("estimate payload = %v", payload)
	}
}

func containsLine(view, line string) bool {
	return slices.Contains(strings.Split(view, "\n"), line)
}
