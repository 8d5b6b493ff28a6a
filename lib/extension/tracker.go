// Copyright 2026 The Pointdeck Authors
// SPDX-License-Identifier: Apache-2.0

package extension

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pointdeck/pointdeck/lib/clock"
	"github.com/pointdeck/pointdeck/lib/model"
)

// TrackerKey is the registry key of the issue-tracker extension.
const TrackerKey = "tracker"

// TrackerConfig is the tracker section of the client configuration.
type TrackerConfig struct {
	// ServiceURL is the base URL of the issue tracker's REST API.
	ServiceURL string `yaml:"serviceUrl"`
	// Token is sent as a bearer token on every tracker request.
	Token string `yaml:"token"`
	// SearchDebounce is the quiet window for search-as-you-type.
	// Zero means the 300ms default.
	SearchDebounce time.Duration `yaml:"searchDebounce"`
}

const defaultSearchDebounce = 300 * time.Millisecond

// Idea is one tracked work item offered for estimation.
type Idea struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// IdeaSearcher is the tracker-service surface the panels need.
type IdeaSearcher interface {
	SearchIdeas(ctx context.Context, query string) ([]Idea, error)
	SubmitEstimate(ctx context.Context, ideaID, estimate string) error
}

// ConfigStore persists the per-room idea link on the estimation
// server, keyed by room and extension.
type ConfigStore interface {
	RoomExtensionConfig(ctx context.Context, room, key string) (json.RawMessage, error)
	PatchRoomExtensionConfig(ctx context.Context, room, key string, content any) error
}

// IdeaLink is the opaque per-room config payload: which tracker idea
// this room's round estimates.
type IdeaLink struct {
	IdeaID    string `json:"ideaId"`
	IdeaTitle string `json:"ideaTitle"`
}

// IdeaClient talks to the issue tracker's REST API directly; the
// estimation server is not in that path.
type IdeaClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewIdeaClient creates a client for the given tracker service.
func NewIdeaClient(cfg TrackerConfig) *IdeaClient {
	return &IdeaClient{
		httpClient: &http.Client{},
		baseURL:    strings.TrimSuffix(cfg.ServiceURL, "/"),
		token:      cfg.Token,
	}
}

// NewIdeaClientForTesting creates a client with a custom transport.
func NewIdeaClientForTesting(transport http.RoundTripper, baseURL, token string) *IdeaClient {
	return &IdeaClient{
		httpClient: &http.Client{Transport: transport},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
	}
}

// SearchIdeas returns ideas matching the query, in tracker relevance
// order.
func (c *IdeaClient) SearchIdeas(ctx context.Context, query string) ([]Idea, error) {
	path := c.baseURL + "/ideas?query=" + url.QueryEscape(query)
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("searching ideas for %q: %w", query, err)
	}
	c.authorize(request)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("searching ideas for %q: %w", query, err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("searching ideas for %q: HTTP %d", query, response.StatusCode)
	}

	var payload struct {
		Ideas []Idea `json:"ideas"`
	}
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("searching ideas for %q: %w", query, err)
	}
	return payload.Ideas, nil
}

// SubmitEstimate writes the revealed estimate onto the tracked idea.
func (c *IdeaClient) SubmitEstimate(ctx context.Context, ideaID, estimate string) error {
	body, err := json.Marshal(map[string]string{"estimate": estimate})
	if err != nil {
		return fmt.Errorf("submitting estimate for idea %q: %w", ideaID, err)
	}
	path := c.baseURL + "/ideas/" + url.PathEscape(ideaID) + "/estimate"
	request, err := http.NewRequestWithContext(ctx, http.MethodPut, path, strings.NewReader(string(body)))
	if err != nil {
		return fmt.Errorf("submitting estimate for idea %q: %w", ideaID, err)
	}
	request.Header.Set("Content-Type", "application/json")
	c.authorize(request)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("submitting estimate for idea %q: %w", ideaID, err)
	}
	defer response.Body.Close()
	io.Copy(io.Discard, response.Body)
	if response.StatusCode != http.StatusOK && response.StatusCode != http.StatusNoContent {
		return fmt.Errorf("submitting estimate for idea %q: HTTP %d", ideaID, response.StatusCode)
	}
	return nil
}

func (c *IdeaClient) authorize(request *http.Request) {
	if c.token != "" {
		request.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// Tracker links a room to an issue-tracker idea and pushes the
// revealed estimate back to the tracker. The room panel is a debounced
// idea search; the submit panel is a one-keystroke estimate push.
type Tracker struct {
	ideas    IdeaSearcher
	store    ConfigStore
	clk      clock.Clock
	logger   *slog.Logger
	debounce time.Duration
}

// NewTracker creates the tracker extension from configuration.
func NewTracker(cfg TrackerConfig, store ConfigStore, clk clock.Clock, logger *slog.Logger) *Tracker {
	return newTracker(NewIdeaClient(cfg), store, clk, logger, cfg.SearchDebounce)
}

// NewTrackerForTesting creates the extension around a fake searcher.
func NewTrackerForTesting(ideas IdeaSearcher, store ConfigStore, clk clock.Clock, logger *slog.Logger, debounce time.Duration) *Tracker {
	return newTracker(ideas, store, clk, logger, debounce)
}

func newTracker(ideas IdeaSearcher, store ConfigStore, clk clock.Clock, logger *slog.Logger, debounce time.Duration) *Tracker {
	if debounce <= 0 {
		debounce = defaultSearchDebounce
	}
	return &Tracker{
		ideas:    ideas,
		store:    store,
		clk:      clk,
		logger:   logger,
		debounce: debounce,
	}
}

func (t *Tracker) Key() string   { return TrackerKey }
func (t *Tracker) Label() string { return "Issue tracker" }

// RoomPanel returns the idea-search panel for an open round.
func (t *Tracker) RoomPanel(room *model.Room) Panel {
	return newTrackerSearchPanel(t, room.Name)
}

// SubmitPanel returns the estimate-push panel for a revealed round.
func (t *Tracker) SubmitPanel(room *model.Room, summary *model.VoteSummary) Panel {
	return newTrackerSubmitPanel(t, room.Name, summary)
}
