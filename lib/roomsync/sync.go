// Copyright 2026 The Pointdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package roomsync keeps a local view of one estimation room
// reconciled with server truth. The Synchronizer owns three pieces of
// derived state — the room snapshot, the local member's active vote,
// and the cached vote summary — and replaces them atomically from
// fixed-interval reconciliation passes plus forced passes after each
// successful mutation.
//
// Summary handling is edge-triggered: the transition to votingClosed
// fetches the summary once, the transition back to open discards it
// immediately, and an unchanged closed state fetches nothing.
//
// A pass that can no longer find the local user in the roster is the
// "kicked" transition: the loop stops and an EventKicked is emitted so
// the view can navigate back to the lobby. The same lookup failure
// during initial load is a consistency violation and aborts entering
// the room.
package roomsync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pointdeck/pointdeck/lib/apiclient"
	"github.com/pointdeck/pointdeck/lib/clock"
	"github.com/pointdeck/pointdeck/lib/model"
)

// API is the slice of the server client the synchronizer needs.
// *apiclient.Client satisfies it; tests substitute a fake.
type API interface {
	Room(ctx context.Context, name string) (*model.Room, error)
	Summary(ctx context.Context, room string) (*model.SummaryResult, error)
	JoinRoom(ctx context.Context, name string) error
	LeaveRoom(ctx context.Context, name string) error
	CastVote(ctx context.Context, room, cardName string) error
	ClearVotes(ctx context.Context, room string) error
	EditMember(ctx context.Context, room, username string, action apiclient.MemberAction) error
	EditRoom(ctx context.Context, name string, patch apiclient.RoomPatch) error
}

// EventKind classifies synchronizer events.
type EventKind int

const (
	// EventUpdated means the cached state changed; read State().
	EventUpdated EventKind = iota
	// EventKicked means the local user is no longer in the roster.
	// The poll loop has stopped; the view should leave.
	EventKicked
	// EventError carries a failed fetch. The poll loop keeps running
	// unless Err is a *ConsistencyError.
	EventError
)

// Event is delivered on the Events channel. Consumers re-read State()
// on every event; events carry no payload beyond the error.
type Event struct {
	Kind EventKind
	Err  error
}

// State is the atomically swapped view of the room. The contained
// pointers reference immutable snapshot data; the struct itself is a
// value copy safe to hold across renders.
type State struct {
	Room       *model.Room
	ActiveVote *model.Card
	Summary    *model.SummaryResult
}

// ConsistencyError reports a violated client invariant: the local
// user's roster row missing at initial load, or a room referencing a
// card set that is not in the loaded catalog. Fatal to the room view.
type ConsistencyError struct {
	Reason string
}

func (e *ConsistencyError) Error() string {
	return "room state inconsistent: " + e.Reason
}

// Synchronizer reconciles one room. Create with New, call Start to
// join and begin polling, Stop to cancel polling and leave.
type Synchronizer struct {
	api      API
	clk      clock.Clock
	logger   *slog.Logger
	roomName string
	username string
	interval time.Duration
	catalog  map[string]model.CardSet

	mu             sync.Mutex
	state          State
	summaryFetched bool

	// inFlight enforces at most one reconciliation pass at a time.
	// A pass that would overlap is skipped, never queued; the next
	// tick catches up. This is the only write-interleaving guard the
	// cache needs.
	inFlight atomic.Bool

	kicked atomic.Bool
	events chan Event
	cancel context.CancelFunc
	loop   context.Context
}

// New creates a Synchronizer for the named room. The catalog is the
// startup card set load; interval is the reconciliation period.
func New(client API, clk clock.Clock, logger *slog.Logger, roomName, username string,
	interval time.Duration, catalog []model.CardSet) *Synchronizer {
	byName := make(map[string]model.CardSet, len(catalog))
	for _, set := range catalog {
		byName[set.Name] = set
	}
	loop, cancel := context.WithCancel(context.Background())
	return &Synchronizer{
		api:      client,
		clk:      clk,
		logger:   logger,
		roomName: roomName,
		username: username,
		interval: interval,
		catalog:  byName,
		events:   make(chan Event, 16),
		cancel:   cancel,
		loop:     loop,
	}
}

// Start performs the atomic setup sequence — join, fetch the room,
// and (when entering an already-closed room) fetch the summary — then
// launches the poll loop. Any failure aborts entering the room; the
// caller sees no intermediate state. Fetching the summary before the
// first render avoids flashing the voting UI in a closed room.
func (s *Synchronizer) Start(ctx context.Context) error {
	if err := s.api.JoinRoom(ctx, s.roomName); err != nil {
		return err
	}
	room, err := s.api.Room(ctx, s.roomName)
	if err != nil {
		return err
	}

	member, found := room.Member(s.username)
	if !found {
		return &ConsistencyError{
			Reason: fmt.Sprintf("user %q absent from room %q after joining", s.username, s.roomName),
		}
	}
	if _, found := s.catalog[room.CardSetName]; !found {
		return &ConsistencyError{
			Reason: fmt.Sprintf("room %q uses unknown card set %q", s.roomName, room.CardSetName),
		}
	}

	var summary *model.SummaryResult
	if room.VotingClosed {
		if summary, err = s.api.Summary(ctx, s.roomName); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.state = State{Room: room, ActiveVote: member.Vote, Summary: summary}
	s.summaryFetched = summary != nil
	s.mu.Unlock()

	go s.pollLoop()
	return nil
}

// pollLoop drives timer-based reconciliation until Stop or the kicked
// transition cancels it.
func (s *Synchronizer) pollLoop() {
	ticker := s.clk.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.loop.Done():
			return
		case <-ticker.C:
			s.pass(s.loop)
		}
	}
}

// pass runs one reconciliation pass. Safe to call from any goroutine;
// an overlapping call returns immediately without fetching.
func (s *Synchronizer) pass(ctx context.Context) {
	if s.loop.Err() != nil {
		// Stopped or kicked; a late tick or UI refresh must not fetch.
		return
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		return
	}
	defer s.inFlight.Store(false)

	room, err := s.api.Room(ctx, s.roomName)
	if err != nil {
		// Transient fetch failures surface but never stop polling.
		s.emit(Event{Kind: EventError, Err: err})
		return
	}

	member, found := room.Member(s.username)
	if !found {
		// Removed from the roster mid-session. Unlike the initial
		// load, this is a legitimate observable state, not a bug.
		s.kicked.Store(true)
		s.cancel()
		s.emit(Event{Kind: EventKicked})
		return
	}
	if _, found := s.catalog[room.CardSetName]; !found {
		s.cancel()
		s.emit(Event{Kind: EventError, Err: &ConsistencyError{
			Reason: fmt.Sprintf("room %q uses unknown card set %q", s.roomName, room.CardSetName),
		}})
		return
	}

	s.mu.Lock()
	wasClosed := s.state.Room != nil && s.state.Room.VotingClosed
	alreadyFetched := s.summaryFetched
	s.mu.Unlock()

	var summary *model.SummaryResult
	if room.VotingClosed && (!wasClosed || !alreadyFetched) {
		if summary, err = s.api.Summary(ctx, s.roomName); err != nil {
			// The closed-edge latch stays unset so the next pass
			// retries instead of wedging the view without results.
			s.emit(Event{Kind: EventError, Err: err})
		}
	}

	s.mu.Lock()
	s.state.Room = room
	s.state.ActiveVote = member.Vote
	if room.VotingClosed {
		if summary != nil {
			s.state.Summary = summary
			s.summaryFetched = true
		}
	} else {
		s.state.Summary = nil
		s.summaryFetched = false
	}
	s.mu.Unlock()

	s.emit(Event{Kind: EventUpdated})
}

// Refresh forces a reconciliation pass outside the timer. Skipped if
// a pass is already in flight.
func (s *Synchronizer) Refresh(ctx context.Context) {
	s.pass(ctx)
}

// State returns the current reconciled view.
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Deck resolves the room's card set from the startup catalog.
func (s *Synchronizer) Deck() (model.CardSet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Room == nil {
		return model.CardSet{}, false
	}
	set, found := s.catalog[s.state.Room.CardSetName]
	return set, found
}

// Events returns the notification channel. Sends are non-blocking; if
// the consumer falls behind, events are dropped, which is harmless
// because consumers re-read State() on every event.
func (s *Synchronizer) Events() <-chan Event {
	return s.events
}

func (s *Synchronizer) emit(event Event) {
	select {
	case s.events <- event:
	default:
	}
}

// Stop cancels the poll loop and issues a best-effort leave. The
// leave call is fire-and-forget: navigation away never blocks on it,
// and failures are logged rather than surfaced. No leave is attempted
// after the kicked transition (the membership is already gone).
func (s *Synchronizer) Stop() {
	s.cancel()
	if s.kicked.Load() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.api.LeaveRoom(ctx, s.roomName); err != nil {
			s.logger.Warn("leaving room failed", "room", s.roomName, "error", err)
		}
	}()
}
