// Copyright 2026 The Pointdeck Authors
// SPDX-License-Identifier: Apache-2.0

package roomsync

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pointdeck/pointdeck/lib/clock"
	"github.com/pointdeck/pointdeck/lib/model"
)

// ListAPI is the client slice the lobby poller needs.
type ListAPI interface {
	Rooms(ctx context.Context) ([]*model.Room, error)
}

// ListPoller keeps the lobby's room list fresh. Same discipline as
// the room Synchronizer — fixed interval, skip-on-overlap, events
// without payloads — minus the per-room derived state.
type ListPoller struct {
	api      ListAPI
	clk      clock.Clock
	interval time.Duration

	mu    sync.Mutex
	rooms []*model.Room

	inFlight atomic.Bool
	events   chan Event
	cancel   context.CancelFunc
	loop     context.Context
}

// NewListPoller creates a poller refreshing every interval.
func NewListPoller(client ListAPI, clk clock.Clock, interval time.Duration) *ListPoller {
	loop, cancel := context.WithCancel(context.Background())
	return &ListPoller{
		api:      client,
		clk:      clk,
		interval: interval,
		events:   make(chan Event, 16),
		cancel:   cancel,
		loop:     loop,
	}
}

// Start performs the initial fetch, then polls until Stop.
func (p *ListPoller) Start(ctx context.Context) error {
	rooms, err := p.api.Rooms(ctx)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.rooms = rooms
	p.mu.Unlock()

	go func() {
		ticker := p.clk.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-p.loop.Done():
				return
			case <-ticker.C:
				p.refresh(p.loop)
			}
		}
	}()
	return nil
}

// Refresh forces a fetch outside the timer (after create/delete).
func (p *ListPoller) Refresh(ctx context.Context) {
	p.refresh(ctx)
}

func (p *ListPoller) refresh(ctx context.Context) {
	if !p.inFlight.CompareAndSwap(false, true) {
		return
	}
	defer p.inFlight.Store(false)

	rooms, err := p.api.Rooms(ctx)
	if err != nil {
		p.emit(Event{Kind: EventError, Err: err})
		return
	}
	p.mu.Lock()
	p.rooms = rooms
	p.mu.Unlock()
	p.emit(Event{Kind: EventUpdated})
}

// Rooms returns the latest fetched list.
func (p *ListPoller) Rooms() []*model.Room {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rooms
}

// Events returns the notification channel; see Synchronizer.Events.
func (p *ListPoller) Events() <-chan Event {
	return p.events
}

func (p *ListPoller) emit(event Event) {
	select {
	case p.events <- event:
	default:
	}
}

// Stop cancels the poll loop.
func (p *ListPoller) Stop() {
	p.cancel()
}
