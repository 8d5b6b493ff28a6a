// Copyright 2026 The Pointdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts timer scheduling so the polling and
// debouncing code can be driven deterministically in tests. Production
// code injects Real(); tests inject Fake() and advance it explicitly.
package clock

import "time"

// Clock is the scheduling surface used by the sync loops. Anything
// that would otherwise call the time package directly takes a Clock.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives once duration d elapses.
	After(d time.Duration) <-chan time.Time

	// AfterFunc waits for duration d, then calls f in its own
	// goroutine. The returned Timer cancels the pending call via Stop.
	AfterFunc(d time.Duration, f func()) *Timer

	// NewTicker returns a Ticker delivering on its C channel every d.
	// Panics if d <= 0.
	NewTicker(d time.Duration) *Ticker
}

// Ticker delivers periodic ticks on C. The channel has capacity 1;
// ticks that arrive while the consumer is busy are dropped, matching
// time.Ticker.
type Ticker struct {
	C <-chan time.Time

	stop func()
}

// Stop turns the ticker off. It does not close C.
func (t *Ticker) Stop() { t.stop() }

// Timer is a pending AfterFunc call.
type Timer struct {
	stop func() bool
}

// Stop cancels the pending call. Returns false if the timer already
// fired or was stopped.
func (t *Timer) Stop() bool { return t.stop() }
