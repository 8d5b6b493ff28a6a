// Copyright 2026 The Pointdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package async provides the two call-shaping utilities the extension
// panels need: trailing-edge debouncing for search-as-you-type against
// a remote suggestion source, and result memoization keyed by
// argument. Both are plain wrappers; scheduling goes through an
// injected clock so tests control the debounce window exactly.
package async

import (
	"context"
	"sync"
	"time"

	"github.com/pointdeck/pointdeck/lib/clock"
)

// Debouncer coalesces rapid calls into one: each Call resets the quiet
// window, and fn runs with the most recent argument once the window
// elapses without another call. Superseded invocations are dropped,
// never queued.
type Debouncer[T any] struct {
	clk   clock.Clock
	delay time.Duration
	fn    func(T)

	mu      sync.Mutex
	pending *clock.Timer
}

// NewDebouncer creates a Debouncer invoking fn after delay of quiet.
// fn runs on the clock's timer goroutine.
func NewDebouncer[T any](clk clock.Clock, delay time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{clk: clk, delay: delay, fn: fn}
}

// Call schedules fn(value) after the quiet window, cancelling any
// previously scheduled invocation.
func (d *Debouncer[T]) Call(value T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil {
		d.pending.Stop()
	}
	d.pending = d.clk.AfterFunc(d.delay, func() {
		d.fn(value)
	})
}

// Stop cancels any pending invocation.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
}

// Memo caches the results of a keyed lookup. Only successful results
// are cached; a failed lookup is retried on the next Get for that key.
type Memo[K comparable, V any] struct {
	fn func(ctx context.Context, key K) (V, error)

	mu    sync.Mutex
	cache map[K]V
}

// NewMemo creates a Memo around the given lookup function.
func NewMemo[K comparable, V any](fn func(ctx context.Context, key K) (V, error)) *Memo[K, V] {
	return &Memo[K, V]{fn: fn, cache: make(map[K]V)}
}

// Get returns the cached result for key, or invokes the lookup and
// caches its result on success.
func (m *Memo[K, V]) Get(ctx context.Context, key K) (V, error) {
	m.mu.Lock()
	if cached, hit := m.cache[key]; hit {
		m.mu.Unlock()
		return cached, nil
	}
	m.mu.Unlock()

	value, err := m.fn(ctx, key)
	if err != nil {
		var zero V
		return zero, err
	}

	m.mu.Lock()
	m.cache[key] = value
	m.mu.Unlock()
	return value, nil
}
