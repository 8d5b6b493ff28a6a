// Copyright 2026 The Pointdeck Authors
// SPDX-License-Identifier: Apache-2.0

package roomsync

import (
	"context"
	"slices"

	"github.com/pointdeck/pointdeck/lib/apiclient"
	"github.com/pointdeck/pointdeck/lib/model"
)

// Every user-initiated mutation follows the same shape: call the
// server, and on success force a reconciliation pass so the UI
// reflects the action without waiting for the next tick. On failure
// the error is returned for the view's banner and no pass is forced;
// the prior state stands.

// CastVote casts the given card as the local user's vote. The cached
// active vote updates optimistically before the server call resolves;
// a failed call rolls the optimistic value back to the previous
// confirmed vote. Casting the same card twice is idempotent.
func (s *Synchronizer) CastVote(ctx context.Context, card model.Card) error {
	s.mu.Lock()
	previous := s.state.ActiveVote
	optimistic := card
	s.state.ActiveVote = &optimistic
	s.mu.Unlock()
	s.emit(Event{Kind: EventUpdated})

	if err := s.api.CastVote(ctx, s.roomName, card.Name); err != nil {
		s.mu.Lock()
		// Only roll back if the optimistic value is still in place;
		// a reconciliation pass may have landed newer truth meanwhile.
		if s.state.ActiveVote != nil && s.state.ActiveVote.Name == card.Name {
			s.state.ActiveVote = previous
		}
		s.mu.Unlock()
		s.emit(Event{Kind: EventUpdated})
		return err
	}

	s.pass(ctx)
	return nil
}

// ClearVotes discards all votes and reopens the round.
func (s *Synchronizer) ClearVotes(ctx context.Context) error {
	if err := s.api.ClearVotes(ctx, s.roomName); err != nil {
		return err
	}
	s.pass(ctx)
	return nil
}

// EditMember changes another member's role or kicks them.
func (s *Synchronizer) EditMember(ctx context.Context, username string, action apiclient.MemberAction) error {
	if err := s.api.EditMember(ctx, s.roomName, username, action); err != nil {
		return err
	}
	s.pass(ctx)
	return nil
}

// EditRoom submits the room settings, sending only the fields that
// differ from the last-seen snapshot. Extensions compare as sets. A
// diff that changes nothing skips the round trip entirely.
func (s *Synchronizer) EditRoom(ctx context.Context, topic, cardSetName string, extensions []string) error {
	s.mu.Lock()
	base := s.state.Room
	s.mu.Unlock()
	if base == nil {
		return &ConsistencyError{Reason: "editing a room before the initial load"}
	}

	var patch apiclient.RoomPatch
	if topic != base.Topic {
		patch.Topic = &topic
	}
	if cardSetName != base.CardSetName {
		patch.CardSetName = &cardSetName
	}
	if !equalStringSets(extensions, base.Extensions) {
		cloned := slices.Clone(extensions)
		patch.Extensions = &cloned
	}
	if patch.IsEmpty() {
		return nil
	}

	if err := s.api.EditRoom(ctx, s.roomName, patch); err != nil {
		return err
	}
	s.pass(ctx)
	return nil
}

func equalStringSets(a, b []string) bool {
	sortedA := slices.Clone(a)
	sortedB := slices.Clone(b)
	slices.Sort(sortedA)
	slices.Sort(sortedB)
	return slices.Equal(sortedA, sortedB)
}
