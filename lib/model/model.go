// Copyright 2026 The Pointdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package model defines the immutable value types the client exchanges
// with the estimation server: rooms, members, card sets, and vote
// summaries. Each poll response produces a fresh graph of these types
// that wholly replaces the previous one; nothing in this package is
// mutated after decoding.
package model

// User identifies the local participant. Fetched once at startup and
// immutable for the session.
type User struct {
	Username string `json:"username"`
}

// Card is a single estimation token within a card set. A nil Value
// marks a non-numeric card ("?", coffee break) that is excluded from
// averaging.
type Card struct {
	Name        string   `json:"name"`
	Value       *float64 `json:"value"`
	Description string   `json:"description,omitempty"`
}

// CardSet is an ordered deck of cards offered in a room. The slice
// order is the display order.
type CardSet struct {
	Name                   string `json:"name"`
	Cards                  []Card `json:"cards"`
	RelevantFractionDigits int    `json:"relevantFractionDigits"`
}

// Card returns the card with the given name, which is unique within
// a set.
func (set CardSet) Card(name string) (Card, bool) {
	for _, card := range set.Cards {
		if card.Name == name {
			return card, true
		}
	}
	return Card{}, false
}

// Role is a room member's participation mode. Only voters cast votes.
type Role string

const (
	// RoleVoter members cast votes that count toward the summary.
	RoleVoter Role = "VOTER"
	// RoleObserver members watch the round without voting.
	RoleObserver Role = "OBSERVER"
)

// RoomMember is one participant's row in a room roster. Vote is
// populated only for the member's own cast vote while voting is open,
// or for every member that voted once results are revealed.
type RoomMember struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Vote     *Card  `json:"vote"`
}

// Room is a point-in-time snapshot of a named voting session. The
// server owns rooms; the client only ever submits partial edits.
type Room struct {
	Name         string       `json:"name"`
	Topic        string       `json:"topic"`
	CardSetName  string       `json:"cardSetName"`
	Members      []RoomMember `json:"members"`
	VotingClosed bool         `json:"votingClosed"`
	Extensions   []string     `json:"extensions"`
}

// Member returns the roster row for the given username, which is
// unique within a room.
func (room *Room) Member(username string) (RoomMember, bool) {
	for _, member := range room.Members {
		if member.Username == username {
			return member, true
		}
	}
	return RoomMember{}, false
}

// HasExtension reports whether the room has opted into the extension
// with the given key.
func (room *Room) HasExtension(key string) bool {
	for _, enabled := range room.Extensions {
		if enabled == key {
			return true
		}
	}
	return false
}

// VoteExtreme pairs an extreme (highest or lowest) card with the
// members that cast it.
type VoteExtreme struct {
	Card    Card         `json:"card"`
	Members []RoomMember `json:"members"`
}

// VoteSummary is the server-computed aggregate over a revealed round.
// Average, NearestCard, Highest, and Lowest are nil when no numeric
// votes were cast. Offset quantifies disagreement spread; only its
// magnitude matters to the client (see Disagreement).
type VoteSummary struct {
	Average     *float64     `json:"average"`
	Offset      float64      `json:"offset"`
	NearestCard *Card        `json:"nearestCard"`
	Highest     *VoteExtreme `json:"highest"`
	Lowest      *VoteExtreme `json:"lowest"`
}

// SummaryResult wraps a VoteSummary. A nil Votes means voting closed
// with zero votes cast.
type SummaryResult struct {
	Votes *VoteSummary `json:"votes"`
}
