// Copyright 2026 The Pointdeck Authors
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"encoding/json"
	"fmt"
)

// MalformedResponseError reports a server payload missing a required
// field. Nullable fields (card values, votes, summary aggregates) are
// exempt; everything else must be present.
type MalformedResponseError struct {
	Entity string
	Field  string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed %s payload: missing %s", e.Entity, e.Field)
}

// rawCard mirrors the wire shape of a card with pointer fields so
// absence is distinguishable from zero values.
type rawCard struct {
	Name        *string  `json:"name"`
	Value       *float64 `json:"value"`
	Description *string  `json:"description"`
}

func (raw rawCard) validate() (Card, error) {
	if raw.Name == nil {
		return Card{}, &MalformedResponseError{Entity: "card", Field: "name"}
	}
	card := Card{Name: *raw.Name, Value: raw.Value}
	if raw.Description != nil {
		card.Description = *raw.Description
	}
	return card, nil
}

type rawCardSet struct {
	Name                   *string   `json:"name"`
	Cards                  []rawCard `json:"cards"`
	RelevantFractionDigits *int      `json:"relevantFractionDigits"`
}

func (raw rawCardSet) validate() (CardSet, error) {
	if raw.Name == nil {
		return CardSet{}, &MalformedResponseError{Entity: "card set", Field: "name"}
	}
	if raw.RelevantFractionDigits == nil {
		return CardSet{}, &MalformedResponseError{Entity: "card set", Field: "relevantFractionDigits"}
	}
	set := CardSet{
		Name:                   *raw.Name,
		RelevantFractionDigits: *raw.RelevantFractionDigits,
		Cards:                  make([]Card, 0, len(raw.Cards)),
	}
	for _, rawCard := range raw.Cards {
		card, err := rawCard.validate()
		if err != nil {
			return CardSet{}, err
		}
		set.Cards = append(set.Cards, card)
	}
	return set, nil
}

type rawMember struct {
	Username *string  `json:"username"`
	Role     *string  `json:"role"`
	Vote     *rawCard `json:"vote"`
}

func (raw rawMember) validate() (RoomMember, error) {
	if raw.Username == nil {
		return RoomMember{}, &MalformedResponseError{Entity: "room member", Field: "username"}
	}
	if raw.Role == nil {
		return RoomMember{}, &MalformedResponseError{Entity: "room member", Field: "role"}
	}
	member := RoomMember{Username: *raw.Username, Role: Role(*raw.Role)}
	if raw.Vote != nil {
		vote, err := raw.Vote.validate()
		if err != nil {
			return RoomMember{}, err
		}
		member.Vote = &vote
	}
	return member, nil
}

type rawRoom struct {
	Name         *string     `json:"name"`
	Topic        *string     `json:"topic"`
	CardSetName  *string     `json:"cardSetName"`
	Members      []rawMember `json:"members"`
	VotingClosed *bool       `json:"votingClosed"`
	Extensions   []string    `json:"extensions"`
}

func (raw rawRoom) validate() (*Room, error) {
	if raw.Name == nil {
		return nil, &MalformedResponseError{Entity: "room", Field: "name"}
	}
	if raw.CardSetName == nil {
		return nil, &MalformedResponseError{Entity: "room", Field: "cardSetName"}
	}
	if raw.VotingClosed == nil {
		return nil, &MalformedResponseError{Entity: "room", Field: "votingClosed"}
	}
	room := &Room{
		Name:         *raw.Name,
		CardSetName:  *raw.CardSetName,
		VotingClosed: *raw.VotingClosed,
		Members:      make([]RoomMember, 0, len(raw.Members)),
		Extensions:   raw.Extensions,
	}
	if raw.Topic != nil {
		room.Topic = *raw.Topic
	}
	for _, rawMember := range raw.Members {
		member, err := rawMember.validate()
		if err != nil {
			return nil, err
		}
		room.Members = append(room.Members, member)
	}
	return room, nil
}

// DecodeUser parses a GET /api/identity payload.
func DecodeUser(data []byte) (User, error) {
	var raw struct {
		Username *string `json:"username"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return User{}, fmt.Errorf("decoding identity: %w", err)
	}
	if raw.Username == nil {
		return User{}, &MalformedResponseError{Entity: "identity", Field: "username"}
	}
	return User{Username: *raw.Username}, nil
}

// DecodeRoom parses a single room payload into a fully validated
// snapshot graph.
func DecodeRoom(data []byte) (*Room, error) {
	var raw rawRoom
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding room: %w", err)
	}
	return raw.validate()
}

// DecodeRooms parses a GET /api/rooms payload.
func DecodeRooms(data []byte) ([]*Room, error) {
	var raws []rawRoom
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decoding room list: %w", err)
	}
	rooms := make([]*Room, 0, len(raws))
	for _, raw := range raws {
		room, err := raw.validate()
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

// DecodeCardSets parses a GET /api/card-sets payload.
func DecodeCardSets(data []byte) ([]CardSet, error) {
	var raws []rawCardSet
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decoding card sets: %w", err)
	}
	sets := make([]CardSet, 0, len(raws))
	for _, raw := range raws {
		set, err := raw.validate()
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	return sets, nil
}

// DecodeSummaryResult parses a GET /api/rooms/{name}/votes/summary
// payload. The votes field is nullable (closed round with zero votes);
// within a non-null summary, average and the extremes are nullable.
func DecodeSummaryResult(data []byte) (*SummaryResult, error) {
	var raw struct {
		Votes *struct {
			Average     *float64 `json:"average"`
			Offset      *float64 `json:"offset"`
			NearestCard *rawCard `json:"nearestCard"`
			Highest     *struct {
				Card    *rawCard    `json:"card"`
				Members []rawMember `json:"members"`
			} `json:"highest"`
			Lowest *struct {
				Card    *rawCard    `json:"card"`
				Members []rawMember `json:"members"`
			} `json:"lowest"`
		} `json:"votes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding summary: %w", err)
	}
	if raw.Votes == nil {
		return &SummaryResult{}, nil
	}

	summary := &VoteSummary{Average: raw.Votes.Average}
	if raw.Votes.Offset != nil {
		summary.Offset = *raw.Votes.Offset
	}
	if raw.Votes.NearestCard != nil {
		nearest, err := raw.Votes.NearestCard.validate()
		if err != nil {
			return nil, err
		}
		summary.NearestCard = &nearest
	}

	decodeExtreme := func(rawExtreme *struct {
		Card    *rawCard    `json:"card"`
		Members []rawMember `json:"members"`
	}) (*VoteExtreme, error) {
		if rawExtreme == nil {
			return nil, nil
		}
		if rawExtreme.Card == nil {
			return nil, &MalformedResponseError{Entity: "vote extreme", Field: "card"}
		}
		card, err := rawExtreme.Card.validate()
		if err != nil {
			return nil, err
		}
		extreme := &VoteExtreme{Card: card, Members: make([]RoomMember, 0, len(rawExtreme.Members))}
		for _, rawMember := range rawExtreme.Members {
			member, err := rawMember.validate()
			if err != nil {
				return nil, err
			}
			extreme.Members = append(extreme.Members, member)
		}
		return extreme, nil
	}

	var err error
	if summary.Highest, err = decodeExtreme(raw.Votes.Highest); err != nil {
		return nil, err
	}
	if summary.Lowest, err = decodeExtreme(raw.Votes.Lowest); err != nil {
		return nil, err
	}
	return &SummaryResult{Votes: summary}, nil
}
