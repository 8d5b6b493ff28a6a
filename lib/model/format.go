// Copyright 2026 The Pointdeck Authors
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// FormatAverage renders a vote average for display, rounded to the
// card set's relevant fraction digits with trailing zeros trimmed.
// A nil average renders as the placeholder "-/-".
func FormatAverage(average *float64, fractionDigits int) string {
	if average == nil {
		return "-/-"
	}
	formatted := strconv.FormatFloat(*average, 'f', fractionDigits, 64)
	if strings.Contains(formatted, ".") {
		formatted = strings.TrimRight(formatted, "0")
		formatted = strings.TrimSuffix(formatted, ".")
	}
	return formatted
}

// DisagreementTier buckets a summary offset into display tiers. The
// tier drives presentation only; the raw offset stays server-defined.
type DisagreementTier int

const (
	// DisagreementNone means every numeric vote agreed.
	DisagreementNone DisagreementTier = iota
	// DisagreementLow means votes were adjacent on the deck.
	DisagreementLow
	// DisagreementHigh means votes were spread across the deck.
	DisagreementHigh
)

// Disagreement maps a summary offset to its display tier.
func Disagreement(offset float64) DisagreementTier {
	switch {
	case offset <= 0:
		return DisagreementNone
	case offset <= 1:
		return DisagreementLow
	default:
		return DisagreementHigh
	}
}

// String returns the label shown next to the summary average.
func (tier DisagreementTier) String() string {
	switch tier {
	case DisagreementNone:
		return "consensus"
	case DisagreementLow:
		return "low spread"
	default:
		return "high spread"
	}
}

// roomNamePattern is the allowed character set for room names. Kept
// deliberately narrow because names are path segments in the API.
var roomNamePattern = regexp.MustCompile(`^[a-zA-Z0-9 _+-]+$`)

// MaxRoomNameLength bounds room names.
const MaxRoomNameLength = 50

// ValidateRoomName checks a candidate room name against the allowed
// charset and length. It does not check uniqueness; callers compare
// against the listed rooms before submitting.
func ValidateRoomName(name string) error {
	if name == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if len(name) > MaxRoomNameLength {
		return &ValidationError{Field: "name", Reason: "must be at most 50 characters"}
	}
	if !roomNamePattern.MatchString(name) {
		return &ValidationError{Field: "name", Reason: "may only contain letters, digits, spaces, and _+-"}
	}
	return nil
}

// ValidationError reports client-side input validation failure. It is
// surfaced as form-field state, never as an error banner.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Reason
}

// NumericVoteCount returns how many members of the roster cast a
// numeric vote (observers and non-numeric cards excluded).
func NumericVoteCount(members []RoomMember) int {
	count := 0
	for _, member := range members {
		if member.Vote != nil && member.Vote.Value != nil && !math.IsNaN(*member.Vote.Value) {
			count++
		}
	}
	return count
}
