// Copyright 2026 The Pointdeck Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"strings"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

// FuzzyResult is one fuzzy-match outcome. Score is zero when the
// pattern did not match. Positions are rune indexes into the matched
// text, for highlighting.
type FuzzyResult struct {
	Score     int
	Positions []int
}

// FuzzyMatch runs fzf's V2 matcher over text, case-insensitively.
// The slab is an optional scratch allocation reused across calls in a
// filtering loop; nil is accepted for one-off matches.
func FuzzyMatch(text string, pattern []rune, slab *util.Slab) FuzzyResult {
	if len(pattern) == 0 {
		return FuzzyResult{}
	}

	// fzf expects a pre-lowered pattern when matching
	// case-insensitively. Lower the text too so rune positions line
	// up for highlighting.
	lowered := []rune(strings.ToLower(string(pattern)))
	chars := util.ToChars([]byte(strings.ToLower(text)))

	result, positions := algo.FuzzyMatchV2(false, true, true, &chars, lowered, true, slab)
	if result.Score <= 0 {
		return FuzzyResult{}
	}
	out := FuzzyResult{Score: result.Score}
	if positions != nil {
		out.Positions = *positions
	}
	return out
}

// NewFuzzySlab allocates the scratch slab fzf's matcher uses. One slab
// serves a whole filtering pass; it must not be shared across
// goroutines.
func NewFuzzySlab() *util.Slab {
	return util.MakeSlab(100*1024, 2048)
}
