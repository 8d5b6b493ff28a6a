// Copyright 2026 The Pointdeck Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import "testing"

func TestFuzzyMatchSubstring(t *testing.T) {
	result := FuzzyMatch("backend estimation", []rune("estim"), nil)
	if result.Score <= 0 {
		t.Fatal("expected positive score for substring match")
	}
	if len(result.Positions) == 0 {
		t.Fatal("expected match positions")
	}
}

func TestFuzzyMatchNonContiguous(t *testing.T) {
	// "bke" picks up b, k, e across "backend".
	result := FuzzyMatch("backend estimation", []rune("bke"), nil)
	if result.Score <= 0 {
		t.Fatal("expected positive score for non-contiguous match")
	}
}

func TestFuzzyMatchCaseInsensitive(t *testing.T) {
	result := FuzzyMatch("SPRINT 42", []rune("sprint"), nil)
	if result.Score <= 0 {
		t.Fatalf("expected case-insensitive match, got score=%d", result.Score)
	}
}

func TestFuzzyMatchMiss(t *testing.T) {
	result := FuzzyMatch("backend estimation", []rune("xyz"), nil)
	if result.Score != 0 || len(result.Positions) != 0 {
		t.Errorf("expected zero result, got %+v", result)
	}
}

func TestFuzzyMatchEmptyPattern(t *testing.T) {
	if result := FuzzyMatch("anything", nil, nil); result.Score != 0 {
		t.Errorf("empty pattern must not match, got score=%d", result.Score)
	}
}

func TestFuzzyMatchWithSlab(t *testing.T) {
	slab := NewFuzzySlab()
	for _, text := range []string{"sprint planning", "api gateway", "sprint retro"} {
		FuzzyMatch(text, []rune("sprint"), slab)
	}
	result := FuzzyMatch("sprint planning", []rune("sprint"), slab)
	if result.Score <= 0 {
		t.Fatal("slab reuse must not affect matching")
	}
}
