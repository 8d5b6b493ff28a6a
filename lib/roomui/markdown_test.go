// Copyright 2026 The Pointdeck Authors
// SPDX-License-Identifier: Apache-2.0

package roomui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"github.com/pointdeck/pointdeck/lib/tui"
)

func render(t *testing.T, input string) string {
	t.Helper()
	return ansi.Strip(renderTopic(input, tui.DefaultTheme, 80))
}

func TestTopicEmptyInput(t *testing.T) {
	if got := renderTopic("", tui.DefaultTheme, 80); got != "" {
		t.Errorf("empty topic rendered %q", got)
	}
}

func TestTopicPlainParagraph(t *testing.T) {
	if got := render(t, "estimate the login rework"); got != "estimate the login rework" {
		t.Errorf("got %q", got)
	}
}

func TestTopicEmphasisMarkersConsumed(t *testing.T) {
	got := render(t, "the **critical** and *subtle* parts")
	if strings.Contains(got, "*") {
		t.Errorf("markers leaked: %q", got)
	}
	if got != "the critical and subtle parts" {
		t.Errorf("got %q", got)
	}
}

func TestTopicHeading(t *testing.T) {
	got := render(t, "# Sprint 42\n\ngoal text")
	lines := strings.Split(got, "\n")
	if len(lines) < 2 || lines[0] != "Sprint 42" {
		t.Errorf("heading not on its own line: %q", got)
	}
	if !strings.Contains(got, "goal text") {
		t.Errorf("body missing: %q", got)
	}
}

func TestTopicSoftBreakReflows(t *testing.T) {
	got := render(t, "first\nsecond")
	if got != "first second" {
		t.Errorf("soft break must become a space, got %q", got)
	}
}

func TestTopicWrapsToWidth(t *testing.T) {
	input := strings.Repeat("word ", 30)
	got := ansi.Strip(renderTopic(input, tui.DefaultTheme, 24))
	for _, line := range strings.Split(got, "\n") {
		if len(line) > 24 {
			t.Errorf("line exceeds width: %q", line)
		}
	}
}

func TestTopicBulletList(t *testing.T) {
	got := render(t, "- first\n- second")
	lines := strings.Split(got, "\n")
	if len(lines) != 2 || lines[0] != "- first" || lines[1] != "- second" {
		t.Errorf("got %q", got)
	}
}

func TestTopicOrderedList(t *testing.T) {
	got := render(t, "1. alpha\n2. beta")
	if !strings.Contains(got, "1. alpha") || !strings.Contains(got, "2. beta") {
		t.Errorf("got %q", got)
	}
}

func TestTopicListContinuationIndent(t *testing.T) {
	// A wrapped list item's continuation lines align under the text,
	// not under the bullet.
	input := "- " + strings.Repeat("word ", 20)
	got := ansi.Strip(renderTopic(input, tui.DefaultTheme, 30))
	lines := strings.Split(got, "\n")
	if len(lines) < 2 {
		t.Fatalf("expected wrapping, got %q", got)
	}
	if !strings.HasPrefix(lines[0], "- word") {
		t.Errorf("first line = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "  word") {
		t.Errorf("continuation = %q", lines[1])
	}
}

func TestTopicBlockquote(t *testing.T) {
	got := render(t, "> quoted context")
	if !strings.Contains(got, "│ quoted context") {
		t.Errorf("got %q", got)
	}
}

func TestTopicInlineCode(t *testing.T) {
	got := render(t, "check `LoginHandler` first")
	if got != "check LoginHandler first" {
		t.Errorf("got %q", got)
	}
}

func TestTopicFencedCodeWithoutLanguage(t *testing.T) {
	got := render(t, "```\nretry(3)\n```")
	if !strings.Contains(got, "retry(3)") {
		t.Errorf("got %q", got)
	}
}

func TestTopicLinkShowsURL(t *testing.T) {
	got := render(t, "see [the RFC](https://example.com/rfc)")
	if !strings.Contains(got, "the RFC (https://example.com/rfc)") {
		t.Errorf("got %q", got)
	}
}
