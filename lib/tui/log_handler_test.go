// Copyright 2026 The Pointdeck Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"context"
	"log/slog"
	"testing"
	"time"
)

func TestLogHandlerLevelFilter(t *testing.T) {
	handler := NewLogHandler(slog.LevelWarn)
	if handler.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info must be filtered at warn level")
	}
	if !handler.Enabled(context.Background(), slog.LevelError) {
		t.Error("error must pass at warn level")
	}
}

func TestLogHandlerWithoutProgramDropsRecord(t *testing.T) {
	handler := NewLogHandler(slog.LevelWarn)
	record := slog.NewRecord(time.Now(), slog.LevelError, "poll failed", 0)
	if err := handler.Handle(context.Background(), record); err != nil {
		t.Fatalf("Handle before SetProgram: %v", err)
	}
}

func TestLogHandlerDerivedSharesProgram(t *testing.T) {
	handler := NewLogHandler(slog.LevelWarn)
	derived, ok := handler.WithAttrs([]slog.Attr{slog.String("room", "sprint-42")}).(*LogHandler)
	if !ok {
		t.Fatal("WithAttrs must return a *LogHandler")
	}
	if derived.program != handler.program {
		t.Error("derived handler must share the program pointer")
	}
}
