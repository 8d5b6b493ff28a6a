// Copyright 2026 The Pointdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package tui holds the visual vocabulary shared by the lobby and
// room views: the color theme and small reusable widgets.
package tui
