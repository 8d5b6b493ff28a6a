// Copyright 2026 The Pointdeck Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pointdeck/pointdeck/lib/apiclient"
	"github.com/pointdeck/pointdeck/lib/clock"
	"github.com/pointdeck/pointdeck/lib/config"
	"github.com/pointdeck/pointdeck/lib/extension"
	"github.com/pointdeck/pointdeck/lib/lobbyui"
	"github.com/pointdeck/pointdeck/lib/roomsync"
	"github.com/pointdeck/pointdeck/lib/roomui"
	"github.com/pointdeck/pointdeck/lib/tui"
)

// roomReadyMsg reports the outcome of the blocking room entry
// sequence (join, fetch, optional summary).
type roomReadyMsg struct {
	sync *roomsync.Synchronizer
	err  error
}

// appModel owns lobby↔room navigation. Exactly one of the two views
// is active; window size and log records are replayed into a view
// when it becomes active.
type appModel struct {
	sess    *session
	client  *apiclient.Client
	cfg     config.Config
	enabled []extension.Extension
	logger  *slog.Logger

	// startRoom, when set, skips the lobby on startup (--room).
	startRoom string

	lobby   tea.Model
	room    tea.Model
	joining bool

	lastSize *tea.WindowSizeMsg
}

func newAppModel(sess *session, client *apiclient.Client, cfg config.Config,
	enabled []extension.Extension, poller *roomsync.ListPoller, logger *slog.Logger) *appModel {
	return &appModel{
		sess:    sess,
		client:  client,
		cfg:     cfg,
		enabled: enabled,
		logger:  logger,
		lobby:   lobbyui.NewModel(poller, client, sess.cardSets),
	}
}

// Init implements tea.Model.
func (a *appModel) Init() tea.Cmd {
	cmds := []tea.Cmd{a.lobby.Init()}
	if a.startRoom != "" {
		a.joining = true
		cmds = append(cmds, a.enterRoom(a.startRoom))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (a *appModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		a.lastSize = &message
		// Both views track the size so switching needs no replay.
		var cmds []tea.Cmd
		var cmd tea.Cmd
		a.lobby, cmd = a.lobby.Update(message)
		cmds = append(cmds, cmd)
		if a.room != nil {
			a.room, cmd = a.room.Update(message)
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case lobbyui.EnterRoomMsg:
		if a.joining {
			return a, nil
		}
		a.joining = true
		return a, a.enterRoom(message.Name)

	case roomReadyMsg:
		a.joining = false
		if message.err != nil {
			a.logger.Error("cannot enter room", "error", message.err)
			return a, nil
		}
		room := roomui.NewModel(message.sync, a.sess.user.Username, a.enabled, a.sess.cardSets)
		a.room = room
		cmds := []tea.Cmd{a.room.Init()}
		if a.lastSize != nil {
			var cmd tea.Cmd
			a.room, cmd = a.room.Update(*a.lastSize)
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case roomui.LeftRoomMsg:
		a.room = nil
		if message.Notice != "" {
			// Surface the reason in the lobby status bar.
			var cmd tea.Cmd
			a.lobby, cmd = a.lobby.Update(tui.LogRecordMsg{Summary: message.Notice, Level: slog.LevelWarn})
			return a, cmd
		}
		return a, nil
	}

	// Everything else goes to the active view.
	var cmd tea.Cmd
	if a.room != nil {
		a.room, cmd = a.room.Update(message)
	} else {
		a.lobby, cmd = a.lobby.Update(message)
	}
	return a, cmd
}

// View implements tea.Model.
func (a *appModel) View() string {
	if a.room != nil {
		return a.room.View()
	}
	if a.joining {
		return "joining room…"
	}
	return a.lobby.View()
}

// enterRoom runs the blocking entry sequence off the event loop. The
// synchronizer's Start either completes the join atomically or leaves
// no trace.
func (a *appModel) enterRoom(name string) tea.Cmd {
	sync := roomsync.New(a.client, clock.Real(), a.logger, name, a.sess.user.Username,
		a.cfg.RoomPollInterval, a.sess.cardSets)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		defer cancel()
		if err := sync.Start(ctx); err != nil {
			return roomReadyMsg{err: err}
		}
		return roomReadyMsg{sync: sync}
	}
}
