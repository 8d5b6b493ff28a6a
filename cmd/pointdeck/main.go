// Copyright 2026 The Pointdeck Authors
// SPDX-License-Identifier: Apache-2.0

// pointdeck is the terminal client for a planning-poker estimation
// server. It opens a lobby listing the server's rooms; entering a room
// switches to the live voting view, which polls the server and lets
// the participant cast cards, manage members, and read the revealed
// summary.
//
// Usage:
//
//	pointdeck --server https://poker.example.com
//	pointdeck --server https://poker.example.com --room "sprint 42"
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/pointdeck/pointdeck/lib/apiclient"
	"github.com/pointdeck/pointdeck/lib/clock"
	"github.com/pointdeck/pointdeck/lib/config"
	"github.com/pointdeck/pointdeck/lib/extension"
	"github.com/pointdeck/pointdeck/lib/model"
	"github.com/pointdeck/pointdeck/lib/roomsync"
	"github.com/pointdeck/pointdeck/lib/tui"
	"github.com/pointdeck/pointdeck/lib/version"
)

// startupTimeout bounds the pre-TUI requests (identity, card sets,
// extension keys, initial room list).
const startupTimeout = 15 * time.Second

// exitError signals a non-zero exit code without an extra message;
// the command already wrote its own output.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

func main() {
	if err := run(); err != nil {
		if exit, ok := err.(*exitError); ok {
			os.Exit(exit.code)
		}
		fmt.Fprintf(os.Stderr, "pointdeck: %v\n", err)
		os.Exit(1)
	}
}

// session is the immutable per-run context fetched once at startup
// and shared by reference across views.
type session struct {
	user          model.User
	cardSets      []model.CardSet
	extensionKeys []string
}

func run() error {
	var serverFlag string
	var configPath string
	var roomFlag string
	var logOutput string
	var showVersion bool

	flags := pflag.NewFlagSet("pointdeck", pflag.ContinueOnError)
	flags.StringVar(&serverFlag, "server", "", "estimation server base URL (overrides config)")
	flags.StringVar(&configPath, "config", "", "config file path (default: $"+config.EnvVar+")")
	flags.StringVar(&roomFlag, "room", "", "join this room directly, skipping the lobby")
	flags.StringVar(&logOutput, "log-output", "", "write JSON log records to this file (in addition to TUI display)")
	flags.BoolVar(&showVersion, "version", false, "print version and exit")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return &exitError{code: 2}
	}
	if showVersion {
		fmt.Printf("pointdeck %s\n", version.Full())
		return nil
	}
	if args := flags.Args(); len(args) > 0 {
		fmt.Fprintf(os.Stderr, "pointdeck: unexpected argument: %s\n", args[0])
		return &exitError{code: 2}
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("stdout is not a terminal")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	serverURL := cfg.ServerURL
	if serverFlag != "" {
		serverURL = serverFlag
	}
	if serverURL == "" {
		fmt.Fprintln(os.Stderr, "pointdeck: no server URL; pass --server or set server_url in the config")
		return &exitError{code: 2}
	}

	client, err := apiclient.NewWithPageTokens(serverURL)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	sess, err := loadSession(ctx, client)
	if err != nil {
		return err
	}

	// Log records from background polling go to the TUI status bar;
	// stderr would corrupt the alt-screen display.
	tuiHandler := tui.NewLogHandler(slog.LevelWarn)
	logger := slog.New(tuiHandler)
	if logOutput != "" {
		fileHandler, closeFile, err := openFileLogHandler(logOutput)
		if err != nil {
			return fmt.Errorf("cannot open log file %s: %w", logOutput, err)
		}
		defer closeFile()
		logger = slog.New(fanoutHandler{tuiHandler, fileHandler})
	}

	registry, err := buildRegistry(&cfg, client, logger)
	if err != nil {
		return err
	}
	compiled := make([]string, 0, len(registry.All()))
	for _, ext := range registry.All() {
		compiled = append(compiled, ext.Key())
	}
	logger.Debug("starting",
		"version", version.Short(),
		"server", serverURL,
		"user", sess.user.Username,
		"extensions", compiled)
	enabled := registry.Enabled(sess.extensionKeys)

	poller := roomsync.NewListPoller(client, clock.Real(), cfg.LobbyPollInterval)
	if err := poller.Start(ctx); err != nil {
		return fmt.Errorf("loading room list: %w", err)
	}
	defer poller.Stop()

	app := newAppModel(sess, client, cfg, enabled, poller, logger)
	app.startRoom = roomFlag
	program := tea.NewProgram(app, tea.WithAltScreen())
	tuiHandler.SetProgram(program)

	_, err = program.Run()
	return err
}

// loadSession fetches the immutable reference data every view needs.
func loadSession(ctx context.Context, client *apiclient.Client) (*session, error) {
	user, err := client.Identity(ctx)
	if err != nil {
		return nil, err
	}
	cardSets, err := client.CardSets(ctx)
	if err != nil {
		return nil, err
	}
	keys, err := client.EnabledExtensionKeys(ctx)
	if err != nil {
		return nil, err
	}
	return &session{user: user, cardSets: cardSets, extensionKeys: keys}, nil
}

// buildRegistry assembles the compiled-in extensions. The tracker only
// joins the registry when the config carries a tracker section; the
// server-side enabled-key filter is applied separately.
func buildRegistry(cfg *config.Config, client *apiclient.Client, logger *slog.Logger) (*extension.Registry, error) {
	var extensions []extension.Extension

	var trackerCfg extension.TrackerConfig
	present, err := cfg.ExtensionSection(extension.TrackerKey, &trackerCfg)
	if err != nil {
		return nil, err
	}
	if present {
		extensions = append(extensions, extension.NewTracker(trackerCfg, client, clock.Real(), logger))
	}

	return extension.NewRegistry(extensions...), nil
}

// openFileLogHandler creates a JSON slog handler writing to path. The
// file is created or truncated.
func openFileLogHandler(path string) (slog.Handler, func(), error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	handler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug})
	return handler, func() { file.Close() }, nil
}

// fanoutHandler sends each record to multiple handlers. A record is
// enabled if any sub-handler is enabled for its level.
type fanoutHandler []slog.Handler

func (handlers fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (handlers fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, handler := range handlers {
		if handler.Enabled(ctx, record.Level) {
			if err := handler.Handle(ctx, record); err != nil {
				return err
			}
		}
	}
	return nil
}

func (handlers fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	derived := make(fanoutHandler, len(handlers))
	for index, handler := range handlers {
		derived[index] = handler.WithAttrs(attrs)
	}
	return derived
}

func (handlers fanoutHandler) WithGroup(name string) slog.Handler {
	derived := make(fanoutHandler, len(handlers))
	for index, handler := range handlers {
		derived[index] = handler.WithGroup(name)
	}
	return derived
}
