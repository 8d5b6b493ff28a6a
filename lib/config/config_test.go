// Copyright 2026 The Pointdeck Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pointdeck.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	configuration, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if configuration.RoomPollInterval != 1500*time.Millisecond {
		t.Errorf("room poll default = %v", configuration.RoomPollInterval)
	}
	if configuration.LobbyPollInterval != 3*time.Second {
		t.Errorf("lobby poll default = %v", configuration.LobbyPollInterval)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server_url: https://poker.example.com
room_poll_interval: 2s
extensions:
  tracker:
    base_url: https://tracker.example.com
    api_token: secret
`)
	configuration, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if configuration.ServerURL != "https://poker.example.com" {
		t.Errorf("server_url = %q", configuration.ServerURL)
	}
	if configuration.RoomPollInterval != 2*time.Second {
		t.Errorf("room_poll_interval = %v", configuration.RoomPollInterval)
	}
	// Unset values keep their defaults.
	if configuration.LobbyPollInterval != 3*time.Second {
		t.Errorf("lobby_poll_interval = %v", configuration.LobbyPollInterval)
	}

	var tracker struct {
		BaseURL  string `yaml:"base_url"`
		APIToken string `yaml:"api_token"`
	}
	present, err := configuration.ExtensionSection("tracker", &tracker)
	if err != nil || !present {
		t.Fatalf("ExtensionSection: present=%v err=%v", present, err)
	}
	if tracker.BaseURL != "https://tracker.example.com" || tracker.APIToken != "secret" {
		t.Errorf("tracker section = %+v", tracker)
	}
	if present, _ := configuration.ExtensionSection("absent", &tracker); present {
		t.Error("absent section reported present")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	for name, content := range map[string]string{
		"relative url":  "server_url: not-a-url",
		"zero interval": "room_poll_interval: 0s",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, content)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadEnvVar(t *testing.T) {
	path := writeConfig(t, "server_url: https://poker.example.com\n")
	t.Setenv(EnvVar, path)
	configuration, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if configuration.ServerURL != "https://poker.example.com" {
		t.Errorf("server_url = %q", configuration.ServerURL)
	}
}
