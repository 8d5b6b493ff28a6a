// Copyright 2026 The Pointdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads client configuration from a single yaml file
// specified by the POINTDECK_CONFIG environment variable or the
// --config flag. There is no automatic discovery; every configured
// value has an explicit origin.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable holding the config file path.
const EnvVar = "POINTDECK_CONFIG"

// Config is the full client configuration.
type Config struct {
	// ServerURL is the estimation server's base URL.
	ServerURL string `yaml:"server_url"`

	// RoomPollInterval is how often the live room view reconciles
	// with the server. Default 1.5s.
	RoomPollInterval time.Duration `yaml:"room_poll_interval"`

	// LobbyPollInterval is how often the room list refreshes.
	// Default 3s.
	LobbyPollInterval time.Duration `yaml:"lobby_poll_interval"`

	// Extensions holds opaque per-extension settings keyed by
	// extension key; each extension decodes its own section.
	Extensions map[string]yaml.Node `yaml:"extensions"`
}

// Default returns the configuration used when no file is present.
// A server URL must still be supplied by flag.
func Default() Config {
	return Config{
		RoomPollInterval:  1500 * time.Millisecond,
		LobbyPollInterval: 3 * time.Second,
	}
}

// Load reads the config file at path. An empty path falls back to the
// POINTDECK_CONFIG environment variable; if that is also empty, the
// defaults are returned unchanged.
func Load(path string) (Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	configuration := Default()
	if path == "" {
		return configuration, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &configuration); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := configuration.validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return configuration, nil
}

func (c *Config) validate() error {
	if c.ServerURL != "" {
		parsed, err := url.Parse(c.ServerURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("server_url %q is not an absolute URL", c.ServerURL)
		}
	}
	if c.RoomPollInterval <= 0 {
		return fmt.Errorf("room_poll_interval must be positive, got %v", c.RoomPollInterval)
	}
	if c.LobbyPollInterval <= 0 {
		return fmt.Errorf("lobby_poll_interval must be positive, got %v", c.LobbyPollInterval)
	}
	return nil
}

// ExtensionSection decodes the named extension's settings into out.
// Returns false if the section is absent.
func (c *Config) ExtensionSection(key string, out any) (bool, error) {
	node, present := c.Extensions[key]
	if !present {
		return false, nil
	}
	if err := node.Decode(out); err != nil {
		return false, fmt.Errorf("extension %q config: %w", key, err)
	}
	return true, nil
}
