// Copyright © 2025 nterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/config.go
// Summary: JSON configuration file for the nterm binaries.
// Usage: Load(DefaultPath()) at startup; a missing file yields defaults.
// Notes: Engine packages take settings as plain arguments and never read
//        the file themselves.

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the user-tunable settings for the binaries.
type Config struct {
	Shell        string   `json:"shell,omitempty"`
	Command      string   `json:"command,omitempty"`
	Rows         uint16   `json:"rows,omitempty"`
	Cols         uint16   `json:"cols,omitempty"`
	Scrollback   int      `json:"scrollback,omitempty"`
	HistoryLimit int      `json:"history_limit,omitempty"`
	IndexPath    string   `json:"index_path,omitempty"`
	Foreground   [3]uint8 `json:"foreground"`
	Background   [3]uint8 `json:"background"`
}

// Default returns the stock configuration: an 80x24 shell with a thousand
// rows of scrollback and light gray on black.
func Default() Config {
	return Config{
		Rows:       24,
		Cols:       80,
		Scrollback: 1000,
		Foreground: [3]uint8{211, 215, 207},
		Background: [3]uint8{0, 0, 0},
	}
}

// DefaultPath returns the per-user config file location, normally
// ~/.config/nterm/nterm.json.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "nterm", "nterm.json"), nil
}

// Load reads the config at path. A missing file is not an error; it yields
// Default(). Keys absent from the file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to path, creating parent directories as needed.
func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
