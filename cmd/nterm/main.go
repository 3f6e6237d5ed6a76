// Copyright © 2025 nterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/nterm/main.go
// Summary: Interactive terminal emulator running a child shell or command.
// Usage: nterm [-cmd command] [-config path] [-index path] [-scrollback n]
// Notes: The child's exit code becomes nterm's own exit code.

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/term"

	"github.com/ashishtyagi10/nterm/config"
	"github.com/ashishtyagi10/nterm/terminal"
	"github.com/ashishtyagi10/nterm/terminal/parser"
	"github.com/ashishtyagi10/nterm/tui"
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(code)
}

func run() (int, error) {
	cmdFlag := flag.String("cmd", "", "Command to run instead of the shell")
	configPath := flag.String("config", "", "Config file path (default ~/.config/nterm/nterm.json)")
	indexPath := flag.String("index", "", "SQLite history index path (empty disables indexing)")
	scrollback := flag.Int("scrollback", 0, "Scrollback rows (overrides config)")
	flag.Parse()

	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return 0, fmt.Errorf("nterm needs a terminal on stdin and stdout")
	}

	path := *configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return 0, fmt.Errorf("resolve config path: %w", err)
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return 0, err
	}
	if *cmdFlag != "" {
		cfg.Command = *cmdFlag
	}
	if *indexPath != "" {
		cfg.IndexPath = *indexPath
	}
	if *scrollback > 0 {
		cfg.Scrollback = *scrollback
	}

	opts := []terminal.Option{
		terminal.WithPalette(palette(cfg)),
	}
	if cfg.Shell != "" {
		opts = append(opts, terminal.WithShell(cfg.Shell))
	}
	if cfg.Scrollback > 0 {
		opts = append(opts, terminal.WithScrollback(cfg.Scrollback))
	}
	if cfg.HistoryLimit > 0 {
		opts = append(opts, terminal.WithHistoryLimit(cfg.HistoryLimit))
	}
	if cfg.IndexPath != "" {
		ix, err := terminal.OpenSearchIndex(cfg.IndexPath)
		if err != nil {
			return 0, fmt.Errorf("open search index: %w", err)
		}
		defer ix.Close()
		opts = append(opts, terminal.WithSearchIndex(ix))
	}

	size := terminal.Size{Rows: cfg.Rows, Cols: cfg.Cols}
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 && h > 0 {
		size = terminal.Size{Rows: uint16(h), Cols: uint16(w)}
	}

	spawn := func() (*terminal.Session, error) {
		return terminal.Spawn(cfg.Command, size, opts...)
	}
	session, err := spawn()
	if err != nil {
		return 0, err
	}

	tcell.SetEncodingFallback(tcell.EncodingFallbackASCII)
	screen, err := tcell.NewScreen()
	if err != nil {
		session.Close()
		return 0, fmt.Errorf("create screen: %w", err)
	}

	app := tui.New(screen, session, tui.WithRespawn(spawn))
	defer func() { app.Session().Close() }()

	if err := app.Run(); err != nil {
		return 0, err
	}
	if code, ok := app.Session().ExitCode(); ok {
		return code, nil
	}
	return 0, nil
}

func palette(cfg config.Config) parser.Palette {
	return parser.Palette{
		Foreground: parser.RGB{R: cfg.Foreground[0], G: cfg.Foreground[1], B: cfg.Foreground[2]},
		Background: parser.RGB{R: cfg.Background[0], G: cfg.Background[1], B: cfg.Background[2]},
	}
}
