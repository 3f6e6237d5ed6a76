// Copyright © 2025 nterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/nterm-replay/main.go
// Summary: Replays a recorded terminal transcript through the emulation
//          engine and prints the resulting grid.
// Usage: nterm-replay [-rows n] [-cols n] [-index path] [-search query] file
// Notes: Output is ANSI-colored when stdout is a terminal, plain text
//        otherwise. -search without -index uses an in-memory index.

package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"github.com/ashishtyagi10/nterm/terminal"
	"github.com/ashishtyagi10/nterm/terminal/parser"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	rows := flag.Int("rows", 24, "Grid rows to replay into")
	cols := flag.Int("cols", 80, "Grid columns to replay into")
	indexPath := flag.String("index", "", "Build a SQLite history index at this path")
	search := flag.String("search", "", "Query the transcript index and print matches")
	limit := flag.Int("limit", 20, "Maximum search hits")
	flag.Parse()

	if flag.NArg() != 1 {
		return fmt.Errorf("usage: nterm-replay [flags] transcript-file")
	}
	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		return err
	}

	screen := parser.NewScreen(*rows, *cols, 0)
	screen.Process(data)
	dumpGrid(screen, term.IsTerminal(int(os.Stdout.Fd())))

	if *indexPath == "" && *search != "" {
		*indexPath = ":memory:"
	}
	if *indexPath != "" {
		return indexTranscript(*indexPath, filepath.Base(flag.Arg(0)), data, *search, *limit)
	}
	return nil
}

func dumpGrid(s *parser.Screen, colored bool) {
	pal := parser.DefaultPalette()
	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()

	for _, row := range s.Cells() {
		if !colored {
			line := make([]rune, 0, len(row))
			for _, c := range row {
				if c.Rune == 0 {
					continue
				}
				line = append(line, c.Rune)
			}
			fmt.Fprintln(w, strings.TrimRight(string(line), " "))
			continue
		}
		for _, c := range row {
			if c.Rune == 0 {
				continue
			}
			fg := pal.ResolveFG(c.FG)
			bg := pal.ResolveBG(c.BG)
			fmt.Fprintf(w, "\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm", fg.R, fg.G, fg.B, bg.R, bg.G, bg.B)
			if c.Attr&parser.AttrBold != 0 {
				w.WriteString("\x1b[1m")
			}
			if c.Attr&parser.AttrUnderline != 0 {
				w.WriteString("\x1b[4m")
			}
			if c.Attr&parser.AttrReverse != 0 {
				w.WriteString("\x1b[7m")
			}
			w.WriteRune(c.Rune)
		}
		w.WriteString("\x1b[0m\n")
	}
}

// indexTranscript runs the transcript through the history line scanner so
// the index sees the same cleaned lines a live session would produce.
func indexTranscript(path, session string, data []byte, query string, limit int) error {
	ix, err := terminal.OpenSearchIndex(path)
	if err != nil {
		return err
	}
	defer ix.Close()

	var lineNo int64
	var indexErr error
	h := terminal.NewHistory(0)
	h.SetLineSink(func(line string) {
		lineNo++
		if err := ix.IndexLine(session, lineNo, line); err != nil && indexErr == nil {
			indexErr = err
		}
	})
	h.Write(data)
	if indexErr != nil {
		return indexErr
	}
	if err := ix.Flush(); err != nil {
		return err
	}
	fmt.Printf("indexed %d lines from %s\n", lineNo, session)

	if query == "" {
		return nil
	}
	hits, err := ix.Search(query, limit)
	if err != nil {
		return err
	}
	for _, hit := range hits {
		fmt.Printf("%6d  %s\n", hit.LineNo, hit.Content)
	}
	fmt.Printf("%d match(es)\n", len(hits))
	return nil
}
