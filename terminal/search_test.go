// Copyright © 2025 nterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: terminal/search_test.go
// Summary: Search index tests over an in-memory SQLite database.

package terminal

import (
	"errors"
	"testing"
	"time"
)

func openTestIndex(t *testing.T) *SearchIndex {
	t.Helper()
	ix, err := OpenSearchIndex(":memory:")
	if err != nil {
		t.Fatalf("OpenSearchIndex: %v", err)
	}
	t.Cleanup(func() { ix.Close() })
	return ix
}

func TestSearchIndexRoundTrip(t *testing.T) {
	ix := openTestIndex(t)
	before := time.Now()

	if err := ix.IndexLine("s1", 1, "hello world from the index"); err != nil {
		t.Fatalf("IndexLine: %v", err)
	}
	if err := ix.IndexLine("s1", 2, "another line entirely"); err != nil {
		t.Fatalf("IndexLine: %v", err)
	}
	if err := ix.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	hits, err := ix.Search("world", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
	h := hits[0]
	if h.Session != "s1" || h.LineNo != 1 {
		t.Errorf("hit = %+v, want session s1 line 1", h)
	}
	if h.Content != "hello world from the index" {
		t.Errorf("content = %q", h.Content)
	}
	if h.Stamp.Before(before.Add(-time.Second)) || h.Stamp.After(time.Now().Add(time.Second)) {
		t.Errorf("stamp %v outside test window", h.Stamp)
	}
}

func TestSearchNewestFirst(t *testing.T) {
	ix := openTestIndex(t)

	ix.IndexLine("s1", 1, "build pass one")
	ix.IndexLine("s1", 2, "build pass two")
	ix.IndexLine("s1", 3, "build pass three")
	ix.Flush()

	hits, err := ix.Search("build pass", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("got %d hits, want 3", len(hits))
	}
	want := []string{"build pass three", "build pass two", "build pass one"}
	for i := range want {
		if hits[i].Content != want[i] {
			t.Errorf("hit[%d] = %q, want %q", i, hits[i].Content, want[i])
		}
	}
}

func TestSearchShortQueryUsesLike(t *testing.T) {
	ix := openTestIndex(t)

	ix.IndexLine("s1", 1, "run ls in that directory")
	ix.IndexLine("s1", 2, "progress 100% complete")
	ix.IndexLine("s1", 3, "nothing of note")
	ix.Flush()

	hits, err := ix.Search("ls", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].LineNo != 1 {
		t.Fatalf("hits = %+v, want only line 1", hits)
	}

	// LIKE wildcards in the query must match literally.
	hits, err = ix.Search("%", 10)
	if err != nil {
		t.Fatalf("Search %%: %v", err)
	}
	if len(hits) != 1 || hits[0].LineNo != 2 {
		t.Fatalf("%% hits = %+v, want only line 2", hits)
	}
}

func TestSearchQuotedQuery(t *testing.T) {
	ix := openTestIndex(t)

	ix.IndexLine("s1", 1, `echo "hello there" done`)
	ix.Flush()

	hits, err := ix.Search(`"hello there"`, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
}

func TestSearchLimitAndMiss(t *testing.T) {
	ix := openTestIndex(t)

	for i := int64(1); i <= 5; i++ {
		ix.IndexLine("s1", i, "repeated payload line")
	}
	ix.Flush()

	hits, err := ix.Search("payload", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}

	hits, err = ix.Search("absent needle", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("got %d hits, want 0", len(hits))
	}

	if hits, err := ix.Search("   ", 10); err != nil || hits != nil {
		t.Fatalf("blank query = %v, %v, want nil, nil", hits, err)
	}
}

func TestSearchSessionScoping(t *testing.T) {
	ix := openTestIndex(t)

	ix.IndexLine("alpha", 1, "shared needle first")
	ix.IndexLine("beta", 1, "shared needle second")
	ix.Flush()

	hits, err := ix.Search("shared needle", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	sessions := map[string]bool{}
	for _, h := range hits {
		sessions[h.Session] = true
	}
	if !sessions["alpha"] || !sessions["beta"] {
		t.Fatalf("sessions = %v", sessions)
	}
}

func TestSearchSkipsBlankLines(t *testing.T) {
	ix := openTestIndex(t)

	if err := ix.IndexLine("s1", 1, "   "); err != nil {
		t.Fatalf("IndexLine: %v", err)
	}
	ix.Flush()

	var count int
	if err := ix.db.QueryRow("SELECT COUNT(*) FROM history_lines").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("indexed %d rows, want 0", count)
	}
}

func TestSearchIndexClosed(t *testing.T) {
	ix := openTestIndex(t)

	ix.IndexLine("s1", 1, "before close")
	if err := ix.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if err := ix.IndexLine("s1", 2, "after close"); !errors.Is(err, ErrIndexClosed) {
		t.Fatalf("IndexLine after Close = %v, want ErrIndexClosed", err)
	}
	if _, err := ix.Search("before", 10); !errors.Is(err, ErrIndexClosed) {
		t.Fatalf("Search after Close = %v, want ErrIndexClosed", err)
	}
	if err := ix.Flush(); err != nil {
		t.Fatalf("Flush after Close = %v, want nil", err)
	}
	if err := ix.Close(); err != nil {
		t.Fatalf("second Close = %v, want nil", err)
	}
}

func TestSessionIndexesOutput(t *testing.T) {
	ix := openTestIndex(t)
	s, m := startMemSession(t, WithSearchIndex(ix))

	m.feed("$ make test\r\n\x1b[32mPASS\x1b[0m ok\r\n")
	m.finish(0)
	<-s.Done()
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	hits, err := ix.Search("make test", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
	if hits[0].Session != s.ID() || hits[0].LineNo != 1 {
		t.Errorf("hit = %+v, want session %s line 1", hits[0], s.ID())
	}

	// Escape sequences were stripped before indexing.
	hits, err = ix.Search("PASS ok", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].LineNo != 2 {
		t.Fatalf("PASS hits = %+v", hits)
	}
}
