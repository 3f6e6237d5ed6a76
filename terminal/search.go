// Copyright © 2025 nterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: terminal/search.go
// Summary: SQLite FTS5 search index over session output lines.
// Usage: OpenSearchIndex once per index file, share across sessions via
//        WithSearchIndex; Search matches any substring of an indexed line.
// Notes: Indexing is batched on a background goroutine. IndexLine never
//        drops a line; when the queue is full it flushes synchronously.

package terminal

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

const (
	indexBatchSize     = 100
	indexBatchTimeout  = 2 * time.Second
	indexChannelBuffer = 1000
)

const searchSchema = `
CREATE TABLE IF NOT EXISTS history_lines (
    id INTEGER PRIMARY KEY,
    session_id TEXT NOT NULL,
    line_no INTEGER NOT NULL,
    stamp INTEGER NOT NULL,
    content TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_history_lines_stamp ON history_lines(stamp);
CREATE INDEX IF NOT EXISTS idx_history_lines_session ON history_lines(session_id, line_no);

-- Trigram tokenizer so any substring of three or more characters matches.
CREATE VIRTUAL TABLE IF NOT EXISTS history_fts USING fts5(
    content,
    content='history_lines',
    content_rowid='id',
    tokenize='trigram'
);

CREATE TRIGGER IF NOT EXISTS history_lines_ai AFTER INSERT ON history_lines BEGIN
    INSERT INTO history_fts(rowid, content) VALUES (new.id, new.content);
END;

CREATE TRIGGER IF NOT EXISTS history_lines_ad AFTER DELETE ON history_lines BEGIN
    INSERT INTO history_fts(history_fts, rowid, content) VALUES ('delete', old.id, old.content);
END;
`

// SearchHit is a single matched line.
type SearchHit struct {
	Session string
	LineNo  int64
	Stamp   time.Time
	Content string
}

// indexEntry is a queued line waiting for the batch indexer.
type indexEntry struct {
	session string
	lineNo  int64
	stamp   int64
	text    string
}

// SearchIndex stores session output lines in SQLite and serves full-text
// queries over them. One index may back any number of sessions; rows are
// scoped by session ID.
type SearchIndex struct {
	db *sql.DB

	batchChan chan indexEntry
	stopCh    chan struct{}
	doneCh    chan struct{}
	flushCh   chan chan struct{}

	closed atomic.Bool
}

// OpenSearchIndex opens or creates the index database at path. The special
// path ":memory:" keeps the index in memory, which is mainly useful in
// tests.
func OpenSearchIndex(path string) (*SearchIndex, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create index directory: %w", err)
		}
		dsn = path +
			"?_pragma=journal_mode(WAL)" +
			"&_pragma=synchronous(NORMAL)" +
			"&_pragma=cache_size(-8000)" +
			"&_pragma=temp_store(MEMORY)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open index database: %w", err)
	}
	if path == ":memory:" {
		// A second pool connection would see a fresh empty database.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect index database: %w", err)
	}
	if _, err := db.Exec(searchSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index schema: %w", err)
	}

	x := &SearchIndex{
		db:        db,
		batchChan: make(chan indexEntry, indexChannelBuffer),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
		flushCh:   make(chan chan struct{}),
	}
	go x.batchIndexer()
	return x, nil
}

// IndexLine queues one output line for indexing. Empty lines are skipped.
// When the queue is full the pending batch is flushed and the send retried,
// so lines are never dropped. Returns ErrIndexClosed after Close.
func (x *SearchIndex) IndexLine(session string, lineNo int64, text string) error {
	if x.closed.Load() {
		return ErrIndexClosed
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	entry := indexEntry{
		session: session,
		lineNo:  lineNo,
		stamp:   time.Now().UnixNano(),
		text:    text,
	}

	select {
	case x.batchChan <- entry:
		return nil
	default:
	}

	// Queue full. Flush synchronously and wait for room instead of
	// dropping the line.
	x.Flush()
	select {
	case x.batchChan <- entry:
		return nil
	case <-x.stopCh:
		return ErrIndexClosed
	}
}

// batchIndexer runs in a background goroutine, batching entries and
// flushing them periodically.
func (x *SearchIndex) batchIndexer() {
	defer close(x.doneCh)

	batch := make([]indexEntry, 0, indexBatchSize)
	timer := time.NewTimer(indexBatchTimeout)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		x.flushBatch(batch)
		batch = batch[:0]
	}

	for {
		select {
		case entry := <-x.batchChan:
			batch = append(batch, entry)
			if len(batch) >= indexBatchSize {
				flush()
				timer.Reset(indexBatchTimeout)
			}

		case <-timer.C:
			flush()
			timer.Reset(indexBatchTimeout)

		case done := <-x.flushCh:
			// Drain the queue first so Flush means flushed.
			draining := true
			for draining {
				select {
				case entry := <-x.batchChan:
					batch = append(batch, entry)
				default:
					draining = false
				}
			}
			flush()
			close(done)

		case <-x.stopCh:
			for {
				select {
				case entry := <-x.batchChan:
					batch = append(batch, entry)
				default:
					flush()
					return
				}
			}
		}
	}
}

// flushBatch writes a batch in a single transaction.
func (x *SearchIndex) flushBatch(batch []indexEntry) {
	tx, err := x.db.Begin()
	if err != nil {
		log.Printf("terminal: index begin: %v", err)
		return
	}

	stmt, err := tx.Prepare("INSERT INTO history_lines (session_id, line_no, stamp, content) VALUES (?, ?, ?, ?)")
	if err != nil {
		log.Printf("terminal: index prepare: %v", err)
		tx.Rollback()
		return
	}
	defer stmt.Close()

	for _, e := range batch {
		if _, err := stmt.Exec(e.session, e.lineNo, e.stamp, e.text); err != nil {
			log.Printf("terminal: index line %d: %v", e.lineNo, err)
			tx.Rollback()
			return
		}
	}

	if err := tx.Commit(); err != nil {
		log.Printf("terminal: index commit: %v", err)
	}
}

// Search returns up to limit lines containing query as a substring, newest
// first. Queries shorter than three characters fall back to LIKE because
// the trigram tokenizer cannot match them.
func (x *SearchIndex) Search(query string, limit int) ([]SearchHit, error) {
	if x.closed.Load() {
		return nil, ErrIndexClosed
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	var rows *sql.Rows
	var err error

	if len(query) < 3 {
		pattern := "%" + escapeLike(query) + "%"
		rows, err = x.db.Query(`
			SELECT session_id, line_no, stamp, content
			FROM history_lines
			WHERE content LIKE ? ESCAPE '\'
			ORDER BY stamp DESC, id DESC
			LIMIT ?
		`, pattern, limit)
	} else {
		// Double quotes make FTS5 treat the query as a literal string,
		// so operators and punctuation inside it are matched verbatim.
		quoted := `"` + strings.ReplaceAll(query, `"`, `""`) + `"`
		rows, err = x.db.Query(`
			SELECT h.session_id, h.line_no, h.stamp, h.content
			FROM history_fts
			JOIN history_lines h ON h.id = history_fts.rowid
			WHERE history_fts MATCH ?
			ORDER BY h.stamp DESC, h.id DESC
			LIMIT ?
		`, quoted, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	defer rows.Close()

	var hits []SearchHit
	for rows.Next() {
		var h SearchHit
		var stamp int64
		if err := rows.Scan(&h.Session, &h.LineNo, &stamp, &h.Content); err != nil {
			return nil, fmt.Errorf("scan search hit: %w", err)
		}
		h.Stamp = time.Unix(0, stamp)
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// Flush blocks until every queued line has been written to the database.
func (x *SearchIndex) Flush() error {
	done := make(chan struct{})
	select {
	case x.flushCh <- done:
		<-done
	case <-x.stopCh:
	}
	return nil
}

// Close flushes pending writes and closes the database. Safe to call more
// than once.
func (x *SearchIndex) Close() error {
	if x.closed.Swap(true) {
		return nil
	}
	close(x.stopCh)
	<-x.doneCh
	return x.db.Close()
}
