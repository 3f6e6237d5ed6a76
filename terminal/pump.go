package terminal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"syscall"
)

const readChunkSize = 4096

// readLoop is the pump goroutine: the sole writer to the screen. Bytes are
// processed in exact arrival order; the screen write lock is held for at
// most one chunk at a time.
func (s *Session) readLoop() {
	defer close(s.done)
	defer func() {
		if r := recover(); r != nil {
			s.transitionError(fmt.Sprintf("output pump panic: %v", r))
		}
	}()

	buf := make([]byte, readChunkSize)
	for {
		n, err := s.pty.Read(buf)
		if n > 0 {
			s.mu.Lock()
			s.screen.Process(buf[:n])
			s.mu.Unlock()
			s.history.Write(buf[:n])
			s.events.push(Event{Kind: EventOutput})
			runtime.Gosched()
		}
		if err == nil {
			continue
		}
		if childGone(err) {
			code, _ := s.pty.Wait()
			s.transitionExit(code)
		} else {
			s.transitionError(fmt.Sprintf("read pty: %v", err))
		}
		return
	}
}

// childGone reports the read errors that mean the child side is finished:
// plain EOF, EIO (the Linux PTY teardown signature), or our own Close
// racing the blocked read.
func childGone(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, syscall.EIO) ||
		errors.Is(err, os.ErrClosed)
}
