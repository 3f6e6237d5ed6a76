package terminal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/creack/pty"
)

// Size is a terminal grid dimension in character cells.
type Size struct {
	Rows uint16
	Cols uint16
}

func (sz Size) clamp() Size {
	if sz.Rows < 1 {
		sz.Rows = 1
	}
	if sz.Cols < 1 {
		sz.Cols = 1
	}
	return sz
}

// PTY is the session's view of a pseudo-terminal master: output comes from
// Read, keyboard input goes through Write. Tests substitute an in-memory
// implementation; production uses the process-backed one below.
type PTY interface {
	io.Reader
	io.Writer
	Resize(size Size) error
	// Wait blocks until the child exits and returns its exit code.
	Wait() (int, error)
	Close() error
}

// processPTY runs a child process behind a real PTY pair.
type processPTY struct {
	file *os.File
	cmd  *exec.Cmd
}

// resolveArgv splits a command string into an argv, defaulting to the
// user's shell when the command is empty.
func resolveArgv(command, shell string) ([]string, error) {
	if argv := strings.Fields(command); len(argv) > 0 {
		return argv, nil
	}
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = "/bin/bash"
	}
	argv := strings.Fields(shell)
	if len(argv) == 0 {
		return nil, ErrEmptyCommand
	}
	return argv, nil
}

// openPTY spawns the command on a fresh PTY of the given size with
// TERM=xterm-256color set in its environment.
func openPTY(command string, size Size, shell, dir string, env []string) (*processPTY, error) {
	argv, err := resolveArgv(command, shell)
	if err != nil {
		return nil, err
	}
	if _, err := exec.LookPath(argv[0]); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrShellNotFound, argv[0])
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)
	cmd.Env = append(cmd.Env, "TERM=xterm-256color")

	size = size.clamp()
	f, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: size.Rows, Cols: size.Cols})
	if err != nil {
		return nil, fmt.Errorf("start pty: %w", err)
	}
	return &processPTY{file: f, cmd: cmd}, nil
}

func (p *processPTY) Read(b []byte) (int, error)  { return p.file.Read(b) }
func (p *processPTY) Write(b []byte) (int, error) { return p.file.Write(b) }

func (p *processPTY) Resize(size Size) error {
	size = size.clamp()
	return pty.Setsize(p.file, &pty.Winsize{Rows: size.Rows, Cols: size.Cols})
}

// Wait reaps the child, mapping signal death to the shell's 128+signal
// convention.
func (p *processPTY) Wait() (int, error) {
	err := p.cmd.Wait()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return 128 + int(ws.Signal()), nil
		}
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

// Close releases the master side and nudges the child with SIGTERM. The
// child normally sees EOF/HUP; this is best-effort cleanup, not a
// guaranteed kill.
func (p *processPTY) Close() error {
	err := p.file.Close()
	if p.cmd.Process != nil {
		p.cmd.Process.Signal(syscall.SIGTERM)
	}
	return err
}
