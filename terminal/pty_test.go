package terminal

import (
	"errors"
	"reflect"
	"testing"
)

func TestResolveArgv(t *testing.T) {
	t.Run("command splits on whitespace", func(t *testing.T) {
		argv, err := resolveArgv("htop -d 10", "/bin/zsh")
		if err != nil {
			t.Fatal(err)
		}
		if want := []string{"htop", "-d", "10"}; !reflect.DeepEqual(argv, want) {
			t.Fatalf("argv = %v, want %v", argv, want)
		}
	})

	t.Run("empty command uses shell", func(t *testing.T) {
		argv, err := resolveArgv("", "/usr/bin/fish -l")
		if err != nil {
			t.Fatal(err)
		}
		if want := []string{"/usr/bin/fish", "-l"}; !reflect.DeepEqual(argv, want) {
			t.Fatalf("argv = %v, want %v", argv, want)
		}
	})

	t.Run("falls back to SHELL", func(t *testing.T) {
		t.Setenv("SHELL", "/bin/zsh")
		argv, err := resolveArgv("", "")
		if err != nil {
			t.Fatal(err)
		}
		if want := []string{"/bin/zsh"}; !reflect.DeepEqual(argv, want) {
			t.Fatalf("argv = %v, want %v", argv, want)
		}
	})

	t.Run("falls back to bash without SHELL", func(t *testing.T) {
		t.Setenv("SHELL", "")
		argv, err := resolveArgv("", "")
		if err != nil {
			t.Fatal(err)
		}
		if want := []string{"/bin/bash"}; !reflect.DeepEqual(argv, want) {
			t.Fatalf("argv = %v, want %v", argv, want)
		}
	})

	t.Run("whitespace shell is an error", func(t *testing.T) {
		if _, err := resolveArgv("", "   "); !errors.Is(err, ErrEmptyCommand) {
			t.Fatalf("err = %v, want ErrEmptyCommand", err)
		}
	})
}

func TestOpenPTYMissingBinary(t *testing.T) {
	_, err := openPTY("no-such-binary-on-any-path", Size{Rows: 24, Cols: 80}, "", "", nil)
	if !errors.Is(err, ErrShellNotFound) {
		t.Fatalf("err = %v, want ErrShellNotFound", err)
	}
}

func TestSpawnMissingBinary(t *testing.T) {
	if _, err := Spawn("no-such-binary-on-any-path", Size{Rows: 24, Cols: 80}); !errors.Is(err, ErrShellNotFound) {
		t.Fatalf("Spawn err = %v, want ErrShellNotFound", err)
	}
}

func TestSizeClamp(t *testing.T) {
	if got := (Size{}).clamp(); got.Rows != 1 || got.Cols != 1 {
		t.Fatalf("clamp zero = %+v, want 1x1", got)
	}
	if got := (Size{Rows: 24, Cols: 80}).clamp(); got.Rows != 24 || got.Cols != 80 {
		t.Fatalf("clamp 24x80 = %+v", got)
	}
}
