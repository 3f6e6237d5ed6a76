package tui

import (
	"testing"

	"github.com/gdamore/tcell/v2"
)

func TestKeyBytes(t *testing.T) {
	cases := []struct {
		name string
		ev   *tcell.EventKey
		app  bool
		want string
	}{
		{"up", tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone), false, "\x1b[A"},
		{"down", tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone), false, "\x1b[B"},
		{"right", tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone), false, "\x1b[C"},
		{"left", tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone), false, "\x1b[D"},
		{"up app mode", tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone), true, "\x1bOA"},
		{"left app mode", tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone), true, "\x1bOD"},
		{"home", tcell.NewEventKey(tcell.KeyHome, 0, tcell.ModNone), false, "\x1b[H"},
		{"end", tcell.NewEventKey(tcell.KeyEnd, 0, tcell.ModNone), false, "\x1b[F"},
		{"delete", tcell.NewEventKey(tcell.KeyDelete, 0, tcell.ModNone), false, "\x1b[3~"},
		{"page up", tcell.NewEventKey(tcell.KeyPgUp, 0, tcell.ModNone), false, "\x1b[5~"},
		{"page down", tcell.NewEventKey(tcell.KeyPgDn, 0, tcell.ModNone), false, "\x1b[6~"},
		{"f1", tcell.NewEventKey(tcell.KeyF1, 0, tcell.ModNone), false, "\x1bOP"},
		{"f5", tcell.NewEventKey(tcell.KeyF5, 0, tcell.ModNone), false, "\x1b[15~"},
		{"f12", tcell.NewEventKey(tcell.KeyF12, 0, tcell.ModNone), false, "\x1b[24~"},
		{"enter", tcell.NewEventKey(tcell.KeyEnter, '\r', tcell.ModNone), false, "\r"},
		{"backspace", tcell.NewEventKey(tcell.KeyBackspace2, 0, tcell.ModNone), false, "\x7f"},
		{"ctrl-h", tcell.NewEventKey(tcell.KeyBackspace, 0, tcell.ModNone), false, "\b"},
		{"tab", tcell.NewEventKey(tcell.KeyTab, 0, tcell.ModNone), false, "\t"},
		{"escape", tcell.NewEventKey(tcell.KeyEsc, 0, tcell.ModNone), false, "\x1b"},
		{"ascii rune", tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), false, "q"},
		{"utf8 rune", tcell.NewEventKey(tcell.KeyRune, 'é', tcell.ModNone), false, "é"},
		{"ctrl-c with rune", tcell.NewEventKey(tcell.KeyCtrlC, 0x03, tcell.ModCtrl), false, "\x03"},
		{"ctrl-c bare", tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl), false, "\x03"},
		{"ctrl-d bare", tcell.NewEventKey(tcell.KeyCtrlD, 0, tcell.ModCtrl), false, "\x04"},
		{"ctrl-z bare", tcell.NewEventKey(tcell.KeyCtrlZ, 0, tcell.ModCtrl), false, "\x1a"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := keyBytes(tc.ev, tc.app)
			if string(got) != tc.want {
				t.Fatalf("keyBytes = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestKeyBytesUnmapped(t *testing.T) {
	if got := keyBytes(tcell.NewEventKey(tcell.KeyF13, 0, tcell.ModNone), false); got != nil {
		t.Fatalf("keyBytes(F13) = %q, want nil", got)
	}
}
