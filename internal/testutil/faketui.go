package testutil

import (
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"golang.org/x/term"
)

// Environment variables that turn a re-executed test binary into a fake
// interactive program. See MaybeRunFakeTUI.
const (
	helperModeEnv = "GO_TEST_MODE"
	fakeTUIEnv    = "FAKE_TUI_MODE"
)

// Fake TUI behaviours.
const (
	// FakeTUIUsage paints a settings dialog on "/usage" + Enter, a dismissal
	// notice on Escape, and exits on "/exit".
	FakeTUIUsage = "usage"
	// FakeTUIStatusStrip paints the compact status strip instead.
	FakeTUIStatusStrip = "status-strip"
	// FakeTUIUnknown answers every command with an error message.
	FakeTUIUnknown = "unknown"
	// FakeTUISilent never writes anything and exits on "/exit".
	FakeTUISilent = "silent"
	// FakeTUIHang prints a banner and then ignores all input.
	FakeTUIHang = "hang"
	// FakeTUIFarewell behaves like FakeTUIUsage, but after "/exit" pauses
	// and then prints far more than a terminal buffers before exiting.
	FakeTUIFarewell = "farewell"
)

// Farewell output shape for FakeTUIFarewell.
const (
	farewellDelay = time.Second
	farewellBytes = 400 << 10
)

// FakeTUIUsageScreen is the dialog painted by FakeTUIUsage, before escape
// sequences are added.
var FakeTUIUsageScreen = []string{
	"────────────────────────────────────────",
	" Settings:  Status   Config   Usage",
	"",
	" Current session",
	" ███▌                       7% used",
	" Resets 5pm (UTC)",
	"",
	" Esc to exit",
}

// FakeTUIStatusStripScreen is the strip painted by FakeTUIStatusStrip.
var FakeTUIStatusStripScreen = []string{
	"┌─ project ── Session: 12% ── Week: 40% ─┐",
	"│ Opus: 3%                               │",
	"└────────────────────────────────────────┘",
}

// MaybeRunFakeTUI runs the fake program and exits when the current process
// was started by FakeTUICommand. Call it first thing in TestMain.
func MaybeRunFakeTUI() {
	if os.Getenv(helperModeEnv) != "helper" {
		return
	}
	os.Exit(runFakeTUI(os.Getenv(fakeTUIEnv), os.Stdin, os.Stdout))
}

// FakeTUICommand returns the program, arguments and extra environment that
// start the current test binary as a fake TUI in the given mode. The test
// package must call MaybeRunFakeTUI from TestMain.
func FakeTUICommand(t testing.TB, mode string) (program string, args []string, env []string) {
	t.Helper()
	exe, err := os.Executable()
	if err != nil {
		t.Fatalf("os.Executable: %v", err)
	}
	return exe, []string{"-test.run=^$"}, []string{helperModeEnv + "=helper", fakeTUIEnv + "=" + mode}
}

func runFakeTUI(mode string, in *os.File, out io.Writer) int {
	// Raw mode: no echo, no line editing, bytes arrive as typed.
	if state, err := term.MakeRaw(int(in.Fd())); err == nil {
		defer term.Restore(int(in.Fd()), state)
	}

	write := func(s string) {
		if mode != FakeTUISilent {
			_, _ = io.WriteString(out, s)
		}
	}

	write("\x1b[?25l\x1b[2J\x1b[H\x1b]0;fake-tui\x07 Welcome to fake-tui\r\n> ")
	if mode == FakeTUIHang {
		for {
			time.Sleep(time.Hour)
		}
	}

	var line strings.Builder
	buf := make([]byte, 256)
	for {
		n, err := in.Read(buf)
		for _, b := range buf[:n] {
			switch b {
			case '\r':
				write(respond(mode, line.String()))
				line.Reset()
			case '\x1b':
				write("\r\n Status dialog dismissed\r\n> ")
				line.Reset()
			case '\n':
				if strings.TrimSpace(line.String()) == "/exit" {
					write("\r\nbye\r\n")
					if mode == FakeTUIFarewell {
						time.Sleep(farewellDelay)
						write(strings.Repeat("goodbye\r\n", farewellBytes/9))
					}
					return 0
				}
				line.Reset()
			default:
				line.WriteByte(b)
				write(string(b))
			}
		}
		if err != nil {
			return 1
		}
	}
}

func respond(mode, command string) string {
	var screen []string
	switch {
	case command != "/usage" || mode == FakeTUIUnknown:
		return fmt.Sprintf("\r\n Unknown slash command: %s\r\n> ", command)
	case mode == FakeTUIStatusStrip:
		screen = FakeTUIStatusStripScreen
	default:
		screen = FakeTUIUsageScreen
	}
	var b strings.Builder
	b.WriteString("\r\n\x1b[2K")
	for i, line := range screen {
		// Colour every other line so the capture carries SGR noise.
		if i%2 == 0 {
			line = "\x1b[2m" + line + "\x1b[22m"
		}
		b.WriteString(line)
		b.WriteString("\x1b[K\r\n")
	}
	return b.String()
}
