//go:build unix

package driver

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/usage-capture/internal/testutil"
	"github.com/joeycumines/usage-capture/internal/usage"
)

// fastOptions returns options that drive the fake TUI in well under a second.
func fastOptions(t *testing.T, mode string) Options {
	t.Helper()
	program, args, env := testutil.FakeTUICommand(t, mode)
	return Options{
		Program:      program,
		Args:         args,
		Env:          env,
		StartupDelay: 500 * time.Millisecond,
		SettleDelay:  50 * time.Millisecond,
		Wait:         500 * time.Millisecond,
		DismissDrain: 200 * time.Millisecond,
		ExitWait:     2 * time.Second,
		Timeout:      15 * time.Second,
		Logger:       slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: slog.LevelDebug})),
	}
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

func TestRun_CapturesUsageDialog(t *testing.T) {
	var echo bytes.Buffer
	var steps []string
	opts := fastOptions(t, testutil.FakeTUIUsage)
	opts.Echo = &echo
	opts.OnStep = func(s Step) { steps = append(steps, s.Name) }

	tr, err := Run(context.Background(), opts)
	require.NoError(t, err)
	require.NotNil(t, tr)

	assert.Contains(t, tr.Raw, "\x1b[", "raw capture keeps escape sequences")
	assert.Equal(t, tr.Raw, echo.String(), "echo receives every chunk")
	assert.Contains(t, tr.Raw, "Status dialog dismissed", "escape was delivered")
	assert.Contains(t, tr.Raw, "bye", "exit command was delivered")
	assert.Equal(t, []string{"startup", "command", "activate", "dismiss", "exit"}, steps)

	clean := tr.Clean()
	assert.NotContains(t, clean, "\x1b")
	assert.NotContains(t, clean, "\r")

	s, err := usage.Extract(clean)
	require.NoError(t, err)
	assert.Equal(t, usage.LayoutSettingsDialog, s.Layout)
	assert.Equal(t, strings.Join(testutil.FakeTUIUsageScreen, "\n"), s.Text())
}

func TestRun_CapturesStatusStrip(t *testing.T) {
	tr, err := Run(context.Background(), fastOptions(t, testutil.FakeTUIStatusStrip))
	require.NoError(t, err)

	s, err := usage.Extract(tr.Clean())
	require.NoError(t, err)
	assert.Equal(t, usage.LayoutStatusStrip, s.Layout)
	assert.Equal(t, strings.Join(testutil.FakeTUIStatusStripScreen, "\n"), s.Text())
}

func TestRun_UnknownCommand(t *testing.T) {
	opts := fastOptions(t, testutil.FakeTUIUnknown)
	opts.Command = "/nope"

	tr, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Contains(t, tr.Clean(), "Unknown slash command: /nope")

	_, err = usage.Extract(tr.Clean())
	assert.ErrorIs(t, err, usage.ErrNotFound)
}

func TestRun_NoOutput(t *testing.T) {
	tr, err := Run(context.Background(), fastOptions(t, testutil.FakeTUISilent))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoOutput), "got %v", err)
	require.NotNil(t, tr)
	assert.Empty(t, tr.Raw)
}

func TestRun_KillsProgramThatIgnoresExit(t *testing.T) {
	opts := fastOptions(t, testutil.FakeTUIHang)
	opts.ExitWait = 300 * time.Millisecond

	started := time.Now()
	tr, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Contains(t, tr.Clean(), "Welcome to fake-tui")
	assert.Less(t, time.Since(started), 10*time.Second)
}

func TestRun_ReadsOutputWhileWaitingForExit(t *testing.T) {
	opts := fastOptions(t, testutil.FakeTUIFarewell)
	opts.ExitWait = 8 * time.Second

	started := time.Now()
	tr, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Less(t, time.Since(started), 6*time.Second, "program exits on its own instead of being killed")

	section, err := usage.Extract(tr.Clean())
	require.NoError(t, err)
	assert.Contains(t, section.Text(), "7% used")
	assert.NotContains(t, tr.Raw, "goodbye", "output after the exit drain is discarded")
}

func TestRun_Timeout(t *testing.T) {
	opts := fastOptions(t, testutil.FakeTUIHang)
	opts.Wait = 10 * time.Second
	opts.Timeout = 1500 * time.Millisecond

	started := time.Now()
	tr, err := Run(context.Background(), opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(started), 8*time.Second)

	require.NotNil(t, tr, "partial transcript is returned on timeout")
	assert.Contains(t, tr.Clean(), "Welcome to fake-tui")
}

func TestRun_ParentContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(300*time.Millisecond, cancel)

	_, err := Run(ctx, fastOptions(t, testutil.FakeTUIHang))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestRun_LaunchFailure(t *testing.T) {
	tr, err := Run(context.Background(), Options{Program: "/non/existent/program"})
	require.Error(t, err)
	assert.Nil(t, tr)
	assert.ErrorIs(t, err, ErrLaunch)

	var le *LaunchError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "/non/existent/program", le.Program)
	assert.NotNil(t, le.Err)
	assert.Contains(t, err.Error(), "failed to launch /non/existent/program: ")
}

func TestCheckPTY(t *testing.T) {
	require.NoError(t, CheckPTY())
}
