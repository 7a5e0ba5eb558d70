//go:build unix

package command

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/usage-capture/internal/config"
	"github.com/joeycumines/usage-capture/internal/testutil"
)

// fakeTUIConfig points the capture command at the fake TUI with short
// timings. The helper's environment is exported to this process, which the
// child inherits.
func fakeTUIConfig(t *testing.T, mode string) *config.Config {
	t.Helper()
	program, args, env := testutil.FakeTUICommand(t, mode)
	for _, kv := range env {
		k, v, _ := strings.Cut(kv, "=")
		t.Setenv(k, v)
	}
	for _, k := range []string{"USAGE_CAPTURE_PROGRAM", "USAGE_CAPTURE_ARGS", "USAGE_CAPTURE_TIMEOUT", "USAGE_CAPTURE_WAIT"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	cfg := config.NewConfig()
	cfg.SetGlobalOption(config.KeyProgram, program)
	cfg.SetGlobalOption(config.KeyArgs, strings.Join(args, " "))
	cfg.SetGlobalOption(config.KeyStartupDelay, "500ms")
	cfg.SetGlobalOption(config.KeySettleDelay, "50ms")
	cfg.SetGlobalOption(config.KeyWait, "500ms")
	cfg.SetGlobalOption(config.KeyDismissDrain, "200ms")
	cfg.SetGlobalOption(config.KeyExitWait, "2s")
	cfg.SetGlobalOption(config.KeyTimeout, "15s")
	return cfg
}

func TestCapture_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "usage.log")
	rawPath := filepath.Join(dir, "raw.txt")

	c := NewCaptureCommand(fakeTUIConfig(t, testutil.FakeTUIUsage))
	c.styled = func(io.Writer) bool { return false }

	stdout, stderr, err := execute(t, c, "--usage-log", logPath, "--transcript", rawPath)
	require.NoError(t, err, stderr)

	assert.Equal(t, strings.Join(testutil.FakeTUIUsageScreen, "\n")+"\n", readLog(t, logPath))
	assert.Contains(t, stdout, "Captured Usage Section:")
	assert.Contains(t, readLog(t, rawPath), "\x1b[")
}

func TestCapture_EndToEndUnknownCommand(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "usage.log")

	c := NewCaptureCommand(fakeTUIConfig(t, testutil.FakeTUIUnknown))
	c.styled = func(io.Writer) bool { return false }

	_, stderr, err := execute(t, c, "--usage-log", logPath, "--strict")
	require.ErrorIs(t, err, ErrReported)
	assert.Contains(t, stderr, "Could not locate usage section")
	assert.True(t, strings.HasPrefix(readLog(t, logPath), "ERROR: Could not locate usage section in output\n"))
}

func TestCapture_EndToEndSpawnFailure(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "usage.log")
	cfg := fakeTUIConfig(t, testutil.FakeTUIUsage)

	c := NewCaptureCommand(cfg)
	_, _, err := execute(t, c, "--usage-log", logPath, "--program", "/non/existent/claude")
	require.ErrorIs(t, err, ErrReported)
	assert.True(t, strings.HasPrefix(readLog(t, logPath), "ERROR: Failed to spawn /non/existent/claude TUI ("))
}
