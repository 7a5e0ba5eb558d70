package usage

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transcript(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

func TestExtract_SettingsDialog(t *testing.T) {
	clean := transcript(
		"> /usage",
		"────────────────────────────────────────",
		" Settings:  Status   Config   Usage",
		"",
		" Current session",
		" ███▌                       7% used",
		" Resets 5pm",
		"",
		" Current week (all models)",
		" █████▌                    11% used",
		"",
		" Esc to exit",
		"> ",
		"Sending /exit to terminate session...",
	)

	s, err := Extract(clean)
	require.NoError(t, err)
	assert.Equal(t, LayoutSettingsDialog, s.Layout)
	assert.Equal(t, 1, s.Start, "rule above the anchor is included")
	assert.Equal(t, 12, s.End, "block ends before the prompt line")
	assert.Equal(t, strings.Join([]string{
		"────────────────────────────────────────",
		" Settings:  Status   Config   Usage",
		"",
		" Current session",
		" ███▌                       7% used",
		" Resets 5pm",
		"",
		" Current week (all models)",
		" █████▌                    11% used",
		"",
		" Esc to exit",
	}, "\n"), s.Text())
}

func TestExtract_AnchorInclusiveTerminatorExclusive(t *testing.T) {
	for _, terminator := range []string{
		"> ",
		"· Thinking",
		"Pressing Escape to dismiss dialog...",
		"Sending /exit to terminate session...",
		"Status dialog dismissed",
	} {
		t.Run(terminator, func(t *testing.T) {
			clean := transcript(
				"noise before",
				"Settings: Usage",
				"line one",
				"line two",
				terminator,
				"noise after",
			)
			s, err := Extract(clean)
			require.NoError(t, err)
			assert.Equal(t, []string{"Settings: Usage", "line one", "line two"}, s.Lines)
		})
	}
}

func TestExtract_RuleOnlyWhenDirectlyAbove(t *testing.T) {
	clean := transcript(
		"────",
		"not a rule",
		"Settings: Usage",
		"body",
	)
	s, err := Extract(clean)
	require.NoError(t, err)
	assert.Equal(t, "Settings: Usage\nbody", s.Text())
}

func TestExtract_AnchorWithStopPrefixUnderRule(t *testing.T) {
	clean := transcript(
		"────",
		"> Settings: Usage",
		" Current session 42% used",
		"> ",
	)
	s, err := Extract(clean)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Start)
	assert.Equal(t, 3, s.End, "scan for the terminator starts after the anchor")
	assert.Equal(t, "────\n> Settings: Usage\n Current session 42% used", s.Text())
}

func TestExtract_LastAnchorWins(t *testing.T) {
	clean := transcript(
		" Settings: Usage",
		" partial redraw",
		"> ",
		" Settings: Usage",
		" Current session 42% used",
		"> ",
	)
	s, err := Extract(clean)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Start)
	assert.Equal(t, "Settings: Usage\n Current session 42% used", s.Text())
}

func TestExtract_RunsToEndOfText(t *testing.T) {
	s, err := Extract(transcript("Settings: Usage", "a", "", "b", "", ""))
	require.NoError(t, err)
	assert.Equal(t, "Settings: Usage\na\n\nb", s.Text())
	assert.Equal(t, 6, s.End)
}

func TestExtract_StatusStrip(t *testing.T) {
	t.Run("boxed project header", func(t *testing.T) {
		clean := transcript(
			"Week: 1% (stale)",
			"┌─ project ── Session: 12% ── Week: 40% ─┐",
			"│ Opus: 3%                               │",
			"",
			"└────────────────────────────────────────┘",
			"-- INSERT --",
		)
		s, err := Extract(clean)
		require.NoError(t, err)
		assert.Equal(t, LayoutStatusStrip, s.Layout)
		assert.Equal(t, 1, s.Start)
		assert.Equal(t, strings.Join([]string{
			"┌─ project ── Session: 12% ── Week: 40% ─┐",
			"│ Opus: 3%                               │",
			"",
			"└────────────────────────────────────────┘",
		}, "\n"), s.Text())
	})

	t.Run("bare session and week line", func(t *testing.T) {
		clean := transcript(
			"Session: 1% Week: 2%",
			"Session: 5% | Week: 9%",
			"  resets in 3h",
			"  ✻ Thinking on (tab to toggle)",
		)
		s, err := Extract(clean)
		require.NoError(t, err)
		assert.Equal(t, "Session: 5% | Week: 9%\n  resets in 3h", s.Text())
	})

	t.Run("boxed header preferred over later bare line", func(t *testing.T) {
		clean := transcript(
			"┌─ project ─ Session: 7% ─┐",
			"body",
			"> ",
			"Session: 8% Week: 9%",
		)
		s, err := Extract(clean)
		require.NoError(t, err)
		assert.Equal(t, 0, s.Start)
	})

	for _, terminator := range []string{">", "/exit", "Pressing Escape", "Sending /exit", `Try "edit"`, "Usage details saved to: /tmp/usage.log", "Status dialog dismissed"} {
		t.Run("stops at "+terminator, func(t *testing.T) {
			s, err := Extract(transcript("Session: 1% Week: 2%", "kept", terminator, "dropped"))
			require.NoError(t, err)
			assert.Equal(t, "Session: 1% Week: 2%\nkept", s.Text())
		})
	}
}

func TestExtract_SettingsDialogBeforeStatusStrip(t *testing.T) {
	clean := transcript(
		"Session: 1% Week: 2%",
		"Settings: Usage",
		"dialog body",
	)
	s, err := Extract(clean)
	require.NoError(t, err)
	assert.Equal(t, LayoutSettingsDialog, s.Layout)
}

func TestExtract_NotFound(t *testing.T) {
	for _, clean := range []string{
		"",
		"Welcome to the program\n> /usage\nUnknown command\n",
		"Settings only\nUsage only\nSession only\n",
	} {
		s, err := Extract(clean)
		assert.Nil(t, s)
		assert.True(t, errors.Is(err, ErrNotFound), "input %q: %v", clean, err)
	}
}

func TestExtractWith_RestrictsLayouts(t *testing.T) {
	clean := transcript("Settings: Usage", "body")
	strip, err := LayoutByName(LayoutStatusStrip)
	require.NoError(t, err)

	_, err = ExtractWith(clean, strip)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLayoutByName_Unknown(t *testing.T) {
	_, err := LayoutByName("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), LayoutSettingsDialog)
}
