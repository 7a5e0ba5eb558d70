package usage

import (
	"fmt"
	"strings"
)

// Layout names, usable with LayoutByName.
const (
	LayoutSettingsDialog = "settings-dialog"
	LayoutStatusStrip    = "status-strip"
)

// Layouts returns the built-in layouts in the order Extract tries them.
func Layouts() []Layout {
	return []Layout{settingsDialog(), statusStrip()}
}

// LayoutByName returns the built-in layout with the given name.
func LayoutByName(name string) (Layout, error) {
	var names []string
	for _, l := range Layouts() {
		if l.Name == name {
			return l, nil
		}
		names = append(names, l.Name)
	}
	return Layout{}, fmt.Errorf("unknown layout %q (known: %s)", name, strings.Join(names, ", "))
}

// settingsDialog is the tabbed settings dialog, opened on its Usage tab:
//
//	────────────────────────────────
//	 Settings:  Status   Config   Usage
//	 Current session
//	 ███▌                 7% used
//	 ...
func settingsDialog() Layout {
	return Layout{
		Name: LayoutSettingsDialog,
		Anchors: []func(string) bool{
			containsAll("Settings:", "Usage"),
		},
		IncludeRule: true,
		Stop: hasAnyPrefix(
			">",
			"·",
			"Pressing Escape",
			"Sending /exit",
			"Status dialog dismissed",
		),
	}
}

// statusStrip is the compact strip shown by later releases, either boxed
// under a project header or as a bare "Session: ... Week: ..." line.
func statusStrip() Layout {
	stop := hasAnyPrefix(
		">",
		"-- INSERT --",
		"/exit",
		"Pressing",
		"Sending",
		`Try "`,
		"Usage details saved",
		"Status dialog dismissed",
	)
	return Layout{
		Name: LayoutStatusStrip,
		Anchors: []func(string) bool{
			containsAll("Session:", "┌─ project"),
			containsAll("Session:", "Week:"),
		},
		Stop: func(trimmed string) bool {
			return stop(trimmed) || strings.Contains(trimmed, "Thinking on")
		},
	}
}

func containsAll(substrs ...string) func(string) bool {
	return func(line string) bool {
		for _, s := range substrs {
			if !strings.Contains(line, s) {
				return false
			}
		}
		return true
	}
}

func hasAnyPrefix(prefixes ...string) func(string) bool {
	return func(s string) bool {
		for _, p := range prefixes {
			if strings.HasPrefix(s, p) {
				return true
			}
		}
		return false
	}
}
