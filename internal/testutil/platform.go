// Package testutil holds helpers shared by tests: platform detection and a
// fake interactive program to drive under a pseudo-terminal.
package testutil

import (
	"os"
	"runtime"
	"testing"
)

// Platform captures the current test execution environment.
type Platform struct {
	IsUnix    bool
	IsWindows bool
	IsRoot    bool
	UID       int
}

// DetectPlatform inspects the current runtime environment.
//
// Example usage:
//
//	if DetectPlatform(t).IsRoot {
//		t.Skip("permission checks do not apply to root")
//	}
func DetectPlatform(t *testing.T) Platform {
	uid := os.Geteuid()
	platform := Platform{
		IsUnix:    runtime.GOOS != "windows",
		IsWindows: runtime.GOOS == "windows",
		IsRoot:    uid == 0,
		UID:       uid,
	}
	t.Logf("Platform detection: OS=%s, UID=%d, IsRoot=%v", runtime.GOOS, uid, platform.IsRoot)
	return platform
}
