package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestCurrentVersion(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })

	Version = " v1.2.3 "
	if got := Current(); got != "v1.2.3" {
		t.Fatalf("expected trimmed version, got %q", got)
	}

	Version = "   "
	if got := Current(); got != "dev" {
		t.Fatalf("expected dev fallback, got %q", got)
	}
}

func TestRevisionFromBuildSettings(t *testing.T) {
	settings := []debug.BuildSetting{
		{Key: "vcs", Value: "git"},
		{Key: "vcs.revision", Value: "c281bd8f0e4a9b7d6c5e4f3a2b1c0d9e8f7a6b5c"},
		{Key: "vcs.modified", Value: "true"},
	}
	if got := revisionFrom(settings); got != "c281bd8f0e4a-dirty" {
		t.Fatalf("revision: got %q", got)
	}
	if got := revisionFrom(settings[:2]); got != "c281bd8f0e4a" {
		t.Fatalf("clean revision: got %q", got)
	}
	if got := revisionFrom(nil); got != "" {
		t.Fatalf("expected empty revision, got %q", got)
	}
}

func TestStringStartsWithCurrent(t *testing.T) {
	if got := String(); !strings.HasPrefix(got, Current()) {
		t.Fatalf("String() = %q, want prefix %q", got, Current())
	}
}
