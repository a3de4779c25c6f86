package version

import (
	"runtime/debug"
	"strings"
)

// Version is set at build time with:
// -ldflags "-X github.com/izzyreal/reportviewer/internal/version.Version=vX.Y.Z"
var Version = "dev"

func Current() string {
	v := strings.TrimSpace(Version)
	if v == "" {
		return "dev"
	}
	return v
}

// Revision is the VCS revision the Go toolchain stamped into the binary,
// shortened to 12 characters, or "" when the build carries none.
func Revision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	return revisionFrom(info.Settings)
}

func revisionFrom(settings []debug.BuildSetting) string {
	var rev string
	dirty := false
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if rev != "" && dirty {
		rev += "-dirty"
	}
	return rev
}

// String is Current with the revision appended when known.
func String() string {
	if rev := Revision(); rev != "" {
		return Current() + " (" + rev + ")"
	}
	return Current()
}
