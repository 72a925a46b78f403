// Package version exposes build metadata stamped in at link time.
package version

import (
	"fmt"
	"runtime"
	"strings"
)

// Build metadata, overridden via -ldflags at release time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info is the structured form used by the version command.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the current build information.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String renders the info as a multi-line human-readable block.
func (i Info) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "haven %s\n", i.Version)
	fmt.Fprintf(&sb, "  commit:   %s\n", i.Commit)
	fmt.Fprintf(&sb, "  built:    %s\n", i.Date)
	fmt.Fprintf(&sb, "  go:       %s\n", i.GoVersion)
	fmt.Fprintf(&sb, "  platform: %s\n", i.Platform)
	return sb.String()
}

// Short returns just the version string, normalized without a leading "v".
func Short() string {
	return strings.TrimPrefix(Version, "v")
}
