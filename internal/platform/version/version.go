package version

import (
	"runtime"
	"strconv"
)

// Build information, injected via ldflags at build time
var (
	// Version is the release version exposed to the UI as kbnVersion
	Version = "dev"
	// BuildNum is the monotonically increasing build number, as a decimal string
	BuildNum = "0"
	// Commit is the git commit SHA, exposed to the UI as buildSha
	Commit = "unknown"
	// BuildTime is the ISO 8601 build timestamp
	BuildTime = "unknown"
)

// Info holds complete build information
type Info struct {
	Version   string `json:"version"`
	BuildNum  int    `json:"build_num"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// Get returns the current build information
func Get() Info {
	return Info{
		Version:   Version,
		BuildNum:  buildNumber(BuildNum),
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
}

// buildNumber parses the ldflags value; malformed values count as 0.
func buildNumber(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
