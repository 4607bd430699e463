// Package buildinfo reports which erlayout build is running.
//
// Release builds stamp the variables with ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/erlayout/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/erlayout/pkg/buildinfo.Commit=$(git rev-parse --short HEAD)" \
//	    ./cmd/erlayout
//
// Development builds fall back to the module version recorded by the Go
// toolchain, when there is one.
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

var (
	// Version is the release tag, or "dev".
	Version = "dev"

	// Commit is the short git revision.
	Commit = "none"

	// Date is the UTC build time.
	Date = "unknown"
)

// Info is the build description served by `erlayout --version` and the
// API health endpoint.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Get returns the stamped build information. An unstamped Version is
// replaced by the main module version when `go install` recorded one.
func Get() Info {
	info := Info{Version: Version, Commit: Commit, Date: Date}
	if info.Version != "dev" {
		return info
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	return info
}

// String formats i on one line.
func (i Info) String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", i.Version, i.Commit, i.Date)
}

// Template returns the cobra version template.
func Template() string {
	return "{{.Name}} " + Get().String() + "\n"
}
