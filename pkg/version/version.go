// Package version holds the build information of geoinspect, set with
// -ldflags "-X github.com/coral-mesh/geoinspect/pkg/version.Version=...".
package version

import "runtime"

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"

	// GoVersion is the toolchain the binary was built with.
	GoVersion = runtime.Version()
)
