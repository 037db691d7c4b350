// Package version exposes build information for memecraft binaries.
//
// Version, commit, branch and build time are set at compile time:
//
//	go build -ldflags "-X github.com/atul-1602/memecraft/version.Version=1.0.0" ./cmd/memecraft
//
// Anything not set falls back to the VCS stamps in debug.ReadBuildInfo.
package version
