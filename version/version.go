package version

import (
	"runtime/debug"
	"strings"
	"time"
)

// Set at build time with -ldflags "-X".
var (
	Version   = "dev"
	GitCommit = ""
	GitBranch = ""
	BuildTime = ""
)

// Info is the build information served on /version.
type Info struct {
	Version   string    `json:"version"`
	GitCommit string    `json:"git_commit,omitempty"`
	GitBranch string    `json:"git_branch,omitempty"`
	GoVersion string    `json:"go_version"`
	BuildTime time.Time `json:"build_time,omitzero"`
	Dirty     bool      `json:"dirty"`
	Release   bool      `json:"release"`
}

// Get combines the linker-set variables with the VCS stamps the Go
// toolchain embeds. Linker values win.
func Get() Info {
	info := Info{
		Version:   Version,
		GitCommit: GitCommit,
		GitBranch: GitBranch,
	}
	if t, err := time.Parse(time.RFC3339, BuildTime); err == nil {
		info.BuildTime = t
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		stamp(&info, bi)
	}
	info.GitCommit = shortCommit(info.GitCommit)
	info.Release = info.Version != "dev" && !info.Dirty && !strings.Contains(info.Version, "dirty")
	return info
}

func stamp(info *Info, bi *debug.BuildInfo) {
	info.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "" {
				info.GitCommit = s.Value
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		case "vcs.time":
			if t, err := time.Parse(time.RFC3339, s.Value); err == nil && info.BuildTime.IsZero() {
				info.BuildTime = t
			}
		}
	}
}

func shortCommit(c string) string {
	if len(c) > 7 {
		return c[:7]
	}
	return c
}

// Short is "<version>[-<commit>][-dirty]".
func Short() string {
	info := Get()
	parts := []string{info.Version}
	if info.GitCommit != "" {
		parts = append(parts, info.GitCommit)
		if info.Dirty {
			parts = append(parts, "dirty")
		}
	}
	return strings.Join(parts, "-")
}

// Full adds a non-default branch and the build time to Short.
func Full() string {
	info := Get()
	s := Short()
	if b := info.GitBranch; b != "" && b != "main" && b != "master" {
		s += " on " + b
	}
	if !info.BuildTime.IsZero() {
		s += " (built " + info.BuildTime.UTC().Format(time.RFC3339) + ")"
	}
	return s
}

// UserAgent is the product token sent upstream, e.g.
// "memecraft/1.4.0 (+abc1234)".
func UserAgent(product string) string {
	info := Get()
	ua := product + "/" + info.Version
	if info.GitCommit != "" {
		ua += " (+" + info.GitCommit + ")"
	}
	return ua
}
