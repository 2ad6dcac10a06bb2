// Package buildinfo resolves the version string a binary reports through its
// --version flag.
package buildinfo

import "runtime/debug"

// These values are injected via ldflags for release binaries. They default to
// empty for local/dev builds.
var (
	Version = ""
	Commit  = ""
)

var readBuildInfo = debug.ReadBuildInfo

// String renders "program version", resolving the version from ldflags
// first, then from the module build metadata, falling back to "devel".
func String(program string) string {
	return program + " " + version()
}

func version() string {
	if Version != "" {
		return Version
	}
	if info, ok := readBuildInfo(); ok && info != nil {
		if v := normalize(info.Main.Version); v != "devel" {
			return v
		}
		if rev := setting(info, "vcs.revision"); rev != "" {
			if len(rev) > 12 {
				rev = rev[:12]
			}
			return "devel (" + rev + ")"
		}
	}
	if Commit != "" {
		return "devel (" + Commit + ")"
	}
	return "devel"
}

func normalize(version string) string {
	if version == "" || version == "(devel)" {
		return "devel"
	}
	return version
}

func setting(info *debug.BuildInfo, key string) string {
	for _, s := range info.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}
