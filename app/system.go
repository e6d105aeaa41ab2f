package app

import "runtime"

// CurrentSystem returns the running platform as a system identifier in the
// "<arch>-<os>" convention used by output trees (e.g., "x86_64-linux").
func CurrentSystem() string {
	arch := runtime.GOARCH
	switch arch {
	case "amd64":
		arch = "x86_64"
	case "arm64":
		arch = "aarch64"
	}
	return arch + "-" + runtime.GOOS
}
