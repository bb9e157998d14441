// Package meta reports build metadata of the running binary.
package meta

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Version is set at link time with -ldflags "-X doctor-diff/internal/meta.Version=...".
var Version = ""

// Info summarizes how the binary was built.
type Info struct {
	Version   string
	Module    string
	GoVersion string
	Platform  string
	Revision  string
	Modified  bool
}

// Detect reads build information embedded by the Go toolchain.
func Detect() Info {
	inf := Info{
		Version:   Version,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return withDefaults(inf)
	}
	inf.Module = bi.Main.Path
	if inf.Version == "" && bi.Main.Version != "(devel)" {
		inf.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			inf.Revision = s.Value
		case "vcs.modified":
			inf.Modified = s.Value == "true"
		}
	}
	return withDefaults(inf)
}

func withDefaults(inf Info) Info {
	if inf.Version == "" {
		inf.Version = "devel"
	}
	return inf
}

// String renders a one-line description, e.g.
// "doctor-diff v1.2.0 (rev 1a2b3c4d) go1.24.1 linux/amd64".
func (i Info) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "doctor-diff %s", i.Version)
	if i.Revision != "" {
		rev := i.Revision
		if len(rev) > 8 {
			rev = rev[:8]
		}
		if i.Modified {
			rev += "+dirty"
		}
		fmt.Fprintf(&b, " (rev %s)", rev)
	}
	fmt.Fprintf(&b, " %s %s", i.GoVersion, i.Platform)
	return b.String()
}
