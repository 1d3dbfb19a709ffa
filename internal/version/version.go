package version

import (
	"strings"

	"github.com/fatih/color"
)

// Version information for the hookc CLI and transpile results.
// These variables can be overridden at build time via -ldflags.

var (
	// Version is the semantic version of the engine. It is carried on every
	// transpile result so hosts can pin cached outputs to an engine build.
	Version = "0.3.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	majorColor = color.New(color.FgYellow, color.Bold)
	minorColor = color.New(color.FgGreen, color.Bold)
	patchColor = color.New(color.FgBlue, color.Bold)
)

// Colored renders the version with each component highlighted, for CLI
// display only. Result metadata always carries the plain Version.
func Colored() string {
	parts := strings.SplitN(Version, ".", 3)
	if len(parts) != 3 {
		return Version
	}
	return majorColor.Sprint(parts[0]) + "." + minorColor.Sprint(parts[1]) + "." + patchColor.Sprint(parts[2])
}
