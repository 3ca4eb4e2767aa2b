package version

import (
	"strings"

	"github.com/fatih/color"
)

// Version information for the deqpkit CLI.
// These variables can be overridden at build time via -ldflags.
var (
	// Version is the semantic version of the CLI.
	Version = "0.3.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var partColors = []*color.Color{
	color.New(color.FgYellow, color.Bold),
	color.New(color.FgGreen, color.Bold),
	color.New(color.FgBlue, color.Bold),
}

// Colored renders Version with major, minor and patch in distinct colors.
// A pre-release tag after the patch number stays plain.
func Colored() string {
	parts := strings.SplitN(Version, ".", 3)
	if len(parts) != 3 {
		return Version
	}
	patch, tag := parts[2], ""
	if i := strings.IndexAny(patch, "-+"); i >= 0 {
		patch, tag = patch[:i], patch[i:]
	}
	return partColors[0].Sprint(parts[0]) + "." + partColors[1].Sprint(parts[1]) + "." + partColors[2].Sprint(patch) + tag
}

// Describe renders the one-line version printed by `deqpkit version`.
func Describe() string {
	var b strings.Builder
	b.WriteString("deqpkit ")
	b.WriteString(Colored())
	if GitCommit != "" {
		b.WriteString(" (" + ShortCommit() + ")")
	}
	if BuildDate != "" {
		b.WriteString(" built " + BuildDate)
	}
	return b.String()
}

// ShortCommit returns the first twelve characters of GitCommit.
func ShortCommit() string {
	if len(GitCommit) > 12 {
		return GitCommit[:12]
	}
	return GitCommit
}
