// Package version holds build version information.
package version

// Overridable at build time:
// go build -ldflags "-X fredwork/internal/version.Version=0.2.0 -X fredwork/internal/version.Commit=abc123"
var (
	// Version is the semantic version of fredwork
	Version = "0.1.0"

	// Commit is the git commit hash (set at build time)
	Commit = "unknown"

	// BuildDate is the build timestamp (set at build time)
	BuildDate = "unknown"
)

// Info returns the version with a short commit suffix when one is known.
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns complete version information
func Full() string {
	return "fredwork version " + Version + "\n" +
		"Commit: " + Commit + "\n" +
		"Built: " + BuildDate
}
