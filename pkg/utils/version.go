// Package utils provides bespoke, one off utils that don't make sense to be
// their own package
package utils

import "fmt"

// Build metadata, stamped with -ldflags by the release build.
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)

// UserAgent identifies catalyst on requests to the backend and upstream LLMs.
func UserAgent() string {
	return "catalyst/" + Version
}

// VersionInfo renders the build metadata printed by `catalyst version`.
func VersionInfo() string {
	return fmt.Sprintf("Version: %s\nSha: %s\nBuilt at: %s\n", Version, Sha, Buildtime)
}
