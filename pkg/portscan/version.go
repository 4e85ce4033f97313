// Package portscan version information.
package portscan

// Version information for the portscan library.
const (
	// Version is the semantic version of the library.
	Version = "0.4.0"

	VersionMajor = 0
	VersionMinor = 4
	VersionPatch = 0
)

// VersionInfo returns the full version string with library name.
func VersionInfo() string {
	return "go-portscan v" + Version
}
