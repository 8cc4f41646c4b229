// Package version provides version information for the application.
//
// The values are overridden at build time via ldflags.
package version

var (
	// Version is the shipper release version.
	Version = "dev"

	// Revision is the VCS revision shipper was built from.
	Revision = "unknown"
)
