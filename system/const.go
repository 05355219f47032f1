package system

var (
	// The current version of this software, set at build time.
	Version = "0.0.1"
)
