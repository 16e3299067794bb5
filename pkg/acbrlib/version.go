package acbrlib

// Version is populated at build time via ldflags.
var Version = "v0.0.0-in-progress"

// WrapperVersion returns the semantic version of this module. In development it
// defaults to v0.0.0-in-progress.
func WrapperVersion() string {
	return Version
}
