// Package version holds the build version of plantguide.
package version

// Version is overridden at build time with -ldflags "-X plantguide/pkg/version.Version=...".
var Version = "v0.3.1"
