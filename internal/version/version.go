// Package version holds the build version, overridable with
// -ldflags "-X github.com/alvmarrod/fontscan/internal/version.Version=..."
package version

var Version = "0.1.0-dev"
