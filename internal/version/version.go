// Package version provides version information for wikibox.
package version

// Version is the current version of wikibox.
// It can be overridden at build time with:
//
//	go build -ldflags "-X github.com/skohara/wikibox/internal/version.Version=x.y.z"
var Version = "0.1.0"

// Name is the application name.
const Name = "wikibox"
