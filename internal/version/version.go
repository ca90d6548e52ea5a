// Package version records the module version stamped into builds.
package version

// Version is overridable at link time:
//
//	go build -ldflags "-X github.com/vk/fnmesh/internal/version.Version=1.2.3"
var Version = "0.3.0"
