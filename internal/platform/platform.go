// Package platform maps the host onto the platform identifiers used by the
// Cursor version manifest.
package platform

import "runtime"

// DefaultKey is used when the host architecture has no explicit mapping.
// Cursor only publishes Linux AppImages for x64 and arm64.
const DefaultKey = "linux-x64"

var archKeys = map[string]string{
	"amd64": "linux-x64",
	"arm64": "linux-arm64",
}

// Detect returns the manifest platform key for the running host.
func Detect() string {
	return KeyFor(runtime.GOARCH)
}

// KeyFor maps a GOARCH value to a manifest platform key, falling back to
// DefaultKey for unknown architectures.
func KeyFor(goarch string) string {
	if key, ok := archKeys[goarch]; ok {
		return key
	}
	return DefaultKey
}

// Arch returns the raw host architecture, for display alongside the key.
func Arch() string {
	return runtime.GOARCH
}

// SupportedOS reports whether AppImage management makes sense on this
// operating system.
func SupportedOS(goos string) bool {
	return goos == "linux"
}
