package wayfind

// Version is the wayfind release version, overridable at build time via
// -ldflags "-X github.com/mesh-intelligence/wayfind/pkg/wayfind.Version=...".
var Version = "0.1.0"
