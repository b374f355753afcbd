package version

// Version is the semantic version of the doimint binary. Overridden at build
// time via -ldflags for release builds.
var Version = "0.1.0"
