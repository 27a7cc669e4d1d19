// Package version holds the module version.
package version

// Version is the adapter release version.
const Version = "0.1.0"
