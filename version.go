// Package pagecache provides the version information for pagecache.
package pagecache

// Version is the current version of pagecache.
const Version = "0.1.0"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}
