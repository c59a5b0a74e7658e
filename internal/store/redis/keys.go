package redis

import (
	"fmt"
	"strings"
)

const (
	// KeyNavigation holds the JSON snapshot of the last captured navigation config.
	KeyNavigation = "navbar:navigation:current"
	// KeyNavigationUpdated holds the RFC 3339 time the snapshot was written.
	KeyNavigationUpdated = "navbar:navigation:updated"
	// KeyPrefixRenders prefixes per-page render counters.
	KeyPrefixRenders = "navbar:renders:"
)

// RendersKey returns the counter key for a page path.
func RendersKey(path string) string {
	return KeyPrefixRenders + path
}

// ExtractPagePath returns the page path from a counter key.
func ExtractPagePath(key string) (string, error) {
	if !strings.HasPrefix(key, KeyPrefixRenders) || len(key) == len(KeyPrefixRenders) {
		return "", fmt.Errorf("invalid renders key: %s", key)
	}
	return key[len(KeyPrefixRenders):], nil
}
