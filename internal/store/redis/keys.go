package redis

import (
	"fmt"
	"strings"
)

const (
	// KeyPrefixSnapshot is the prefix for snapshot keys
	KeyPrefixSnapshot = "herald:snapshot:"
	// DefaultScope is used when no user is configured
	DefaultScope = "default"
)

// SnapshotKey returns the Redis key holding the snapshot of one scope
func SnapshotKey(scope string) string {
	return KeyPrefixSnapshot + normalizeScope(scope)
}

// ExtractScope extracts the scope from a snapshot key
func ExtractScope(key string) (string, error) {
	if len(key) <= len(KeyPrefixSnapshot) || !strings.HasPrefix(key, KeyPrefixSnapshot) {
		return "", fmt.Errorf("invalid snapshot key: %s", key)
	}
	return key[len(KeyPrefixSnapshot):], nil
}

// normalizeScope keeps keys readable and free of separators.
func normalizeScope(scope string) string {
	scope = strings.TrimSpace(strings.ToLower(scope))
	if scope == "" {
		return DefaultScope
	}
	return strings.ReplaceAll(scope, ":", "_")
}
