package util

import (
	"github.com/cespare/xxhash/v2"
)

// --------------------------------------------------------------------------
// Hash Functions
// --------------------------------------------------------------------------

// HashString returns the 64 bit xxhash digest of s
func HashString(s string) uint64 {
	return xxhash.Sum64String(s)
}

// ShardIndex maps a key to one of n shards.
// The hash is shifted right by 7 bits to use the higher-quality bits for distribution.
func ShardIndex(key string, n int) int {
	if n <= 1 {
		return 0
	}
	return int((HashString(key) >> 7) % uint64(n))
}
