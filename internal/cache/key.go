package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// KeyGenerator derives cache keys from query text.
type KeyGenerator interface {
	GenerateKey(query string) string
}

// DefaultKeyGenerator hashes the whitespace-normalized query so that
// reformatting a statement does not split its cache entry.
type DefaultKeyGenerator struct{}

func (DefaultKeyGenerator) GenerateKey(query string) string {
	normalized := strings.Join(strings.Fields(query), " ")
	sum := sha256.Sum256([]byte(normalized))
	return "q:" + hex.EncodeToString(sum[:])
}
