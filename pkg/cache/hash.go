package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...any) string {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	_ = enc.Encode(parts)
	return prefix + ":" + Hash(buf.Bytes())
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// KeyType returns the entry type encoded in a key ("layout", "artifact"),
// ignoring any scope prefix. Keys without a type yield "unknown".
func KeyType(key string) string {
	i := strings.LastIndexByte(key, ':')
	if i <= 0 {
		return "unknown"
	}
	return key[strings.LastIndexByte(key[:i], ':')+1 : i]
}
