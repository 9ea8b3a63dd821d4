package util

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// NewID returns an opaque identifier that sorts by creation order: a
// hex-encoded nanosecond timestamp followed by random bytes.
func NewID(prefix string) string {
	bytes := make([]byte, 8)
	_, _ = rand.Read(bytes)
	id := fmt.Sprintf("%016x%s", uint64(time.Now().UnixNano()), hex.EncodeToString(bytes))
	if prefix == "" {
		return id
	}
	return prefix + "_" + id
}
