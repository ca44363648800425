package handles

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Namespace is the fixed literal tag prefixing every handle string.
const Namespace = "jn"

// Handle string format: {ns}:{entity}:{unixMillis}:{hash8}
// Example: jn:jobs:1729012345678:a1b2c3d4

// Generate builds a handle string for the given entity and data.
//
// hash8 is an 8-hex-character digest of the serialized data. It is a content
// fingerprint for debuggability, not an identity mechanism: identity comes
// from the full tuple including the store-time millisecond timestamp, so two
// calls with identical data at different timestamps yield different handles.
func Generate(entity string, data any) string {
	return generateAt(entity, data, time.Now())
}

// generateAt is the clock-injected form of Generate, used by tests.
func generateAt(entity string, data any, now time.Time) string {
	return fmt.Sprintf("%s:%s:%d:%s", Namespace, entity, now.UnixMilli(), contentHash(data))
}

// contentHash returns the first 8 hex characters of the SHA-256 digest of
// the serialized value. Unserializable values hash to a fixed sentinel so
// handle generation itself never fails.
func contentHash(data any) string {
	b, err := json.Marshal(data)
	if err != nil {
		return "00000000"
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:4])
}

// Valid reports whether a handle has the expected surface syntax: the fixed
// namespace prefix, four colon-separated parts, a numeric timestamp and an
// 8-hex-character digest. It says nothing about whether the handle is stored.
func Valid(handle string) bool {
	if !strings.HasPrefix(handle, Namespace+":") {
		return false
	}
	parts := strings.Split(handle, ":")
	if len(parts) != 4 {
		return false
	}
	if parts[1] == "" {
		return false
	}
	if _, err := strconv.ParseInt(parts[2], 10, 64); err != nil {
		return false
	}
	if len(parts[3]) != 8 {
		return false
	}
	_, err := hex.DecodeString(parts[3])
	return err == nil
}

// Entity extracts the entity component from a handle.
// Returns "" for malformed handles.
func Entity(handle string) string {
	parts := strings.Split(handle, ":")
	if len(parts) != 4 {
		return ""
	}
	return parts[1]
}
