package types

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/oklog/ulid/v2"
)

// GenerateUUID returns a k-sortable unique identifier
func GenerateUUID() string {
	return ulid.Make().String()
}

// GenerateUUIDWithPrefix returns a k-sortable unique identifier
// with a prefix ex hist_01HZX3M5V4B9Y7T2Q8N6K1R0PA
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}

// GenerateToken returns a 256-bit random token encoded as hex.
// Used for single-use activation links, never for ids.
func GenerateToken() (string, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}

const (
	// Prefixes for all domains and entities

	UUID_PREFIX_HISTORY      = "hist"
	UUID_PREFIX_REGISTRATION = "preg"
	UUID_PREFIX_NOTIFICATION = "ntf"
	UUID_PREFIX_REQUEST      = "req"
	UUID_PREFIX_USER         = "usr"
	UUID_PREFIX_TX           = "tx"
)
