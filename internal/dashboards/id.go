package dashboards

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns 16 lowercase hex characters from 8 random bytes. Collisions
// are not checked.
func NewID() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
