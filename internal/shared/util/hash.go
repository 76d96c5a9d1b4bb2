package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// AnonymousNamespace is used for callers without an identity.
const AnonymousNamespace = "anonymous"

// HashUserKey returns a path-safe, non-reversible key for an owner id.
func HashUserKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// OwnerNamespace maps an owner id to its storage namespace. Blank ids share
// AnonymousNamespace.
func OwnerNamespace(ownerID string) string {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return AnonymousNamespace
	}
	return HashUserKey(ownerID)
}
