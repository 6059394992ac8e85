package model

import (
	"crypto/rand"
	"encoding/hex"
)

// Entity ids are 24-character lowercase hex strings. Any id failing this shape
// is rejected before it reaches the store, so driver-level errors never leak
// out as 500s for malformed input.
const idLength = 24

// IsValidID reports whether id is a syntactically valid entity identifier.
func IsValidID(id string) bool {
	if len(id) != idLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// NewID generates a fresh entity id.
func NewID() string {
	b := make([]byte, idLength/2)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// Owned is implemented by entities subject to ownership and shared-access
// checks.
type Owned interface {
	GetOwnerID() string
	GetSharedWith() []string
	GetIsPublic() bool
}
