package store

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"

	"github.com/google/uuid"
)

// IDSource produces new contact identifiers. Backends take one at
// construction so tests can inject deterministic sequences.
type IDSource func() string

var hexIDRe = regexp.MustCompile(`^[0-9a-f]{24}$`)

// NewHexID returns a 24-character lowercase hex identifier (12 random
// bytes), the key shape the document backends store under.
func NewHexID() string {
	var buf [12]byte
	// crypto/rand.Read never returns an error on supported platforms.
	_, _ = rand.Read(buf[:])
	return hex.EncodeToString(buf[:])
}

// ValidHexID reports whether id is a well-formed document key.
func ValidHexID(id string) bool {
	return hexIDRe.MatchString(id)
}

// NewToken returns an opaque identifier for the in-process backend.
func NewToken() string {
	return uuid.NewString()
}
