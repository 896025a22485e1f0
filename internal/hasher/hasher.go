package hasher

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// Hasher turns a plaintext password into a one-way digest and checks a
// plaintext against a stored digest. Implementations must never make the
// plaintext recoverable from the digest.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
}

// New returns the hasher registered under the given name.
func New(name string) (Hasher, error) {
	switch name {
	case "sha256", "":
		return &SHA256Hasher{}, nil
	case "bcrypt":
		return &BcryptHasher{}, nil
	default:
		return nil, fmt.Errorf("unknown hasher: %s", name)
	}
}

// SHA256Hasher is a deterministic unsalted digest scheme. It matches the
// credential format of the legacy user store, so existing records keep
// verifying after an upgrade.
type SHA256Hasher struct{}

// Hash returns the hex-encoded SHA-256 digest of the password.
func (h *SHA256Hasher) Hash(password string) (string, error) {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:]), nil
}

// Verify recomputes the digest and compares in constant time.
func (h *SHA256Hasher) Verify(password, digest string) bool {
	computed, _ := h.Hash(password)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(digest)) == 1
}
