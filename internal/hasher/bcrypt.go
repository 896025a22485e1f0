package hasher

import "golang.org/x/crypto/bcrypt"

// BcryptHasher is a salted adaptive digest scheme. Digests are not
// deterministic across calls; Verify must be used for comparison.
type BcryptHasher struct{}

// Hash generates a salted bcrypt digest with the default cost.
func (h *BcryptHasher) Hash(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether the password matches the stored digest.
func (h *BcryptHasher) Verify(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
