// Package apikey verifies the shared secret a game server presents on webhook calls.
//
// The configured secret is either the literal value, compared for exact
// equality, or a bcrypt / argon2id PHC hash of it produced by `vipbridge hashkey`.
package apikey

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Verifier checks presented secrets against one configured value.
type Verifier struct {
	configured string
}

func NewVerifier(configured string) *Verifier {
	return &Verifier{configured: strings.TrimSpace(configured)}
}

// Enabled reports whether a secret is configured at all.
func (v *Verifier) Enabled() bool { return v != nil && v.configured != "" }

// Hashed reports whether the configured value is a hash rather than the literal secret.
func (v *Verifier) Hashed() bool {
	return v.Enabled() && (IsBcryptHash(v.configured) || IsArgon2idHash(v.configured))
}

// Verify reports whether presented matches the configured secret. An empty
// presented value never matches.
func (v *Verifier) Verify(presented string) bool {
	if !v.Enabled() || presented == "" {
		return false
	}
	switch {
	case IsBcryptHash(v.configured):
		ok, _ := VerifyBcrypt(v.configured, presented)
		return ok
	case IsArgon2idHash(v.configured):
		ok, _ := VerifyArgon2id(v.configured, presented)
		return ok
	default:
		return subtle.ConstantTimeCompare([]byte(v.configured), []byte(presented)) == 1
	}
}

// HashBcrypt hashes a secret for use as the configured value.
func HashBcrypt(secret string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyBcrypt compares a bcrypt hash with a plaintext secret.
func VerifyBcrypt(hash, secret string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
	if err == bcrypt.ErrMismatchedHashAndPassword {
		return false, nil
	}
	return err == nil, err
}

// IsBcryptHash detects common bcrypt PHC prefixes.
func IsBcryptHash(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}
