package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
)

var (
	// ErrMissingKey is returned when a request carries no API key.
	ErrMissingKey = errors.New("missing API key")

	// ErrInvalidKey is returned for keys that are not configured.
	ErrInvalidKey = errors.New("invalid API key")
)

// Validator checks API keys against a fixed set. Keys are held as SHA-256
// digests and compared in constant time.
type Validator struct {
	digests      [][sha256.Size]byte
	fingerprints []string
}

// NewValidator creates a validator accepting keys. Empty keys are ignored.
func NewValidator(keys []string) *Validator {
	v := &Validator{}
	for _, key := range keys {
		if key == "" {
			continue
		}
		v.digests = append(v.digests, sha256.Sum256([]byte(key)))
		v.fingerprints = append(v.fingerprints, Fingerprint(key))
	}
	return v
}

// Len returns the number of accepted keys.
func (v *Validator) Len() int {
	return len(v.digests)
}

// Validate returns the fingerprint of key if it is accepted. Every
// configured key is compared, whether or not an earlier one matched.
func (v *Validator) Validate(key string) (string, error) {
	if key == "" {
		return "", ErrMissingKey
	}

	digest := sha256.Sum256([]byte(key))
	match := -1
	for i := range v.digests {
		if subtle.ConstantTimeCompare(digest[:], v.digests[i][:]) == 1 {
			match = i
		}
	}

	if match < 0 {
		return "", ErrInvalidKey
	}
	return v.fingerprints[match], nil
}

// Fingerprint identifies key in logs without revealing it: the first eight
// hex digits of its SHA-256 digest.
func Fingerprint(key string) string {
	digest := sha256.Sum256([]byte(key))
	return hex.EncodeToString(digest[:4])
}
