package common

import (
	"crypto/rand"
	"encoding/base64"
)

// MakeRandToken returns a URL-safe random token built from size random
// bytes. The result has no padding, so it can be embedded in a query string
// as is.
//
// It returns an error if the random number generator fails.
func MakeRandToken(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
