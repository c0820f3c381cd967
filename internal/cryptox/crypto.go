// Package cryptox holds the keyed hashing used to store client supplied
// identifiers without keeping the raw values.
package cryptox

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Digester computes keyed BLAKE2b-256 digests. The zero value is not usable;
// construct it with NewDigester.
type Digester struct {
	key [32]byte
}

// NewDigester derives a fixed size MAC key from secret, so any secret length
// is accepted.
func NewDigester(secret string) *Digester {
	return &Digester{key: blake2b.Sum256([]byte("device-id:" + secret))}
}

// Digest returns the hex encoded keyed digest of value. Equal inputs under
// the same secret always produce the same digest.
func (d *Digester) Digest(value string) string {
	h, err := blake2b.New256(d.key[:])
	if err != nil {
		// a 32 byte key is always valid
		panic(err)
	}
	h.Write([]byte(value))
	return hex.EncodeToString(h.Sum(nil))
}
