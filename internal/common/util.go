package common

import (
	"crypto/rand"
	"encoding/hex"
)

// RandBytes returns size cryptographically random bytes.
// It panics if the system randomness source fails, which is
// unrecoverable for key material anyway.
func RandBytes(size int) []byte {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// RandHexString returns a random hex string encoding size random bytes,
// so the result is 2*size characters long.
func RandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// WipeBytes overwrites b with zeros. Used to drop key material from
// memory after use. A nil slice is a no-op.
func WipeBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
