// Package cryptox implements the authenticated-encryption frame protecting
// release content and the reveal payload.
//
// A frame is a single self-delimiting byte string:
//
//	version (1 byte) ‖ nonce (12 bytes) ‖ AES-GCM ciphertext+tag
//
// Version 1 is the only defined format. The GCM tag is appended to the
// ciphertext by the AEAD itself and is not transmitted separately.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/Nkovaturient/blocklock-kit/internal/common"
)

const (
	// FrameVersion is the only ciphertext format currently defined.
	FrameVersion = 1

	// NonceSize is the GCM nonce length in bytes.
	NonceSize = 12

	// TagSize is the GCM authentication tag length in bytes.
	TagSize = 16

	// KeySize is the AES-256 key length in bytes.
	KeySize = 32

	minFrameSize = 1 + NonceSize + TagSize
)

// NewContentKey returns a fresh random 256-bit content key.
func NewContentKey() []byte {
	return common.RandBytes(KeySize)
}

// DeriveKey derives a 256-bit content key from a passphrase with argon2id.
// The salt must be stored alongside the release if the key is to be
// re-derived later.
func DeriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, 1, 64*1024, 4, KeySize)
}

// Encode encrypts plaintext under key and returns a version-1 frame.
// A new random 12-byte nonce is generated per call; nonces are never
// reused for a given key.
func Encode(plaintext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher init: %w", err)
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm init: %w", err)
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}

	frame := make([]byte, 0, 1+NonceSize+len(plaintext)+TagSize)
	frame = append(frame, FrameVersion)
	frame = append(frame, nonce...)
	frame = aesgcm.Seal(frame, nonce, plaintext, nil)
	return frame, nil
}

// Decode authenticates and decrypts a frame produced by Encode.
//
// Failure modes, matched with errors.Is:
//   - common.ErrCiphertextMalformed: frame shorter than the minimum.
//   - common.ErrUnsupportedVersion: version byte is not 1.
//   - common.ErrDecryptionFailed: authentication failed (wrong key,
//     corrupted, truncated or extended frame). No partial plaintext is
//     ever returned.
func Decode(frame, key []byte) ([]byte, error) {
	if len(frame) < minFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", common.ErrCiphertextMalformed, len(frame))
	}
	if frame[0] != FrameVersion {
		return nil, fmt.Errorf("%w: %d", common.ErrUnsupportedVersion, frame[0])
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher init: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm init: %w", err)
	}

	nonce := frame[1 : 1+NonceSize]
	body := frame[1+NonceSize:]

	plaintext, err := aesgcm.Open(nil, nonce, body, nil)
	if err != nil {
		return nil, common.ErrDecryptionFailed
	}
	return plaintext, nil
}
