// Package common defines shared constants and sentinel errors used across
// the blocklock kit. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Codec errors.
	ErrCiphertextMalformed = errors.New("ciphertext malformed")
	ErrUnsupportedVersion  = errors.New("unsupported ciphertext version")
	ErrDecryptionFailed    = errors.New("decryption failed")

	// Reveal verification errors.
	ErrHashMismatch = errors.New("locator hash mismatch")

	// Creation-path validation errors.
	ErrTargetBlockOverflow = errors.New("target block exceeds height field range")

	// Chain access errors.
	ErrProviderUnavailable = errors.New("no usable rpc provider")
	ErrLogFetchFailed      = errors.New("log fetch failed")
	ErrEventParseFailed    = errors.New("event parse failed")

	// Store / cache errors.
	ErrNotFound = errors.New("not found")
)
