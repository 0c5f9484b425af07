// Package verify validates candidate reveal events before they are merged
// into local state: the payload's locator must hash to the fileCidHash
// committed at creation time.
package verify

import (
	"context"
	"encoding/hex"
	"fmt"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/Nkovaturient/blocklock-kit/internal/common"
	"github.com/Nkovaturient/blocklock-kit/internal/logging"
	"github.com/Nkovaturient/blocklock-kit/internal/payload"
)

// LocatorHash computes the content-locator commitment stored on chain as
// fileCidHash: keccak256 of the locator string.
func LocatorHash(locator string) ethcommon.Hash {
	return crypto.Keccak256Hash([]byte(locator))
}

type Verifier struct {
	log logging.Logger
}

func NewVerifier(log logging.Logger) *Verifier {
	return &Verifier{log: log}
}

// VerifyReveal interprets a reveal event's payload bytes and checks them
// against the stored commitment.
//
// JSON payloads carrying a locator must hash to storedCidHash; a mismatch
// fails with common.ErrHashMismatch and the candidate must not be merged.
// It is either a forged event or corruption, never silently accepted.
// Non-JSON payloads fall back to bare-key interpretation with no locator;
// there is nothing to check against, and the caller must already know the
// locator from its own provenance.
func (v *Verifier) VerifyReveal(ctx context.Context, payloadBytes []byte, storedCidHash ethcommon.Hash) (*payload.MediaMetadata, error) {
	p, ok := payload.Parse(payloadBytes)
	if !ok {
		v.log.Debug(ctx, "reveal payload is not JSON, treating as bare key")
		m := payload.BareKeyMetadata(string(payloadBytes))
		return &m, nil
	}

	if got := LocatorHash(p.Locator); got != storedCidHash {
		v.log.Warn(ctx, "reveal payload locator does not match stored commitment",
			"want", storedCidHash.Hex(), "got", got.Hex())
		return nil, fmt.Errorf("%w: locator %q", common.ErrHashMismatch, p.Locator)
	}

	m := p.Metadata()
	return &m, nil
}

// DecodeContentKey decodes the hex content key carried in verified metadata
// into raw bytes usable with the ciphertext codec.
func DecodeContentKey(m *payload.MediaMetadata) ([]byte, error) {
	key, err := hex.DecodeString(m.Key)
	if err != nil {
		return nil, fmt.Errorf("content key is not hex: %w", err)
	}
	return key, nil
}
