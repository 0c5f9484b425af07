// Package timelock builds time-lock requests: the unlock-condition bytes the
// on-chain contract stores, and the locked ciphertext only the oracle
// network can open once the target block height is reached.
package timelock

import (
	"context"
	"fmt"
	"math/big"

	"github.com/Nkovaturient/blocklock-kit/internal/common"
	"github.com/Nkovaturient/blocklock-kit/internal/payload"
)

// conditionMarker tags a block-height unlock condition. The remaining 32
// bytes are the big-endian uint256 target height.
const conditionMarker = 'B'

// ConditionSize is the encoded condition length in bytes.
const ConditionSize = 1 + 32

// Scheme is the external time-lock encryption capability. The oracle
// network, not the client, enforces that decryption is only possible at or
// after the target height.
type Scheme interface {
	Encrypt(ctx context.Context, plaintext []byte, targetHeight uint64) ([]byte, error)
}

// Request is what the creation path submits to the contract.
type Request struct {
	Condition  []byte
	Ciphertext []byte
}

// EncodeCondition encodes the unlock rule for the oracle. It fails with
// common.ErrTargetBlockOverflow when target does not fit the on-chain
// uint256 height field (negative or wider than 256 bits).
func EncodeCondition(target *big.Int) ([]byte, error) {
	if err := validateTarget(target); err != nil {
		return nil, err
	}
	out := make([]byte, ConditionSize)
	out[0] = conditionMarker
	target.FillBytes(out[1:])
	return out, nil
}

// ParseCondition extracts the target height from condition bytes produced by
// EncodeCondition.
func ParseCondition(condition []byte) (*big.Int, error) {
	if len(condition) != ConditionSize || condition[0] != conditionMarker {
		return nil, fmt.Errorf("malformed condition: %d bytes", len(condition))
	}
	return new(big.Int).SetBytes(condition[1:]), nil
}

func validateTarget(target *big.Int) error {
	if target == nil || target.Sign() < 0 || target.BitLen() > 256 {
		return fmt.Errorf("%w: %v", common.ErrTargetBlockOverflow, target)
	}
	return nil
}

// RequestBuilder composes time-lock requests over a Scheme.
type RequestBuilder struct {
	scheme Scheme
}

func NewRequestBuilder(scheme Scheme) *RequestBuilder {
	return &RequestBuilder{scheme: scheme}
}

// Build validates the target height, serializes the reveal payload and
// time-locks it. The scheme receives exactly the serialized payload with no
// additional framing.
//
// The scheme's round counter is addressed by uint64; a 256-bit target that
// exceeds uint64 range is rejected with common.ErrTargetBlockOverflow even
// though it would fit the on-chain field, since no reachable chain height
// exceeds it.
func (b *RequestBuilder) Build(ctx context.Context, target *big.Int, p *payload.RevealPayload) (*Request, error) {
	if err := validateTarget(target); err != nil {
		return nil, err
	}
	if !target.IsUint64() {
		return nil, fmt.Errorf("%w: %v", common.ErrTargetBlockOverflow, target)
	}

	condition, err := EncodeCondition(target)
	if err != nil {
		return nil, err
	}

	plaintext, err := p.Marshal()
	if err != nil {
		return nil, fmt.Errorf("serialize payload: %w", err)
	}

	ciphertext, err := b.scheme.Encrypt(ctx, plaintext, target.Uint64())
	if err != nil {
		return nil, fmt.Errorf("time-lock encrypt: %w", err)
	}

	return &Request{Condition: condition, Ciphertext: ciphertext}, nil
}
