package timelock

import (
	"bytes"
	"context"
	"fmt"

	"github.com/drand/tlock"
	thttp "github.com/drand/tlock/networks/http"
)

// TlockScheme is the production Scheme. It time-locks plaintexts to the
// oracle's threshold network with drand tlock (IBE to a future round).
//
// The oracle network advances one round per chain block, so the unlock round
// equals the target block height. If a network ever changes that convention,
// roundForHeight is the only place to touch.
type TlockScheme struct {
	network *thttp.Network
}

// NewTlockScheme connects to the oracle network's HTTP endpoints.
func NewTlockScheme(baseURL, chainHash string) (*TlockScheme, error) {
	network, err := thttp.NewNetwork(baseURL, chainHash)
	if err != nil {
		return nil, fmt.Errorf("tlock network: %w", err)
	}
	return &TlockScheme{network: network}, nil
}

func roundForHeight(height uint64) uint64 { return height }

func (s *TlockScheme) Encrypt(ctx context.Context, plaintext []byte, targetHeight uint64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := tlock.New(s.network).Encrypt(&out, bytes.NewReader(plaintext), roundForHeight(targetHeight)); err != nil {
		return nil, fmt.Errorf("tlock encrypt: %w", err)
	}
	return out.Bytes(), nil
}

// Decrypt opens a locked ciphertext once the network has published the
// round's signature. The production reveal path never calls this (the
// oracle callback publishes the plaintext on chain), but it is useful for
// local tooling and recovery.
func (s *TlockScheme) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := tlock.New(s.network).Decrypt(&out, bytes.NewReader(ciphertext)); err != nil {
		return nil, fmt.Errorf("tlock decrypt: %w", err)
	}
	return out.Bytes(), nil
}
