// Package release holds the authoritative table of releases: locally created
// (optimistic) records merged with chain-confirmed ones, keyed by the
// contract-assigned request id.
package release

import (
	"math/big"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// Release is the central entity. A record can exist in three provenance
// states: local-only (created by this client, not yet chain-confirmed),
// confirmed (present in a Created event), revealed (Revealed event observed
// and verified).
type Release struct {
	// RequestID is the contract-assigned 256-bit identifier; primary key.
	RequestID *big.Int

	Creator ethcommon.Address

	// FileCidHash commits to the encrypted content locator. Write-once.
	FileCidHash ethcommon.Hash

	// UnlockAtBlock is the height at or after which reveal is permitted.
	// Write-once.
	UnlockAtBlock *big.Int

	// IsRevealed transitions false→true only. RevealedPayload is present
	// iff IsRevealed and is immutable once set.
	IsRevealed      bool
	RevealedPayload []byte

	// Provenance, used for estimation and audit only.
	CreatedAtBlock    uint64
	CreationWallClock time.Time
	TxHash            ethcommon.Hash

	// CurrentBlockObserved is the latest known chain height, refreshed
	// independently of the record's other fields.
	CurrentBlockObserved uint64
}

// Key returns the store key for a request id.
func Key(requestID *big.Int) string {
	return requestID.String()
}

// clone returns a deep enough copy that callers cannot alias store state.
func (r *Release) clone() *Release {
	cp := *r
	if r.RequestID != nil {
		cp.RequestID = new(big.Int).Set(r.RequestID)
	}
	if r.UnlockAtBlock != nil {
		cp.UnlockAtBlock = new(big.Int).Set(r.UnlockAtBlock)
	}
	if r.RevealedPayload != nil {
		cp.RevealedPayload = append([]byte(nil), r.RevealedPayload...)
	}
	return &cp
}
