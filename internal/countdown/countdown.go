// Package countdown derives a human-facing unlock estimate from already
// known state. Both strategies are pure functions; the caller (the watcher
// tick) decides when to recompute.
package countdown

import (
	"time"

	"github.com/Nkovaturient/blocklock-kit/internal/release"
)

// Strategy names which inputs produced an estimate.
type Strategy int

const (
	// StrategyWallClock projects from the creation timestamp and the block
	// delta between creation and unlock. Preferred when available: it is
	// immune to polling-interval staleness of the observed height.
	StrategyWallClock Strategy = iota

	// StrategyBlockCount multiplies the remaining block count by the
	// average block time.
	StrategyBlockCount
)

func (s Strategy) String() string {
	if s == StrategyWallClock {
		return "wall-clock"
	}
	return "block-count"
}

// Estimate is the countdown result. Unlocked is the sentinel for "remaining
// time has reached zero"; Remaining is never negative.
type Estimate struct {
	Remaining time.Duration
	Unlocked  bool
	Strategy  Strategy
}

// ForRelease estimates time until unlock, choosing the wall-clock strategy
// when creation provenance is present and falling back to block arithmetic
// otherwise.
func ForRelease(r *release.Release, avgBlockTime time.Duration, now time.Time) Estimate {
	if r.UnlockAtBlock == nil {
		return Estimate{Unlocked: false, Strategy: StrategyBlockCount}
	}

	if !r.CreationWallClock.IsZero() && r.CreatedAtBlock > 0 && r.UnlockAtBlock.IsUint64() {
		unlockBlock := r.UnlockAtBlock.Uint64()
		if unlockBlock >= r.CreatedAtBlock {
			blockDelta := unlockBlock - r.CreatedAtBlock
			unlockAt := r.CreationWallClock.Add(time.Duration(blockDelta) * avgBlockTime)
			return clamp(unlockAt.Sub(now), StrategyWallClock)
		}
	}

	return FromBlocks(r.UnlockAtBlock.Uint64(), r.CurrentBlockObserved, avgBlockTime)
}

// FromBlocks is the block-count strategy on its own: remaining blocks times
// average block time.
func FromBlocks(unlockAtBlock, currentBlock uint64, avgBlockTime time.Duration) Estimate {
	if currentBlock >= unlockAtBlock {
		return Estimate{Unlocked: true, Strategy: StrategyBlockCount}
	}
	remaining := time.Duration(unlockAtBlock-currentBlock) * avgBlockTime
	return clamp(remaining, StrategyBlockCount)
}

func clamp(d time.Duration, s Strategy) Estimate {
	if d <= 0 {
		return Estimate{Unlocked: true, Strategy: s}
	}
	return Estimate{Remaining: d, Strategy: s}
}
