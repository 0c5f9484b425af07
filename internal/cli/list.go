package cli

import (
	"context"
	"fmt"
	"math/big"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/Nkovaturient/blocklock-kit/internal/countdown"
	"github.com/Nkovaturient/blocklock-kit/internal/release"
)

func (a *App) list(ctx context.Context) {
	releases := a.store.List()
	if len(releases) == 0 {
		fmt.Fprintln(a.out, "No releases known. Use 'draft' and 'adopt' to add one.")
		return
	}
	now := time.Now()
	for _, r := range releases {
		fmt.Fprintln(a.out, formatRelease(r, countdown.ForRelease(r, a.cfg.AvgBlockTime, now)))
	}
}

func (a *App) status(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: status <requestId>")
		return
	}
	requestID, ok := new(big.Int).SetString(args[0], 10)
	if !ok {
		fmt.Fprintln(a.out, "requestId must be decimal")
		return
	}

	r, found := a.store.Get(requestID)
	if !found {
		fmt.Fprintln(a.out, "Unknown request:", args[0])
		return
	}

	e := countdown.ForRelease(r, a.cfg.AvgBlockTime, time.Now())
	fmt.Fprintln(a.out, formatRelease(r, e))
	fmt.Fprintln(a.out, "  fileCidHash:   ", r.FileCidHash.Hex())
	fmt.Fprintln(a.out, "  createdAtBlock:", r.CreatedAtBlock)
	fmt.Fprintln(a.out, "  observedHeight:", r.CurrentBlockObserved)
	if r.TxHash != (ethcommon.Hash{}) {
		fmt.Fprintln(a.out, "  tx:            ", r.TxHash.Hex())
	}
}

// formatRelease renders the one-line list entry.
func formatRelease(r *release.Release, e countdown.Estimate) string {
	unlock := "?"
	if r.UnlockAtBlock != nil {
		unlock = r.UnlockAtBlock.String()
	}

	state := "pending"
	switch {
	case r.IsRevealed:
		state = "revealed"
	case e.Unlocked:
		state = "unlockable"
	}

	s := fmt.Sprintf("#%s  unlock@%s  %s", r.RequestID, unlock, state)
	if state == "pending" && e.Remaining > 0 {
		s += fmt.Sprintf("  ~%s left (%s)", e.Remaining.Round(time.Second), e.Strategy)
	}
	return s
}
