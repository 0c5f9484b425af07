package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sethvargo/go-retry"

	"github.com/Nkovaturient/blocklock-kit/internal/common"
	"github.com/Nkovaturient/blocklock-kit/internal/logging"
)

// creationScanRadius bounds the window around the tblock hint when looking
// for this client's own Created events.
const creationScanRadius = 10

// ScanConfig tunes the log scanner. Zero values fall back to safe minimums.
type ScanConfig struct {
	// ChunkSize is the provider-imposed ceiling on blocks per getLogs call.
	ChunkSize uint64
	// Prefetch widens the scan window below the target height, so a reveal
	// mined slightly early is still caught.
	Prefetch uint64
	// SearchForward bounds the window above the target height.
	SearchForward uint64
	// DefaultSpan is the recent window used when no target hint is known.
	DefaultSpan uint64

	RetryAttempts uint64
	RetryDelay    time.Duration
}

func (c ScanConfig) sanitized() ScanConfig {
	if c.ChunkSize == 0 {
		c.ChunkSize = 1
	}
	if c.RetryAttempts == 0 {
		c.RetryAttempts = 1
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = time.Millisecond
	}
	return c
}

// Status reports a scan outcome. "Not yet" (the event cannot exist at the
// current height) is distinct from "not found" (the window was scanned and
// held no match).
type Status int

const (
	StatusFound Status = iota
	StatusNotYet
	StatusNotFound
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusNotYet:
		return "not yet"
	case StatusNotFound:
		return "not found"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Scanner locates release contract events inside bounded block windows.
// Scans never mutate remote state and are safe to repeat on every poll tick.
type Scanner struct {
	provider Provider
	contract ethcommon.Address
	cfg      ScanConfig
	log      logging.Logger
}

func NewScanner(provider Provider, contract ethcommon.Address, cfg ScanConfig, log logging.Logger) *Scanner {
	return &Scanner{provider: provider, contract: contract, cfg: cfg.sanitized(), log: log}
}

// ScanReveal looks for the single Revealed event of requestID. targetHint is
// the expected unlock height, or 0 when unknown. The scan window is
// [target-Prefetch, min(current, target+SearchForward)] around a hint, or
// the recent [current-DefaultSpan, current] without one.
//
// No fetch is attempted while currentHeight < target-Prefetch: the event
// cannot exist yet.
func (s *Scanner) ScanReveal(ctx context.Context, requestID *big.Int, targetHint, currentHeight uint64) (*RevealedEvent, Status, error) {
	var from, to uint64

	if targetHint > 0 {
		if currentHeight+s.cfg.Prefetch < targetHint {
			s.log.Debug(ctx, "reveal cannot exist yet",
				"requestId", requestID, "target", targetHint, "current", currentHeight)
			return nil, StatusNotYet, nil
		}
		from = 0
		if targetHint > s.cfg.Prefetch {
			from = targetHint - s.cfg.Prefetch
		}
		to = targetHint + s.cfg.SearchForward
		if currentHeight < to {
			to = currentHeight
		}
	} else {
		from = 0
		if currentHeight > s.cfg.DefaultSpan {
			from = currentHeight - s.cfg.DefaultSpan
		}
		to = currentHeight
	}

	if from > to {
		return nil, StatusNotFound, nil
	}

	query := ethereum.FilterQuery{
		Addresses: []ethcommon.Address{s.contract},
		Topics: [][]ethcommon.Hash{
			{RevealedTopic},
			{RequestIDTopic(requestID)},
		},
	}

	var match *RevealedEvent
	err := s.scanWindow(ctx, query, from, to, func(lg types.Log) bool {
		ev, err := DecodeRevealed(lg)
		if err != nil {
			s.log.Debug(ctx, "skipping unparseable log", "block", lg.BlockNumber, "error", err)
			return false
		}
		if ev.RequestID.Cmp(requestID) != 0 {
			return false
		}
		match = ev
		return true
	})
	if err != nil {
		return nil, StatusNotFound, err
	}
	if match == nil {
		return nil, StatusNotFound, nil
	}
	return match, StatusFound, nil
}

// ScanCreated returns the Created events in a short window around the
// creation hint block. All events at the contract are returned; the caller
// merges the ones it recognizes.
func (s *Scanner) ScanCreated(ctx context.Context, hintBlock, currentHeight uint64) ([]*CreatedEvent, error) {
	from := uint64(0)
	if hintBlock > creationScanRadius {
		from = hintBlock - creationScanRadius
	}
	to := hintBlock + creationScanRadius
	if currentHeight < to {
		to = currentHeight
	}
	if from > to {
		return nil, nil
	}

	query := ethereum.FilterQuery{
		Addresses: []ethcommon.Address{s.contract},
		Topics:    [][]ethcommon.Hash{{CreatedTopic}},
	}

	var events []*CreatedEvent
	err := s.scanWindow(ctx, query, from, to, func(lg types.Log) bool {
		ev, err := DecodeCreated(lg)
		if err != nil {
			s.log.Debug(ctx, "skipping unparseable log", "block", lg.BlockNumber, "error", err)
			return false
		}
		events = append(events, ev)
		return false // collect all
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// scanWindow fetches [from, to] in sequential chunks of at most ChunkSize
// blocks and feeds every returned log to visit. A chunk that exhausts its
// retries is skipped with a warning; partial results are acceptable because
// every scan restarts from full window bounds. visit returns true to stop
// early.
func (s *Scanner) scanWindow(ctx context.Context, query ethereum.FilterQuery, from, to uint64, visit func(types.Log) bool) error {
	for start := from; start <= to; {
		end := to
		if start+s.cfg.ChunkSize-1 < to {
			end = start + s.cfg.ChunkSize - 1
		}

		q := query
		q.FromBlock = new(big.Int).SetUint64(start)
		q.ToBlock = new(big.Int).SetUint64(end)

		logs, err := s.fetchChunk(ctx, q)
		switch {
		case err != nil && ctx.Err() != nil:
			// Cancellation is not a skippable chunk failure.
			return ctx.Err()
		case err != nil:
			s.log.Warn(ctx, "chunk skipped after retry exhaustion",
				"fromBlock", start, "toBlock", end, "error", err)
		default:
			for _, lg := range logs {
				if visit(lg) {
					return nil
				}
			}
		}

		if end == to {
			break
		}
		start = end + 1
	}
	return nil
}

// fetchChunk is the one retry policy for log fetches: bounded attempts with
// a constant inter-attempt delay.
func (s *Scanner) fetchChunk(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	var logs []types.Log

	backoff := retry.WithMaxRetries(s.cfg.RetryAttempts-1, retry.NewConstant(s.cfg.RetryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		res, err := s.provider.FilterLogs(ctx, q)
		if err != nil {
			return retry.RetryableError(err)
		}
		logs = res
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: blocks %v-%v: %v", common.ErrLogFetchFailed, q.FromBlock, q.ToBlock, err)
	}
	return logs, nil
}
