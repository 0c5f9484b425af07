package release

import (
	"context"
	"math/big"
	"sort"
	"sync"

	"github.com/Nkovaturient/blocklock-kit/internal/logging"
)

// Store merges partial views of the same logical release. All upserts are
// field-wise merges under a single lock: commutative and idempotent, so
// out-of-order delivery of confirmation vs. reveal information converges to
// the same final state. Stale updates that would regress a record are
// logged and ignored rather than raised; local state must never go
// backwards because of a reordered event.
type Store struct {
	mu             sync.Mutex
	records        map[string]*Release
	observedHeight uint64
	log            logging.Logger
}

func NewStore(log logging.Logger) *Store {
	return &Store{records: make(map[string]*Release), log: log}
}

// UpsertLocal merges an optimistic, locally created record.
func (s *Store) UpsertLocal(ctx context.Context, r *Release) {
	s.upsert(ctx, r)
}

// UpsertConfirmed merges a record decoded from a Created event. Confirmed
// data never overwrites more-advanced local knowledge.
func (s *Store) UpsertConfirmed(ctx context.Context, r *Release) {
	s.upsert(ctx, r)
}

// UpsertRevealed marks a release revealed with its verified payload. The
// first write wins; repeats and conflicting payloads are ignored with a
// warning.
func (s *Store) UpsertRevealed(ctx context.Context, requestID *big.Int, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := Key(requestID)
	existing, ok := s.records[key]
	if !ok {
		existing = &Release{RequestID: new(big.Int).Set(requestID)}
		s.records[key] = existing
	}

	if existing.IsRevealed {
		s.log.Warn(ctx, "ignoring repeated reveal for already-revealed release", "requestId", key)
		return
	}

	existing.IsRevealed = true
	existing.RevealedPayload = append([]byte(nil), payload...)
}

// Get returns a copy of the record, stamped with the latest observed height.
func (s *Store) Get(requestID *big.Int) (*Release, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[Key(requestID)]
	if !ok {
		return nil, false
	}
	cp := r.clone()
	cp.CurrentBlockObserved = s.observedHeight
	return cp, true
}

// List returns all records ordered by descending requestId (newest first),
// freshly sorted on every call.
func (s *Store) List() []*Release {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Release, 0, len(s.records))
	for _, r := range s.records {
		cp := r.clone()
		cp.CurrentBlockObserved = s.observedHeight
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RequestID.Cmp(out[j].RequestID) > 0
	})
	return out
}

// SetObservedHeight refreshes the latest known chain height. It never moves
// backwards; a lagging provider cannot shrink countdown estimates.
func (s *Store) SetObservedHeight(height uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if height > s.observedHeight {
		s.observedHeight = height
	}
}

// ObservedHeight returns the latest known chain height.
func (s *Store) ObservedHeight() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.observedHeight
}

// upsert performs the field-wise merge: the union of known fields,
// preferring non-null and more-advanced values, never clearing anything.
func (s *Store) upsert(ctx context.Context, r *Release) {
	if r == nil || r.RequestID == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := Key(r.RequestID)
	existing, ok := s.records[key]
	if !ok {
		s.records[key] = r.clone()
		return
	}

	if r.Creator != (emptyRelease.Creator) {
		existing.Creator = r.Creator
	}

	// Write-once fields: first non-zero value sticks.
	if existing.FileCidHash == (emptyRelease.FileCidHash) {
		existing.FileCidHash = r.FileCidHash
	} else if r.FileCidHash != (emptyRelease.FileCidHash) && r.FileCidHash != existing.FileCidHash {
		s.log.Warn(ctx, "ignoring attempt to rewrite fileCidHash", "requestId", key)
	}

	if existing.UnlockAtBlock == nil {
		if r.UnlockAtBlock != nil {
			existing.UnlockAtBlock = new(big.Int).Set(r.UnlockAtBlock)
		}
	} else if r.UnlockAtBlock != nil && r.UnlockAtBlock.Cmp(existing.UnlockAtBlock) != 0 {
		s.log.Warn(ctx, "ignoring attempt to rewrite unlockAtBlock", "requestId", key)
	}

	// Reveal state is monotonic: false→true only, payload set at most once.
	if r.IsRevealed && !existing.IsRevealed {
		existing.IsRevealed = true
		existing.RevealedPayload = append([]byte(nil), r.RevealedPayload...)
	} else if !r.IsRevealed && existing.IsRevealed {
		s.log.Warn(ctx, "ignoring stale update clearing isRevealed", "requestId", key)
	}

	// Provenance fields: fill gaps, never clear.
	if existing.CreatedAtBlock == 0 {
		existing.CreatedAtBlock = r.CreatedAtBlock
	}
	if existing.CreationWallClock.IsZero() {
		existing.CreationWallClock = r.CreationWallClock
	}
	if existing.TxHash == (emptyRelease.TxHash) {
		existing.TxHash = r.TxHash
	}
}

var emptyRelease Release
