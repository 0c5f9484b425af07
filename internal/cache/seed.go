package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	releaseKeyPrefix = "release_"
	targetBlockKey   = "tblock"
)

// SeedRecord is the optimistic per-release record written at creation time,
// before the chain has confirmed anything. RequestID and TxHash are hex/
// decimal strings so the record survives JSON round-trips unchanged.
type SeedRecord struct {
	RequestID      string    `json:"requestId"`
	TargetBlock    uint64    `json:"targetBlock"`
	CreatedAt      time.Time `json:"createdAt"`
	CreatedAtBlock uint64    `json:"createdAtBlock"`
	TxHash         string    `json:"txHash"`
}

// SaveRelease persists a seed record under release_<requestId>.
func (c *Cache) SaveRelease(ctx context.Context, rec *SeedRecord) error {
	if rec.RequestID == "" {
		return fmt.Errorf("seed record without requestId")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal seed record: %w", err)
	}
	return c.Set(ctx, releaseKeyPrefix+rec.RequestID, data)
}

// Releases returns all seed records. Entries that fail to decode are
// skipped; a corrupt row must not hide the healthy ones.
func (c *Cache) Releases(ctx context.Context) ([]*SeedRecord, error) {
	all, err := c.List(ctx)
	if err != nil {
		return nil, err
	}

	var out []*SeedRecord
	for key, value := range all {
		if !strings.HasPrefix(key, releaseKeyPrefix) {
			continue
		}
		var rec SeedRecord
		if err := json.Unmarshal(value, &rec); err != nil {
			continue
		}
		out = append(out, &rec)
	}
	return out, nil
}

// DeleteRelease removes the seed for a request id, typically after chain
// confirmation has superseded it.
func (c *Cache) DeleteRelease(ctx context.Context, requestID string) error {
	return c.Delete(ctx, releaseKeyPrefix+requestID)
}

// SaveTargetBlockHint records the block around which the most recent
// creation landed. The hint is shared across releases: concurrent local
// creations race on it, which at worst widens a later creation scan. The
// per-release seed record keeps its own targetBlock provenance.
func (c *Cache) SaveTargetBlockHint(ctx context.Context, block uint64) error {
	return c.Set(ctx, targetBlockKey, []byte(strconv.FormatUint(block, 10)))
}

// TargetBlockHint returns the creation-scan hint, ok=false when never set.
func (c *Cache) TargetBlockHint(ctx context.Context) (uint64, bool, error) {
	value, err := c.Get(ctx, targetBlockKey)
	if err != nil {
		return 0, false, err
	}
	if value == nil {
		return 0, false, nil
	}
	block, err := strconv.ParseUint(string(value), 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt tblock entry: %w", err)
	}
	return block, true, nil
}
