// Package chain talks to the release contract's chain: a provider handle
// with endpoint fallback, decoders for the two contract events, and the
// windowed log scanner that locates creation and reveal events.
package chain

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/Nkovaturient/blocklock-kit/internal/common"
	"github.com/Nkovaturient/blocklock-kit/internal/logging"
)

// Provider is the subset of the chain RPC surface the kit reads.
// *ethclient.Client satisfies it.
type Provider interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

// FallbackProvider tries a list of providers in order until one answers.
// A provider that errors is skipped for the current call only; the next
// call starts from the front again, so a recovered endpoint is reused.
type FallbackProvider struct {
	providers []Provider
	endpoints []string
	log       logging.Logger
}

// DialFallback dials each endpoint and keeps the ones that connect. It
// fails with common.ErrProviderUnavailable when no endpoint is dialable.
func DialFallback(ctx context.Context, endpoints []string, log logging.Logger) (*FallbackProvider, error) {
	fp := &FallbackProvider{log: log}
	for _, ep := range endpoints {
		client, err := ethclient.DialContext(ctx, ep)
		if err != nil {
			log.Warn(ctx, "rpc endpoint not dialable", "endpoint", ep, "error", err)
			continue
		}
		fp.providers = append(fp.providers, client)
		fp.endpoints = append(fp.endpoints, ep)
	}
	if len(fp.providers) == 0 {
		return nil, fmt.Errorf("%w: tried %d endpoints", common.ErrProviderUnavailable, len(endpoints))
	}
	return fp, nil
}

// NewFallbackProvider wraps already-constructed providers. Used by tests and
// by callers that manage their own clients.
func NewFallbackProvider(log logging.Logger, providers ...Provider) *FallbackProvider {
	return &FallbackProvider{providers: providers, log: log}
}

func (fp *FallbackProvider) BlockNumber(ctx context.Context) (uint64, error) {
	var lastErr error
	for i, p := range fp.providers {
		n, err := p.BlockNumber(ctx)
		if err == nil {
			return n, nil
		}
		lastErr = err
		fp.log.Warn(ctx, "block number fetch failed, trying next provider", "provider", fp.endpointName(i), "error", err)
	}
	return 0, fmt.Errorf("%w: %v", common.ErrProviderUnavailable, lastErr)
}

func (fp *FallbackProvider) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	var lastErr error
	for i, p := range fp.providers {
		logs, err := p.FilterLogs(ctx, q)
		if err == nil {
			return logs, nil
		}
		lastErr = err
		fp.log.Warn(ctx, "log fetch failed, trying next provider", "provider", fp.endpointName(i), "error", err)
	}
	return nil, fmt.Errorf("%w: %v", common.ErrProviderUnavailable, lastErr)
}

func (fp *FallbackProvider) endpointName(i int) string {
	if i < len(fp.endpoints) {
		return fp.endpoints[i]
	}
	return fmt.Sprintf("#%d", i)
}
