// Package service orchestrates the release lifecycle: encrypt and upload
// content, build and submit the time-lock request, reconcile local records
// against chain events, and unlock revealed content.
package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/Nkovaturient/blocklock-kit/internal/cache"
	"github.com/Nkovaturient/blocklock-kit/internal/chain"
	"github.com/Nkovaturient/blocklock-kit/internal/common"
	"github.com/Nkovaturient/blocklock-kit/internal/cryptox"
	"github.com/Nkovaturient/blocklock-kit/internal/logging"
	"github.com/Nkovaturient/blocklock-kit/internal/payload"
	"github.com/Nkovaturient/blocklock-kit/internal/release"
	"github.com/Nkovaturient/blocklock-kit/internal/timelock"
	"github.com/Nkovaturient/blocklock-kit/internal/verify"
)

// ContentGateway stores and retrieves opaque ciphertext frames by locator.
type ContentGateway interface {
	Upload(ctx context.Context, frame []byte) (string, error)
	Fetch(ctx context.Context, locator string) ([]byte, error)
}

// EventScanner locates release contract events.
type EventScanner interface {
	ScanReveal(ctx context.Context, requestID *big.Int, targetHint, currentHeight uint64) (*chain.RevealedEvent, chain.Status, error)
	ScanCreated(ctx context.Context, hintBlock, currentHeight uint64) ([]*chain.CreatedEvent, error)
}

// Receipt is what a Submitter reports back after the creation transaction
// is mined. RequestID is assigned by the contract.
type Receipt struct {
	RequestID  *big.Int
	TxHash     ethcommon.Hash
	IncludedAt uint64
}

// Submitter sends the creation transaction. The kit deliberately does not
// manage keys or sign transactions; the embedding application (or its
// wallet) provides this capability. CLI users without one go through
// Draft and Adopt instead.
type Submitter interface {
	Submit(ctx context.Context, req *timelock.Request, fileCidHash ethcommon.Hash, unlockAtBlock *big.Int) (*Receipt, error)
}

// Params collects the service dependencies. Submitter and Cache are
// optional; everything else is required.
type Params struct {
	Gateway   ContentGateway
	Scanner   EventScanner
	Provider  chain.Provider
	Builder   *timelock.RequestBuilder
	Verifier  *verify.Verifier
	Store     *release.Store
	Cache     *cache.Cache
	Submitter Submitter
	Log       logging.Logger
}

type Service struct {
	gateway   ContentGateway
	scanner   EventScanner
	provider  chain.Provider
	builder   *timelock.RequestBuilder
	verifier  *verify.Verifier
	store     *release.Store
	cache     *cache.Cache
	submitter Submitter
	log       logging.Logger

	now func() time.Time
}

func New(p Params) *Service {
	return &Service{
		gateway:   p.Gateway,
		scanner:   p.Scanner,
		provider:  p.Provider,
		builder:   p.Builder,
		verifier:  p.Verifier,
		store:     p.Store,
		cache:     p.Cache,
		submitter: p.Submitter,
		log:       p.Log,
		now:       time.Now,
	}
}

// CreateOptions carries the optional metadata embedded in the reveal payload.
// When Passphrase is set the content key is derived from it instead of being
// random; either way the key travels only inside the time-locked payload.
type CreateOptions struct {
	Filename   string
	MimeType   string
	Passphrase []byte
}

// CreateResult summarizes a submitted creation.
type CreateResult struct {
	RequestID *big.Int
	Locator   string
	TxHash    ethcommon.Hash
}

// Draft is a fully built creation request that has not been submitted.
type Draft struct {
	Request     *timelock.Request
	Locator     string
	FileCidHash ethcommon.Hash
}

// BuildDraft runs the client half of the creation pipeline: generate a
// content key, encrypt, upload, build the time-locked request. The raw
// content key is wiped before returning; it survives only inside the
// time-locked payload.
func (s *Service) BuildDraft(ctx context.Context, content []byte, target *big.Int, opts CreateOptions) (*Draft, error) {
	var key []byte
	if len(opts.Passphrase) > 0 {
		key = cryptox.DeriveKey(opts.Passphrase, common.RandBytes(16))
	} else {
		key = cryptox.NewContentKey()
	}
	defer common.WipeBytes(key)

	frame, err := cryptox.Encode(content, key)
	if err != nil {
		return nil, fmt.Errorf("encrypt content: %w", err)
	}

	locator, err := s.gateway.Upload(ctx, frame)
	if err != nil {
		return nil, fmt.Errorf("upload ciphertext: %w", err)
	}

	p := payload.New(hex.EncodeToString(key), locator)
	p.Filename = opts.Filename
	p.MimeType = opts.MimeType
	p.Size = int64(len(content))

	req, err := s.builder.Build(ctx, target, p)
	if err != nil {
		return nil, err
	}

	return &Draft{
		Request:     req,
		Locator:     locator,
		FileCidHash: verify.LocatorHash(locator),
	}, nil
}

// Create runs the full creation pipeline through the configured Submitter
// and seeds local state from the receipt.
func (s *Service) Create(ctx context.Context, content []byte, target *big.Int, opts CreateOptions) (*CreateResult, error) {
	if s.submitter == nil {
		return nil, errors.New("no submitter configured")
	}

	draft, err := s.BuildDraft(ctx, content, target, opts)
	if err != nil {
		return nil, err
	}

	receipt, err := s.submitter.Submit(ctx, draft.Request, draft.FileCidHash, target)
	if err != nil {
		return nil, fmt.Errorf("submit creation: %w", err)
	}

	now := s.now()
	s.store.UpsertLocal(ctx, &release.Release{
		RequestID:         receipt.RequestID,
		FileCidHash:       draft.FileCidHash,
		UnlockAtBlock:     new(big.Int).Set(target),
		CreatedAtBlock:    receipt.IncludedAt,
		CreationWallClock: now,
		TxHash:            receipt.TxHash,
	})

	s.seed(ctx, receipt, target, now)

	s.log.Info(ctx, "release created",
		"requestId", receipt.RequestID, "unlockAtBlock", target, "tx", receipt.TxHash.Hex())

	return &CreateResult{
		RequestID: receipt.RequestID,
		Locator:   draft.Locator,
		TxHash:    receipt.TxHash,
	}, nil
}

// seed persists the optimistic cache records. The cache accelerates restart
// and reconciliation; the in-memory store stays authoritative, so cache
// failures are logged and swallowed.
func (s *Service) seed(ctx context.Context, receipt *Receipt, target *big.Int, now time.Time) {
	if s.cache == nil {
		return
	}

	rec := &cache.SeedRecord{
		RequestID:      receipt.RequestID.String(),
		TargetBlock:    target.Uint64(),
		CreatedAt:      now,
		CreatedAtBlock: receipt.IncludedAt,
		TxHash:         receipt.TxHash.Hex(),
	}
	if err := s.cache.SaveRelease(ctx, rec); err != nil {
		s.log.Warn(ctx, "failed to seed release cache", "requestId", rec.RequestID, "error", err)
	}
	if receipt.IncludedAt > 0 {
		if err := s.cache.SaveTargetBlockHint(ctx, receipt.IncludedAt); err != nil {
			s.log.Warn(ctx, "failed to save creation hint", "error", err)
		}
	}
}

// Restore loads cached seed records into the store, typically at startup.
func (s *Service) Restore(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}

	seeds, err := s.cache.Releases(ctx)
	if err != nil {
		return fmt.Errorf("load cached releases: %w", err)
	}

	for _, seed := range seeds {
		id, ok := new(big.Int).SetString(seed.RequestID, 10)
		if !ok {
			s.log.Warn(ctx, "skipping seed with malformed requestId", "requestId", seed.RequestID)
			continue
		}
		s.store.UpsertLocal(ctx, &release.Release{
			RequestID:         id,
			UnlockAtBlock:     new(big.Int).SetUint64(seed.TargetBlock),
			CreatedAtBlock:    seed.CreatedAtBlock,
			CreationWallClock: seed.CreatedAt,
			TxHash:            ethcommon.HexToHash(seed.TxHash),
		})
	}

	s.log.Debug(ctx, "restored releases from cache", "count", len(seeds))
	return nil
}

// Adopt pulls an externally created release into local state by scanning
// for its Created event around hintBlock. Used when the creation
// transaction went through a wallet the kit never saw.
func (s *Service) Adopt(ctx context.Context, requestID *big.Int, hintBlock uint64) error {
	current, err := s.currentHeight(ctx)
	if err != nil {
		return err
	}

	events, err := s.scanner.ScanCreated(ctx, hintBlock, current)
	if err != nil {
		return err
	}

	for _, ev := range events {
		if ev.RequestID.Cmp(requestID) != 0 {
			continue
		}
		s.mergeCreated(ctx, ev, time.Time{})
		s.log.Info(ctx, "adopted release", "requestId", requestID, "block", ev.Raw.BlockNumber)
		return nil
	}

	return fmt.Errorf("%w: no Created event for request %v near block %d",
		common.ErrNotFound, requestID, hintBlock)
}

// ReconcileCreations confirms cached optimistic records against the chain:
// it scans around the stored creation hint and merges every Created event
// that matches a seed record.
func (s *Service) ReconcileCreations(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}

	hint, ok, err := s.cache.TargetBlockHint(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	seeds, err := s.cache.Releases(ctx)
	if err != nil {
		return err
	}
	byID := make(map[string]*cache.SeedRecord, len(seeds))
	for _, seed := range seeds {
		byID[seed.RequestID] = seed
	}

	current, err := s.currentHeight(ctx)
	if err != nil {
		return err
	}

	events, err := s.scanner.ScanCreated(ctx, hint, current)
	if err != nil {
		return err
	}

	for _, ev := range events {
		seed, ok := byID[ev.RequestID.String()]
		if !ok {
			continue
		}
		s.mergeCreated(ctx, ev, seed.CreatedAt)
		s.log.Debug(ctx, "confirmed local creation", "requestId", ev.RequestID, "block", ev.Raw.BlockNumber)
	}
	return nil
}

func (s *Service) mergeCreated(ctx context.Context, ev *chain.CreatedEvent, wallClock time.Time) {
	s.store.UpsertConfirmed(ctx, &release.Release{
		RequestID:         ev.RequestID,
		Creator:           ev.Creator,
		FileCidHash:       ev.FileCidHash,
		UnlockAtBlock:     ev.UnlockAtBlock,
		CreatedAtBlock:    ev.Raw.BlockNumber,
		CreationWallClock: wallClock,
		TxHash:            ev.Raw.TxHash,
	})
}

// RefreshHeight polls the provider for the chain head and advances the
// store's observed height.
func (s *Service) RefreshHeight(ctx context.Context) (uint64, error) {
	height, err := s.provider.BlockNumber(ctx)
	if err != nil {
		return 0, err
	}
	s.store.SetObservedHeight(height)
	return height, nil
}

// CheckReveal scans for the reveal of one release and merges it if the
// payload verifies against the stored commitment. Safe to call on every
// poll tick: already-revealed releases are a no-op, and a failed
// verification never reaches the store.
func (s *Service) CheckReveal(ctx context.Context, requestID *big.Int) error {
	r, ok := s.store.Get(requestID)
	if !ok {
		return fmt.Errorf("%w: request %v", common.ErrNotFound, requestID)
	}
	if r.IsRevealed {
		return nil
	}

	var targetHint uint64
	if r.UnlockAtBlock != nil && r.UnlockAtBlock.IsUint64() {
		targetHint = r.UnlockAtBlock.Uint64()
	}

	ev, status, err := s.scanner.ScanReveal(ctx, requestID, targetHint, r.CurrentBlockObserved)
	if err != nil {
		return err
	}
	if status != chain.StatusFound {
		s.log.Debug(ctx, "no reveal yet", "requestId", requestID, "status", status.String())
		return nil
	}

	if _, err := s.verifier.VerifyReveal(ctx, ev.Payload, r.FileCidHash); err != nil {
		return fmt.Errorf("reveal for request %v rejected: %w", requestID, err)
	}

	s.store.UpsertRevealed(ctx, requestID, ev.Payload)
	s.log.Info(ctx, "release revealed", "requestId", requestID, "block", ev.Raw.BlockNumber)
	return nil
}

// Unlock fetches and decrypts the content of a revealed release. The
// returned metadata describes how to present the plaintext.
func (s *Service) Unlock(ctx context.Context, requestID *big.Int) ([]byte, *payload.MediaMetadata, error) {
	r, ok := s.store.Get(requestID)
	if !ok {
		return nil, nil, fmt.Errorf("%w: request %v", common.ErrNotFound, requestID)
	}
	if !r.IsRevealed {
		return nil, nil, fmt.Errorf("request %v is not revealed yet", requestID)
	}

	meta, err := s.verifier.VerifyReveal(ctx, r.RevealedPayload, r.FileCidHash)
	if err != nil {
		return nil, nil, err
	}
	if meta.Locator == "" {
		return nil, nil, fmt.Errorf("request %v revealed a bare key without a locator", requestID)
	}

	frame, err := s.gateway.Fetch(ctx, meta.Locator)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch ciphertext: %w", err)
	}

	key, err := verify.DecodeContentKey(meta)
	if err != nil {
		return nil, nil, err
	}
	defer common.WipeBytes(key)

	content, err := cryptox.Decode(frame, key)
	if err != nil {
		return nil, nil, err
	}
	return content, meta, nil
}

type presigner interface {
	PresignGet(ctx context.Context, locator string, ttl time.Duration) (string, error)
}

// ShareLink returns a time-limited direct-download URL for the encrypted
// content of a revealed release. The recipient still needs the revealed
// content key to decrypt.
func (s *Service) ShareLink(ctx context.Context, requestID *big.Int, ttl time.Duration) (string, error) {
	pg, ok := s.gateway.(presigner)
	if !ok {
		return "", errors.New("content gateway does not support share links")
	}

	r, found := s.store.Get(requestID)
	if !found {
		return "", fmt.Errorf("%w: request %v", common.ErrNotFound, requestID)
	}
	if !r.IsRevealed {
		return "", fmt.Errorf("request %v is not revealed yet", requestID)
	}

	meta, err := s.verifier.VerifyReveal(ctx, r.RevealedPayload, r.FileCidHash)
	if err != nil {
		return "", err
	}
	if meta.Locator == "" {
		return "", fmt.Errorf("request %v has no locator to share", requestID)
	}

	return pg.PresignGet(ctx, meta.Locator, ttl)
}

// currentHeight prefers the store's observed height and falls back to a
// live provider call when nothing has been observed yet.
func (s *Service) currentHeight(ctx context.Context) (uint64, error) {
	if h := s.store.ObservedHeight(); h > 0 {
		return h, nil
	}
	return s.RefreshHeight(ctx)
}
