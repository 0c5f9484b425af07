// Package cli is the interactive shell over the release kit: drafting and
// adopting releases, inspecting their state and watching for reveals.
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"os"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/Nkovaturient/blocklock-kit/internal/cache"
	"github.com/Nkovaturient/blocklock-kit/internal/chain"
	"github.com/Nkovaturient/blocklock-kit/internal/config"
	"github.com/Nkovaturient/blocklock-kit/internal/logging"
	"github.com/Nkovaturient/blocklock-kit/internal/release"
	"github.com/Nkovaturient/blocklock-kit/internal/service"
	"github.com/Nkovaturient/blocklock-kit/internal/storage"
	"github.com/Nkovaturient/blocklock-kit/internal/timelock"
	"github.com/Nkovaturient/blocklock-kit/internal/verify"
	"github.com/Nkovaturient/blocklock-kit/internal/watcher"
)

type App struct {
	cfg     *config.Config
	log     logging.Logger
	store   *release.Store
	svc     *service.Service
	watcher *watcher.Watcher

	reader *bufio.Reader
	out    io.Writer
	db     *sql.DB
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg.ContractAddress == "" {
		return nil, errors.New("contract address is not configured (use -addr or the config file)")
	}

	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	c, db, err := cache.Open(ctx, cfg.CachePath)
	if err != nil {
		return nil, err
	}

	provider, err := chain.DialFallback(ctx, cfg.RPCEndpoints, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	scanner := chain.NewScanner(provider, ethcommon.HexToAddress(cfg.ContractAddress), chain.ScanConfig{
		ChunkSize:     cfg.ChunkSize,
		Prefetch:      cfg.PrefetchBlocks,
		SearchForward: cfg.SearchForwardBlocks,
		DefaultSpan:   cfg.DefaultScanSpan,
		RetryAttempts: cfg.RetryAttempts,
		RetryDelay:    cfg.RetryDelay,
	}, log)

	scheme, err := timelock.NewTlockScheme(cfg.OracleBaseURL, cfg.OracleChainHash)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	gateway, err := storage.Connect(ctx, cfg, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	store := release.NewStore(log)
	svc := service.New(service.Params{
		Gateway:  gateway,
		Scanner:  scanner,
		Provider: provider,
		Builder:  timelock.NewRequestBuilder(scheme),
		Verifier: verify.NewVerifier(log),
		Store:    store,
		Cache:    c,
		Log:      log,
	})

	return &App{
		cfg:     cfg,
		log:     log,
		store:   store,
		svc:     svc,
		watcher: watcher.New(svc, store, watcher.Config{PollInterval: cfg.PollInterval, AvgBlockTime: cfg.AvgBlockTime}, log),
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
		db:      db,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	defer a.db.Close()

	if err := a.svc.Restore(ctx); err != nil {
		a.log.Warn(ctx, "could not restore cached releases", "error", err)
	}
	if err := a.svc.ReconcileCreations(ctx); err != nil {
		a.log.Warn(ctx, "initial reconciliation failed", "error", err)
	}

	a.Root(ctx)
	return nil
}
