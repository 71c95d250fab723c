// Package service wires the chain clients, the block observable and the
// synchronizers into one runnable unit.
package service

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"nft-auction-sync/internal/bidding"
	"nft-auction-sync/internal/blockwatch"
	"nft-auction-sync/internal/config"
	"nft-auction-sync/internal/ethereum"
	"nft-auction-sync/internal/ipfs"
	"nft-auction-sync/internal/observability"
	"nft-auction-sync/internal/syncengine"
)

// Service owns every long-lived component of the sync daemon.
type Service struct {
	ctx    context.Context
	cfg    *config.Config
	logger *zap.Logger

	reader   *ethereum.HTTPClient
	resolver *ipfs.HTTPGateway
	subject  *blockwatch.Subject
	ready    *syncengine.ReadyGate
	fetcher  *syncengine.Fetcher
	bidder   *bidding.Controller

	watcher   *blockwatch.HeadWatcher
	list      *syncengine.ListSynchronizer
	lifecycle *syncengine.Lifecycle
}

// New builds the service from configuration. Nothing touches the network
// until Start.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	reader := ethereum.NewHTTPClient(
		cfg.Chain.HTTPURL,
		common.HexToAddress(cfg.Chain.AuctionHouse),
		common.HexToAddress(cfg.Chain.CuratorAddress),
	)
	resolver := ipfs.NewHTTPGateway(cfg.IPFS.GatewayURL)

	s := &Service{
		ctx:       ctx,
		cfg:       cfg,
		logger:    logger,
		reader:    reader,
		resolver:  resolver,
		subject:   blockwatch.NewSubject(),
		ready:     syncengine.NewReadyGate(),
		fetcher:   syncengine.NewFetcher(reader, resolver),
		lifecycle: syncengine.NewLifecycle(),
	}

	if account := cfg.AccountAddress(); account != nil {
		s.bidder = bidding.NewController(reader, *account, logger)
	}

	return s, nil
}

// Start seeds the block observable from the node, opens the head
// subscription and launches the list synchronizer. The ready gate resolves
// only after the first block is known, so no sync cycle runs against an
// unseeded observable.
func (s *Service) Start() error {
	block, err := s.reader.BlockNumber(s.ctx)
	if err != nil {
		return errors.Wrap(err, "seed block number")
	}
	s.subject.Set(block)
	observability.SetCurrentBlock(block)
	s.logger.Info("block observable seeded", zap.Uint64("block", block))

	watcher, err := blockwatch.NewHeadWatcher(s.ctx, s.cfg.Chain.WebsocketURL, s.subject, s.logger, nil)
	if err != nil {
		return errors.Wrap(err, "open head subscription")
	}
	s.watcher = watcher
	s.lifecycle.Add(syncengine.DisposerFunc(func() { watcher.Close() }))

	s.watchMetrics()
	s.ready.Resolve()

	s.list = syncengine.StartList(s.ctx, syncengine.ListOptions{
		Fetcher:  s.fetcher,
		Reader:   s.reader,
		Ready:    s.ready,
		Blocks:   s.subject,
		Logger:   s.logger,
		OnUpdate: s.logListUpdate,
	})
	s.lifecycle.Add(s.list)

	s.logger.Info("sync service started")
	return nil
}

// watchMetrics mirrors every observed block into the metrics gauge.
func (s *Service) watchMetrics() {
	sub := s.subject.Subscribe()
	s.lifecycle.Add(syncengine.DisposerFunc(sub.Unsubscribe))
	go func() {
		for block := range sub.C {
			observability.SetCurrentBlock(block)
		}
	}()
}

func (s *Service) logListUpdate(st syncengine.ListState) {
	s.logger.Debug("auction list updated",
		zap.Uint64("count", st.Count),
		zap.Uint64("block", st.Block))
}

// WatchAuction opens a per-auction synchronizer that re-fetches the auction
// and the account's escrowed bid on every new block. The returned
// synchronizer is registered with the service lifecycle; callers that
// close a view early should dispose it themselves.
func (s *Service) WatchAuction(id uint64, onUpdate func(syncengine.SingleState)) *syncengine.SingleSynchronizer {
	single := syncengine.StartSingle(s.ctx, syncengine.SingleOptions{
		AuctionID: id,
		Fetcher:   s.fetcher,
		Reader:    s.reader,
		Ready:     s.ready,
		Blocks:    s.subject,
		Account:   s.cfg.AccountAddress(),
		OnUpdate:  onUpdate,
		Logger:    s.logger,
	})
	s.lifecycle.Add(single)
	return single
}

// ListState returns the latest synchronized auction list.
func (s *Service) ListState() syncengine.ListState {
	if s.list == nil {
		return syncengine.ListState{}
	}
	return s.list.State()
}

// Bidder returns the bidding controller, or nil in read-only mode.
func (s *Service) Bidder() *bidding.Controller {
	return s.bidder
}

// Blocks exposes the current-block observable.
func (s *Service) Blocks() *blockwatch.Subject {
	return s.subject
}

// Stop tears down every watcher and closes the head subscription.
func (s *Service) Stop() {
	s.lifecycle.Dispose()
	s.logger.Info("sync service stopped")
}
