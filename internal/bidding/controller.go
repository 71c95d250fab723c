// Package bidding turns bid intents into signed transaction submissions,
// computing the escrow top-up delta before anything reaches the chain.
package bidding

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"nft-auction-sync/internal/domain"
	"nft-auction-sync/internal/ethereum"
	"nft-auction-sync/internal/observability"
)

// Controller submits bid and withdrawal transactions for one account.
type Controller struct {
	writer  ethereum.Writer
	account common.Address
	logger  *zap.Logger
}

// NewController creates a bidding controller for the given account.
func NewController(writer ethereum.Writer, account common.Address, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{writer: writer, account: account, logger: logger}
}

// PlaceBid raises the account's standing bid on an auction to target. Only
// the difference between target and the already-escrowed amount is sent as
// transaction value. A target at or below the escrowed amount is refused
// before any transaction is issued.
func (c *Controller) PlaceBid(ctx context.Context, auctionID uint64, target, escrowed *big.Int) (common.Hash, error) {
	delta, err := domain.BidDelta(target, escrowed)
	if err != nil {
		return common.Hash{}, errors.Wrapf(err, "bid on auction %d", auctionID)
	}

	hash, err := c.writer.Bid(ctx, auctionID, ethereum.TxOpts{
		From:  c.account,
		Value: delta,
	})
	if err != nil {
		return common.Hash{}, errors.Wrapf(err, "submit bid on auction %d", auctionID)
	}

	observability.RecordTxSubmitted("bid")
	c.logger.Info("bid submitted",
		zap.Uint64("auction_id", auctionID),
		zap.String("target", target.String()),
		zap.String("delta", delta.String()),
		zap.String("tx", hash.Hex()))
	return hash, nil
}

// WithdrawBalance reclaims the account's escrowed funds from an auction it
// did not win. The transaction carries no value.
func (c *Controller) WithdrawBalance(ctx context.Context, auctionID uint64) (common.Hash, error) {
	hash, err := c.writer.WithdrawBalance(ctx, auctionID, ethereum.TxOpts{
		From: c.account,
	})
	if err != nil {
		return common.Hash{}, errors.Wrapf(err, "withdraw from auction %d", auctionID)
	}

	observability.RecordTxSubmitted("withdrawBalance")
	c.logger.Info("withdrawal submitted",
		zap.Uint64("auction_id", auctionID),
		zap.String("tx", hash.Hex()))
	return hash, nil
}
