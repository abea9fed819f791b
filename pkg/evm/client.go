// Package evm provides the source-chain client: burn calldata construction
// and MessageSent extraction from burn receipts.
package evm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/stablerail/cctp-orchestrator/pkg/config"
)

const defaultReceiptTimeout = 15 * time.Second

var (
	// ErrReceiptNotFound means the burn transaction receipt is unavailable
	ErrReceiptNotFound = errors.New("transaction receipt not found")
	// ErrMessageNotFound means the receipt has no MessageSent log
	ErrMessageNotFound = errors.New("MessageSent event not found in receipt")
)

// ReceiptFetcher is the part of the eth client the chain client needs
type ReceiptFetcher interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Client talks to one configured EVM source chain
type Client struct {
	cfg    config.ChainConfig
	eth    ReceiptFetcher
	logger *zap.Logger
}

// NewClient dials the chain's RPC endpoint
func NewClient(cfg config.ChainConfig, logger *zap.Logger) (*Client, error) {
	ec, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.RPCURL, err)
	}
	return NewClientWithBackend(cfg, ec, logger), nil
}

// NewClientWithBackend creates a client over an existing backend
func NewClientWithBackend(cfg config.ChainConfig, backend ReceiptFetcher, logger *zap.Logger) *Client {
	return &Client{cfg: cfg, eth: backend, logger: logger}
}

// ChainID returns the configured chain id
func (c *Client) ChainID() int64 {
	return c.cfg.ChainID
}

// MessageFromReceipt fetches the receipt for txHash and extracts the raw
// CCTP message from its MessageSent log. The fetch is bounded by the
// configured receipt timeout so an unresponsive RPC cannot stall a bridge
// indefinitely.
func (c *Client) MessageFromReceipt(ctx context.Context, txHash string) ([]byte, error) {
	timeout := c.cfg.ReceiptTimeout
	if timeout <= 0 {
		timeout = defaultReceiptTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	receipt, err := c.eth.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, ErrReceiptNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrReceiptNotFound, err)
	}

	msg, err := MessageFromLogs(receipt.Logs)
	if err != nil {
		c.logger.Warn("No MessageSent log in receipt",
			zap.String("tx_hash", txHash),
			zap.Int("logs", len(receipt.Logs)))
		return nil, err
	}
	return msg, nil
}
