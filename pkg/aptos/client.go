// Package aptos provides the destination-chain client: mint and vault
// payload construction plus the vault initialization side effect submitted
// with the orchestrator's service account.
package aptos

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/stablerail/cctp-orchestrator/pkg/config"
)

const (
	defaultRequestTimeout = 30 * time.Second
	defaultTxTimeout      = 60 * time.Second
	txPollInterval        = time.Second
)

// Client talks to an Aptos fullnode over its REST API
type Client struct {
	cfg    config.AptosConfig
	http   *http.Client
	signer *Signer
	logger *zap.Logger
}

// NewClient creates an Aptos client. The signer is optional; without it
// the client can build payloads and run view calls but cannot submit the
// vault initialization transaction.
func NewClient(cfg config.AptosConfig, logger *zap.Logger) (*Client, error) {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	c := &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
	if cfg.ServiceAccountKey != "" {
		signer, err := NewSigner(cfg.ServiceAccountKey)
		if err != nil {
			return nil, err
		}
		c.signer = signer
	}
	return c, nil
}

func (c *Client) url(path string) string {
	return strings.TrimRight(c.cfg.NodeURL, "/") + path
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("aptos request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read aptos response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("aptos node returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to decode aptos response: %w", err)
		}
	}
	return nil
}

// View executes a view function and returns its raw results
func (c *Client) View(ctx context.Context, function string, typeArgs []string, args ...any) ([]json.RawMessage, error) {
	if typeArgs == nil {
		typeArgs = []string{}
	}
	if args == nil {
		args = []any{}
	}
	req := map[string]any{
		"function":       function,
		"type_arguments": typeArgs,
		"arguments":      args,
	}
	var out []json.RawMessage
	if err := c.doJSON(ctx, http.MethodPost, "/v1/view", req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EnsureVaultInitialized probes the vault's stats view and, if the probe
// fails, initializes the vault with a transaction signed by the service
// account. This is the only destination-chain transaction the orchestrator
// submits itself.
func (c *Client) EnsureVaultInitialized(ctx context.Context) error {
	if _, err := c.View(ctx, c.vaultStatsFunction(), []string{c.cfg.USDCType}); err == nil {
		return nil
	}

	if c.signer == nil {
		return fmt.Errorf("vault is not initialized and no service account key is configured")
	}

	c.logger.Info("Initializing vault", zap.String("module", c.cfg.VaultModule))
	txHash, err := c.SubmitEntryFunction(ctx, c.initializeVaultPayload())
	if err != nil {
		return fmt.Errorf("vault initialization failed: %w", err)
	}
	if err := c.WaitForTransaction(ctx, txHash); err != nil {
		return fmt.Errorf("vault initialization failed: %w", err)
	}
	c.logger.Info("Vault initialized", zap.String("tx_hash", txHash))
	return nil
}

type accountResponse struct {
	SequenceNumber string `json:"sequence_number"`
}

type submitResponse struct {
	Hash string `json:"hash"`
}

type transactionResponse struct {
	Type     string `json:"type"`
	Success  bool   `json:"success"`
	VMStatus string `json:"vm_status"`
}

// SubmitEntryFunction signs and submits an entry function call with the
// service account and returns the transaction hash.
func (c *Client) SubmitEntryFunction(ctx context.Context, payload *EntryFunctionPayload) (string, error) {
	if c.signer == nil {
		return "", fmt.Errorf("no service account key configured")
	}
	sender := c.signer.Address()

	var acct accountResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/accounts/"+sender, nil, &acct); err != nil {
		return "", fmt.Errorf("failed to fetch account %s: %w", sender, err)
	}

	maxGas := c.cfg.MaxGasAmount
	if maxGas == 0 {
		maxGas = 20000
	}
	gasPrice := c.cfg.GasUnitPrice
	if gasPrice == 0 {
		gasPrice = 100
	}
	tx := map[string]any{
		"sender":                    sender,
		"sequence_number":           acct.SequenceNumber,
		"max_gas_amount":            strconv.FormatUint(maxGas, 10),
		"gas_unit_price":            strconv.FormatUint(gasPrice, 10),
		"expiration_timestamp_secs": strconv.FormatInt(time.Now().Add(2*time.Minute).Unix(), 10),
		"payload":                   payload,
	}

	var signingMessage string
	if err := c.doJSON(ctx, http.MethodPost, "/v1/transactions/encode_submission", tx, &signingMessage); err != nil {
		return "", fmt.Errorf("failed to encode transaction: %w", err)
	}
	msg, err := hex.DecodeString(strings.TrimPrefix(signingMessage, "0x"))
	if err != nil {
		return "", fmt.Errorf("malformed signing message: %w", err)
	}

	tx["signature"] = map[string]any{
		"type":       "ed25519_signature",
		"public_key": c.signer.PublicKeyHex(),
		"signature":  c.signer.Sign(msg),
	}

	var out submitResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/transactions", tx, &out); err != nil {
		return "", fmt.Errorf("failed to submit transaction: %w", err)
	}
	return out.Hash, nil
}

// WaitForTransaction polls by hash until the transaction executes or the
// configured timeout elapses.
func (c *Client) WaitForTransaction(ctx context.Context, txHash string) error {
	timeout := c.cfg.TransactionTimeout
	if timeout <= 0 {
		timeout = defaultTxTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		var tx transactionResponse
		err := c.doJSON(ctx, http.MethodGet, "/v1/transactions/by_hash/"+txHash, nil, &tx)
		if err == nil && tx.Type != "pending_transaction" {
			if !tx.Success {
				return fmt.Errorf("transaction %s failed: %s", txHash, tx.VMStatus)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("timed out waiting for transaction %s", txHash)
		case <-time.After(txPollInterval):
		}
	}
}
