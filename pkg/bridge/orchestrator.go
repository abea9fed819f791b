package bridge

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stablerail/cctp-orchestrator/internal/metrics"
	apperrors "github.com/stablerail/cctp-orchestrator/pkg/app/errors"
	"github.com/stablerail/cctp-orchestrator/pkg/aptos"
	"github.com/stablerail/cctp-orchestrator/pkg/attestation"
	"github.com/stablerail/cctp-orchestrator/pkg/evm"
)

// DestinationChainName is the only supported destination
const DestinationChainName = "aptos"

// SourceChain is the EVM side of a bridge
type SourceChain interface {
	BurnTxData(amount *big.Int, destinationDomain uint32, mintRecipient [32]byte) (*evm.TxData, error)
	MessageFromReceipt(ctx context.Context, txHash string) ([]byte, error)
}

// Attester fetches attestations for burned messages
type Attester interface {
	Get(ctx context.Context, messageHash string) (*attestation.Response, error)
}

// DestinationChain builds mint and vault payloads and owns the vault
// initialization side effect.
type DestinationChain interface {
	MintPayload(messageHex, attestationHex string) *aptos.EntryFunctionPayload
	VaultDepositPayload(amountUnits uint64) *aptos.EntryFunctionPayload
	EnsureVaultInitialized(ctx context.Context) error
}

// Options configures an Orchestrator
type Options struct {
	Store             Store
	Chains            map[string]SourceChain
	Attester          Attester
	Destination       DestinationChain
	DestinationDomain uint32
	Policy            PollPolicy
	Clock             Clock
	Notifier          Notifier
	Protocols         []Protocol
	Logger            *zap.Logger
}

// Orchestrator coordinates the burn, attestation and mint phases of a
// cross-chain transfer. It never holds source-chain keys; all transaction
// payloads except the vault initialization are returned unsigned.
type Orchestrator struct {
	store       Store
	chains      map[string]SourceChain
	attester    Attester
	destination DestinationChain
	destDomain  uint32
	policy      PollPolicy
	clock       Clock
	notifier    Notifier
	protocols   []Protocol
	logger      *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates an orchestrator. Store, Chains, Attester,
// Destination and Logger are required.
func NewOrchestrator(opts Options) *Orchestrator {
	if opts.Clock == nil {
		opts.Clock = NewClock()
	}
	if opts.Policy.MaxAttempts == 0 {
		opts.Policy = DefaultPollPolicy()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		store:       opts.Store,
		chains:      opts.Chains,
		attester:    opts.Attester,
		destination: opts.Destination,
		destDomain:  opts.DestinationDomain,
		policy:      opts.Policy,
		clock:       opts.Clock,
		notifier:    opts.Notifier,
		protocols:   opts.Protocols,
		logger:      opts.Logger,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Stop cancels all poll loops and waits for them to exit
func (o *Orchestrator) Stop() {
	o.cancel()
	o.wg.Wait()
}

func (o *Orchestrator) notify(record *BridgeRecord) {
	if o.notifier != nil {
		o.notifier.BridgeUpdated(record)
	}
}

// InitiateParams are the inputs to InitiateBridge
type InitiateParams struct {
	SourceChain      string
	DestinationChain string
	Amount           string
	RecipientAddress string
	EVMAddress       string
	Destination      Destination
}

// InitiateResult is returned by InitiateBridge. TxData is the unsigned
// burn transaction for the caller to sign and submit.
type InitiateResult struct {
	BridgeID string      `json:"bridge_id"`
	Strategy *Strategy   `json:"strategy,omitempty"`
	TxData   *evm.TxData `json:"tx_data"`
}

// InitiateBridge validates the transfer parameters, creates a pending
// record and returns the unsigned burn transaction.
func (o *Orchestrator) InitiateBridge(ctx context.Context, params InitiateParams) (*InitiateResult, error) {
	chain, ok := o.chains[params.SourceChain]
	if !ok {
		return nil, apperrors.NotSupportedError(nil, fmt.Sprintf("unknown source chain: %s", params.SourceChain))
	}
	if params.DestinationChain != DestinationChainName {
		return nil, apperrors.NotSupportedError(nil, fmt.Sprintf("unsupported destination chain: %s", params.DestinationChain))
	}

	amount, err := decimal.NewFromString(params.Amount)
	if err != nil {
		return nil, apperrors.BadRequestError(err, "invalid amount")
	}
	if !amount.IsPositive() {
		return nil, apperrors.BadRequestError(nil, "amount must be positive")
	}

	recipient, err := RecipientBytes32(params.RecipientAddress)
	if err != nil {
		return nil, apperrors.BadRequestError(err, "invalid recipient address")
	}

	destination := params.Destination
	if destination == "" {
		destination = DestinationWallet
	}
	var strategy *Strategy
	if destination == DestinationVault {
		s := SelectStrategy(o.protocols)
		strategy = &s
	}

	units := amount.Shift(6)
	txData, err := chain.BurnTxData(units.BigInt(), o.destDomain, recipient)
	if err != nil {
		return nil, apperrors.GeneralError(err)
	}

	record := &BridgeRecord{
		ID:          newBridgeID(o.clock),
		Status:      StatusPending,
		SourceChain: params.SourceChain,
		Destination: destination,
		Amount:      amount,
		UserAddress: params.RecipientAddress,
		EVMAddress:  params.EVMAddress,
		Strategy:    strategy,
		CreatedAt:   o.clock.Now(),
	}
	if err := o.store.Create(ctx, record); err != nil {
		return nil, apperrors.GeneralError(err)
	}

	o.logger.Info("Bridge initiated",
		zap.String("bridge_id", record.ID),
		zap.String("source_chain", params.SourceChain),
		zap.String("amount", params.Amount),
		zap.String("destination", string(destination)))
	o.notify(record)

	return &InitiateResult{BridgeID: record.ID, Strategy: strategy, TxData: txData}, nil
}

func newBridgeID(clock Clock) string {
	return fmt.Sprintf("bridge_%d_%s", clock.Now().UnixMilli(), uuid.NewString()[:8])
}

// ProcessBurnTransaction extracts the CCTP message from the burn receipt
// and starts attestation polling. Only a pending or burning bridge accepts
// a burn; once attestation has started a repeat call is rejected so state
// never moves backwards. The record stays in burning state when the
// receipt or message is missing, so the caller can resubmit with a
// corrected hash.
func (o *Orchestrator) ProcessBurnTransaction(ctx context.Context, bridgeID, txHash, sourceChain string) error {
	chain, ok := o.chains[sourceChain]
	if !ok {
		return apperrors.NotSupportedError(nil, fmt.Sprintf("unknown source chain: %s", sourceChain))
	}

	rec, err := o.store.Update(ctx, bridgeID, func(r *BridgeRecord) error {
		if r.Status != StatusPending && r.Status != StatusBurning {
			return apperrors.ConflictError(nil,
				fmt.Sprintf("burn already processed for bridge in %s state", r.Status))
		}
		if r.SourceChain != sourceChain {
			return apperrors.BadRequestError(nil,
				fmt.Sprintf("bridge was initiated on %s, not %s", r.SourceChain, sourceChain))
		}
		r.Status = StatusBurning
		r.SourceTxHash = txHash
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperrors.ResourceNotFoundError(err, "bridge not found")
		}
		return err
	}
	o.notify(rec)

	msg, err := chain.MessageFromReceipt(ctx, txHash)
	if err != nil {
		switch {
		case errors.Is(err, evm.ErrMessageNotFound):
			return apperrors.ResourceNotFoundError(err, "MessageSent event not found in receipt")
		case errors.Is(err, evm.ErrReceiptNotFound):
			return apperrors.ResourceNotFoundError(err, "transaction receipt not found")
		default:
			return apperrors.DependencyFailureError(err, "failed to fetch burn receipt")
		}
	}

	rec, err = o.store.Update(ctx, bridgeID, func(r *BridgeRecord) error {
		if r.MessageBytes == "" {
			r.MessageBytes = hexutil.Encode(msg)
		}
		r.Status = StatusAttesting
		return nil
	})
	if err != nil {
		return err
	}
	o.notify(rec)

	o.startPolling(bridgeID)
	return nil
}

// CompleteResult is returned by CompleteBridge; Transactions holds the
// unsigned mint payload, optionally followed by the vault deposit.
type CompleteResult struct {
	Success      bool                          `json:"success"`
	Transactions []*aptos.EntryFunctionPayload `json:"transactions"`
}

// CompleteBridge builds the destination-chain payloads once the
// attestation is in hand. For vault destinations the vault is initialized
// first if needed; that failure marks the bridge failed.
func (o *Orchestrator) CompleteBridge(ctx context.Context, bridgeID string) (*CompleteResult, error) {
	rec, err := o.store.Get(ctx, bridgeID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperrors.ResourceNotFoundError(err, "bridge not found")
		}
		return nil, err
	}
	if rec.Status != StatusMinting || rec.MessageBytes == "" || rec.Attestation == "" {
		return nil, apperrors.ConflictError(nil,
			fmt.Sprintf("bridge %s is not ready to mint (status %s)", bridgeID, rec.Status))
	}

	transactions := []*aptos.EntryFunctionPayload{
		o.destination.MintPayload(rec.MessageBytes, rec.Attestation),
	}

	if rec.Destination == DestinationVault {
		if err := o.destination.EnsureVaultInitialized(ctx); err != nil {
			failed, uerr := o.store.Update(ctx, bridgeID, func(r *BridgeRecord) error {
				r.Status = StatusFailed
				r.Error = fmt.Sprintf("vault initialization failed: %v", err)
				return nil
			})
			if uerr == nil {
				metrics.BridgesTotal.WithLabelValues(string(StatusFailed)).Inc()
				o.notify(failed)
			}
			return nil, apperrors.DependencyFailureError(err, "vault initialization failed")
		}

		units := rec.Amount.Shift(6)
		if !units.IsInteger() || !units.BigInt().IsUint64() {
			return nil, apperrors.BadRequestError(nil, "amount cannot be represented in vault base units")
		}
		transactions = append(transactions, o.destination.VaultDepositPayload(units.BigInt().Uint64()))
	}

	now := o.clock.Now()
	rec, err = o.store.Update(ctx, bridgeID, func(r *BridgeRecord) error {
		if r.Status != StatusMinting {
			return apperrors.ConflictError(nil, "bridge state changed during completion")
		}
		r.Status = StatusCompleted
		r.CompletedAt = &now
		r.MintIssued = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.BridgesTotal.WithLabelValues(string(StatusCompleted)).Inc()
	metrics.BridgeDuration.Observe(now.Sub(rec.CreatedAt).Seconds())
	amt, _ := rec.Amount.Float64()
	metrics.BridgeAmount.Observe(amt)

	o.logger.Info("Bridge completed",
		zap.String("bridge_id", bridgeID),
		zap.Int("transactions", len(transactions)))
	o.notify(rec)

	return &CompleteResult{Success: true, Transactions: transactions}, nil
}

// RetryAttestation reopens a failed bridge and restarts polling. It is
// rejected when the bridge is not failed, has no message, or has already
// handed out mint transactions.
func (o *Orchestrator) RetryAttestation(ctx context.Context, bridgeID string) error {
	rec, err := o.store.Update(ctx, bridgeID, func(r *BridgeRecord) error {
		if r.Status != StatusFailed {
			return apperrors.ConflictError(nil, "bridge is not in failed state")
		}
		if r.MessageBytes == "" {
			return apperrors.ConflictError(nil, "bridge has no message to attest")
		}
		if r.MintIssued {
			return apperrors.ConflictError(nil, "mint transactions were already issued")
		}
		r.Status = StatusAttesting
		r.Error = ""
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperrors.ResourceNotFoundError(err, "bridge not found")
		}
		return err
	}

	o.logger.Info("Bridge attestation retry", zap.String("bridge_id", bridgeID))
	o.notify(rec)
	o.startPolling(bridgeID)
	return nil
}

// GetBridgeStatus returns the record for a bridge id
func (o *Orchestrator) GetBridgeStatus(ctx context.Context, bridgeID string) (*BridgeRecord, error) {
	rec, err := o.store.Get(ctx, bridgeID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperrors.ResourceNotFoundError(err, "bridge not found")
		}
		return nil, err
	}
	return rec, nil
}

// GetAllBridgeStatuses returns all records ordered by creation time
func (o *Orchestrator) GetAllBridgeStatuses(ctx context.Context) ([]*BridgeRecord, error) {
	return o.store.List(ctx)
}

// ActivePollCount reports how many bridges currently have a poll loop
func (o *Orchestrator) ActivePollCount(ctx context.Context) (int, error) {
	records, err := o.store.List(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, r := range records {
		if r.PollingActive {
			n++
		}
	}
	return n, nil
}
