// Package bridge implements the CCTP bridge orchestrator: it coordinates a
// USDC transfer from an EVM source chain to Aptos through burn, attestation
// and mint phases, tracking each transfer as a BridgeRecord.
package bridge

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a bridge
type Status string

const (
	StatusPending   Status = "pending"
	StatusBurning   Status = "burning"
	StatusAttesting Status = "attesting"
	StatusMinting   Status = "minting"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further automatic progress is possible.
// A failed bridge may still be reopened by an explicit operator retry.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Destination is the logical target for minted funds
type Destination string

const (
	DestinationWallet Destination = "wallet"
	DestinationVault  Destination = "vault"
)

// Strategy is the advisory vault allocation decision. It does not affect
// bridge mechanics.
type Strategy struct {
	Protocol   string  `json:"protocol"`
	APY        float64 `json:"apy"`
	Allocation float64 `json:"allocation"`
}

// BridgeRecord tracks one cross-chain transfer through its lifecycle
type BridgeRecord struct {
	ID           string          `json:"id"`
	Status       Status          `json:"status"`
	SourceChain  string          `json:"source_chain"`
	SourceTxHash string          `json:"source_tx_hash,omitempty"`
	MessageBytes string          `json:"message_bytes,omitempty"`
	Attestation  string          `json:"attestation,omitempty"`
	Destination  Destination     `json:"destination"`
	Amount       decimal.Decimal `json:"amount"`
	UserAddress  string          `json:"user_address"`
	EVMAddress   string          `json:"evm_address,omitempty"`
	Strategy     *Strategy       `json:"strategy,omitempty"`
	Error        string          `json:"error,omitempty"`

	// PollingActive marks an in-flight attestation poll loop. At most one
	// loop may run per bridge; it is cleared when the loop exits.
	PollingActive bool `json:"polling_active"`

	// MintIssued is set once CompleteBridge has handed mint payloads to the
	// caller. A bridge with MintIssued set can no longer be retried.
	MintIssued bool `json:"mint_issued"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Clone returns a deep copy of the record
func (r *BridgeRecord) Clone() *BridgeRecord {
	cp := *r
	if r.Strategy != nil {
		s := *r.Strategy
		cp.Strategy = &s
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}
