package pg

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/stablerail/cctp-orchestrator/pkg/bridge"
)

// BridgeDao is the bun model for a bridge record
type BridgeDao struct {
	bun.BaseModel `bun:"table:bridges,alias:b"`

	ID            string           `bun:"id,pk"`
	Status        string           `bun:"status,notnull"`
	SourceChain   string           `bun:"source_chain,notnull"`
	SourceTxHash  string           `bun:"source_tx_hash,nullzero"`
	MessageBytes  string           `bun:"message_bytes,nullzero"`
	Attestation   string           `bun:"attestation,nullzero"`
	Destination   string           `bun:"destination,notnull"`
	Amount        string           `bun:"amount,notnull"`
	UserAddress   string           `bun:"user_address,notnull"`
	EVMAddress    string           `bun:"evm_address,nullzero"`
	Strategy      *bridge.Strategy `bun:"strategy,type:jsonb,nullzero"`
	Error         string           `bun:"error,nullzero"`
	PollingActive bool             `bun:"polling_active,notnull,default:false"`
	MintIssued    bool             `bun:"mint_issued,notnull,default:false"`
	CreatedAt     time.Time        `bun:"created_at,notnull"`
	CompletedAt   *time.Time       `bun:"completed_at,nullzero"`
}

func toDao(r *bridge.BridgeRecord) *BridgeDao {
	return &BridgeDao{
		ID:            r.ID,
		Status:        string(r.Status),
		SourceChain:   r.SourceChain,
		SourceTxHash:  r.SourceTxHash,
		MessageBytes:  r.MessageBytes,
		Attestation:   r.Attestation,
		Destination:   string(r.Destination),
		Amount:        r.Amount.String(),
		UserAddress:   r.UserAddress,
		EVMAddress:    r.EVMAddress,
		Strategy:      r.Strategy,
		Error:         r.Error,
		PollingActive: r.PollingActive,
		MintIssued:    r.MintIssued,
		CreatedAt:     r.CreatedAt,
		CompletedAt:   r.CompletedAt,
	}
}

func (d *BridgeDao) toRecord() (*bridge.BridgeRecord, error) {
	amount, err := decimal.NewFromString(d.Amount)
	if err != nil {
		return nil, err
	}
	return &bridge.BridgeRecord{
		ID:            d.ID,
		Status:        bridge.Status(d.Status),
		SourceChain:   d.SourceChain,
		SourceTxHash:  d.SourceTxHash,
		MessageBytes:  d.MessageBytes,
		Attestation:   d.Attestation,
		Destination:   bridge.Destination(d.Destination),
		Amount:        amount,
		UserAddress:   d.UserAddress,
		EVMAddress:    d.EVMAddress,
		Strategy:      d.Strategy,
		Error:         d.Error,
		PollingActive: d.PollingActive,
		MintIssued:    d.MintIssued,
		CreatedAt:     d.CreatedAt,
		CompletedAt:   d.CompletedAt,
	}, nil
}
