package bridge

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/stablerail/cctp-orchestrator/pkg/aptos"
	"github.com/stablerail/cctp-orchestrator/pkg/attestation"
	"github.com/stablerail/cctp-orchestrator/pkg/evm"
)

// fakeClock advances instantly on Sleep so poll loops run without
// wall-clock waits.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.sleeps = append(c.sleeps, d)
	c.mu.Unlock()
	return nil
}

func (c *fakeClock) sleepCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sleeps)
}

type mockChain struct {
	BurnTxDataFunc         func(amount *big.Int, destinationDomain uint32, mintRecipient [32]byte) (*evm.TxData, error)
	MessageFromReceiptFunc func(ctx context.Context, txHash string) ([]byte, error)
}

func (m *mockChain) BurnTxData(amount *big.Int, destinationDomain uint32, mintRecipient [32]byte) (*evm.TxData, error) {
	if m.BurnTxDataFunc != nil {
		return m.BurnTxDataFunc(amount, destinationDomain, mintRecipient)
	}
	return &evm.TxData{To: "0xmessenger", Data: "0x00", Value: "0x0", ChainID: 11155111}, nil
}

func (m *mockChain) MessageFromReceipt(ctx context.Context, txHash string) ([]byte, error) {
	if m.MessageFromReceiptFunc != nil {
		return m.MessageFromReceiptFunc(ctx, txHash)
	}
	return []byte{0xde, 0xad, 0xbe, 0xef}, nil
}

type mockAttester struct {
	mu      sync.Mutex
	calls   int
	GetFunc func(call int) (*attestation.Response, error)
}

func (m *mockAttester) Get(_ context.Context, _ string) (*attestation.Response, error) {
	m.mu.Lock()
	m.calls++
	call := m.calls
	m.mu.Unlock()
	if m.GetFunc != nil {
		return m.GetFunc(call)
	}
	return &attestation.Response{Status: attestation.StatusPending}, nil
}

func (m *mockAttester) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockDestination struct {
	EnsureVaultInitializedFunc func(ctx context.Context) error
}

func (m *mockDestination) MintPayload(messageHex, attestationHex string) *aptos.EntryFunctionPayload {
	return &aptos.EntryFunctionPayload{
		Type:          "entry_function_payload",
		Function:      "0xcafe::message_transmitter::receive_message",
		TypeArguments: []string{},
		Arguments:     []any{messageHex, attestationHex},
	}
}

func (m *mockDestination) VaultDepositPayload(amountUnits uint64) *aptos.EntryFunctionPayload {
	return &aptos.EntryFunctionPayload{
		Type:          "entry_function_payload",
		Function:      "0xcafe::vault::deposit",
		TypeArguments: []string{"0xcafe::usdc::USDC"},
		Arguments:     []any{fmt.Sprintf("%d", amountUnits)},
	}
}

func (m *mockDestination) EnsureVaultInitialized(ctx context.Context) error {
	if m.EnsureVaultInitializedFunc != nil {
		return m.EnsureVaultInitializedFunc(ctx)
	}
	return nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	statuses []Status
}

func (n *recordingNotifier) BridgeUpdated(record *BridgeRecord) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statuses = append(n.statuses, record.Status)
}

func (n *recordingNotifier) seen() []Status {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Status, len(n.statuses))
	copy(out, n.statuses)
	return out
}
