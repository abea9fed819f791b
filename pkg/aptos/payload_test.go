package aptos

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stablerail/cctp-orchestrator/pkg/config"
)

var testAptosConfig = config.AptosConfig{
	NodeURL:            "http://localhost:8080",
	CCTPDomain:         9,
	USDCType:           "0xcafe::usdc::USDC",
	MessageTransmitter: "0xcafe::message_transmitter",
	VaultModule:        "0xcafe::vault",
}

func newPayloadClient(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient(testAptosConfig, zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestMintPayload(t *testing.T) {
	client := newPayloadClient(t)

	p := client.MintPayload("0xdeadbeef", "0xAA")
	assert.Equal(t, "entry_function_payload", p.Type)
	assert.Equal(t, "0xcafe::message_transmitter::receive_message", p.Function)
	assert.Empty(t, p.TypeArguments)
	assert.Equal(t, []any{"0xdeadbeef", "0xAA"}, p.Arguments)
}

func TestVaultDepositPayload(t *testing.T) {
	client := newPayloadClient(t)

	p := client.VaultDepositPayload(10_500_000)
	assert.Equal(t, "0xcafe::vault::deposit", p.Function)
	assert.Equal(t, []string{"0xcafe::usdc::USDC"}, p.TypeArguments)
	assert.Equal(t, []any{"10500000"}, p.Arguments)
}

func TestPayloadJSONShape(t *testing.T) {
	client := newPayloadClient(t)

	raw, err := json.Marshal(client.MintPayload("0x01", "0x02"))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "entry_function_payload",
		"function": "0xcafe::message_transmitter::receive_message",
		"type_arguments": [],
		"arguments": ["0x01", "0x02"]
	}`, string(raw))
}
