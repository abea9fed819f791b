package evm

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

const tokenMessengerABI = `[{"name":"depositForBurn","type":"function","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"},{"name":"destinationDomain","type":"uint32"},{"name":"mintRecipient","type":"bytes32"},{"name":"burnToken","type":"address"}],"outputs":[{"name":"nonce","type":"uint64"}]}]`

const messageTransmitterABI = `[{"anonymous":false,"inputs":[{"indexed":false,"name":"message","type":"bytes"}],"name":"MessageSent","type":"event"}]`

var (
	tokenMessengerAbi     = mustParseABI(tokenMessengerABI)
	messageTransmitterAbi = mustParseABI(messageTransmitterABI)

	// MessageSentTopic is keccak256("MessageSent(bytes)")
	MessageSentTopic = crypto.Keccak256Hash([]byte("MessageSent(bytes)"))
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

// BurnTxData encodes the depositForBurn call for the chain's TokenMessenger.
// The returned payload is unsigned; the caller submits it.
func (c *Client) BurnTxData(amount *big.Int, destinationDomain uint32, mintRecipient [32]byte) (*TxData, error) {
	data, err := tokenMessengerAbi.Pack("depositForBurn",
		amount, destinationDomain, mintRecipient, common.HexToAddress(c.cfg.USDCContract))
	if err != nil {
		return nil, fmt.Errorf("failed to encode depositForBurn: %w", err)
	}
	return &TxData{
		To:      c.cfg.TokenMessenger,
		Data:    hexutil.Encode(data),
		Value:   "0x0",
		ChainID: c.cfg.ChainID,
	}, nil
}

// MessageFromLogs scans receipt logs for the MessageSent event and decodes
// its single bytes argument.
func MessageFromLogs(logs []*types.Log) ([]byte, error) {
	for _, lg := range logs {
		if len(lg.Topics) == 0 || lg.Topics[0] != MessageSentTopic {
			continue
		}
		vals, err := messageTransmitterAbi.Unpack("MessageSent", lg.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode MessageSent log: %w", err)
		}
		msg, ok := vals[0].([]byte)
		if !ok || len(msg) == 0 {
			return nil, fmt.Errorf("malformed MessageSent payload")
		}
		return msg, nil
	}
	return nil, ErrMessageNotFound
}

// MessageHash computes the content hash used to look up an attestation
func MessageHash(messageBytes []byte) string {
	return crypto.Keccak256Hash(messageBytes).Hex()
}

// DecodeBurnCalldata unpacks depositForBurn arguments from calldata. Used
// to verify constructed payloads.
func DecodeBurnCalldata(data []byte) (amount *big.Int, destinationDomain uint32, mintRecipient [32]byte, burnToken common.Address, err error) {
	if len(data) < 4 {
		return nil, 0, mintRecipient, burnToken, fmt.Errorf("calldata too short: %d bytes", len(data))
	}
	method, err := tokenMessengerAbi.MethodById(data[:4])
	if err != nil {
		return nil, 0, mintRecipient, burnToken, err
	}
	vals, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, 0, mintRecipient, burnToken, err
	}
	amount = vals[0].(*big.Int)
	destinationDomain = vals[1].(uint32)
	mintRecipient = vals[2].([32]byte)
	burnToken = vals[3].(common.Address)
	return amount, destinationDomain, mintRecipient, burnToken, nil
}
