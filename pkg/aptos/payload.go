package aptos

import (
	"strconv"
)

// EntryFunctionPayload is an unsigned Aptos entry function call in the
// fullnode API's JSON form. vector<u8> arguments are hex strings, u64
// arguments are decimal strings.
type EntryFunctionPayload struct {
	Type          string   `json:"type"`
	Function      string   `json:"function"`
	TypeArguments []string `json:"type_arguments"`
	Arguments     []any    `json:"arguments"`
}

func entryFunction(function string, typeArgs []string, args ...any) *EntryFunctionPayload {
	if typeArgs == nil {
		typeArgs = []string{}
	}
	if args == nil {
		args = []any{}
	}
	return &EntryFunctionPayload{
		Type:          "entry_function_payload",
		Function:      function,
		TypeArguments: typeArgs,
		Arguments:     args,
	}
}

// MintPayload builds the receive_message call that mints the burned USDC.
// messageHex and attestationHex are 0x-prefixed byte vectors.
func (c *Client) MintPayload(messageHex, attestationHex string) *EntryFunctionPayload {
	return entryFunction(c.cfg.MessageTransmitter+"::receive_message", nil, messageHex, attestationHex)
}

// VaultDepositPayload builds the vault deposit call. amountUnits is in the
// vault's 6-decimal base unit.
func (c *Client) VaultDepositPayload(amountUnits uint64) *EntryFunctionPayload {
	return entryFunction(c.cfg.VaultModule+"::deposit",
		[]string{c.cfg.USDCType},
		strconv.FormatUint(amountUnits, 10))
}

func (c *Client) initializeVaultPayload() *EntryFunctionPayload {
	return entryFunction(c.cfg.VaultModule+"::initialize_vault", []string{c.cfg.USDCType})
}

func (c *Client) vaultStatsFunction() string {
	return c.cfg.VaultModule + "::get_vault_stats"
}
