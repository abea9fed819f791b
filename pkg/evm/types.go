package evm

// TxData is an unsigned EVM transaction payload. The caller signs and
// submits it; the orchestrator never holds source-chain keys.
type TxData struct {
	To      string `json:"to"`
	Data    string `json:"data"`
	Value   string `json:"value"`
	ChainID int64  `json:"chain_id"`
}
