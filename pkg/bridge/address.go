package bridge

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// RecipientBytes32 converts a destination address into the 32-byte wire
// representation used by depositForBurn. Addresses longer than 32 bytes keep
// the low-order 32 bytes; shorter addresses are zero-left-padded.
func RecipientBytes32(addr string) ([32]byte, error) {
	var out [32]byte

	h := strings.TrimPrefix(strings.ToLower(addr), "0x")
	if h == "" {
		return out, fmt.Errorf("empty address")
	}
	if len(h)%2 != 0 {
		h = "0" + h
	}
	b, err := hex.DecodeString(h)
	if err != nil {
		return out, fmt.Errorf("invalid address %q: %w", addr, err)
	}

	if len(b) > 32 {
		b = b[len(b)-32:]
	}
	copy(out[32-len(b):], b)
	return out, nil
}

// TrimmedHex strips leading zero bytes from a 32-byte recipient and returns
// the 0x-prefixed hex of the remainder. It is the inverse of the padding in
// RecipientBytes32 for addresses of at most 32 bytes.
func TrimmedHex(b [32]byte) string {
	i := 0
	for i < len(b)-1 && b[i] == 0 {
		i++
	}
	return "0x" + hex.EncodeToString(b[i:])
}
