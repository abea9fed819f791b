package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectStrategyPicksBestScore(t *testing.T) {
	// aries: 5.0 + 2*log10(10) = 7.0; echelon: 6.0 + 2*log10(100) = 10.0
	got := SelectStrategy([]Protocol{
		{Name: "aries", APY: 5.0, TVL: 10_000_000},
		{Name: "echelon", APY: 6.0, TVL: 100_000_000},
	})
	assert.Equal(t, "echelon", got.Protocol)
	assert.Equal(t, 6.0, got.APY)
	assert.Equal(t, 100.0, got.Allocation)
}

func TestSelectStrategyTVLOutweighsSmallAPYEdge(t *testing.T) {
	// A slightly higher APY loses to a protocol with 100x the liquidity
	got := SelectStrategy([]Protocol{
		{Name: "small", APY: 8.0, TVL: 1_000_000},
		{Name: "deep", APY: 7.0, TVL: 100_000_000},
	})
	assert.Equal(t, "deep", got.Protocol)
}

func TestSelectStrategyFilters(t *testing.T) {
	tests := []struct {
		name      string
		protocols []Protocol
	}{
		{"below minimum TVL", []Protocol{{Name: "tiny", APY: 9.9, TVL: 999_999}}},
		{"zero APY", []Protocol{{Name: "flat", APY: 0, TVL: 50_000_000}}},
		{"implausible APY", []Protocol{{Name: "scam", APY: 31.0, TVL: 50_000_000}}},
		{"no candidates", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := SelectStrategy(tc.protocols)
			assert.Equal(t, "echelon", got.Protocol)
			assert.Equal(t, 7.2, got.APY)
			assert.Equal(t, 100.0, got.Allocation)
		})
	}
}
