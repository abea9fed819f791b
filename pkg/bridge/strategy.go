package bridge

import (
	"math"
)

// Protocol is a yield protocol candidate for vault allocation
type Protocol struct {
	Name string
	APY  float64
	TVL  float64
}

const (
	minProtocolTVL = 1_000_000
	maxSaneAPY     = 30.0
)

// fallbackStrategy is used when no candidate passes the filters
var fallbackStrategy = Strategy{Protocol: "echelon", APY: 7.2, Allocation: 100}

// SelectStrategy picks the vault allocation target. Candidates below the
// minimum TVL or outside the APY sanity band are skipped; the remainder are
// scored by APY plus a log-scaled TVL factor. The result is advisory only.
func SelectStrategy(protocols []Protocol) Strategy {
	best := Strategy{}
	bestScore := math.Inf(-1)
	for _, p := range protocols {
		if p.TVL < minProtocolTVL {
			continue
		}
		if p.APY <= 0 || p.APY > maxSaneAPY {
			continue
		}
		score := p.APY + 2*math.Log10(p.TVL/1e6)
		if score > bestScore {
			bestScore = score
			best = Strategy{Protocol: p.Name, APY: p.APY, Allocation: 100}
		}
	}
	if best.Protocol == "" {
		return fallbackStrategy
	}
	return best
}
