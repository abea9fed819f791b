package bridge

import (
	"time"

	"github.com/creasty/defaults"

	"github.com/stablerail/cctp-orchestrator/pkg/config"
)

// PollPolicy controls attestation poll scheduling. Next-attempt delay and
// the error budget are pure functions of the attempt count and the
// consecutive-error count, so the poll loop is testable without timers.
type PollPolicy struct {
	// FastInterval is the delay between polls for the first FastAttempts
	FastInterval time.Duration `default:"5s"`
	// SlowInterval is the delay once FastAttempts have elapsed
	SlowInterval time.Duration `default:"15s"`
	// FastAttempts is how many attempts poll at the fast cadence
	FastAttempts int `default:"30"`
	// MaxAttempts is the hard ceiling of total attempts before the bridge
	// is failed with a timeout
	MaxAttempts int `default:"120"`
	// MaxConsecutiveErrors is the number of consecutive transient errors
	// tolerated before the bridge is failed
	MaxConsecutiveErrors int `default:"5"`
	// ErrorBackoffBase is the backoff after the first consecutive error;
	// it doubles per further error up to ErrorBackoffCap
	ErrorBackoffBase time.Duration `default:"5s"`
	ErrorBackoffCap  time.Duration `default:"60s"`
}

// DefaultPollPolicy returns the policy with struct-tag defaults applied
func DefaultPollPolicy() PollPolicy {
	var p PollPolicy
	defaults.MustSet(&p)
	return p
}

// PolicyFromConfig builds a PollPolicy from configuration, falling back to
// the defaults for any unset knob.
func PolicyFromConfig(cfg config.BridgeConfig) PollPolicy {
	p := DefaultPollPolicy()
	if cfg.FastInterval > 0 {
		p.FastInterval = cfg.FastInterval
	}
	if cfg.SlowInterval > 0 {
		p.SlowInterval = cfg.SlowInterval
	}
	if cfg.FastAttempts > 0 {
		p.FastAttempts = cfg.FastAttempts
	}
	if cfg.MaxAttempts > 0 {
		p.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.MaxConsecutiveErrors > 0 {
		p.MaxConsecutiveErrors = cfg.MaxConsecutiveErrors
	}
	if cfg.ErrorBackoffBase > 0 {
		p.ErrorBackoffBase = cfg.ErrorBackoffBase
	}
	if cfg.ErrorBackoffCap > 0 {
		p.ErrorBackoffCap = cfg.ErrorBackoffCap
	}
	return p
}

// NextDelay returns the delay before the next poll attempt. attempt is the
// number of attempts already made, consecutiveErrors the current error
// streak. An error streak switches to exponential backoff; otherwise the
// cadence is fast for the first FastAttempts, then slow.
func (p PollPolicy) NextDelay(attempt, consecutiveErrors int) time.Duration {
	if consecutiveErrors > 0 {
		d := p.ErrorBackoffBase << (consecutiveErrors - 1)
		if d <= 0 || d > p.ErrorBackoffCap {
			d = p.ErrorBackoffCap
		}
		return d
	}
	if attempt < p.FastAttempts {
		return p.FastInterval
	}
	return p.SlowInterval
}

// ErrorBudgetExceeded reports whether the consecutive-error streak is past
// the tolerated budget.
func (p PollPolicy) ErrorBudgetExceeded(consecutiveErrors int) bool {
	return consecutiveErrors > p.MaxConsecutiveErrors
}

// AttemptsExhausted reports whether the attempt ceiling has been reached
func (p PollPolicy) AttemptsExhausted(attempt int) bool {
	return attempt >= p.MaxAttempts
}
