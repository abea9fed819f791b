package bridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"github.com/stablerail/cctp-orchestrator/internal/metrics"
	"github.com/stablerail/cctp-orchestrator/pkg/evm"
)

// errPollClaimRejected marks an Update callback that declined to claim the
// poll slot; the trigger is then a silent no-op.
var errPollClaimRejected = errors.New("poll claim rejected")

// startPolling claims the per-bridge poll slot and launches the loop. The
// claim sets PollingActive atomically, so a second trigger while a loop is
// running (or after a terminal state) does nothing.
func (o *Orchestrator) startPolling(bridgeID string) {
	rec, err := o.store.Update(o.ctx, bridgeID, func(r *BridgeRecord) error {
		if r.Status.Terminal() || r.PollingActive || r.MessageBytes == "" {
			return errPollClaimRejected
		}
		r.PollingActive = true
		return nil
	})
	if err != nil {
		if !errors.Is(err, errPollClaimRejected) {
			o.logger.Error("Failed to claim poll slot",
				zap.String("bridge_id", bridgeID), zap.Error(err))
		}
		return
	}

	msg, err := hexutil.Decode(rec.MessageBytes)
	if err != nil {
		o.failBridge(bridgeID, fmt.Sprintf("malformed message bytes: %v", err))
		return
	}
	messageHash := evm.MessageHash(msg)

	o.wg.Add(1)
	go o.pollLoop(bridgeID, messageHash)
}

// pollLoop polls the attestation service until the message is attested,
// the error budget is spent, or the attempt ceiling is hit. Cadence and
// backoff come from the poll policy; time comes from the injected clock.
func (o *Orchestrator) pollLoop(bridgeID, messageHash string) {
	defer o.wg.Done()
	metrics.ActivePolls.Inc()
	defer metrics.ActivePolls.Dec()

	attempt := 0
	consecutiveErrors := 0

	for {
		attempt++
		metrics.AttestationPolls.Inc()

		resp, err := o.attester.Get(o.ctx, messageHash)
		switch {
		case err != nil:
			if o.ctx.Err() != nil {
				o.releasePollSlot(bridgeID)
				return
			}
			consecutiveErrors++
			metrics.AttestationErrors.WithLabelValues("transport").Inc()
			o.logger.Warn("Attestation poll error",
				zap.String("bridge_id", bridgeID),
				zap.Int("attempt", attempt),
				zap.Int("consecutive_errors", consecutiveErrors),
				zap.Error(err))
			if o.policy.ErrorBudgetExceeded(consecutiveErrors) {
				o.failBridge(bridgeID, fmt.Sprintf(
					"attestation polling aborted after %d consecutive errors: %v",
					consecutiveErrors, err))
				return
			}

		case resp.Complete():
			rec, uerr := o.store.Update(context.Background(), bridgeID, func(r *BridgeRecord) error {
				if r.Status.Terminal() {
					return errPollClaimRejected
				}
				r.Status = StatusMinting
				r.Attestation = resp.Attestation
				r.PollingActive = false
				return nil
			})
			if uerr != nil {
				if !errors.Is(uerr, errPollClaimRejected) {
					o.logger.Error("Failed to record attestation",
						zap.String("bridge_id", bridgeID), zap.Error(uerr))
				}
				return
			}
			o.logger.Info("Attestation received",
				zap.String("bridge_id", bridgeID),
				zap.Int("attempts", attempt))
			o.notify(rec)
			return

		default:
			consecutiveErrors = 0
		}

		if o.policy.AttemptsExhausted(attempt) {
			metrics.AttestationErrors.WithLabelValues("timeout").Inc()
			o.failBridge(bridgeID, fmt.Sprintf(
				"attestation polling timed out after %d attempts", attempt))
			return
		}

		if err := o.clock.Sleep(o.ctx, o.policy.NextDelay(attempt, consecutiveErrors)); err != nil {
			o.releasePollSlot(bridgeID)
			return
		}
	}
}

func (o *Orchestrator) failBridge(bridgeID, message string) {
	rec, err := o.store.Update(context.Background(), bridgeID, func(r *BridgeRecord) error {
		r.Status = StatusFailed
		r.Error = message
		r.PollingActive = false
		return nil
	})
	if err != nil {
		o.logger.Error("Failed to mark bridge failed",
			zap.String("bridge_id", bridgeID), zap.Error(err))
		return
	}
	metrics.BridgesTotal.WithLabelValues(string(StatusFailed)).Inc()
	o.logger.Error("Bridge failed",
		zap.String("bridge_id", bridgeID),
		zap.String("reason", message))
	o.notify(rec)
}

// releasePollSlot clears PollingActive on shutdown so a durable store does
// not keep a stale claim across restarts.
func (o *Orchestrator) releasePollSlot(bridgeID string) {
	_, _ = o.store.Update(context.Background(), bridgeID, func(r *BridgeRecord) error {
		r.PollingActive = false
		return nil
	})
}
