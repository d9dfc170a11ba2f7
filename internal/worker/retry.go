package worker

import (
	"time"

	"bike-reserve/internal/pkg/config"
	"bike-reserve/internal/usecase/commands"
)

// RetryPolicy is one job type's retry budget: exponential backoff from
// BaseDelay, capped at MaxDelay, up to MaxAttempts total deliveries.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// NextDelay returns the backoff after the given attempt (1-based): the first
// retry waits BaseDelay, each later one doubles, capped at MaxDelay.
func (p RetryPolicy) NextDelay(attempt int32) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := p.BaseDelay
	for i := int32(1); i < attempt; i++ {
		delay *= 2
		if delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

func policyFromConfig(rc config.RetryConfig) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: rc.MaxAttempts,
		BaseDelay:   rc.BaseDelay,
		MaxDelay:    rc.MaxDelay,
	}
}

// PoliciesFromConfig maps each job type to its configured budget. Wallet
// execution runs on the tightest schedule; notifications give up earliest.
func PoliciesFromConfig(cfg config.WorkerConfig) map[string]RetryPolicy {
	return map[string]RetryPolicy{
		commands.JobTypeReservationExpire: policyFromConfig(cfg.ExpireRetry),
		commands.JobTypeExpirySweep:       policyFromConfig(cfg.ExpireRetry),
		commands.JobTypeNearExpiryNotify:  policyFromConfig(cfg.NotifyRetry),
		commands.JobTypeFixedSlotAssign:   policyFromConfig(cfg.AssignRetry),
		commands.JobTypeWalletRelease:     policyFromConfig(cfg.WalletRetry),
		commands.JobTypeWalletDebit:       policyFromConfig(cfg.WalletRetry),
	}
}
