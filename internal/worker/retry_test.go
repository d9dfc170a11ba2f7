//go:build unit

package worker

import (
	"testing"
	"time"

	"bike-reserve/internal/pkg/config"
	"bike-reserve/internal/usecase/commands"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryPolicyNextDelay(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 5, BaseDelay: 30 * time.Second, MaxDelay: 10 * time.Minute}

	tests := []struct {
		name    string
		attempt int32
		want    time.Duration
	}{
		{"first retry waits the base delay", 1, 30 * time.Second},
		{"second retry doubles", 2, time.Minute},
		{"third retry doubles again", 3, 2 * time.Minute},
		{"backoff is capped at the max delay", 6, 10 * time.Minute},
		{"far beyond the cap stays capped", 20, 10 * time.Minute},
		{"zero attempt is treated as the first", 0, 30 * time.Second},
		{"negative attempt is treated as the first", -3, 30 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.NextDelay(tt.attempt))
		})
	}
}

func TestRetryPolicyNextDelayBaseAboveMax(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Minute, MaxDelay: 10 * time.Second}
	assert.Equal(t, 10*time.Second, policy.NextDelay(1))
}

func TestPoliciesFromConfig(t *testing.T) {
	cfg := config.WorkerConfig{
		ExpireRetry: config.RetryConfig{MaxAttempts: 5, BaseDelay: 30 * time.Second, MaxDelay: 10 * time.Minute},
		NotifyRetry: config.RetryConfig{MaxAttempts: 3, BaseDelay: time.Minute, MaxDelay: 15 * time.Minute},
		AssignRetry: config.RetryConfig{MaxAttempts: 4, BaseDelay: time.Minute, MaxDelay: 30 * time.Minute},
		WalletRetry: config.RetryConfig{MaxAttempts: 8, BaseDelay: 5 * time.Second, MaxDelay: 2 * time.Minute},
	}

	policies := PoliciesFromConfig(cfg)

	require.Len(t, policies, 6)
	assert.Equal(t, 5, policies[commands.JobTypeReservationExpire].MaxAttempts)
	// The sweep shares the expiry budget; both touch the same rows.
	assert.Equal(t, policies[commands.JobTypeReservationExpire], policies[commands.JobTypeExpirySweep])
	assert.Equal(t, 3, policies[commands.JobTypeNearExpiryNotify].MaxAttempts)
	assert.Equal(t, 4, policies[commands.JobTypeFixedSlotAssign].MaxAttempts)
	assert.Equal(t, policies[commands.JobTypeWalletRelease], policies[commands.JobTypeWalletDebit])
	assert.Equal(t, 5*time.Second, policies[commands.JobTypeWalletDebit].BaseDelay)
}
