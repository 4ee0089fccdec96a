package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "PRD-1111-1111", cfg.Billing.ProductID)
	assert.Equal(t, "FFC-EXTERNAL-PRODUCT", cfg.Billing.ExternalProductID)
	assert.Equal(t, 10, cfg.Billing.MaxConcurrency)
	assert.Equal(t, DefaultValidationBackoff(), cfg.Billing.ValidationBackoff)
	assert.Equal(t, DefaultSentinelAgreementID, cfg.Billing.SentinelAgreementID)
	assert.Equal(t, 5, cfg.Billing.DefaultCutoffDay)
	assert.Equal(t, 180*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 50, cfg.MPT.PageSize)
	assert.False(t, cfg.Sentry.Enabled)
}

func TestNewConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("FFC_BILLING_BILLING_MAX_CONCURRENCY", "3")
	t.Setenv("FFC_BILLING_BILLING_PRODUCT_ID", "PRD-2222-2222")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Billing.MaxConcurrency)
	assert.Equal(t, "PRD-2222-2222", cfg.Billing.ProductID)
}

func TestConfiguration_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Configuration)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Configuration) {}},
		{name: "cutoff day too large", mutate: func(c *Configuration) { c.Billing.DefaultCutoffDay = 30 }, wantErr: true},
		{name: "no concurrency", mutate: func(c *Configuration) { c.Billing.MaxConcurrency = 0 }, wantErr: true},
		{name: "empty backoff", mutate: func(c *Configuration) { c.Billing.ValidationBackoff = nil }, wantErr: true},
		{name: "non numeric percentage", mutate: func(c *Configuration) { c.Billing.DefaultBilledPercentage = "four" }, wantErr: true},
		{name: "missing marketplace url", mutate: func(c *Configuration) { c.MPT.BaseURL = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestBillingConfig_BilledPercentage(t *testing.T) {
	assert.True(t, decimal.NewFromInt(4).Equal(GetDefaultConfig().Billing.BilledPercentage()))
	assert.True(t, decimal.RequireFromString("2.5").Equal(BillingConfig{DefaultBilledPercentage: "2.5"}.BilledPercentage()))
	assert.True(t, decimal.Zero.Equal(BillingConfig{DefaultBilledPercentage: "x"}.BilledPercentage()))
}
