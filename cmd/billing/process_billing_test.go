package main

import (
	"testing"

	ierr "github.com/finops/ffc-billing/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckCutoffDay(t *testing.T) {
	tests := []struct {
		day     int
		wantErr bool
	}{
		{day: 0, wantErr: true},
		{day: 1},
		{day: 5},
		{day: 28},
		{day: 29, wantErr: true},
		{day: -3, wantErr: true},
	}

	for _, tt := range tests {
		err := checkCutoffDay(tt.day)
		if tt.wantErr {
			require.Error(t, err, "day %d", tt.day)
			assert.True(t, ierr.IsValidation(err))
			continue
		}
		assert.NoError(t, err, "day %d", tt.day)
	}
}

func TestProcessBillingRejectsCutoffDay(t *testing.T) {
	cmd := newProcessBillingCmd()
	cmd.SetArgs([]string{"--cutoff-day", "31", "--dry-run"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	err := cmd.Execute()

	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}

func TestProcessBillingDefaults(t *testing.T) {
	cmd := newProcessBillingCmd()

	month, err := cmd.Flags().GetInt("month")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, month, 1)
	assert.LessOrEqual(t, month, 12)

	dryRun, err := cmd.Flags().GetBool("dry-run")
	require.NoError(t, err)
	assert.False(t, dryRun)
}
