package schedule

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nullbridge/relay-inventory/pkg/config"
	"github.com/nullbridge/relay-inventory/pkg/inventory"
	"github.com/nullbridge/relay-inventory/pkg/report"
	"github.com/nullbridge/relay-inventory/pkg/types"
)

// disabledCore builds an inventory.Core with management turned off, so a
// cycle completes without ever touching a collaborator - every collaborator
// argument to NewCore can be nil, since RebalanceInventoryIfNeeded and
// UnwrapWethIfNeeded both short-circuit on cfg.Enabled before dereferencing
// any of them.
func disabledCore() *inventory.Core {
	cfg := &config.InventoryConfig{Enabled: false}
	return inventory.NewCore(cfg, types.Relayer{}, nil, nil, nil, nil, nil, nil, true)
}

func TestRunCycleNowReportsEmptyResultWhenDisabled(t *testing.T) {
	var buf bytes.Buffer
	reporter := report.NewReporter(&buf, report.FormatText)

	s := NewScheduler(context.Background(), disabledCore(), reporter)
	s.RunCycleNow()

	out := buf.String()
	assert.Contains(t, out, "Rebalances accepted: 0")
	assert.Contains(t, out, "Unwraps accepted: 0")
}

func TestRunCycleNowToleratesNilReporter(t *testing.T) {
	s := NewScheduler(context.Background(), disabledCore(), nil)
	assert.NotPanics(t, func() { s.RunCycleNow() })
}

func TestRegisterCycleAcceptsValidCronExpression(t *testing.T) {
	s := NewScheduler(context.Background(), disabledCore(), nil)
	err := s.RegisterCycle("*/5 * * * *")
	require.NoError(t, err)
}

func TestRegisterCycleRejectsInvalidCronExpression(t *testing.T) {
	s := NewScheduler(context.Background(), disabledCore(), nil)
	err := s.RegisterCycle("not a cron expression")
	assert.Error(t, err)
}

func TestStartAndStopWithoutRunningJobs(t *testing.T) {
	s := NewScheduler(context.Background(), disabledCore(), nil)
	require.NoError(t, s.RegisterCycle("*/5 * * * *"))
	s.Start()
	s.Stop()
}
