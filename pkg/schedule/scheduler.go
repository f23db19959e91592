// Package schedule drives the inventory core's periodic cycle on a cron
// schedule, the way MarketSentinel's internal/scheduler drives its
// investment tasks: a robfig/cron.Cron wrapping a handful of named jobs.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nullbridge/relay-inventory/pkg/inventory"
	"github.com/nullbridge/relay-inventory/pkg/logging"
	"github.com/nullbridge/relay-inventory/pkg/report"
)

var log = logging.For("schedule")

// Scheduler runs the inventory core's combined rebalance-then-unwrap cycle
// on a cron expression, and reports each cycle's outcome.
type Scheduler struct {
	cron     *cron.Cron
	core     *inventory.Core
	reporter *report.Reporter
	ctx      context.Context
}

// NewScheduler builds a Scheduler bound to ctx; ctx cancellation stops any
// in-flight cycle at its next context check.
func NewScheduler(ctx context.Context, core *inventory.Core, reporter *report.Reporter) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		core:     core,
		reporter: reporter,
		ctx:      ctx,
	}
}

// RegisterCycle schedules the combined rebalance-then-unwrap cycle on
// cronExpr (standard 5-field cron, no seconds field).
func (s *Scheduler) RegisterCycle(cronExpr string) error {
	if _, err := s.cron.AddFunc(cronExpr, s.runCycle); err != nil {
		return fmt.Errorf("schedule: register cycle: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop stops the scheduler and waits for any running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunCycleNow runs one cycle immediately, outside the cron schedule
// (used by cmd/relayd's -once mode).
func (s *Scheduler) RunCycleNow() {
	s.runCycle()
}

func (s *Scheduler) runCycle() {
	s.core.ResetCycle()

	rebalanceResult, err := s.core.RebalanceInventoryIfNeeded(s.ctx)
	if err != nil {
		log.Error().Err(err).Msg("rebalance cycle failed")
	}

	unwrapResult, err := s.core.UnwrapWethIfNeeded(s.ctx)
	if err != nil {
		log.Error().Err(err).Msg("unwrap cycle failed")
	}

	if s.reporter != nil {
		s.reporter.Report(report.CycleReport{
			Timestamp: time.Now(),
			Rebalance: rebalanceResult,
			Unwrap:    unwrapResult,
		})
	}
}
