package worker

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/xavierca1/followup-core/internal/entity"
	"github.com/xavierca1/followup-core/internal/infra/metrics"
	"github.com/xavierca1/followup-core/internal/rules"
)

// LeaseName is the scheduler lease shared by every instance.
const LeaseName = "rules"

// RuleRunner runs one pass of the rule engine.
type RuleRunner interface {
	RunAll(ctx context.Context, now time.Time) []rules.Report
}

type RuleScheduler struct {
	runner   RuleRunner
	leases   entity.LeaseRepositoryInterface
	holder   string
	interval time.Duration
	now      func() time.Time
	logger   zerolog.Logger
}

func NewRuleScheduler(runner RuleRunner, leases entity.LeaseRepositoryInterface, interval time.Duration, logger zerolog.Logger) *RuleScheduler {
	host, _ := os.Hostname()
	return &RuleScheduler{
		runner:   runner,
		leases:   leases,
		holder:   host + "/" + uuid.NewString(),
		interval: interval,
		now:      time.Now,
		logger:   logger.With().Str("component", "scheduler").Logger(),
	}
}

// WithClock replaces the wall clock. Used by tests.
func (w *RuleScheduler) WithClock(now func() time.Time) *RuleScheduler {
	w.now = now
	return w
}

// Start runs a pass immediately and then every interval until ctx is done.
func (w *RuleScheduler) Start(ctx context.Context) {
	w.logger.Info().Dur("interval", w.interval).Str("holder", w.holder).Msg("🕒 rule scheduler started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			w.release()
			w.logger.Info().Msg("⚠️ rule scheduler stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce runs a single pass if this instance can take the lease. It reports
// whether the pass ran.
func (w *RuleScheduler) RunOnce(ctx context.Context) bool {
	now := w.now()

	acquired, err := w.leases.TryAcquire(ctx, LeaseName, w.holder, now, w.interval)
	if err != nil {
		metrics.RecordSchedulerPass("lease_error")
		w.logger.Error().Err(err).Msg("❌ failed to acquire scheduler lease")
		return false
	}
	if !acquired {
		metrics.RecordSchedulerPass("skipped")
		w.logger.Debug().Msg("scheduler lease held elsewhere, skipping pass")
		return false
	}

	start := time.Now()
	reports := w.runner.RunAll(ctx, now)

	var applied, failed, broken int
	for _, r := range reports {
		applied += r.Applied
		failed += r.Failed
		if r.Err != nil {
			broken++
		}
	}

	result := "ok"
	if broken > 0 {
		result = "partial"
	}
	metrics.RecordSchedulerPass(result)

	w.logger.Info().
		Int("checks", len(reports)).
		Int("applied", applied).
		Int("failed", failed).
		Int("broken_checks", broken).
		Dur("took", time.Since(start)).
		Msg("✅ scheduler pass finished")
	return true
}

func (w *RuleScheduler) release() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.leases.Release(ctx, LeaseName, w.holder); err != nil {
		w.logger.Warn().Err(err).Msg("failed to release scheduler lease")
	}
}
