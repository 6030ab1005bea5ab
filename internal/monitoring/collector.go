// Package monitoring tracks how often disclosure archives fail to load and
// alerts when the upstream portal looks unhealthy.
package monitoring

import (
	"sync"
	"time"

	"github.com/sells-group/fundcomp/internal/cache"
	"github.com/sells-group/fundcomp/internal/pipeline"
)

// DefaultRunLimit bounds how many runs the collector remembers.
const DefaultRunLimit = 1000

// MetricsSnapshot holds a point-in-time view of pipeline health.
type MetricsSnapshot struct {
	// Run metrics (within lookback window).
	Runs             int     `json:"runs"`
	EmptyRuns        int     `json:"empty_runs"`
	PeriodsRequested int     `json:"periods_requested"`
	PeriodsFailed    int     `json:"periods_failed"`
	PeriodFailRate   float64 `json:"period_fail_rate"`
	AvgDurationMs    int64   `json:"avg_duration_ms"`

	// LastRunAllFailed is set when the most recent run lost every period.
	LastRunAllFailed bool `json:"last_run_all_failed"`

	Cache cache.Stats `json:"cache"`

	// Metadata.
	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// StatsSource reports cache counters.
type StatsSource interface {
	Stats() cache.Stats
}

// Collector records finished runs in memory. It implements
// pipeline.RunObserver.
type Collector struct {
	mu    sync.Mutex
	runs  []pipeline.RunStats
	limit int
	stats StatsSource
	now   func() time.Time
}

// NewCollector creates a collector keeping at most limit runs.
// stats may be nil.
func NewCollector(stats StatsSource, limit int) *Collector {
	if limit <= 0 {
		limit = DefaultRunLimit
	}
	return &Collector{limit: limit, stats: stats, now: time.Now}
}

// ObserveRun records a finished run, dropping the oldest beyond the limit.
func (c *Collector) ObserveRun(s pipeline.RunStats) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs = append(c.runs, s)
	if over := len(c.runs) - c.limit; over > 0 {
		c.runs = append(c.runs[:0:0], c.runs[over:]...)
	}
}

// Collect summarizes the runs finished within the lookback window.
func (c *Collector) Collect(lookbackHours int) *MetricsSnapshot {
	now := c.now()
	snap := &MetricsSnapshot{
		LookbackHours: lookbackHours,
		CollectedAt:   now.UTC(),
	}
	if c.stats != nil {
		snap.Cache = c.stats.Stats()
	}

	cutoff := now.Add(-time.Duration(lookbackHours) * time.Hour)

	c.mu.Lock()
	defer c.mu.Unlock()

	var totalDuration time.Duration
	for _, r := range c.runs {
		if r.Finished.Before(cutoff) {
			continue
		}
		snap.Runs++
		snap.PeriodsRequested += r.Periods
		snap.PeriodsFailed += r.Failed
		totalDuration += r.Duration
		if r.Rows == 0 {
			snap.EmptyRuns++
		}
	}
	if snap.PeriodsRequested > 0 {
		snap.PeriodFailRate = float64(snap.PeriodsFailed) / float64(snap.PeriodsRequested)
	}
	if snap.Runs > 0 {
		snap.AvgDurationMs = totalDuration.Milliseconds() / int64(snap.Runs)
	}
	if n := len(c.runs); n > 0 {
		last := c.runs[n-1]
		snap.LastRunAllFailed = !last.Finished.Before(cutoff) && last.Periods > 0 && last.Failed == last.Periods
	}
	return snap
}
