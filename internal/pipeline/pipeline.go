// Package pipeline runs fetch, normalize, filter and aggregate for the
// periods of a year and folds the results into a composition matrix.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/fundcomp/internal/cache"
	"github.com/sells-group/fundcomp/internal/cda"
	"github.com/sells-group/fundcomp/internal/composition"
	"github.com/sells-group/fundcomp/internal/config"
)

// Archiver downloads the archive of one period.
type Archiver interface {
	Fetch(ctx context.Context, p cda.Period) ([]byte, error)
}

// PeriodData is what the cache keeps per period: normalized records and the
// diagnostics produced while reading them. Cached values are never modified.
type PeriodData struct {
	Records     []cda.Record
	Diagnostics []cda.Diagnostic
}

// Options are per-call settings.
type Options struct {
	// LowMemory filters to the fund while each member table is read and
	// caches only that fund's records.
	LowMemory bool
	// Categories keeps only these holding categories (after the public-debt
	// override). Empty keeps all.
	Categories []string
	// Months restricts RunYear to these months (1-12). Empty runs all twelve.
	Months []int
}

// YearResult is the outcome of one pipeline run.
type YearResult struct {
	RunID       string                    `json:"run_id" yaml:"run_id"`
	FundID      string                    `json:"fund_id" yaml:"fund_id"`
	Fund        *cda.FundInfo             `json:"fund,omitempty" yaml:"fund,omitempty"`
	Periods     []cda.Period              `json:"periods" yaml:"periods"`
	Matrix      composition.Matrix        `json:"matrix" yaml:"matrix"`
	Percent     composition.PercentMatrix `json:"percent" yaml:"percent"`
	Diagnostics []cda.Diagnostic          `json:"diagnostics" yaml:"diagnostics"`
}

// Failures returns the diagnostics that cost a whole period.
func (r *YearResult) Failures() []cda.Diagnostic {
	var out []cda.Diagnostic
	for _, d := range r.Diagnostics {
		if d.IsFailure() {
			out = append(out, d)
		}
	}
	return out
}

// RunStats summarizes a finished run.
type RunStats struct {
	RunID    string
	FundID   string
	Periods  int
	Failed   int
	Rows     int
	Duration time.Duration
	Finished time.Time
}

// RunObserver is told about every run that completes.
type RunObserver interface {
	ObserveRun(RunStats)
}

// Pipeline owns the period cache and the settings shared by every run.
type Pipeline struct {
	cfg      config.PipelineConfig
	source   Archiver
	cache    *cache.Cache[*PeriodData]
	observer RunObserver
	now      func() time.Time
}

// New creates a Pipeline. The cache is owned by the caller so it can be
// shared with an invalidation hook.
func New(cfg config.PipelineConfig, source Archiver, c *cache.Cache[*PeriodData]) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.PublicDebtLabel == "" {
		cfg.PublicDebtLabel = cda.DefaultPublicDebtLabel
	}
	return &Pipeline{
		cfg:    cfg,
		source: source,
		cache:  c,
		now:    time.Now,
	}
}

// SetObserver registers o to receive RunStats. Call it before the first run.
func (p *Pipeline) SetObserver(o RunObserver) {
	p.observer = o
}

// LowMemory reports the configured default for Options.LowMemory.
func (p *Pipeline) LowMemory() bool {
	return p.cfg.LowMemory
}

// Cache returns the period cache.
func (p *Pipeline) Cache() *cache.Cache[*PeriodData] {
	return p.cache
}

// RunYear builds the composition of fundID for the periods of year. Periods
// that fail are reported in Diagnostics and contribute no row; a fund with
// no data in the year yields an empty matrix. The returned error is non-nil
// only for invalid input or when ctx is done.
func (p *Pipeline) RunYear(ctx context.Context, year int, fundID string, opts Options) (*YearResult, error) {
	fundID, err := checkFundID(fundID)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: run year")
	}
	if err := cda.NewPeriod(year, 1).Validate(p.cfg.MinYear); err != nil {
		return nil, eris.Wrap(err, "pipeline: run year")
	}

	months := opts.Months
	if len(months) == 0 {
		months = []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	}
	periods := make([]cda.Period, 0, len(months))
	for _, m := range months {
		period := cda.NewPeriod(year, m)
		if err := period.Validate(p.cfg.MinYear); err != nil {
			return nil, eris.Wrap(err, "pipeline: run year")
		}
		if period.Start().After(p.now()) {
			continue
		}
		periods = append(periods, period)
	}
	return p.run(ctx, periods, fundID, opts)
}

// RunMonth builds the composition of fundID for a single period.
func (p *Pipeline) RunMonth(ctx context.Context, period cda.Period, fundID string, opts Options) (*YearResult, error) {
	fundID, err := checkFundID(fundID)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: run month")
	}
	if err := period.Validate(p.cfg.MinYear); err != nil {
		return nil, eris.Wrap(err, "pipeline: run month")
	}
	return p.run(ctx, []cda.Period{period}, fundID, opts)
}

// checkFundID trims fundID and rejects a blank one. A blank identifier would
// match every fund under the per-member filter but none after normalization.
func checkFundID(fundID string) (string, error) {
	fundID = strings.TrimSpace(fundID)
	if fundID == "" {
		return "", eris.New("fund id is required")
	}
	return fundID, nil
}

type periodResult struct {
	comp  cda.Composition
	view  []cda.Record
	diags []cda.Diagnostic
}

func (p *Pipeline) run(ctx context.Context, periods []cda.Period, fundID string, opts Options) (*YearResult, error) {
	runID := uuid.New().String()
	log := zap.L().With(
		zap.String("component", "pipeline"),
		zap.String("run_id", runID),
		zap.String("fund_id", fundID),
		zap.Bool("low_memory", opts.LowMemory),
	)
	start := time.Now()
	log.Info("pipeline: starting run", zap.Int("periods", len(periods)))

	results := make([]periodResult, len(periods))

	var g errgroup.Group
	g.SetLimit(p.cfg.Workers)
	for i, period := range periods {
		g.Go(func() error {
			res, err := p.runPeriod(ctx, period, fundID, opts)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Warn("pipeline: run abandoned", zap.Error(err))
		return nil, eris.Wrap(err, "pipeline: run")
	}

	// Fold serially so the result does not depend on completion order.
	result := &YearResult{
		RunID:       runID,
		FundID:      fundID,
		Periods:     periods,
		Diagnostics: []cda.Diagnostic{},
	}
	var comps []cda.Composition
	var latest []cda.Record
	byLabel := make(map[string]cda.Composition)
	for _, res := range results {
		result.Diagnostics = append(result.Diagnostics, res.diags...)
		if res.comp.Empty() {
			continue
		}
		if prev, ok := byLabel[res.comp.Label]; ok {
			if prev.Period.Before(res.comp.Period) {
				result.Diagnostics = append(result.Diagnostics, cda.SupersededNote(prev, res.comp))
			} else {
				result.Diagnostics = append(result.Diagnostics, cda.SupersededNote(res.comp, prev))
				continue
			}
		}
		byLabel[res.comp.Label] = res.comp
		comps = append(comps, res.comp)
		latest = res.view
	}
	if info, ok := cda.FundInfoFrom(latest); ok {
		result.Fund = &info
	}
	result.Matrix = composition.Build(comps)
	result.Percent = composition.Normalize(result.Matrix, p.cfg.SuppressBelow)

	elapsed := time.Since(start)
	log.Info("pipeline: run complete",
		zap.Int("rows", len(result.Matrix.Rows)),
		zap.Int("columns", len(result.Percent.Columns)),
		zap.Int("failures", len(result.Failures())),
		zap.Int("diagnostics", len(result.Diagnostics)),
		zap.Int64("duration_ms", elapsed.Milliseconds()),
	)
	if p.observer != nil {
		p.observer.ObserveRun(RunStats{
			RunID:    runID,
			FundID:   fundID,
			Periods:  len(periods),
			Failed:   len(result.Failures()),
			Rows:     len(result.Matrix.Rows),
			Duration: elapsed,
			Finished: time.Now(),
		})
	}
	return result, nil
}

// runPeriod turns one period into a composition. Period failures become
// diagnostics; only cancellation of ctx is returned as an error.
func (p *Pipeline) runPeriod(ctx context.Context, period cda.Period, fundID string, opts Options) (periodResult, error) {
	res := periodResult{comp: cda.Composition{Period: period}}

	data, err := p.load(ctx, period, fundID, opts.LowMemory)
	if err != nil {
		if ctx.Err() != nil {
			return res, eris.Wrapf(ctx.Err(), "pipeline: period %s", period)
		}
		res.diags = append(res.diags, failureDiagnostic(period, err))
		zap.L().Warn("pipeline: period unavailable",
			zap.String("period", period.String()),
			zap.Error(err),
		)
		return res, nil
	}

	// Data-quality notes are recomputed on the fund's view below.
	for _, d := range data.Diagnostics {
		if d.Kind != cda.KindDataQuality {
			res.diags = append(res.diags, d)
		}
	}

	view := data.Records
	if !opts.LowMemory {
		view = cda.FilterByEntity(view, fundID)
	}
	view = cda.OverrideCategory(view, p.cfg.PublicDebtLabel)
	view = cda.FilterByCategory(view, opts.Categories...)
	if len(view) == 0 {
		return res, nil
	}

	comp, notes := cda.Aggregate(period, view)
	res.comp = comp
	res.view = view
	res.diags = append(res.diags, notes...)
	return res, nil
}

// load returns the normalized records of a period through the cache. In
// low-memory mode the entry holds only fundID's records and is keyed by it.
func (p *Pipeline) load(ctx context.Context, period cda.Period, fundID string, lowMemory bool) (*PeriodData, error) {
	key := cache.Key{Period: period}
	n := cda.Normalizer{Columns: cda.DefaultColumns}
	if lowMemory {
		key.FundID = fundID
		n.FundID = fundID
	}

	return p.cache.GetOrCompute(ctx, key, func(ctx context.Context) (*PeriodData, error) {
		archive, err := p.source.Fetch(ctx, period)
		if err != nil {
			return nil, err
		}
		records, diags, err := n.Normalize(ctx, period, archive)
		if err != nil {
			return nil, err
		}
		return &PeriodData{Records: records, Diagnostics: diags}, nil
	})
}

func failureDiagnostic(period cda.Period, err error) cda.Diagnostic {
	var pe *cda.PeriodError
	if errors.As(err, &pe) {
		return pe.Diagnostic()
	}
	return cda.Diagnostic{Kind: cda.KindTransientFetch, Period: period, Message: err.Error()}
}
