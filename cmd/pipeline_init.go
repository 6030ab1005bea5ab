package main

import (
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fundcomp/internal/cache"
	"github.com/sells-group/fundcomp/internal/cda"
	"github.com/sells-group/fundcomp/internal/config"
	"github.com/sells-group/fundcomp/internal/fetcher"
	"github.com/sells-group/fundcomp/internal/pipeline"
)

// initPipeline builds the archive source, cache and pipeline from config.
func initPipeline(c *config.Config, mode string) (*pipeline.Pipeline, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	timeout := time.Duration(c.Source.TimeoutSecs) * time.Second
	f, err := fetcher.New(c.Source.BaseURL, fetcher.Options{
		UserAgent:  c.Source.UserAgent,
		Timeout:    timeout,
		MaxRetries: c.Source.MaxRetries,
		RatePerSec: c.Source.RatePerSec,
	})
	if err != nil {
		return nil, eris.Wrap(err, "init fetcher")
	}

	src := cda.NewArchiveSource(f, c.Source.BaseURL, timeout)
	periodCache := cache.New[*pipeline.PeriodData](time.Duration(c.Cache.TTLMinutes) * time.Minute)

	zap.L().Debug("pipeline initialized",
		zap.String("base_url", c.Source.BaseURL),
		zap.Int("workers", c.Pipeline.Workers),
		zap.Int("cache_ttl_minutes", c.Cache.TTLMinutes),
	)
	return pipeline.New(c.Pipeline, src, periodCache), nil
}
