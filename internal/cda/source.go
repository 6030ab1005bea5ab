package cda

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fundcomp/internal/fetcher"
	"github.com/sells-group/fundcomp/internal/resilience"
)

// DefaultFetchTimeout bounds a single archive download.
const DefaultFetchTimeout = 10 * time.Second

// ArchiveSource downloads one period's disclosure archive.
type ArchiveSource struct {
	fetcher fetcher.Fetcher
	baseURL string
	timeout time.Duration
}

// NewArchiveSource creates an ArchiveSource reading <baseURL>/cda_fi_<YYYYMM>.zip.
// A zero timeout selects DefaultFetchTimeout.
func NewArchiveSource(f fetcher.Fetcher, baseURL string, timeout time.Duration) *ArchiveSource {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &ArchiveSource{
		fetcher: f,
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
	}
}

// URL returns the archive URL of a period.
func (s *ArchiveSource) URL(p Period) string {
	return fmt.Sprintf("%s/cda_fi_%s.zip", s.baseURL, p.Code())
}

// Fetch downloads the archive of p and checks that it opens as a ZIP.
// Failures are returned as *PeriodError, except when ctx itself is cancelled:
// that error is returned wrapped but untyped so callers can tell an abandoned
// request from an unavailable period.
func (s *ArchiveSource) Fetch(ctx context.Context, p Period) ([]byte, error) {
	url := s.URL(p)
	log := zap.L().With(zap.String("component", "cda.source"), zap.String("period", p.String()))

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	data, err := s.download(fetchCtx, url)
	if err != nil {
		if ctx.Err() != nil || resilience.IsCanceled(err) {
			return nil, eris.Wrapf(err, "cda: fetch %s abandoned", p)
		}
		return nil, &PeriodError{Period: p, Kind: KindTransientFetch, Err: err}
	}

	if _, err := fetcher.OpenZIP(data); err != nil {
		return nil, &PeriodError{Period: p, Kind: KindMalformedArchive, Err: err}
	}

	log.Info("archive downloaded",
		zap.String("url", url),
		zap.String("size", humanize.Bytes(uint64(len(data)))),
		zap.Duration("elapsed", time.Since(start)),
	)
	return data, nil
}

func (s *ArchiveSource) download(ctx context.Context, url string) ([]byte, error) {
	body, err := s.fetcher.Download(ctx, url)
	if err != nil {
		return nil, eris.Wrapf(err, "download %s", url)
	}
	defer body.Close() //nolint:errcheck

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, eris.Wrapf(err, "read body %s", url)
	}
	return data, nil
}
