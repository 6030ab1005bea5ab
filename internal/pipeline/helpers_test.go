package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/sells-group/fundcomp/internal/cache"
	"github.com/sells-group/fundcomp/internal/cda"
	"github.com/sells-group/fundcomp/internal/config"
	"github.com/sells-group/fundcomp/internal/fetcher"
)

const (
	fundA = "11.111.111/0001-11"
	fundB = "22.222.222/0001-22"
)

const header = "CNPJ_FUNDO;DENOM_SOCIAL;TP_FUNDO;DT_COMPTC;VL_PATRIM_LIQ;TP_APLIC;TP_TITPUB;VL_MERC_POS_FINAL"

type holding struct {
	fund, date, nav, category, titpub, value string
}

func (h holding) line() string {
	return strings.Join([]string{h.fund, "FUNDO " + h.fund[:2], "FI", h.date, h.nav, h.category, h.titpub, h.value}, ";")
}

// archiveOf builds a Latin-1 ZIP with one member per holdings slice.
func archiveOf(t *testing.T, members ...[]holding) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for i, rows := range members {
		lines := []string{header}
		for _, h := range rows {
			lines = append(lines, h.line())
		}
		text, err := charmap.ISO8859_1.NewEncoder().String(strings.Join(lines, "\r\n") + "\r\n")
		require.NoError(t, err)
		fw, err := w.Create(fmt.Sprintf("cda_fi_BLC_%d.csv", i+1))
		require.NoError(t, err)
		_, err = fw.Write([]byte(text))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// scenarioArchive: fund A holds A=100 and B=50 with NAV 200 across two members.
func scenarioArchive(t *testing.T) []byte {
	return archiveOf(t,
		[]holding{
			{fundA, "2024-03-31", "200", "A", "", "100"},
			{fundB, "2024-03-31", "900", "A", "", "900"},
		},
		[]holding{
			{fundA, "2024-03-31", "200", "B", "", "50"},
		},
	)
}

// archiveServer serves archives by period and 404s everything else. It
// counts requests per path.
type archiveServer struct {
	*httptest.Server
	mu       sync.Mutex
	archives map[string][]byte
	hits     map[string]int
}

func newArchiveServer(t *testing.T, archives map[cda.Period][]byte) *archiveServer {
	s := &archiveServer{archives: make(map[string][]byte), hits: make(map[string]int)}
	for p, data := range archives {
		s.archives[fmt.Sprintf("/cda_fi_%s.zip", p.Code())] = data
	}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		data, ok := s.archives[r.URL.Path]
		s.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(data) //nolint:errcheck
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *archiveServer) totalHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.hits {
		n += c
	}
	return n
}

func testConfig() config.PipelineConfig {
	return config.PipelineConfig{
		Workers:         4,
		SuppressBelow:   0.5,
		PublicDebtLabel: cda.DefaultPublicDebtLabel,
		MinYear:         2005,
	}
}

func newTestPipeline(t *testing.T, baseURL string) *Pipeline {
	t.Helper()
	src := cda.NewArchiveSource(fetcher.NewHTTPFetcher(fetcher.HTTPOptions{}), baseURL, 2*time.Second)
	return New(testConfig(), src, cache.New[*PeriodData](0))
}

// --- Archiver Mock ---

type mockArchiver struct {
	mock.Mock
}

func (m *mockArchiver) Fetch(ctx context.Context, p cda.Period) ([]byte, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
