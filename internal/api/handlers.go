package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/fundcomp/internal/cda"
	"github.com/sells-group/fundcomp/internal/monitoring"
	"github.com/sells-group/fundcomp/internal/pipeline"
)

const defaultLookbackHours = 24

// Handler serves composition requests.
type Handler struct {
	pipeline *pipeline.Pipeline
	metrics  *monitoring.Collector
}

// NewHandler creates a Handler.
func NewHandler(p *pipeline.Pipeline, metrics *monitoring.Collector) *Handler {
	return &Handler{pipeline: p, metrics: metrics}
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Composition runs the year pipeline.
//
//	GET /api/composition?year=2024&cnpj=11.111.111/0001-11&low_memory=true&category=A&month=3
func (h *Handler) Composition(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	year, err := strconv.Atoi(q.Get("year"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "year must be an integer")
		return
	}
	opts, fundID, ok := h.parseCommon(w, r)
	if !ok {
		return
	}
	for _, raw := range q["month"] {
		m, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "month must be an integer")
			return
		}
		opts.Months = append(opts.Months, m)
	}

	res, err := h.pipeline.RunYear(r.Context(), year, fundID, opts)
	h.respondResult(w, r, res, err)
}

// CompositionMonth runs the pipeline for one period.
//
//	GET /api/composition/month?period=2024-03&cnpj=11.111.111/0001-11
func (h *Handler) CompositionMonth(w http.ResponseWriter, r *http.Request) {
	period, err := cda.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "period must be YYYY-MM")
		return
	}
	opts, fundID, ok := h.parseCommon(w, r)
	if !ok {
		return
	}

	res, err := h.pipeline.RunMonth(r.Context(), period, fundID, opts)
	h.respondResult(w, r, res, err)
}

// InvalidateCache drops every cached period.
func (h *Handler) InvalidateCache(w http.ResponseWriter, _ *http.Request) {
	h.pipeline.Cache().Invalidate()
	respondJSON(w, http.StatusOK, h.pipeline.Cache().Stats())
}

// CacheStats reports cache counters.
func (h *Handler) CacheStats(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.pipeline.Cache().Stats())
}

// parseCommon reads cnpj, low_memory and category. Without low_memory the
// pipeline's configured mode applies.
func (h *Handler) parseCommon(w http.ResponseWriter, r *http.Request) (pipeline.Options, string, bool) {
	q := r.URL.Query()
	opts := pipeline.Options{LowMemory: h.pipeline.LowMemory()}

	fundID := strings.TrimSpace(q.Get("cnpj"))
	if fundID == "" {
		respondError(w, http.StatusBadRequest, "cnpj is required")
		return opts, "", false
	}

	if raw := q.Get("low_memory"); raw != "" {
		lowMemory, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "low_memory must be a boolean")
			return opts, "", false
		}
		opts.LowMemory = lowMemory
	}
	opts.Categories = q["category"]
	return opts, fundID, true
}

func (h *Handler) respondResult(w http.ResponseWriter, r *http.Request, res *pipeline.YearResult, err error) {
	if err == nil {
		respondJSON(w, http.StatusOK, res)
		return
	}
	if r.Context().Err() != nil {
		zap.L().Debug("api: request abandoned", zap.Error(err))
		respondError(w, http.StatusServiceUnavailable, "request cancelled")
		return
	}
	respondError(w, http.StatusBadRequest, err.Error())
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			zap.L().Warn("api: encode response", zap.Error(err))
		}
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// Metrics reports recent run health.
//
//	GET /api/metrics?hours=24
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	hours := defaultLookbackHours
	if raw := r.URL.Query().Get("hours"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "hours must be a positive integer")
			return
		}
		hours = n
	}
	respondJSON(w, http.StatusOK, h.metrics.Collect(hours))
}
