// README: Metrics summary and persisted record endpoints.
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tripgenie/internal/modules/metrics"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 500
)

type SummarySource interface {
	Snapshot() metrics.Summary
}

// RecordSource reads persisted stage records; nil when no database is configured.
type RecordSource interface {
	Recent(ctx context.Context, limit int) ([]metrics.Record, error)
}

type MetricsHandler struct {
	summary SummarySource
	records RecordSource
}

func NewMetricsHandler(summary SummarySource, records RecordSource) *MetricsHandler {
	return &MetricsHandler{summary: summary, records: records}
}

// Summary handles GET /api/metrics/summary.
func (h *MetricsHandler) Summary(c *gin.Context) {
	writeJSON(c, http.StatusOK, h.summary.Snapshot())
}

// Recent handles GET /api/metrics/recent.
func (h *MetricsHandler) Recent(c *gin.Context) {
	if h.records == nil {
		writeError(c, http.StatusNotFound, "metrics store not configured")
		return
	}
	limit := defaultRecentLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxRecentLimit {
			writeError(c, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}
	records, err := h.records.Recent(c.Request.Context(), limit)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	if records == nil {
		records = []metrics.Record{}
	}
	writeJSON(c, http.StatusOK, gin.H{"records": records})
}
