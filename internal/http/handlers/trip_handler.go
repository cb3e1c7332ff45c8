// README: Trip recommendation handler.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"tripgenie/internal/http/middleware"
	"tripgenie/internal/modules/quota"
	"tripgenie/internal/service"
)

const maxQueryLength = 2000

// TripService is the pipeline entry point the handler needs.
type TripService interface {
	Process(ctx context.Context, query string, opts service.Options) (*service.TripRecommendation, error)
}

// QuotaService meters trips per authenticated caller.
type QuotaService interface {
	Consume(ctx context.Context, uid string) error
	Remaining(ctx context.Context, uid string) (int, error)
	Allowance() int
}

type TripHandler struct {
	trips   TripService
	quota   QuotaService
	timeout time.Duration
}

func NewTripHandler(trips TripService, timeout time.Duration) *TripHandler {
	return &TripHandler{trips: trips, timeout: timeout}
}

// WithQuota charges one trip per request to the authenticated caller.
func (h *TripHandler) WithQuota(q QuotaService) *TripHandler {
	h.quota = q
	return h
}

type tripReq struct {
	Query string `json:"query"`
	// IncludeFlights defaults to true when omitted.
	IncludeFlights *bool  `json:"include_flights"`
	Evaluate       bool   `json:"evaluate"`
	Origin         string `json:"origin"`
	UserLocation   string `json:"user_location"`
}

// Create handles POST /api/trips.
func (h *TripHandler) Create(c *gin.Context) {
	var req tripReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		writeError(c, http.StatusBadRequest, "missing query")
		return
	}
	if len(req.Query) > maxQueryLength {
		writeError(c, http.StatusBadRequest, "query too long")
		return
	}
	format := c.DefaultQuery("format", "json")
	if format != "json" && format != "markdown" {
		writeError(c, http.StatusBadRequest, "format must be json or markdown")
		return
	}

	if !h.consumeQuota(c) {
		return
	}

	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	includeFlights := req.IncludeFlights == nil || *req.IncludeFlights
	rec, err := h.trips.Process(ctx, req.Query, service.Options{
		IncludeFlights: includeFlights,
		Evaluate:       req.Evaluate,
		Origin:         strings.TrimSpace(req.Origin),
		UserLocation:   strings.TrimSpace(req.UserLocation),
		RequestID:      middleware.GetRequestID(c),
	})
	if err != nil {
		writeTripError(c, err)
		return
	}

	if format == "markdown" {
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(service.RenderMarkdown(rec)))
		return
	}
	writeJSON(c, http.StatusOK, rec)
}

// consumeQuota reports whether the request may proceed. Anonymous callers are not metered.
func (h *TripHandler) consumeQuota(c *gin.Context) bool {
	uid := middleware.CallerUID(c)
	if h.quota == nil || uid == "" {
		return true
	}
	err := h.quota.Consume(c.Request.Context(), uid)
	switch {
	case err == nil:
		return true
	case errors.Is(err, quota.ErrExhausted):
		writeError(c, http.StatusTooManyRequests, err.Error())
	default:
		writeError(c, http.StatusServiceUnavailable, "quota check unavailable")
	}
	return false
}

// Quota handles GET /api/trips/quota.
func (h *TripHandler) Quota(c *gin.Context) {
	uid := middleware.CallerUID(c)
	if h.quota == nil || uid == "" {
		writeError(c, http.StatusNotFound, "quota not enabled")
		return
	}
	left, err := h.quota.Remaining(c.Request.Context(), uid)
	if err != nil {
		writeError(c, http.StatusServiceUnavailable, "quota check unavailable")
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"uid": uid, "remaining": left, "allowance": h.quota.Allowance()})
}
