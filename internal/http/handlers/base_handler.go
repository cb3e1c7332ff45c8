// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tripgenie/internal/ai"
	"tripgenie/internal/http/middleware"
	"tripgenie/internal/modules/intent"
	"tripgenie/internal/service"
)

type errorResponse struct {
	Error     string `json:"error"`
	Stage     string `json:"stage,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg, RequestID: middleware.GetRequestID(c)})
}

// writeTripError maps a pipeline failure to a status code. Provider detail never
// reaches the response body.
func writeTripError(c *gin.Context, err error) {
	var oe *service.OrchestrationError
	if !errors.As(err, &oe) {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(c, tripErrorStatus(oe), errorResponse{
		Error:     oe.Message(),
		Stage:     oe.Stage,
		Reason:    oe.Reason(),
		RequestID: middleware.GetRequestID(c),
	})
}

func tripErrorStatus(oe *service.OrchestrationError) int {
	reason := oe.Reason()
	switch {
	case reason == ai.ReasonTimeout:
		return http.StatusGatewayTimeout
	case reason == ai.ReasonCanceled:
		return http.StatusRequestTimeout
	case oe.Stage == intent.Stage && reason != ai.ReasonUnavailable && reason != ai.ReasonUnknown:
		return http.StatusBadRequest
	case oe.Stage == service.StagePipeline:
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

// Health handles GET /health.
func Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}
