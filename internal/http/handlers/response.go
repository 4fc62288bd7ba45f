// Package handlers provides the HTTP handlers of the RemindHub API.
//
// This file holds the response helpers shared by every endpoint. Errors use
// one envelope, ErrorResponse; provider failures additionally carry the
// upstream status and body excerpt so agents can see what Qontak said.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/remindhub/remindhub-api/internal/http/middleware"
	"github.com/remindhub/remindhub-api/internal/qontak"
	"github.com/remindhub/remindhub-api/internal/services"
)

// ErrorResponse is the standard error envelope returned by all endpoints
// except the public webhook.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"chat not found"`
	// Provider HTTP status, set for upstream_error only
	UpstreamStatus int `json:"upstream_status,omitempty" example:"401"`
	// Provider response excerpt (at most 2 KiB), set for upstream_error only
	UpstreamBody string `json:"upstream_body,omitempty"`
}

// fail aborts with an ErrorResponse. 5xx answers are logged with the
// request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	abort(c, status, ErrorResponse{Code: code, Message: msg})
}

func abort(c *gin.Context, status int, resp ErrorResponse) {
	resp.RequestID = c.Writer.Header().Get("X-Request-ID")
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", resp.Code).
			Str("message", resp.Message).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail(), used by the router fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failErr maps a service or provider error onto the HTTP taxonomy:
// validation 400, missing chat 404, missing credentials 400, missing signer
// 500, provider non-2xx with the provider's status, transport failures 502.
func failErr(c *gin.Context, err error) {
	if ae, ok := qontak.AsAPIError(err); ok {
		status := ae.StatusCode
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		abort(c, status, ErrorResponse{
			Code:           ErrCodeUpstream,
			Message:        ae.Error(),
			UpstreamStatus: ae.StatusCode,
			UpstreamBody:   ae.Body,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrChatNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrChatNotLinked):
		fail(c, http.StatusBadRequest, ErrCodeChatNotLinked, err.Error())
	case errors.Is(err, services.ErrTargetRequired),
		errors.Is(err, services.ErrRoomIDRequired),
		errors.Is(err, services.ErrEmptyText),
		errors.Is(err, services.ErrPhoneRequired),
		errors.Is(err, services.ErrTemplateRequired),
		errors.Is(err, services.ErrInvalidStatus):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrTokenMissing),
		errors.Is(err, services.ErrRefreshTokenMissing),
		errors.Is(err, services.ErrChannelIntegrationMissing):
		fail(c, http.StatusBadRequest, ErrCodeConfig, err.Error())
	case errors.Is(err, qontak.ErrSignerNotConfigured):
		fail(c, http.StatusInternalServerError, ErrCodeConfig, err.Error())
	case errors.Is(err, qontak.ErrTransport):
		fail(c, http.StatusBadGateway, ErrCodeUpstream, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes an HTTP 204 No Content response.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
