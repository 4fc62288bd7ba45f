// Public webhook and live feed handlers.
//
//   - GET  /webhook   (echo verification / liveness)
//   - POST /webhook   (provider deliveries)
//   - GET  /ws        (websocket feed of chat activity)
//
// The webhook deliberately does not use the ErrorResponse envelope: the
// provider only looks at the status code, and it retries anything non-2xx.
// Unknown payloads are therefore answered 200 with processed=0.
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/remindhub/remindhub-api/internal/http/middleware"
	"github.com/remindhub/remindhub-api/internal/utils"
)

// WebhookStatus is the GET /webhook liveness answer and the verification
// handshake answer.
type WebhookStatus struct {
	Status   string `json:"status" example:"ok"`
	Message  string `json:"message,omitempty" example:"Webhook is active"`
	Verified bool   `json:"verified,omitempty" example:"true"`
}

// WebhookResult reports how many normalized events a delivery produced.
// Processed counts attempts, not stored rows.
type WebhookResult struct {
	Success   bool `json:"success" example:"true"`
	Processed int  `json:"processed" example:"1"`
}

// WebhookError is the only failure body the webhook emits.
type WebhookError struct {
	Error string `json:"error" example:"Internal server error"`
}

// Feed serves a websocket connection.
type Feed interface {
	Serve(w http.ResponseWriter, r *http.Request, l zerolog.Logger)
}

// VerifyWebhook godoc
// @ID          verifyWebhook
// @Summary     Webhook verification / liveness
// @Description Echoes hub.challenge verbatim as text/plain when present, otherwise reports that the webhook is active.
// @Tags        Webhook
// @Produce     plain,json
//
// @Param       hub.challenge  query  string  false  "Challenge to echo"
//
// @Success     200  {object} handlers.WebhookStatus
// @Router      /webhook [get]
func (h *Handlers) VerifyWebhook(c *gin.Context) {
	if challenge, present := c.GetQuery("hub.challenge"); present {
		c.String(http.StatusOK, "%s", challenge)
		return
	}
	ok(c, http.StatusOK, WebhookStatus{Status: "ok", Message: "Webhook is active"})
}

// ReceiveWebhook godoc
// @ID          receiveWebhook
// @Summary     Receive a provider webhook delivery
// @Description Accepts any JSON. Recognized payloads are normalized and applied to chats; unrecognized ones are acknowledged with processed=0. Per-event failures do not fail the delivery.
// @Tags        Webhook
// @Accept      json
// @Produce     json
//
// @Param       body  body  object  true  "Provider payload"
//
// @Success     200  {object} handlers.WebhookResult
// @Failure     413  {object} handlers.WebhookError "Body too large"
// @Failure     500  {object} handlers.WebhookError "Internal server error"
// @Router      /webhook [post]
func (h *Handlers) ReceiveWebhook(c *gin.Context) {
	lg := middleware.LoggerFrom(c)

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			lg.Warn().Int64("limit", tooBig.Limit).Msg("webhook body too large")
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, WebhookError{Error: "Payload too large"})
			return
		}
		lg.Error().Err(err).Msg("webhook body read failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, WebhookError{Error: "Internal server error"})
		return
	}

	if utils.Defined(body, "verify_info") {
		ok(c, http.StatusOK, WebhookStatus{Status: "ok", Verified: true})
		return
	}

	res, err := h.ingest.HandleDelivery(c.Request.Context(), body)
	if err != nil {
		lg.Error().Err(err).Str("shape", res.Shape).Msg("webhook delivery failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, WebhookError{Error: "Internal server error"})
		return
	}
	lg.Debug().Str("shape", res.Shape).Int("processed", res.Processed).Msg("webhook delivery")
	ok(c, http.StatusOK, WebhookResult{Success: true, Processed: res.Processed})
}

// LiveFeed godoc
// @ID          liveFeed
// @Summary     Live chat activity feed
// @Description Upgrades to a websocket that receives chat.message.v1 and chat.resolved.v1 envelopes.
// @Tags        Ops
// @Success     101  {string} string "Switching Protocols"
// @Failure     404  {object} handlers.ErrorResponse "Feed disabled"
// @Router      /ws [get]
func (h *Handlers) LiveFeed(c *gin.Context) {
	if h.feed == nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "live feed disabled")
		return
	}
	h.feed.Serve(c.Writer, c.Request, *middleware.LoggerFrom(c))
}
