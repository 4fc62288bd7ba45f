// Provider messaging handlers.
//
//   - POST /qontak/rooms/history   (room history, oldest first)
//   - POST /qontak/messages        (send a text into a room)
//
// Idempotency:
// When the client sends an Idempotency-Key and a result for the same target
// and key is still stored, the recorded provider answer is returned with
// `Idempotency-Replayed: true` and nothing is sent twice.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/remindhub/remindhub-api/internal/domain"
	"github.com/remindhub/remindhub-api/internal/http/middleware"
	"github.com/remindhub/remindhub-api/internal/services"
)

//
// DTOs
//

// RoomHistoryRequest selects a room's history.
type RoomHistoryRequest struct {
	RoomID string `json:"roomId" example:"5f1c0e0e-6b59-4a8e-9c53-3d1a4b0e4b11"`
	Limit  int    `json:"limit" example:"50"`
}

// SendMessageRequest posts text to a chat (resolved to its room) or directly
// to a room. ChatID wins when both are set.
type SendMessageRequest struct {
	ChatID string `json:"chatId" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
	RoomID string `json:"roomId" example:"5f1c0e0e-6b59-4a8e-9c53-3d1a4b0e4b11"`
	Text   string `json:"text" example:"Halo kak, pesanan sudah kami kirim ya"`
}

// SendMessageResponse is the provider answer plus the mirrored local message.
type SendMessageResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data" swaggertype:"object"`
	Message *domain.Message `json:"message,omitempty"`
}

// RoomHistory godoc
// @ID          roomHistory
// @Summary     Fetch a room's message history from Qontak
// @Description Returns up to limit messages (default 50, at most 100), oldest first, with agent/customer attribution.
// @Tags        Qontak
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.RoomHistoryRequest  true  "Room and limit"
//
// @Success     200  {object} services.HistoryPage
// @Failure     400  {object} handlers.ErrorResponse "roomId required"
// @Failure     502  {object} handlers.ErrorResponse "Provider failure"
// @Router      /qontak/rooms/history [post]
func (h *Handlers) RoomHistory(c *gin.Context) {
	var req RoomHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	page, err := h.proxy.History(c.Request.Context(), req.RoomID, req.Limit)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, page)
}

// SendMessage godoc
// @ID          sendMessage
// @Summary     Send a text message through Qontak
// @Description With chatId the chat's room is used and the text is mirrored locally as an agent message (unread reset). With roomId only the provider is called.
// @Tags        Qontak
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false "Replay-safe retries"  example(send-7f3a)
// @Param       body             body    handlers.SendMessageRequest  true  "Target and text"
//
// @Success     200  {object} handlers.SendMessageResponse
// @Header      200  {string} Idempotency-Replayed "true when served from a stored result"
// @Failure     400  {object} handlers.ErrorResponse "Validation error or chat not linked"
// @Failure     404  {object} handlers.ErrorResponse "Chat not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /qontak/messages [post]
func (h *Handlers) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	key, _ := middleware.GetIdempotencyKey(c)

	res, err := h.proxy.Send(c.Request.Context(), services.SendInput{
		ChatID:         req.ChatID,
		RoomID:         req.RoomID,
		Text:           req.Text,
		IdempotencyKey: key,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	if res.Replayed {
		c.Header(middleware.HeaderReplayed, "true")
	}
	ok(c, http.StatusOK, SendMessageResponse{Success: true, Data: res.Data, Message: res.Message})
}
