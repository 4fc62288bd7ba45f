// Qontak proxy handlers: rooms, conversations and credentials.
//
//   - POST /qontak/rooms             (list rooms, primary host with legacy fallback)
//   - POST /qontak/conversations     (start a conversation with a template)
//   - POST /qontak/token/validate    (check a bearer token)
//   - POST /qontak/token/refresh     (exchange the stored refresh token)
//   - PUT  /qontak/credentials       (store token / refresh token / channel integration)
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/remindhub/remindhub-api/internal/qontak"
	"github.com/remindhub/remindhub-api/internal/services"
)

//
// DTOs
//

// ListRoomsRequest pages through provider rooms. Zero values mean page 1,
// limit 20.
type ListRoomsRequest struct {
	Page  int `json:"page" example:"1"`
	Limit int `json:"limit" example:"20"`
}

// StartConversationRequest sends a WhatsApp template to a phone number.
type StartConversationRequest struct {
	PhoneNumber    string                 `json:"phoneNumber" example:"081234567890"`
	Name           string                 `json:"name" example:"Budi"`
	TemplateID     string                 `json:"templateId" example:"b0f2d7c4-1c2e-4f1a-a1b2-c3d4e5f6a7b8"`
	TemplateParams []qontak.TemplateParam `json:"templateParams"`
	Language       string                 `json:"language" example:"id"`
}

// StartConversationResponse is the provider answer of a template send.
type StartConversationResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data" swaggertype:"object"`
	Message string          `json:"message" example:"Conversation started"`
}

// ValidateTokenRequest carries the token to check; empty means the stored one.
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// RefreshTokenResponse reports a successful refresh. Tokens are not echoed.
type RefreshTokenResponse struct {
	Success   bool `json:"success"`
	ExpiresIn int  `json:"expires_in" example:"31536000"`
}

// UpdateCredentialsRequest stores provider credentials. Omitted fields are
// left unchanged.
type UpdateCredentialsRequest struct {
	Token                *string `json:"token"`
	RefreshToken         *string `json:"refreshToken"`
	ChannelIntegrationID *string `json:"channelIntegrationId"`
}

// ListRooms godoc
// @ID          listRooms
// @Summary     List Qontak rooms
// @Description Reads rooms from the Mekari host and falls back to the legacy Qontak host on any failure. When both fail the legacy error is returned.
// @Tags        Qontak
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.ListRoomsRequest  false  "Paging"
//
// @Success     200  {object} services.RoomsPage
// @Failure     500  {object} handlers.ErrorResponse "Signer not configured"
// @Failure     502  {object} handlers.ErrorResponse "Provider failure"
// @Router      /qontak/rooms [post]
func (h *Handlers) ListRooms(c *gin.Context) {
	var req ListRoomsRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}
	page, err := h.proxy.ListRooms(c.Request.Context(), req.Page, req.Limit)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, page)
}

// StartConversation godoc
// @ID          startConversation
// @Summary     Start a WhatsApp conversation with a template
// @Description Local numbers starting with 0 are rewritten to 62. No local chat is created; it appears when the provider reports the room.
// @Tags        Qontak
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.StartConversationRequest  true  "Recipient and template"
//
// @Success     200  {object} handlers.StartConversationResponse
// @Failure     400  {object} handlers.ErrorResponse "Validation or configuration error"
// @Failure     502  {object} handlers.ErrorResponse "Provider failure"
// @Router      /qontak/conversations [post]
func (h *Handlers) StartConversation(c *gin.Context) {
	var req StartConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	data, err := h.proxy.StartConversation(c.Request.Context(), services.StartInput{
		PhoneNumber:    req.PhoneNumber,
		Name:           req.Name,
		TemplateID:     req.TemplateID,
		TemplateParams: req.TemplateParams,
		Language:       req.Language,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, StartConversationResponse{Success: true, Data: data, Message: "Conversation started"})
}

// ValidateToken godoc
// @ID          validateToken
// @Summary     Validate a Qontak bearer token
// @Description Always answers 200 with a verdict; provider rejections and transport failures are reported in the body.
// @Tags        Qontak
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.ValidateTokenRequest  false  "Token (empty uses the stored one)"
//
// @Success     200  {object} services.TokenVerdict
// @Failure     400  {object} handlers.ErrorResponse "No token stored"
// @Router      /qontak/token/validate [post]
func (h *Handlers) ValidateToken(c *gin.Context) {
	var req ValidateTokenRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}
	v, err := h.proxy.ValidateToken(c.Request.Context(), req.Token)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, v)
}

// RefreshToken godoc
// @ID          refreshToken
// @Summary     Refresh the stored Qontak access token
// @Tags        Qontak
// @Produce     json
//
// @Success     200  {object} handlers.RefreshTokenResponse
// @Failure     400  {object} handlers.ErrorResponse "No refresh token stored"
// @Failure     502  {object} handlers.ErrorResponse "Provider failure"
// @Router      /qontak/token/refresh [post]
func (h *Handlers) RefreshToken(c *gin.Context) {
	tp, err := h.creds.Refresh(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, RefreshTokenResponse{Success: true, ExpiresIn: tp.ExpiresIn})
}

// UpdateCredentials godoc
// @ID          updateCredentials
// @Summary     Store Qontak credentials
// @Tags        Qontak
// @Accept      json
//
// @Param       body  body  handlers.UpdateCredentialsRequest  true  "Credentials (omitted fields unchanged)"
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /qontak/credentials [put]
func (h *Handlers) UpdateCredentials(c *gin.Context) {
	var req UpdateCredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if req.Token == nil && req.RefreshToken == nil && req.ChannelIntegrationID == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "nothing to update")
		return
	}
	err := h.creds.Update(c.Request.Context(), services.Credentials{
		AccessToken:          req.Token,
		RefreshToken:         req.RefreshToken,
		ChannelIntegrationID: req.ChannelIntegrationID,
	})
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, err.Error())
		return
	}
	noContent(c)
}
