// Inbox HTTP handlers.
//
// This file exposes the locally stored chats:
//   - GET /chats                   (list, paginated, filterable, ETag support)
//   - GET /chats/{id}/messages     (oldest first, ETag support)
//   - PUT /chats/{id}/status       (lead status)
//   - PUT /chats/{id}/pic          (assign or clear the owner)
//
// It also declares the service contracts and the Handlers type shared by
// every handler file in this package.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/remindhub/remindhub-api/internal/domain"
	"github.com/remindhub/remindhub-api/internal/qontak"
	"github.com/remindhub/remindhub-api/internal/repo"
	"github.com/remindhub/remindhub-api/internal/services"
	"github.com/remindhub/remindhub-api/internal/utils"
)

//
// Service contracts (context-aware)
//

// InboxService serves local chats and agent actions on them.
type InboxService interface {
	ListPage(ctx context.Context, f repo.ChatFilter, page, pageSize int) ([]domain.Chat, int64, error)
	Messages(ctx context.Context, chatID string, page, pageSize int) ([]domain.Message, int64, error)
	SetStatus(ctx context.Context, chatID, status string) (*domain.Chat, error)
	AssignPIC(ctx context.Context, chatID, pic string) (*domain.Chat, error)
}

// ProxyService performs provider operations on behalf of the inbox UI.
type ProxyService interface {
	ListRooms(ctx context.Context, page, limit int) (services.RoomsPage, error)
	History(ctx context.Context, roomID string, limit int) (services.HistoryPage, error)
	Send(ctx context.Context, in services.SendInput) (services.SendResult, error)
	StartConversation(ctx context.Context, in services.StartInput) (json.RawMessage, error)
	ValidateToken(ctx context.Context, token string) (services.TokenVerdict, error)
}

// CredentialService stores and refreshes provider credentials.
type CredentialService interface {
	Update(ctx context.Context, c services.Credentials) error
	Refresh(ctx context.Context) (qontak.TokenPair, error)
}

// IngestService processes webhook deliveries.
type IngestService interface {
	HandleDelivery(ctx context.Context, body []byte) (services.DeliveryResult, error)
}

//
// Handler wiring
//

// Deps bundles the services the handlers depend on.
type Deps struct {
	Inbox       InboxService
	Proxy       ProxyService
	Credentials CredentialService
	Ingest      IngestService
	// Feed serves GET /ws; nil disables it.
	Feed Feed

	// WebhookMaxBody caps POST /webhook bodies; <= 0 means 2 MiB.
	WebhookMaxBody int64
}

// Handlers groups the HTTP endpoints of the API.
type Handlers struct {
	inbox   InboxService
	proxy   ProxyService
	creds   CredentialService
	ingest  IngestService
	feed    Feed
	maxBody int64
}

// New constructs Handlers bound to d.
func New(d Deps) *Handlers {
	maxBody := d.WebhookMaxBody
	if maxBody <= 0 {
		maxBody = 2 << 20
	}
	return &Handlers{
		inbox:   d.Inbox,
		proxy:   d.Proxy,
		creds:   d.Credentials,
		ingest:  d.Ingest,
		feed:    d.Feed,
		maxBody: maxBody,
	}
}

//
// DTOs
//

// UpdateStatusRequest is the JSON payload for changing a chat's lead status.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required" example:"qualified"`
}

// AssignPICRequest is the JSON payload for assigning a chat owner. An empty
// value clears the assignment.
type AssignPICRequest struct {
	AssignedPIC string `json:"assigned_pic" example:"Dewi"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// ListChatsResponse wraps a page of chats and pagination information.
type ListChatsResponse struct {
	Chats      []domain.Chat `json:"chats"`
	Pagination Pagination    `json:"pagination"`
}

// ListMessagesResponse wraps a page of chat messages.
type ListMessagesResponse struct {
	Messages   []domain.Message `json:"messages"`
	Pagination Pagination       `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page, pageSize, _ = utils.PageOffset(
		utils.QueryInt(c.Query("page"), 1),
		utils.QueryInt(c.Query("page_size"), defaultPageSize),
		defaultPageSize, maxPageSize,
	)
	return
}

// inboxDB returns the database behind the concrete InboxService, if any.
// Used only for ETag pre-checks.
func (h *Handlers) inboxDB() *gorm.DB {
	if svc, ok := h.inbox.(*services.InboxService); ok {
		return svc.DB
	}
	return nil
}

// notModified sets a weak ETag and reports whether If-None-Match matched.
func notModified(c *gin.Context, etag string) bool {
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}

func chatIDParam(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "chat id must be a UUID")
		return "", false
	}
	return id, true
}

//
// Handlers
//

// ListChats godoc
// @ID          listChats
// @Summary     List chats (paginated)
// @Description Returns locally stored chats, most recently active first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Chats
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"chats:::3:1717171717\")
// @Param       status         query   string  false "Lead status filter"          example(new)
// @Param       channel        query   string  false "Channel filter"              example(whatsapp)
// @Param       page           query   int     false "Page number"                 minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"              minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListChatsResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /chats [get]
func (h *Handlers) ListChats(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	f := repo.ChatFilter{
		Status:  strings.ToLower(strings.TrimSpace(c.Query("status"))),
		Channel: strings.TrimSpace(c.Query("channel")),
	}
	if f.Status != "" && !domain.IsLeadStatus(f.Status) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, services.ErrInvalidStatus.Error())
		return
	}
	if f.Channel != "" {
		f.Channel = domain.NormalizeChannel(f.Channel)
	}

	if db := h.inboxDB(); db != nil {
		if count, maxTS, err := repo.ChatsStats(ctx, db, f); err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"chats:%s:%s:%d:%d:%d:%d"`, f.Status, f.Channel, page, pageSize, count, ts)
			if notModified(c, etag) {
				return
			}
		}
	}

	items, total, err := h.inbox.ListPage(ctx, f, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListChatsResponse{Chats: items, Pagination: newPagination(page, pageSize, total)})
}

// ListChatMessages godoc
// @ID          listChatMessages
// @Summary     List messages of a chat
// @Description Returns a page of a chat's stored messages, oldest first. Supports weak ETag.
// @Tags        Chats
// @Produce     json
//
// @Param       id         path    string  true  "Chat ID (UUID)"  format(uuid)
// @Param       page       query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size  query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListMessagesResponse
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Chat not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /chats/{id}/messages [get]
func (h *Handlers) ListChatMessages(c *gin.Context) {
	ctx := c.Request.Context()
	chatID, valid := chatIDParam(c)
	if !valid {
		return
	}
	page, pageSize := clampPagination(c)

	if db := h.inboxDB(); db != nil {
		if count, maxTS, err := repo.MessagesStats(ctx, db, chatID); err == nil && count > 0 {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"messages:%s:%d:%d:%d:%d"`, chatID, page, pageSize, count, ts)
			if notModified(c, etag) {
				return
			}
		}
	}

	items, total, err := h.inbox.Messages(ctx, chatID, page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListMessagesResponse{Messages: items, Pagination: newPagination(page, pageSize, total)})
}

// UpdateChatStatus godoc
// @ID          updateChatStatus
// @Summary     Change a chat's lead status
// @Tags        Chats
// @Accept      json
// @Produce     json
//
// @Param       id    path  string                          true  "Chat ID (UUID)"  format(uuid)
// @Param       body  body  handlers.UpdateStatusRequest    true  "New status"
//
// @Success     200  {object} domain.Chat
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Chat not found"
// @Router      /chats/{id}/status [put]
func (h *Handlers) UpdateChatStatus(c *gin.Context) {
	chatID, valid := chatIDParam(c)
	if !valid {
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status required")
		return
	}
	chat, err := h.inbox.SetStatus(c.Request.Context(), chatID, req.Status)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, chat)
}

// AssignChatPIC godoc
// @ID          assignChatPIC
// @Summary     Assign or clear a chat's PIC
// @Tags        Chats
// @Accept      json
// @Produce     json
//
// @Param       id    path  string                     true  "Chat ID (UUID)"  format(uuid)
// @Param       body  body  handlers.AssignPICRequest  true  "PIC (empty clears)"
//
// @Success     200  {object} domain.Chat
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Chat not found"
// @Router      /chats/{id}/pic [put]
func (h *Handlers) AssignChatPIC(c *gin.Context) {
	chatID, valid := chatIDParam(c)
	if !valid {
		return
	}
	var req AssignPICRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	chat, err := h.inbox.AssignPIC(c.Request.Context(), chatID, req.AssignedPIC)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, chat)
}
