package qontak

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/remindhub/remindhub-api/internal/utils"
)

// Operation names, used for spans, metrics and APIError.Op.
const (
	OpListRooms       = "list_rooms"
	OpListRoomsLegacy = "list_rooms_legacy"
	OpRoomHistory     = "room_history"
	OpSendMessage     = "send_message"
	OpSendTemplate    = "send_template"
	OpIntegrations    = "integrations"
	OpRefreshToken    = "refresh_token"
)

func pageQuery(limit, offset int) string {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	return q.Encode()
}

// ListRooms fetches a page of rooms from the Mekari gateway.
func (c *Client) ListRooms(ctx context.Context, limit, offset int) ([]byte, error) {
	return c.do(ctx, OpListRooms, c.mekari, http.MethodGet,
		"/qontak/chat/v1/rooms?"+pageQuery(limit, offset), nil, c.signed())
}

// ListRoomsLegacy fetches the same page from the legacy Qontak host.
func (c *Client) ListRoomsLegacy(ctx context.Context, limit, offset int) ([]byte, error) {
	return c.do(ctx, OpListRoomsLegacy, c.legacy, http.MethodGet,
		"/api/open/v1/rooms?"+pageQuery(limit, offset), nil, c.signed())
}

// RoomHistory fetches the newest limit messages of a room (newest first).
func (c *Client) RoomHistory(ctx context.Context, roomID string, limit int) ([]byte, error) {
	path := fmt.Sprintf("/qontak/chat/v1/rooms/%s/histories?limit=%d", url.PathEscape(roomID), limit)
	return c.do(ctx, OpRoomHistory, c.mekari, http.MethodGet, path, nil, c.signed())
}

type sendTextBody struct {
	RoomID string `json:"room_id"`
	Type   string `json:"type"`
	Text   string `json:"text"`
}

// SendText posts a plain text message into an existing room.
func (c *Client) SendText(ctx context.Context, roomID, text string) ([]byte, error) {
	return c.do(ctx, OpSendMessage, c.mekari, http.MethodPost,
		"/qontak/chat/v1/messages/whatsapp",
		sendTextBody{RoomID: roomID, Type: "text", Text: text}, c.signed())
}

// TemplateParam is one positional template variable.
type TemplateParam struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	ValueText string `json:"value_text"`
}

// DirectTemplate is a WhatsApp template message sent to a number that may
// not have a room yet.
type DirectTemplate struct {
	ToName               string
	ToNumber             string
	TemplateID           string
	ChannelIntegrationID string
	Language             string
	Params               []TemplateParam
}

type directTemplateBody struct {
	ToName               string `json:"to_name"`
	ToNumber             string `json:"to_number"`
	MessageTemplateID    string `json:"message_template_id"`
	ChannelIntegrationID string `json:"channel_integration_id"`
	Language             struct {
		Code string `json:"code"`
	} `json:"language"`
	Parameters struct {
		Body []TemplateParam `json:"body"`
	} `json:"parameters"`
}

// SendTemplate starts a conversation with a template broadcast. The phone
// number is sent in international form.
func (c *Client) SendTemplate(ctx context.Context, token string, t DirectTemplate) ([]byte, error) {
	var body directTemplateBody
	body.ToName = t.ToName
	body.ToNumber = utils.InternationalizeID(t.ToNumber)
	body.MessageTemplateID = t.TemplateID
	body.ChannelIntegrationID = t.ChannelIntegrationID
	body.Language.Code = t.Language
	if body.Language.Code == "" {
		body.Language.Code = "id"
	}
	body.Parameters.Body = t.Params
	if body.Parameters.Body == nil {
		body.Parameters.Body = []TemplateParam{}
	}
	return c.do(ctx, OpSendTemplate, c.legacy, http.MethodPost,
		"/api/open/v1/broadcasts/whatsapp/direct", body, bearer(token))
}

// Integrations lists WhatsApp channel integrations visible to token. It is
// the cheapest authenticated call and doubles as a token check.
func (c *Client) Integrations(ctx context.Context, token string) ([]byte, error) {
	return c.do(ctx, OpIntegrations, c.legacy, http.MethodGet,
		"/api/open/v1/integrations?target_channel=wa&limit=1", nil, bearer(token))
}

// TokenPair is the result of a refresh_token grant.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

// RefreshToken exchanges a refresh token for a new access token.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (TokenPair, error) {
	body := map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
	}
	data, err := c.do(ctx, OpRefreshToken, c.legacy, http.MethodPost, "/oauth/token", body,
		func(req *http.Request, _ string) error {
			req.Header.Set("Content-Type", "application/json")
			return nil
		})
	if err != nil {
		return TokenPair{}, err
	}
	tp := TokenPair{
		AccessToken:  utils.FirstStr(data, []string{"access_token"}, []string{"data", "access_token"}),
		RefreshToken: utils.FirstStr(data, []string{"refresh_token"}, []string{"data", "refresh_token"}),
	}
	tp.ExpiresIn, _ = strconv.Atoi(utils.FirstStr(data, []string{"expires_in"}, []string{"data", "expires_in"}))
	if tp.AccessToken == "" {
		return TokenPair{}, &APIError{Op: OpRefreshToken, Host: hostOf(c.legacy), StatusCode: http.StatusBadGateway, Body: excerpt(data)}
	}
	return tp, nil
}
