// Package handlers defines the HTTP error codes returned by the proxy and
// inbox endpoints.
//
// Codes are lowercase snake_case and stable; the inbox UI branches on them
// (e.g. "chat_not_linked" offers a "link to Qontak" action while
// "not_found" does not).
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "upstream_error",
//	  "message": "qontak list_rooms: service-chat.qontak.com returned 401: ...",
//	  "upstream_status": 401,
//	  "upstream_body": "{\"error\":\"unauthorized\"}"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeChatNotLinked = "chat_not_linked"
	ErrCodeConfig        = "config_error"
	ErrCodeUpstream      = "upstream_error"
	ErrCodeListFailed    = "list_failed"
	ErrCodeUpdateFailed  = "update_failed"
)
