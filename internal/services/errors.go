// Package services holds the business logic of the integration: webhook
// ingest, the provider proxy, credential lookup and the local inbox.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed
// at the handler layer.
package services

import "errors"

// Configuration errors. They are fatal to the single operation and never
// retried.
var (
	// ErrTokenMissing is returned when no bearer token is stored or
	// configured for the provider's legacy API.
	ErrTokenMissing = errors.New("qontak access token is not configured")

	// ErrRefreshTokenMissing is returned by a refresh when no refresh token
	// is stored.
	ErrRefreshTokenMissing = errors.New("qontak refresh token is not configured")

	// ErrChannelIntegrationMissing is returned when starting a conversation
	// without a WhatsApp channel integration id.
	ErrChannelIntegrationMissing = errors.New("qontak channel integration id is not configured")
)

// Lookup and validation errors.
var (
	// ErrChatNotFound indicates that the requested chat does not exist.
	ErrChatNotFound = errors.New("chat not found")

	// ErrChatNotLinked indicates that the chat exists but has no provider
	// room yet, so nothing can be sent to it.
	ErrChatNotLinked = errors.New("chat not linked to a Qontak room")

	// ErrTargetRequired is returned by Send when neither a chat id nor a
	// room id was given.
	ErrTargetRequired = errors.New("chatId or roomId is required")

	// ErrRoomIDRequired is returned by History without a room id.
	ErrRoomIDRequired = errors.New("roomId is required")

	// ErrEmptyText is returned when an outbound message has no text.
	ErrEmptyText = errors.New("text is required")

	// ErrPhoneRequired is returned when a phone number has no digits.
	ErrPhoneRequired = errors.New("phoneNumber is required")

	// ErrTemplateRequired is returned when starting a conversation without
	// a template id.
	ErrTemplateRequired = errors.New("templateId is required")

	// ErrInvalidStatus is returned for a status outside the lead status set.
	ErrInvalidStatus = errors.New("invalid lead status")
)
