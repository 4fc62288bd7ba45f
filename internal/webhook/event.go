// Package webhook turns inbound provider webhook bodies into canonical
// events. Classification is structural: each known payload shape is a rule
// tested in a fixed order and the first match produces the events. Bodies
// that match nothing yield no events and no error, because the provider
// retries on any non-2xx answer.
package webhook

// Event types carried in Event.EventType. An empty EventType is a regular
// message.
const (
	EventMessage       = "message"
	EventRoomResolved  = "room_resolved"
	EventMessageStatus = "message_status"
)

// Sender values produced by the normalizer. Ingest collapses anything that
// is not "agent" to "customer".
const (
	SenderAgent    = "agent"
	SenderCustomer = "customer"
	SenderSystem   = "system"
)

// Event is one canonical inbound event. It is transient and never stored
// as-is.
type Event struct {
	Phone     string `json:"phone"`
	Name      string `json:"name,omitempty"`
	Message   string `json:"message"`
	Sender    string `json:"sender"`
	Timestamp string `json:"timestamp,omitempty"` // ISO8601
	MediaURL  string `json:"mediaUrl,omitempty"`
	MediaType string `json:"mediaType,omitempty"`
	RoomID    string `json:"roomId,omitempty"`
	Channel   string `json:"channel,omitempty"`
	EventType string `json:"eventType,omitempty"`
	Status    string `json:"status,omitempty"`
	MessageID string `json:"messageId,omitempty"`
}

// IsSystem reports whether the event is routed by type rather than stored
// as a chat message.
func (e Event) IsSystem() bool {
	return e.EventType == EventRoomResolved || e.EventType == EventMessageStatus
}
