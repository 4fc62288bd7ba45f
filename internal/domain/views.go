package domain

// Room is a provider conversation mapped into the shape the inbox UI reads.
// It mirrors Chat but is built from the provider API, never persisted.
type Room struct {
	ID            string  `json:"id"`
	ContactName   string  `json:"contact_name"`
	ContactPhone  string  `json:"contact_phone"`
	Channel       string  `json:"channel"`
	RawChannel    string  `json:"raw_channel"`
	Status        string  `json:"status"`
	Unread        int     `json:"unread"`
	LastMessage   string  `json:"last_message"`
	LastTimestamp string  `json:"last_timestamp"`
	AssignedPIC   *string `json:"assigned_pic"`
}

// RoomMessage is a provider history entry, oldest-first within a page.
type RoomMessage struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
	Sender    string `json:"sender"`
	IsAgent   bool   `json:"is_agent"`
	Status    string `json:"status"`
}
