package webhook

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/buger/jsonparser"
	"github.com/rs/zerolog/log"

	"github.com/remindhub/remindhub-api/internal/domain"
	"github.com/remindhub/remindhub-api/internal/utils"
)

// Shape names reported by Classify.
const (
	ShapeMessageInteraction = "message_interaction"
	ShapeBroadcastStatus    = "broadcast_status"
	ShapeDirect             = "direct"
	ShapeArray              = "array"
	ShapeWABA               = "waba"
	ShapeEvents             = "events"
	ShapeRoomResolved       = "room_resolved"
	ShapeStatuses           = "statuses"
	ShapeUnrecognized       = "unrecognized"
	ShapeInvalid            = "invalid"
)

// isoMillis is the timestamp layout events carry (UTC, millisecond precision).
const isoMillis = "2006-01-02T15:04:05.000Z"

type rule struct {
	name  string
	match func(doc []byte, t jsonparser.ValueType) bool
	build func(doc []byte) []Event
}

// rules is evaluated top to bottom and the first match wins. Some payloads
// satisfy more than one predicate, so the order is part of the contract.
var rules = []rule{
	{ShapeMessageInteraction, isMessageInteraction, buildMessageInteraction},
	{ShapeBroadcastStatus, isBroadcastStatus, buildNothing},
	{ShapeDirect, isDirect, func(doc []byte) []Event { return []Event{passThrough(doc)} }},
	{ShapeArray, func(_ []byte, t jsonparser.ValueType) bool { return t == jsonparser.Array }, buildFiltered()},
	{ShapeWABA, isWABA, buildWABA},
	{ShapeEvents, isWrappedEvents, buildFiltered("events")},
	{ShapeRoomResolved, isRoomResolved, buildRoomResolved},
	{ShapeStatuses, isStatuses, buildStatuses},
}

// Normalize converts a raw webhook body into canonical events. It never
// fails: invalid JSON and unknown shapes both produce an empty slice.
func Normalize(body []byte) []Event {
	_, events := Classify(body)
	return events
}

// Classify is Normalize plus the name of the rule that matched.
func Classify(body []byte) (string, []Event) {
	if !json.Valid(body) {
		return ShapeInvalid, []Event{}
	}
	doc, t, _, err := jsonparser.Get(body)
	if err != nil {
		return ShapeInvalid, []Event{}
	}
	if t != jsonparser.Object && t != jsonparser.Array {
		return ShapeUnrecognized, []Event{}
	}
	for _, r := range rules {
		if r.match(doc, t) {
			events := r.build(doc)
			if events == nil {
				events = []Event{}
			}
			return r.name, events
		}
	}
	return ShapeUnrecognized, []Event{}
}

// --- shape 1: Qontak message interaction ---

func isMessageInteraction(doc []byte, t jsonparser.ValueType) bool {
	return t == jsonparser.Object &&
		utils.Truthy(doc, "room_id") &&
		utils.Truthy(doc, "room") &&
		utils.Defined(doc, "sender_type")
}

func buildMessageInteraction(doc []byte) []Event {
	c := ExtractQontak(doc)
	sender := SenderCustomer
	if utils.Str(doc, "sender_type") == SenderAgent || utils.Str(doc, "participant_type") == SenderAgent {
		sender = SenderAgent
	}
	return []Event{{
		Phone:     utils.Str(doc, "room", "account_uniq_id"),
		Name:      utils.FirstStr(doc, []string{"room", "name"}, []string{"sender", "name"}),
		Message:   c.Text,
		Sender:    sender,
		Timestamp: utils.Str(doc, "created_at"),
		MediaURL:  c.MediaURL,
		MediaType: c.MediaType,
		RoomID:    utils.Str(doc, "room_id"),
		Channel:   domain.NormalizeChannel(utils.Str(doc, "room", "channel")),
		EventType: EventMessage,
		MessageID: utils.Str(doc, "id"),
	}}
}

// --- shape 2: broadcast delivery report, dropped ---

func isBroadcastStatus(doc []byte, t jsonparser.ValueType) bool {
	return t == jsonparser.Object &&
		utils.Truthy(doc, "contact_phone_number") &&
		utils.Truthy(doc, "messages_broadcast_id")
}

func buildNothing(doc []byte) []Event {
	log.Debug().
		Str("broadcast_id", utils.Str(doc, "messages_broadcast_id")).
		Str("status", utils.Str(doc, "status")).
		Msg("webhook: broadcast status ignored")
	return nil
}

// --- shapes 3, 4, 6: already canonical events ---

func hasPhoneAndMessage(obj []byte) bool {
	return utils.Truthy(obj, "phone") && utils.Truthy(obj, "message")
}

func isDirect(doc []byte, t jsonparser.ValueType) bool {
	return t == jsonparser.Object && hasPhoneAndMessage(doc)
}

func isWrappedEvents(doc []byte, t jsonparser.ValueType) bool {
	_, at := utils.Raw(doc, "events")
	return t == jsonparser.Object && at == jsonparser.Array
}

// buildFiltered keeps the elements of the array at keys (or the document
// itself when keys is empty) that carry both phone and message.
func buildFiltered(keys ...string) func(doc []byte) []Event {
	return func(doc []byte) []Event {
		var out []Event
		utils.Each(doc, func(obj []byte) {
			if hasPhoneAndMessage(obj) {
				out = append(out, passThrough(obj))
			}
		}, keys...)
		return out
	}
}

func passThrough(obj []byte) Event {
	return Event{
		Phone:     utils.Str(obj, "phone"),
		Name:      utils.Str(obj, "name"),
		Message:   utils.Str(obj, "message"),
		Sender:    utils.Str(obj, "sender"),
		Timestamp: utils.Str(obj, "timestamp"),
		MediaURL:  utils.Str(obj, "mediaUrl"),
		MediaType: utils.Str(obj, "mediaType"),
		RoomID:    utils.Str(obj, "roomId"),
		Channel:   utils.Str(obj, "channel"),
		EventType: utils.Str(obj, "eventType"),
		Status:    utils.Str(obj, "status"),
		MessageID: utils.Str(obj, "messageId"),
	}
}

// --- shape 5: WhatsApp Cloud API ---

func isWABA(doc []byte, t jsonparser.ValueType) bool {
	if t != jsonparser.Object {
		return false
	}
	_, et := utils.Raw(doc, "entry")
	return et == jsonparser.Array
}

func buildWABA(doc []byte) []Event {
	var out []Event
	utils.Each(doc, func(entry []byte) {
		utils.Each(entry, func(change []byte) {
			value, vt := utils.Raw(change, "value")
			if vt != jsonparser.Object {
				return
			}
			name := utils.Str(value, "contacts", "[0]", "profile", "name")
			utils.Each(value, func(msg []byte) {
				c := ExtractWABA(msg)
				out = append(out, Event{
					Phone:     utils.Str(msg, "from"),
					Name:      name,
					Message:   c.Text,
					Sender:    SenderCustomer,
					Timestamp: epochToISO(utils.Str(msg, "timestamp")),
					MediaURL:  c.MediaURL,
					MediaType: c.MediaType,
					Channel:   domain.ChannelWhatsApp,
					EventType: EventMessage,
					MessageID: utils.Str(msg, "id"),
				})
			}, "messages")
		}, "changes")
	}, "entry")
	return out
}

// --- shape 7: room resolved ---

func isRoomResolved(doc []byte, t jsonparser.ValueType) bool {
	return t == jsonparser.Object &&
		utils.Str(doc, "service_name") == "room" &&
		utils.Str(doc, "event_name") == "resolved"
}

func buildRoomResolved(doc []byte) []Event {
	return []Event{{
		Sender: SenderSystem,
		RoomID: utils.FirstStr(doc,
			[]string{"data", "room", "id"},
			[]string{"data", "room_id"},
			[]string{"data", "id"},
			[]string{"room_id"},
		),
		EventType: EventRoomResolved,
		Timestamp: utils.FirstStr(doc, []string{"data", "resolved_at"}, []string{"created_at"}),
	}}
}

// --- shape 8: delivery statuses ---

func isStatuses(doc []byte, t jsonparser.ValueType) bool {
	_, st := utils.Raw(doc, "statuses")
	return t == jsonparser.Object && st == jsonparser.Array
}

func buildStatuses(doc []byte) []Event {
	var out []Event
	utils.Each(doc, func(s []byte) {
		ts := utils.Str(s, "timestamp")
		if iso := epochToISO(ts); iso != "" {
			ts = iso
		}
		out = append(out, Event{
			Phone:     utils.Str(s, "recipient_id"),
			Sender:    SenderSystem,
			Timestamp: ts,
			EventType: EventMessageStatus,
			Status:    utils.Str(s, "status"),
			MessageID: utils.Str(s, "id"),
		})
	}, "statuses")
	return out
}

// epochToISO converts an epoch-seconds string to an ISO8601 UTC timestamp.
// Non-numeric input gives "".
func epochToISO(s string) string {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return ""
	}
	return time.Unix(n, 0).UTC().Format(isoMillis)
}
