package webhook

import (
	"github.com/remindhub/remindhub-api/internal/utils"
)

// Content is the canonical text/media triple pulled out of a provider
// message object.
type Content struct {
	Text      string
	MediaURL  string
	MediaType string
}

var mediaTypes = map[string]struct{}{
	"image": {}, "video": {}, "audio": {}, "document": {},
	"file": {}, "sticker": {}, "voice": {},
}

func isMedia(t string) bool {
	_, ok := mediaTypes[t]
	return ok
}

func orBracket(text, typ string) string {
	if text != "" {
		return text
	}
	return "[" + typ + "]"
}

// ExtractQontak reads a Qontak message-interaction object. It never fails:
// unknown types fall back to the text field or the object's compact JSON.
func ExtractQontak(msg []byte) Content {
	typ := utils.Str(msg, "type")
	text := utils.Str(msg, "text")

	switch {
	case typ == "text":
		return Content{Text: text}
	case isMedia(typ):
		return Content{
			Text:      orBracket(utils.FirstStr(msg, []string{"caption"}, []string{"file", "caption"}), typ),
			MediaURL:  utils.FirstStr(msg, []string{"url"}, []string{"file", "url"}),
			MediaType: typ,
		}
	case typ == "location":
		lat := utils.FirstStr(msg, []string{"latitude"}, []string{"location", "latitude"})
		lng := utils.FirstStr(msg, []string{"longitude"}, []string{"location", "longitude"})
		return Content{Text: "[location] " + lat + "," + lng}
	case typ == "contacts":
		return Content{Text: "[contact] " + text}
	}
	if text != "" {
		return Content{Text: text}
	}
	return Content{Text: utils.Compact(msg)}
}

// ExtractWABA reads a WhatsApp Cloud API message object
// (entry[].changes[].value.messages[]). Like ExtractQontak it is total.
func ExtractWABA(msg []byte) Content {
	typ := utils.Str(msg, "type")
	body := utils.Str(msg, "text", "body")

	switch {
	case typ == "text":
		return Content{Text: body}
	case isMedia(typ):
		return Content{
			Text:      orBracket(utils.Str(msg, typ, "caption"), typ),
			MediaURL:  utils.FirstStr(msg, []string{typ, "link"}, []string{typ, "url"}, []string{typ, "id"}),
			MediaType: typ,
		}
	case typ == "location":
		lat := utils.Str(msg, "location", "latitude")
		lng := utils.Str(msg, "location", "longitude")
		return Content{Text: "[location] " + lat + "," + lng}
	case typ == "contacts":
		return Content{Text: "[contact] " + utils.Str(msg, "contacts", "[0]", "name", "formatted_name")}
	case typ == "button":
		if s := utils.Str(msg, "button", "text"); s != "" {
			return Content{Text: s}
		}
	case typ == "interactive":
		if s := utils.FirstStr(msg,
			[]string{"interactive", "button_reply", "title"},
			[]string{"interactive", "list_reply", "title"},
		); s != "" {
			return Content{Text: s}
		}
	}
	if body != "" {
		return Content{Text: body}
	}
	return Content{Text: utils.Compact(msg)}
}
