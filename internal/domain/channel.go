package domain

import "strings"

// Canonical channel names.
const (
	ChannelWhatsApp  = "whatsapp"
	ChannelFacebook  = "facebook"
	ChannelInstagram = "instagram"
	ChannelTelegram  = "telegram"
	ChannelEmail     = "email"
	ChannelTwitter   = "twitter"
	ChannelLine      = "line"
	ChannelWebChat   = "web_chat"
	ChannelEcommerce = "ecommerce"
	ChannelCall      = "call"
)

var channelCodes = map[string]string{
	"wa":           ChannelWhatsApp,
	"whatsapp":     ChannelWhatsApp,
	"fb":           ChannelFacebook,
	"facebook":     ChannelFacebook,
	"fb_messenger": ChannelFacebook,
	"ig":           ChannelInstagram,
	"instagram":    ChannelInstagram,
	"telegram":     ChannelTelegram,
	"tg":           ChannelTelegram,
	"email":        ChannelEmail,
	"twitter":      ChannelTwitter,
	"x":            ChannelTwitter,
	"line":         ChannelLine,
	"webchat":      ChannelWebChat,
	"web_chat":     ChannelWebChat,
	"livechat":     ChannelWebChat,
	"ecommerce":    ChannelEcommerce,
	"tokopedia":    ChannelEcommerce,
	"shopee":       ChannelEcommerce,
	"call":         ChannelCall,
}

// NormalizeChannel maps a provider channel code to its canonical name.
// Unknown and empty codes map to whatsapp.
//
// Webhook ingest and the room proxy both go through this table so the two
// paths label chats the same way.
func NormalizeChannel(code string) string {
	if c, ok := channelCodes[strings.ToLower(strings.TrimSpace(code))]; ok {
		return c
	}
	return ChannelWhatsApp
}

// IsCanonicalChannel reports whether c is already a canonical channel name.
func IsCanonicalChannel(c string) bool {
	switch c {
	case ChannelWhatsApp, ChannelFacebook, ChannelInstagram, ChannelTelegram, ChannelEmail,
		ChannelTwitter, ChannelLine, ChannelWebChat, ChannelEcommerce, ChannelCall:
		return true
	}
	return false
}
