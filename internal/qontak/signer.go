// Package qontak is the outbound client for the Qontak chat API, reached
// either through the Mekari API gateway (HMAC-signed requests) or through
// the legacy Qontak host (signed or bearer-token requests).
package qontak

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrSignerNotConfigured means the Mekari client id or secret is missing.
// It is a deployment error and must not be retried.
var ErrSignerNotConfigured = errors.New("mekari client id/secret not configured")

// Signer builds the Mekari HMAC headers for a single request.
type Signer struct {
	ClientID     string
	ClientSecret string

	// Now is the clock used for the Date header; nil means time.Now.
	Now func() time.Time
}

// NewSigner returns a Signer using the wall clock.
func NewSigner(clientID, clientSecret string) *Signer {
	return &Signer{ClientID: clientID, ClientSecret: clientSecret}
}

// Configured reports whether both credentials are present.
func (s *Signer) Configured() bool {
	return s != nil && strings.TrimSpace(s.ClientID) != "" && strings.TrimSpace(s.ClientSecret) != ""
}

// Sign returns Authorization, Date and Content-Type headers for method and
// pathAndQuery. The date is part of the signed payload, so every request
// needs a fresh call.
func (s *Signer) Sign(method, pathAndQuery string) (http.Header, error) {
	if !s.Configured() {
		return nil, ErrSignerNotConfigured
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	date := now().UTC().Format(http.TimeFormat)
	requestLine := strings.ToLower(method) + " " + pathAndQuery + " HTTP/1.1"
	payload := "date: " + date + "\n" + requestLine

	mac := hmac.New(sha256.New, []byte(s.ClientSecret))
	mac.Write([]byte(payload))
	sig := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	h := http.Header{}
	h.Set("Authorization", fmt.Sprintf(
		`hmac username="%s", algorithm="hmac-sha256", headers="date request-line", signature="%s"`,
		s.ClientID, sig,
	))
	h.Set("Date", date)
	h.Set("Content-Type", "application/json")
	return h, nil
}
