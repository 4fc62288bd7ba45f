// This file validates the Idempotency-Key header of outbound sends.
//
// The middleware only checks the key's shape, stashes it, and flags
// requests whose (target, key) already has a stored result so the rate
// limiter lets the replay through. Serving the stored response is the
// service's job.
package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/remindhub/remindhub-api/internal/utils"
)

// Idempotency headers: the request key and the response marker set when a
// stored result is served.
const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderReplayed       = "Idempotency-Replayed"
)

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
	ctxKeyRateBypass = "rate.bypass"
)

var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the validated key, if the request carried one.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	s := asString(c.Value(ctxKeyIdemKey))
	return s, s != ""
}

// IsReplay reports whether a stored result already exists for the key.
func IsReplay(c *gin.Context) bool {
	b, _ := c.Value(ctxKeyIdemReplay).(bool)
	return b
}

// IdempotencyOptions configures IdempotencyValidator.
type IdempotencyOptions struct {
	// Actor scopes the lookup (e.g. "qontak.send").
	Actor string
	// MaxLen caps the key length. <= 0 means 200.
	MaxLen int
	// Pattern restricts allowed characters; nil means ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
	// Target names what the request addresses (chat or room id). Without
	// a target no lookup is made and the request is never a replay.
	Target func(c *gin.Context) string
}

// IdempotencyLookup reports whether an unexpired result exists for
// (actor, target, key). Errors are treated as "not found".
type IdempotencyLookup func(ctx context.Context, actor, target, key string, now time.Time) (bool, error)

// JSONBodyTarget reads the first non-blank of fields from a JSON request
// body and puts the body back for the handler.
func JSONBodyTarget(fields ...string) func(c *gin.Context) string {
	return func(c *gin.Context) string {
		if c.Request.Body == nil {
			return ""
		}
		body, err := io.ReadAll(c.Request.Body)
		_ = c.Request.Body.Close()
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		if err != nil {
			return ""
		}
		for _, f := range fields {
			if v := strings.TrimSpace(utils.Str(body, f)); v != "" {
				return v
			}
		}
		return ""
	}
}

// IdempotencyValidator rejects malformed keys with 400 and marks known keys
// as replays. Requests without the header pass through untouched.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultKeyPattern
	}

	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey))
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": RequestIDFrom(c),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)

		if lookup != nil && opts.Target != nil {
			if target := opts.Target(c); target != "" {
				if exists, err := lookup(c.Request.Context(), opts.Actor, target, key, time.Now().UTC()); err == nil && exists {
					c.Set(ctxKeyIdemReplay, true)
					c.Set(ctxKeyRateBypass, true)
				}
			}
		}
		c.Next()
	}
}
