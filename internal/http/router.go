// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - The provider webhook stays outside the rate limiter and gzip group
//   - All process-level collaborators injected through Deps
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/remindhub/remindhub-api/internal/config"
	"github.com/remindhub/remindhub-api/internal/events"
	"github.com/remindhub/remindhub-api/internal/http/handlers"
	"github.com/remindhub/remindhub-api/internal/http/middleware"
	"github.com/remindhub/remindhub-api/internal/repo"
	"github.com/remindhub/remindhub-api/internal/services"
)

// Provider is the Qontak client surface the services need.
type Provider interface {
	services.QontakAPI
	services.TokenRefresher
}

// Deps carries what RegisterRoutes cannot build from the database and
// configuration alone.
type Deps struct {
	API Provider
	// Publisher receives chat activity; nil means events.Noop.
	Publisher events.Publisher
	// Hub serves GET /ws; nil answers 404 there.
	Hub *events.Hub
}

var corsHeaders = []string{
	"Origin", "Content-Type", "Accept", "Authorization",
	middleware.HeaderAgentID, middleware.HeaderIdempotencyKey, "If-None-Match",
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), CORS and security
// headers, the public webhook, health and metrics endpoints, and then mounts
// the internal API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Metrics
//  6. CORS and Security headers
//
// Inside the API group, gzip applies to every route; on POST /qontak/messages
// the idempotency validator runs before the rate limiter so replays bypass it.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config, d Deps) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-Qontak-Token"},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 6) CORS posture (allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "ETag", "Idempotency-Replayed", "Retry-After"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	} else {
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "ETag", "Idempotency-Replayed", "Retry-After"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/provider
	pub := d.Publisher
	if pub == nil {
		pub = events.Noop{}
	}
	creds := services.NewCredentialService(db, d.API, cfg.Qontak.TokenCacheTTL)
	creds.FallbackToken = cfg.Qontak.AccessToken
	creds.FallbackChannelIntegrationID = cfg.Qontak.ChannelIntegrationID

	deps := handlers.Deps{
		Inbox: &services.InboxService{DB: db},
		Proxy: &services.ProxyService{
			DB:             db,
			API:            d.API,
			Creds:          creds,
			Events:         pub,
			IdempotencyTTL: cfg.IdempotencyTTL,
		},
		Credentials:    creds,
		Ingest:         &services.IngestService{DB: db, Events: pub, Audit: cfg.WebhookAudit},
		WebhookMaxBody: cfg.WebhookMaxBody,
	}
	if d.Hub != nil {
		deps.Feed = d.Hub
	}
	h := handlers.New(deps)

	// Public webhook and live feed: never rate limited
	r.GET("/webhook", h.VerifyWebhook)
	r.POST("/webhook", h.ReceiveWebhook)
	r.GET("/ws", h.LiveFeed)

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByAgentOrIP())
	idem := middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			Actor:  services.IdempotencyActorSend,
			MaxLen: 200,
			// same precedence as ProxyService.Send: chat id, else room id
			Target: middleware.JSONBodyTarget("chatId", "roomId"),
		},
		func(ctx context.Context, actor, target, key string, now time.Time) (bool, error) {
			return repo.HasIdempotencyKey(ctx, db, actor, target, key, now)
		},
	)

	// Internal API
	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(gzip.Gzip(gzip.DefaultCompression))
	{
		q := api.Group("/qontak")
		q.POST("/messages", idem, rl.Handler(), h.SendMessage)

		q.Use(rl.Handler())
		q.POST("/rooms", h.ListRooms)
		q.POST("/rooms/history", h.RoomHistory)
		q.POST("/conversations", h.StartConversation)
		q.POST("/token/validate", h.ValidateToken)
		q.POST("/token/refresh", h.RefreshToken)
		q.PUT("/credentials", h.UpdateCredentials)

		chats := api.Group("/chats", rl.Handler())
		chats.GET("", h.ListChats)
		chats.GET("/:id/messages", h.ListChatMessages)
		chats.PUT("/:id/status", h.UpdateChatStatus)
		chats.PUT("/:id/pic", h.AssignChatPIC)
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
