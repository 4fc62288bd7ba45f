// Command server runs the RemindHub API: the Qontak webhook receiver, the
// shared inbox endpoints and the provider proxy.
//
// @title       RemindHub API
// @version     1.0
// @description Qontak WhatsApp integration: webhook ingest, shared inbox and provider proxy.
// @BasePath    /api/v1
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/remindhub/remindhub-api/docs"
	"github.com/remindhub/remindhub-api/internal/config"
	"github.com/remindhub/remindhub-api/internal/events"
	httpapi "github.com/remindhub/remindhub-api/internal/http"
	"github.com/remindhub/remindhub-api/internal/observability"
	"github.com/remindhub/remindhub-api/internal/qontak"
	"github.com/remindhub/remindhub-api/internal/repo"
	"github.com/remindhub/remindhub-api/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = ""

const purgeEvery = time.Hour

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	ver := sysutil.FirstNonEmpty(version, os.Getenv("APP_VERSION"), "dev")

	logger := sysutil.SetupLogging(sysutil.LogOptions{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: cfg.OTEL.ServiceName,
		Version: ver,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, ver)
	if err != nil {
		logger.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.Open(repo.Options{
		Driver:  cfg.DBDriver,
		Path:    cfg.DBPath,
		DSN:     cfg.DatabaseURL,
		Tracing: cfg.OTEL.Enabled,
	})
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("database open failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		logger.Fatal().Err(err).Msg("migration failed")
	}

	api := qontak.New(qontak.Config{
		ClientID:      cfg.Qontak.ClientID,
		ClientSecret:  cfg.Qontak.ClientSecret,
		MekariBaseURL: cfg.Qontak.MekariBaseURL,
		QontakBaseURL: cfg.Qontak.BaseURL,
		Timeout:       cfg.Qontak.Timeout,
	}, nil)
	if !api.Signer().Configured() {
		logger.Warn().Msg("MEKARI_CLIENT_ID/MEKARI_CLIENT_SECRET not set; signed provider calls will fail")
	}

	var (
		pubs events.Multi
		hub  *events.Hub
	)
	if cfg.Events.WSEnabled {
		hub = events.NewHub(cfg.CORS.AllowedOrigins)
		pubs = append(pubs, hub)
	}
	if cfg.Events.AMQPURL != "" {
		amqpPub, err := events.DialAMQP(cfg.Events.AMQPURL, cfg.Events.AMQPExchange)
		if err != nil {
			// Chat ingest must not depend on the broker.
			logger.Error().Err(err).Msg("amqp unavailable; broker events disabled")
		} else {
			pubs = append(pubs, amqpPub)
		}
	}
	var pub events.Publisher = events.Noop{}
	if len(pubs) > 0 {
		pub = pubs
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.Version = ver
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
	}
	httpapi.RegisterRoutes(r, db, cfg, httpapi.Deps{API: api, Publisher: pub, Hub: hub})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go purgeIdempotency(ctx, purgeEvery, func(ctx context.Context) (int64, error) {
		return repo.PurgeExpiredIdempotency(ctx, db, time.Now().UTC())
	})

	go func() {
		logger.Info().Str("addr", srv.Addr).Str("db", cfg.DBDriver).Bool("ws", hub != nil).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	if err := pub.Close(); err != nil {
		logger.Error().Err(err).Msg("publisher close")
	}
	if err := shutdownOTel(sctx); err != nil {
		logger.Error().Err(err).Msg("otel shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// purgeIdempotency drops expired idempotency records every interval until
// ctx is cancelled.
func purgeIdempotency(ctx context.Context, every time.Duration, purge func(context.Context) (int64, error)) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := purge(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("idempotency purge failed")
				continue
			}
			if n > 0 {
				log.Debug().Int64("rows", n).Msg("idempotency purged")
			}
		}
	}
}
