package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/arman-radmanesh/clinicore/config"
	"github.com/arman-radmanesh/clinicore/internal/pipeline"
	"github.com/arman-radmanesh/clinicore/internal/retrieval"
	"github.com/arman-radmanesh/clinicore/internal/runtime"
	"github.com/arman-radmanesh/clinicore/internal/search"
	"github.com/arman-radmanesh/clinicore/internal/store"
	"github.com/arman-radmanesh/clinicore/provider"
)

// Run wires the whole backend together and serves HTTP until the process
// exits.
func Run(cfg *appconfig.Config, addr string) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie", "Authorization"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	ctx := context.Background()

	dsn, err := runtime.BuildPostgresDSN(cfg)
	if err != nil {
		return err
	}
	if err := Migrate("file://migrations", dsn, "up", 0); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate: %w", err)
	}
	st, err := store.NewWithDSN(ctx, dsn)
	if err != nil {
		return err
	}

	secret, err := runtime.LoadJWTSecret(cfg)
	if err != nil {
		return err
	}

	llm, err := provider.NewProvider(provider.OpenAI, cfg.Providers.OpenAI)
	if err != nil {
		return err
	}

	if cfg.Databases.Redis.Host == "" || cfg.Databases.Redis.Port == "" {
		return fmt.Errorf("redis not configured (databases.redis.host/port)")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Databases.Redis.Addr(),
		Password: cfg.Databases.Redis.Pass,
		DB:       cfg.Databases.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed (%s): %w", cfg.Databases.Redis.Addr(), err)
	}

	encodeLogger := log.New(log.Writer(), "[ENCODE] ", log.LstdFlags)
	encoder := retrieval.NewCachingEncoder(retrieval.NewProviderEncoder(llm), rdb, cfg.Retrieval.CacheTTL, encodeLogger)

	retrieveLogger := log.New(log.Writer(), "[RETRIEVE] ", log.LstdFlags)
	retriever := retrieval.NewHistoryRetriever(encoder, retrieveLogger)

	pipeLogger := log.New(log.Writer(), "[PIPELINE] ", log.LstdFlags)
	extractor := pipeline.NewExtractor(llm, pipeLogger)
	transcriber := pipeline.NewTranscriber(llm, pipeLogger)
	summarizer := pipeline.NewSummarizer(llm, extractor, pipeLogger)

	searchSvc := search.NewService(encoder)

	auth := &AuthHandler{Store: st, Secret: secret}
	api := e.Group("/api")
	auth.Register(api.Group("/auth"))

	protected := api.Group("")
	protected.Use(runtime.EchoAuthMiddleware(secret))
	protected.GET("/me", auth.me)

	(&ProfilesHandler{Store: st}).Register(protected)
	(&ConversationsHandler{
		Store:       st,
		Transcriber: transcriber,
		Extractor:   extractor,
		Summarizer:  summarizer,
		Search:      searchSvc,
		UploadDir:   cfg.General.UploadDir,
		Logger:      pipeLogger,
	}).Register(protected)
	(&HistoryHandler{Store: st, Retriever: retriever, Defaults: cfg.Retrieval}).Register(protected)
	(&SearchHandler{Store: st, Service: searchSvc}).Register(protected)

	warmLogger := log.New(log.Writer(), "[WARM] ", log.LstdFlags)
	warmer := &Warmer{
		Store:   st,
		Encoder: encoder,
		Rdb:     rdb,
		Cron:    cfg.Retrieval.WarmCron,
		Logger:  warmLogger,
		Stop:    make(chan struct{}),
	}
	warmer.Start()

	shutdownMetrics, err := runtime.StartMetricsServer(cfg.Telemetry, baseLogger)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownMetrics(context.Background()) }()

	if addr == "" {
		addr = cfg.General.Listen
		if addr != "" && !strings.Contains(addr, ":") {
			addr = ":" + addr
		}
		if addr == "" {
			addr = ":10002"
		}
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}
