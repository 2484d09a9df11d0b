package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/golang-migrate/migrate/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/aitelhq/supportbot/config"
	"github.com/aitelhq/supportbot/internal/knowledge"
	"github.com/aitelhq/supportbot/internal/store"
	"github.com/aitelhq/supportbot/provider"
)

// Run wires the whole backend and blocks serving HTTP.
func Run(cfg *config.Config, addr string) error {
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
	if cfg.Telemetry.Enabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	dsn := cfg.Storage.Postgres.DSN()
	if err := Migrate("file://migrations", dsn, "up", 0); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate: %w", err)
	}

	ctx := context.Background()
	st, err := store.NewWithDSN(ctx, dsn)
	if err != nil {
		return err
	}

	kbLogger := log.New(log.Writer(), "[KB] ", log.LstdFlags)
	engine := knowledge.NewEngine(cfg.Retrieval.Params(), kbLogger)
	// A missing or unreadable corpus file degrades to an empty snapshot; the
	// service still answers via fallback and /health reports degraded.
	if err := engine.ReloadFromFile(cfg.Knowledge.Path); err != nil {
		kbLogger.Printf("initial corpus load failed: %v", err)
		corpusReloads.WithLabelValues("error").Inc()
	} else {
		corpusReloads.WithLabelValues("ok").Inc()
	}
	corpusEntries.Set(float64(engine.Count()))

	var llm provider.Provider
	if cfg.LLM.Enabled {
		llm, err = provider.NewProvider(cfg.LLM)
		if err != nil {
			kbLogger.Printf("llm fallback unavailable: %v", err)
			llm = nil
		}
	}

	secret := []byte(cfg.Server.JWTSecret)

	api := e.Group("/api")

	auth := &AuthHandler{Store: st, Secret: secret}
	auth.Register(api.Group("/auth"))

	chatLogger := log.New(log.Writer(), "[CHAT] ", log.LstdFlags)
	ch := &ChatHandler{
		Store:      st,
		Engine:     engine,
		LLM:        llm,
		Threshold:  cfg.Retrieval.AnswerThreshold,
		TopK:       cfg.Retrieval.TopK,
		LLMTimeout: cfg.LLM.Timeout,
		Logger:     chatLogger,
	}
	ch.Register(api)

	contact := &ContactHandler{Store: st}
	contact.Register(api)

	team := &TeamHandler{Store: st, Secret: secret}
	team.Register(api.Group("/team"))

	ops := &OpsHandler{Engine: engine, Path: cfg.Knowledge.Path, Secret: secret}
	ops.Register(e)

	if cfg.Knowledge.ReloadCron != "" {
		var rdb *redis.Client
		if cfg.Storage.Redis.Enabled() {
			rdb = redis.NewClient(&redis.Options{
				Addr:     fmt.Sprintf("%s:%s", cfg.Storage.Redis.Host, cfg.Storage.Redis.Port),
				Password: cfg.Storage.Redis.Password,
				DB:       cfg.Storage.Redis.DB,
			})
			if err := rdb.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis connection failed (%s:%s): %w", cfg.Storage.Redis.Host, cfg.Storage.Redis.Port, err)
			}
		}
		sched := &Scheduler{
			Engine:   engine,
			Path:     cfg.Knowledge.Path,
			CronSpec: cfg.Knowledge.ReloadCron,
			Rdb:      rdb,
			Stop:     make(chan struct{}),
			Logger:   log.New(log.Writer(), "[SCHED] ", log.LstdFlags),
		}
		sched.Start()
	}

	if addr == "" {
		addr = cfg.Server.Address
		if addr == "" {
			addr = ":8080"
		}
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}
