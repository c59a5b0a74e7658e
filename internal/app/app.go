package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/navbar/internal/config"
	"github.com/MrSnakeDoc/navbar/internal/dom"
	"github.com/MrSnakeDoc/navbar/internal/host"
	"github.com/MrSnakeDoc/navbar/internal/httpserver"
	"github.com/MrSnakeDoc/navbar/internal/httpserver/deps"
	"github.com/MrSnakeDoc/navbar/internal/logger"
	"github.com/MrSnakeDoc/navbar/internal/navigation"
	"github.com/MrSnakeDoc/navbar/internal/redis"
	"github.com/MrSnakeDoc/navbar/internal/scheduler"
	redisstore "github.com/MrSnakeDoc/navbar/internal/store/redis"
	"github.com/MrSnakeDoc/navbar/internal/utils"
	"github.com/MrSnakeDoc/navbar/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	syncer      *scheduler.SnapshotSyncer
	reloader    *scheduler.BookReloader
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Redis is optional: without it there are no snapshots and no render counters.
	var (
		redisClient *goredis.Client
		store       *redisstore.Store
	)
	if cfg.RedisEnabled() {
		client, err := redis.New(context.Background(), redis.Options{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient.With(logger.Component("redis")))
		if err != nil {
			loggerClient.Errorf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		redisClient = client
		store = redisstore.NewStore(redisClient)
	} else {
		loggerClient.Info("redis not configured, navigation snapshots disabled")
	}

	header, err := dom.CompileSelector(cfg.HeaderSelector)
	if err != nil {
		loggerClient.Errorf("Invalid NAVBAR_HEADER_SELECTOR %q: %v", cfg.HeaderSelector, err)
		os.Exit(1)
	}

	bus := host.NewBus(loggerClient.With(logger.Component("host")))
	renderer := navigation.NewRenderer(header, loggerClient.With(logger.Component("navigation")))
	renderer.Attach(bus)

	reloadTrigger := make(chan struct{}, 1)

	reloader := scheduler.NewBookReloader(
		cfg.BookFile,
		bus,
		store,
		loggerClient,
		cfg.ReloadInterval,
		cfg.WatchBookFile,
		reloadTrigger,
	)

	d := deps.Deps{
		Logger:          loggerClient,
		StartTime:       time.Now(),
		Version:         version.Version,
		Commit:          version.Commit,
		BuildDate:       version.BuildDate,
		GoVersion:       version.GoVersion,
		TimeNow:         time.Now,
		AllowedHosts:    cfg.AllowedHosts,
		AllowedCIDRS:    cfg.AllowedCIDRS,
		TrustProxy:      cfg.TrustProxy,
		SiteDir:         cfg.SiteDir,
		Bus:             bus,
		Renderer:        renderer,
		RedisClient:     redisClient,
		Store:           store,
		ReloadTrigger:   reloadTrigger,
		RateLimitBurst:  cfg.RateLimitBurst,
		RateLimitPerMin: cfg.RateLimitPerMin,
	}

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      httpserver.New(cfg, loggerClient, d),
		redisClient: redisClient,
		syncer:      scheduler.NewSnapshotSyncer(store, bus, loggerClient),
		reloader:    reloader,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting navbar v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A restored snapshot lets pages render even if the book file is broken.
	restored, err := a.syncer.Sync(ctx)
	if err != nil {
		a.logger.Warn("failed to restore navigation snapshot, will load from book file",
			logger.Error(err))
	}
	a.reloader.AllowStale(restored)

	if err := a.reloader.Start(ctx); err != nil {
		return fmt.Errorf("failed to start book reloader: %w", err)
	}
	a.logger.Info("book reloader started",
		logger.String("file", a.cfg.BookFile),
		logger.Duration("interval", a.cfg.ReloadInterval),
		logger.Bool("watch", a.cfg.WatchBookFile))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		a.reloader.Stop()
		return err
	}

	a.reloader.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		utils.MustClose(a.redisClient, a.logger.With(logger.Component("redis")))
	}

	a.logger.Info("✅ navbar stopped cleanly")
	_ = a.logger.Sync()
	return nil
}
