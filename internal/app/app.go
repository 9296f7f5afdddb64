package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/shelf/internal/config"
	"github.com/MrSnakeDoc/shelf/internal/enrich"
	"github.com/MrSnakeDoc/shelf/internal/httpserver"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/logger"
	"github.com/MrSnakeDoc/shelf/internal/metrics"
	"github.com/MrSnakeDoc/shelf/internal/ogp"
	"github.com/MrSnakeDoc/shelf/internal/redis"
	"github.com/MrSnakeDoc/shelf/internal/scheduler"
	redisstore "github.com/MrSnakeDoc/shelf/internal/store/redis"
	"github.com/MrSnakeDoc/shelf/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	dispatcher  *enrich.Dispatcher
	sweeper     *scheduler.Sweeper
	importer    *scheduler.Importer
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Initialize Redis early - fail fast if unavailable
	loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	redisClient, err := redis.Connect(context.Background(), redis.ConnectOptions{
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
	}, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("Redis initialized successfully")

	store := redisstore.NewStore(redisClient)
	collector := metrics.New()

	fetcher := ogp.NewFetcher(&http.Client{}, ogp.Options{
		Timeout:   cfg.FetchTimeout,
		UserAgent: cfg.FetchUserAgent,
		Strict:    cfg.FetchStrict,
		MaxBody:   cfg.FetchMaxBody,
	}, loggerClient.With(logger.String("component", "ogp")))

	enricher := enrich.New(store, fetcher, loggerClient.With(logger.String("component", "enrich")), collector)
	dispatcher := enrich.NewDispatcher(enricher, cfg.EnrichWorkers, cfg.EnrichQueue, loggerClient, collector)

	sweepTrigger := make(chan struct{}, 1)
	sweeper := scheduler.NewSweeper(enricher, loggerClient, cfg.SweepInterval, sweepTrigger)

	// Initialize importer (if a bookmarks file is configured)
	var importer *scheduler.Importer
	var importTrigger chan struct{}
	if cfg.ImportFile != "" {
		loggerClient.Info("import file configured, initializing importer",
			logger.String("file", cfg.ImportFile),
			logger.String("user", cfg.ImportUser))
		importTrigger = make(chan struct{}, 1)
		importer = scheduler.NewImporter(
			cfg.ImportFile,
			cfg.ImportUser,
			store,
			dispatcher,
			loggerClient,
			importTrigger,
		)
	} else {
		loggerClient.Info("import file not configured, bookmark import disabled")
	}

	d := deps.Deps{
		Logger:        loggerClient,
		StartTime:     time.Now(),
		Version:       version.Version,
		Commit:        version.Commit,
		BuildDate:     version.BuildDate,
		GoVersion:     version.GoVersion,
		AllowedHosts:  cfg.AllowedHosts,
		AllowedCIDRS:  cfg.AllowedCIDRS,
		TrustProxy:    cfg.TrustProxy,
		UserHeader:    cfg.UserHeader,
		CORSOrigins:   cfg.CORSOrigins,
		RateBurst:     cfg.RateBurst,
		RatePerMin:    cfg.RatePerMin,
		Store:         store,
		Enricher:      enricher,
		Dispatcher:    dispatcher,
		Metrics:       collector,
		SweepTrigger:  sweepTrigger,
		ImportTrigger: importTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		dispatcher:  dispatcher,
		sweeper:     sweeper,
		importer:    importer,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Shelf v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String("Shelf"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.dispatcher.Start()

	// Import before sweeping so imported bookmarks are picked up by the first pass
	if a.importer != nil {
		if err := a.importer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start importer: %w", err)
		}
		a.logger.Info("importer started")
	}

	if err := a.sweeper.Start(ctx); err != nil {
		return fmt.Errorf("failed to start sweeper: %w", err)
	}
	a.logger.Info("sweeper started",
		logger.Duration("interval", a.cfg.SweepInterval))

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
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	// Stop accepting requests first so nothing dispatches after the pool closes
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.importer != nil {
		a.importer.Stop()
	}
	// Both wait for claimed bookmarks to be finalized, so Redis is still
	// open for their last write. Unclaimed ones stay PENDING for next start.
	a.sweeper.Stop()

	if err := a.dispatcher.Stop(shutdownCtx); err != nil {
		a.logger.Warn("enrichment workers did not drain before deadline", logger.Error(err))
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ Shelf stopped cleanly")
	_ = a.logger.Sync()
	return nil
}
