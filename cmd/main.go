package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/okian/levelcard/internal/adapters/avatar"
	"github.com/okian/levelcard/internal/adapters/discord"
	"github.com/okian/levelcard/internal/adapters/http/api"
	"github.com/okian/levelcard/internal/adapters/http/swagger"
	"github.com/okian/levelcard/internal/adapters/repository"
	"github.com/okian/levelcard/internal/assets"
	app "github.com/okian/levelcard/internal/app"
	"github.com/okian/levelcard/internal/config"
	"github.com/okian/levelcard/internal/domain/card"
	"github.com/okian/levelcard/pkg/logger"
	"github.com/okian/levelcard/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> .env -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger isn't configured yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	var logOpts []logger.Option
	if cfg.LogFile != "" {
		logOpts = append(logOpts, logger.WithFile(cfg.LogFile, cfg.LogMaxSizeMB))
	}
	if err := logger.Init(logOpts...); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, loggerInstance); err != nil {
		loggerInstance.Error(ctx, "service failed", logger.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, loggerInstance logger.Logger) error {
	registry, err := assets.Load()
	if err != nil {
		return err
	}
	templates, err := card.NewStore()
	if err != nil {
		return err
	}

	renderer := app.New(
		app.WithLogger(loggerInstance.Named("renderer")),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithAssets(registry),
		app.WithTemplates(templates),
	)
	if err := renderer.Start(ctx); err != nil {
		return err
	}
	defer renderer.Stop()

	store, ranks, closeStore, err := newStore(ctx, cfg, loggerInstance)
	if err != nil {
		return err
	}
	defer closeStore()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, renderer)

	if cfg.DiscordToken != "" {
		session, err := startDiscord(cfg, store, renderer, loggerInstance)
		if err != nil {
			return err
		}
		defer func() { _ = session.Close() }()
	} else {
		loggerInstance.Warn(ctx, "discord_token is empty; running without the bot")
	}

	// HTTP mux and routes.
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(renderer, ranks).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Wait for shutdown signal
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		return err
	}
	loggerInstance.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
	return nil
}

// newStore connects to Postgres when configured and falls back to an empty
// in-memory store. ranks is nil without a database so /rank reports 503.
func newStore(ctx context.Context, cfg *config.Config, l logger.Logger) (repository.Store, api.RankLookup, func(), error) {
	if cfg.DatabaseURL == "" {
		l.Warn(ctx, "database_url is empty; every member is unranked")
		return repository.NewMemoryStore(), nil, func() {}, nil
	}
	pg, err := repository.NewPostgresStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	return pg, pg, pg.Close, nil
}

// startDiscord opens the gateway session and registers commands once ready.
func startDiscord(cfg *config.Config, store repository.Store, renderer discord.CardRenderer, l logger.Logger) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, err
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	avatars := avatar.NewFetcher(
		avatar.WithTimeout(cfg.AvatarTimeout()),
		avatar.WithRetries(cfg.AvatarRetries),
	)
	handler := discord.NewHandler(store, renderer, avatars,
		discord.WithRenderTimeout(cfg.RenderTimeout()),
		discord.WithLogger(l.Named("discord")),
	)

	session.AddHandler(handler.OnInteractionCreate)
	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		ctx := context.Background()
		cmds, err := discord.Register(s, r.User.ID, cfg.DiscordGuildID)
		if err != nil {
			l.Error(ctx, "failed to register commands", logger.Error(err))
			return
		}
		l.Info(ctx, "discord ready",
			logger.String("user", r.User.Username),
			logger.Int("commands", len(cmds)))
	})

	if err := session.Open(); err != nil {
		return nil, err
	}
	return session, nil
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, stats api.StatsProvider) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(stats)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics copies renderer stats into gauges.
func updateServiceMetrics(stats api.StatsProvider) {
	s := stats.GetStats()

	if queueLen, ok := s["queueLength"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
	}
	if queueSize, ok := s["queueSize"].(int); ok {
		metrics.UpdateQueueCapacity(queueSize)
		if queueLen, ok := s["queueLength"].(int); ok && queueSize > 0 {
			metrics.UpdateQueueUtilization(float64(queueLen) / float64(queueSize))
		}
	}
	if workerCount, ok := s["workerCount"].(int); ok {
		metrics.UpdateWorkerCount(workerCount)
	}
}
