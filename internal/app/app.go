package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rolodexhq/rolodex/internal/config"
	"github.com/rolodexhq/rolodex/internal/domain"
	"github.com/rolodexhq/rolodex/internal/httpserver"
	"github.com/rolodexhq/rolodex/internal/httpserver/deps"
	"github.com/rolodexhq/rolodex/internal/logger"
	"github.com/rolodexhq/rolodex/internal/redisconn"
	"github.com/rolodexhq/rolodex/internal/seed"
	"github.com/rolodexhq/rolodex/internal/store"
	boltstore "github.com/rolodexhq/rolodex/internal/store/bolt"
	"github.com/rolodexhq/rolodex/internal/store/memory"
	redisstore "github.com/rolodexhq/rolodex/internal/store/redis"
	"github.com/rolodexhq/rolodex/internal/version"
)

type App struct {
	cfg    *config.Config
	logger logger.Logger
	server *httpserver.Server
	repo   store.Repository
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	rules := domain.Rules{NameMinLen: cfg.NameMinLen}

	// Open storage early - fail fast if unavailable
	repo, err := openRepository(cfg, rules, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to open %s storage: %v", cfg.StorageBackend, err)
		os.Exit(1)
	}
	loggerClient.Infof("Storage backend %q initialized", cfg.StorageBackend)

	if cfg.SeedFile != "" {
		seedContacts(cfg.SeedFile, repo, loggerClient)
	}

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:             loggerClient,
		Repo:               repo,
		StartTime:          time.Now(),
		Version:            version.Version,
		Commit:             version.Commit,
		BuildDate:          version.BuildDate,
		GoVersion:          version.GoVersion,
		TimeNow:            time.Now,
		DefaultPageSize:    cfg.DefaultPageSize,
		MaxPageSize:        cfg.MaxPageSize,
		MaxUploadBytes:     cfg.MaxUploadBytes,
		AllowedAvatarTypes: cfg.AllowedAvatarTypes,
		EnableAnalytics:    cfg.EnableAnalytics,
		EnableImport:       cfg.EnableImport,
		EnableExport:       cfg.EnableExport,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:    cfg,
		logger: loggerClient,
		server: server,
		repo:   repo,
	}
}

func openRepository(cfg *config.Config, rules domain.Rules, log logger.Logger) (store.Repository, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		return memory.New(rules), nil

	case config.BackendBolt:
		return boltstore.Open(cfg.BoltPath, rules)

	case config.BackendRedis:
		client, err := redisconn.New(redisconn.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDialTimeout,
			ReadTimeout:    cfg.RedisReadTimeout,
			WriteTimeout:   cfg.RedisWriteTimeout,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
		}, log)
		if err != nil {
			return nil, err
		}
		return redisstore.NewStore(client, rules), nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// seedContacts bootstraps an empty store from the configured YAML file.
// Seeding problems are logged, never fatal.
func seedContacts(path string, repo store.Repository, log logger.Logger) {
	loader := seed.NewLoader(path)
	entries, err := loader.Load()
	if err != nil {
		log.Warn("failed to load seed file", logger.String("file", path), logger.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	created, err := seed.Apply(ctx, repo, entries)
	if err != nil {
		log.Warn("seeding aborted", logger.Error(err))
		return
	}
	if created > 0 {
		log.Info("seeded contacts", logger.Int("count", created), logger.String("file", path))
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Rolodex v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Rolodex %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if err := a.repo.Close(); err != nil {
		a.logger.Warnf("failed to close storage: %v", err)
	} else {
		a.logger.Info("✅ Storage closed cleanly")
	}

	a.logger.Info("✅ Rolodex stopped cleanly")
	return nil
}
