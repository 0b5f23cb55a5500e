package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/servicedesk/session-gateway/internal/api"
	"github.com/servicedesk/session-gateway/internal/core/ports"
	"github.com/servicedesk/session-gateway/internal/infrastructure/config"
	mongodb "github.com/servicedesk/session-gateway/internal/infrastructure/db/mongo"
	redisdb "github.com/servicedesk/session-gateway/internal/infrastructure/db/redis"
	"github.com/servicedesk/session-gateway/internal/infrastructure/queue"
	"github.com/servicedesk/session-gateway/internal/infrastructure/storage"
	"github.com/servicedesk/session-gateway/internal/session"
	"github.com/servicedesk/session-gateway/internal/upstream"
	"github.com/servicedesk/session-gateway/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Init(logger.Options{})
		fallback := logger.Get()
		fallback.Fatal().Err(err).Msg("configuration failed")
	}

	log := logger.Init(logger.Options{
		Service: "session-gateway",
		Level:   cfg.LogLevel,
		Pretty:  cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Shared infrastructure ---
	var rdb *redis.Client
	if cfg.StorageDriver == "redis" {
		rdb, err = redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			log.Fatal().Err(err).Msg("redis connection failed")
		}
		defer rdb.Close()
	}

	snapshots, bus, err := buildStorage(cfg, rdb, log)
	if err != nil {
		log.Fatal().Err(err).Msg("snapshot storage failed")
	}

	// --- Audit trail (optional) ---
	var auditRepo ports.AuthEventRepository
	var auditSink ports.AuthEventSink
	var auditDB *mongo.Database
	if cfg.AuditEnabled {
		client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			log.Fatal().Err(err).Msg("mongo connection failed")
		}
		defer func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(disconnectCtx)
		}()

		repo := mongodb.NewAuthEventRepository(db)
		dispatcher := queue.NewDispatcher(cfg.AuditWorkers, repo, log)
		dispatcher.Start(ctx)

		auditRepo = repo
		auditSink = dispatcher
		auditDB = db
	}

	// --- Upstream gateway and session runtime ---
	// The client needs the auth store for credentials and the runtime needs
	// the client as logout notifier, so credentials bind late.
	creds := &lazyCredentials{}
	clientOpts := []upstream.Option{}
	if cfg.SignoutOnNotFound {
		clientOpts = append(clientOpts, upstream.WithLegacyNotFoundSignOut())
	}
	client, err := upstream.NewClient(cfg.UpstreamBaseURL, creds, log, clientOpts...)
	if err != nil {
		log.Fatal().Err(err).Msg("upstream client failed")
	}

	rt, err := session.NewRuntime(session.RuntimeConfig{
		Storage:  snapshots,
		Bus:      bus,
		Notifier: client,
		Audit:    auditSink,
		Log:      log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("session runtime failed")
	}
	defer rt.Close()

	creds.store = rt.Auth()
	client.SetSignOutHook(func(ctx context.Context, reason string) {
		rt.ForceSignOut(ctx, reason)
	})

	heartbeat := session.NewHeartbeat(client, rt.Auth(), rt, cfg.HeartbeatInterval, log)
	go heartbeat.Run(ctx)

	// --- HTTP surface ---
	e := api.NewRouter(api.RouterConfig{
		Runtime:   rt,
		Client:    client,
		Audit:     auditRepo,
		Mongo:     auditDB,
		Redis:     rdb,
		JWTSecret: cfg.JWTSecret,
		Log:       log,
	})

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("session gateway listening")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-serverErr:
		log.Error().Err(err).Msg("server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown incomplete")
	}
}

// buildStorage selects the snapshot storage and signal bus for the configured
// driver. Non-redis drivers use the in-process bus: there are no sibling
// instances to signal without shared infrastructure.
func buildStorage(cfg *config.Config, rdb *redis.Client, log zerolog.Logger) (ports.SnapshotStorage, ports.SignoutBus, error) {
	switch cfg.StorageDriver {
	case "redis":
		return storage.NewRedis(rdb), storage.NewRedisBus(rdb, session.SignalKey, log), nil
	case "file":
		fs, err := storage.NewFile(cfg.StateDir)
		if err != nil {
			return nil, nil, err
		}
		return fs, storage.NewMemoryBus(), nil
	default:
		return storage.NewMemory(), storage.NewMemoryBus(), nil
	}
}

// lazyCredentials bridges the construction cycle between the upstream client
// and the session runtime.
type lazyCredentials struct {
	store *session.AuthStore
}

func (l *lazyCredentials) Credential() string {
	if l.store == nil {
		return ""
	}
	return l.store.Credential()
}
