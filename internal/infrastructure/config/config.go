package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`
	JWTSecret string `env:"JWT_SECRET"`

	// UpstreamBaseURL is the backend API every outbound call goes to.
	UpstreamBaseURL string `env:"UPSTREAM_BASE_URL, default=http://localhost:3000"`

	// SignoutOnNotFound restores the historical 404-forces-sign-out coupling.
	// Leave off unless the backend answers 404 for dead sessions.
	SignoutOnNotFound bool `env:"SIGNOUT_ON_NOT_FOUND, default=false"`

	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL, default=5m"`

	// StorageDriver selects the snapshot storage backend: memory, file, or
	// redis. Redis also carries the sign-out signal between instances.
	StorageDriver string `env:"STORAGE_DRIVER, default=file"`
	StateDir      string `env:"STATE_DIR,      default=.sessiongw"`

	// AuditEnabled controls the MongoDB-backed session audit trail.
	AuditEnabled bool `env:"AUDIT_ENABLED,  default=true"`
	AuditWorkers int  `env:"AUDIT_WORKERS,  default=4"`

	Mongo MongoConfig
	Redis RedisConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=session_gateway"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	switch cfg.StorageDriver {
	case "memory", "file", "redis":
	default:
		return nil, fmt.Errorf("config: unknown storage driver %q", cfg.StorageDriver)
	}
	return &cfg, nil
}
