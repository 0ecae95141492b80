package appconfig

import (
	"fmt"

	"registry/modules/db/localfile"
	"registry/modules/db/redis"
	"registry/modules/hmac"
	"registry/modules/logging"
	"registry/modules/middleware/ratelimit"
	"registry/modules/telemetry"

	"github.com/caarlos0/env/v11"
)

// Storage backends for the registry document.
const (
	BackendLocalFile = "localfile"
	BackendRedis     = "redis"
	BackendMemory    = "memory"
)

type StorageConfig struct {
	// Backend selects where the single registry document lives:
	// localfile (default), redis, or memory (ephemeral).
	Backend string `env:"BACKEND" envDefault:"localfile"`

	// Key under which the whole registry document is stored.
	Key string `env:"KEY" envDefault:"registry:document"`

	File localfile.FileConfig `envPrefix:"FILE_"`
}

type Config struct {
	Env  string `env:"ENV" envDefault:"dev"`
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Port int    `env:"PORT" envDefault:"8080"`

	// --- core infra ----
	Logging logging.Config    `envPrefix:"LOG_"`
	Storage StorageConfig     `envPrefix:"STORAGE_"`
	Redis   redis.RedisConfig `envPrefix:"REDIS_"`

	// Seal protects the persisted document against tampering; optional.
	Seal hmac.HMACConfig `envPrefix:"SEAL_"`

	// --- middlewares ----
	RateLimit ratelimit.Config `envPrefix:"RATE_LIMIT_"`

	// --- otel ----
	// since it has special naming conventions, we do not use prefix here
	Otel telemetry.Config
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(c *Config) error {
	switch c.Storage.Backend {
	case BackendLocalFile, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("appconfig: unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.Backend == BackendRedis && c.Redis.URL == "" {
		return fmt.Errorf("appconfig: storage backend is redis but REDIS_URL is empty")
	}
	return nil
}
