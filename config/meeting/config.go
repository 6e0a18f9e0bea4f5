package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverBadger   = "badger"
)

type Config struct {
	Port      int    `env:"PORT" env-default:"8080"`
	GRPCPort  int    `env:"GRPC_PORT" env-default:"9090"`
	LogLevel  string `env:"LOG_LEVEL" env-default:"info"`
	LogJSON   bool   `env:"LOG_JSON" env-default:"false"`
	JWTSecret string `env:"JWT_SECRET" env-required:"true"`

	TokenTTL       time.Duration `env:"TOKEN_TTL" env-default:"24h"`
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`

	StorageDriver string `env:"STORAGE_DRIVER" env-default:"postgres"`
	Database      DatabaseConfig
	Badger        BadgerConfig
	Redis         RedisConfig
	Summarizer    SummarizerConfig
}

type DatabaseConfig struct {
	User     string `env:"DB_USER"`
	Password string `env:"DB_PASSWORD"`
	Host     string `env:"DB_HOST" env-default:"localhost"`
	Name     string `env:"DB_NAME"`
	Port     int    `env:"DB_PORT" env-default:"5432"`
	SSLMode  string `env:"DB_SSLMODE" env-default:"disable"`
}

// DSN builds the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s dbname=%s password=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Name,
		d.Password,
		d.SSLMode,
	)
}

type BadgerConfig struct {
	// Empty path keeps the whole store in memory.
	Path string `env:"BADGER_PATH"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`

	// LockTTL is the reconcile lock lease. Holders refresh it every LockTTL/3,
	// so it only bounds how long a crashed replica keeps the lock.
	LockTTL time.Duration `env:"LOCK_TTL" env-default:"5s"`
}

type SummarizerConfig struct {
	APIKey  string        `env:"SUMMARIZER_API_KEY"`
	URL     string        `env:"SUMMARIZER_URL" env-default:"https://generativelanguage.googleapis.com/v1beta"`
	Model   string        `env:"SUMMARIZER_MODEL" env-default:"gemini-2.0-flash"`
	Timeout time.Duration `env:"SUMMARIZER_TIMEOUT" env-default:"30s"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err.Error())
	}
	return cfg
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	switch c.StorageDriver {
	case DriverPostgres:
		if c.Database.Name == "" || c.Database.User == "" {
			return errors.New("DB_NAME and DB_USER are required for the postgres driver")
		}
	case DriverBadger:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	if c.Summarizer.Timeout <= 0 {
		return errors.New("SUMMARIZER_TIMEOUT must be positive")
	}
	return nil
}
