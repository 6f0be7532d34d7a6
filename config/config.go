package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	ServerPort  string `env:"PORT" envDefault:"8080"`

	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     int    `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD,required,notEmpty"`
	DBName     string `env:"DB_NAME" envDefault:"postgres"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	JWTSecret       string        `env:"JWT_SECRET,required,notEmpty"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"24h"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"8760h"`

	// Redis is optional. Without it the publish rate limiter is off and
	// draft autosave routes are not registered.
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	PublishRateLimit  int           `env:"PUBLISH_RATE_LIMIT" envDefault:"10"`
	PublishRateWindow time.Duration `env:"PUBLISH_RATE_WINDOW" envDefault:"1m"`
	DraftTTL          time.Duration `env:"DRAFT_TTL" envDefault:"72h"`

	StorageBucket       string `env:"STORAGE_BUCKET"`
	StorageCDNDomain    string `env:"STORAGE_CDN_DOMAIN"`
	StorageEmulatorHost string `env:"STORAGE_EMULATOR_HOST"`
	MaxThumbnailBytes   int64  `env:"MAX_THUMBNAIL_BYTES" envDefault:"5242880"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// Missing .env is fine outside local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.MaxThumbnailBytes <= 0 {
		return nil, fmt.Errorf("MAX_THUMBNAIL_BYTES must be positive, got %d", cfg.MaxThumbnailBytes)
	}
	return cfg, nil
}

// DSN returns the lib/pq key/value connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

func (c *Config) StorageEnabled() bool {
	return c.StorageBucket != ""
}

func (c *Config) AllowAllOrigins() bool {
	return len(c.CORSAllowedOrigins) == 0 || (len(c.CORSAllowedOrigins) == 1 && c.CORSAllowedOrigins[0] == "*")
}
