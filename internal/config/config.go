package config

import (
	"fmt"
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Database struct {
	URL      string `env:"DATABASE_URL"`
	Host     string `env:"DB_HOST" env-default:"localhost"`
	Port     string `env:"DB_PORT" env-default:"5432"`
	User     string `env:"DB_USER" env-default:"postgres"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME" env-default:"stock_tracker"`
	SSLMode  string `env:"DB_SSLMODE" env-default:"disable"`
	TimeZone string `env:"DB_TIMEZONE" env-default:"UTC"`

	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" env-default:"100"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"1h"`
}

// GetDSN prefers DATABASE_URL and otherwise builds a key/value DSN.
func (d *Database) GetDSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode, d.TimeZone,
	)
}

// Redis is optional; an empty address disables the stats cache.
type Redis struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
}

func (r *Redis) Enabled() bool {
	return r.Addr != ""
}

type JWT struct {
	Secret      string        `env:"JWT_SECRET" env-default:"your-super-secret-key-change-in-production"`
	TTL         time.Duration `env:"JWT_TTL" env-default:"24h"`
	IdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" env-default:"5m"`
}

// PrimaryAdmin is the bootstrap administrator seeded on startup.
type PrimaryAdmin struct {
	Email     string `env:"PRIMARY_ADMIN_EMAIL" env-default:"admin@example.com"`
	Password  string `env:"PRIMARY_ADMIN_PASSWORD" env-default:"admin123"`
	FirstName string `env:"PRIMARY_ADMIN_FIRST_NAME" env-default:"Primary"`
	LastName  string `env:"PRIMARY_ADMIN_LAST_NAME" env-default:"Administrator"`
}

type Config struct {
	Env          string        `env:"APP_ENV" env-default:"development"`
	Port         string        `env:"PORT" env-default:"3000"`
	CORSOrigins  string        `env:"CORS_ORIGINS" env-default:"*"`
	CacheTTL     time.Duration `env:"CACHE_TTL" env-default:"30s"`
	Database     Database
	Redis        Redis
	JWT          JWT
	PrimaryAdmin PrimaryAdmin
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads .env (if present) into the process environment, then the environment into Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read config from env: %w", err)
	}
	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("can not read config: %s", err.Error())
	}
	return cfg
}
