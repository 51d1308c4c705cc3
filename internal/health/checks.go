package health

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hellofresh/health-go/v5"
	"github.com/redis/go-redis/v9"
)

type Endpoints struct {
	DB          *sql.DB
	RedisClient *redis.Client // nil when the cache is disabled
}

// New registers a ping check per configured backend.
func New(version string, endpoints *Endpoints) (*health.Health, error) {
	checks := []health.Config{
		{
			Name:      "database",
			Timeout:   3 * time.Second,
			SkipOnErr: false,
			Check:     PingDB(endpoints.DB),
		},
	}
	if endpoints.RedisClient != nil {
		checks = append(checks, health.Config{
			Name:      "redis",
			Timeout:   2 * time.Second,
			SkipOnErr: true,
			Check:     PingRedis(endpoints.RedisClient),
		})
	}

	h, err := health.New(
		health.WithComponent(health.Component{
			Name:    "go-stock-tracker",
			Version: version,
		}),
		health.WithSystemInfo(),
		health.WithChecks(checks...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create health instance: %w", err)
	}
	return h, nil
}

func PingDB(db *sql.DB) health.CheckFunc {
	return func(ctx context.Context) error {
		if db == nil {
			return fmt.Errorf("database is not initialized")
		}
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("database ping failed: %w", err)
		}
		return nil
	}
}

func PingRedis(client *redis.Client) health.CheckFunc {
	return func(ctx context.Context) error {
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping failed: %w", err)
		}
		return nil
	}
}
