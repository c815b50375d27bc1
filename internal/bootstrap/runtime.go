// Package bootstrap connects the runtime dependencies shared by the commands.
package bootstrap

import (
	"context"
	"fmt"

	"network/internal/cache"
	"network/internal/config"
	"network/internal/database"
	"network/internal/middleware"
	"network/internal/models"
	"network/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemo fills an empty development database with demo data.
	SeedDemo bool
}

// InitRuntime connects to the database and Redis. The Redis client is nil
// when Redis is unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	rdb := cache.Connect(ctx, cfg.RedisURL)

	if opts.SeedDemo {
		if err := SeedIfEmpty(ctx, cfg, db); err != nil {
			return nil, nil, fmt.Errorf("demo seeding failed: %w", err)
		}
	}
	return db, rdb, nil
}

// SeedIfEmpty seeds demo data in development when no user exists yet.
func SeedIfEmpty(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil || cfg.Env != "development" {
		return nil
	}
	var users int64
	if err := db.WithContext(ctx).Model(&models.User{}).Count(&users).Error; err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if users > 0 {
		middleware.Logger.InfoContext(ctx, "demo seed skipped, database not empty", "users", users)
		return nil
	}
	_, err := seed.NewSeeder(db, seed.DefaultOptions()).Run(ctx)
	return err
}
