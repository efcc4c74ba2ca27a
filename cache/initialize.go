package cache

import (
	"context"
	"os"

	"tweet-fleet/config"

	"github.com/go-redis/redis/v8"
	"github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
)

func InitializeCache(cfg config.PKCEConfig) ChallengeStore {
	if cfg.Store != "redis" {
		logger.Info("Using in-memory PKCE store", zap.Duration("ttl", cfg.TTL))
		return NewMemoryStore(cfg.TTL)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Error("Failed to initialize cache:", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("Using redis PKCE store", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.TTL))
	return NewRedisStore(client, cfg.TTL)
}
