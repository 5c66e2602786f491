package database

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"fuzzrun/config"
)

type RedisParams struct {
	fx.In

	Config *config.AppConfig
	Logger *zap.Logger
}

// NewRedisClient connects the crash-dedupe store. Without REDIS_URL the
// dedupe step is skipped and nil is returned.
func NewRedisClient(p RedisParams) (*redis.Client, error) {
	if p.Config.RedisURL == "" {
		p.Logger.Debug("no redis configured, crash dedupe disabled")
		return nil, nil
	}

	options, err := redis.ParseURL(p.Config.RedisURL)
	if err != nil {
		p.Logger.Error("failed to parse redis url", zap.Error(err))
		return nil, err
	}
	client := redis.NewClient(options)

	if err := client.Ping(context.Background()).Err(); err != nil {
		p.Logger.Error("failed to reach redis", zap.Error(err))
		return nil, err
	}

	p.Logger.Debug("redis client created successfully")
	return client, nil
}
