package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

const roleKeyPrefix = "helpdesk:role:"

// Redis wraps the go-redis client.
type Redis struct {
	Client  *redis.Client
	roleTTL time.Duration
}

// NewRedis connects to Redis using the provided configuration.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client, roleTTL: cfg.RoleCacheTTL}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

// GetRole returns a cached role for email. The bool is false on a cache miss.
func (r *Redis) GetRole(ctx context.Context, email string) (domain.Role, bool, error) {
	if r == nil || r.Client == nil {
		return "", false, nil
	}
	val, err := r.Client.Get(ctx, roleKeyPrefix+email).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return domain.Role(val), true, nil
}

// SetRole caches the resolved role for email.
func (r *Redis) SetRole(ctx context.Context, email string, role domain.Role) error {
	if r == nil || r.Client == nil {
		return nil
	}
	ttl := r.roleTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return r.Client.Set(ctx, roleKeyPrefix+email, string(role), ttl).Err()
}

// InvalidateRole drops the cached role for email.
func (r *Redis) InvalidateRole(ctx context.Context, email string) error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Del(ctx, roleKeyPrefix+email).Err()
}
