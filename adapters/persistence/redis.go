package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/khoahotran/devconnector/internal/application/service"
	"github.com/khoahotran/devconnector/internal/config"
	"github.com/khoahotran/devconnector/pkg/logger"
)

func NewRedisClient(ctx context.Context, cfg config.Config, log logger.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("can not connect Redis: %w", err)
	}

	log.Info("Connect Redis successfully.")
	return rdb, nil
}

const revokedKeyPrefix = "devconnector:revoked:"

type RedisRevocationStore struct {
	rdb *redis.Client
}

var _ service.RevocationStore = (*RedisRevocationStore)(nil)

func NewRedisRevocationStore(rdb *redis.Client) *RedisRevocationStore {
	return &RedisRevocationStore{rdb: rdb}
}

func revokedKey(userID uuid.UUID) string {
	return revokedKeyPrefix + userID.String()
}

// Revoke marks userID for ttl, which should cover the longest-lived token.
func (s *RedisRevocationStore) Revoke(ctx context.Context, userID uuid.UUID, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, revokedKey(userID), time.Now().UTC().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("revoke user %s: %w", userID, err)
	}
	return nil
}

func (s *RedisRevocationStore) IsRevoked(ctx context.Context, userID uuid.UUID) (bool, error) {
	n, err := s.rdb.Exists(ctx, revokedKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("check revocation for %s: %w", userID, err)
	}
	return n > 0, nil
}
