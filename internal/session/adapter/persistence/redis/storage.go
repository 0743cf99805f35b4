package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"melodiapp-web/internal/session/domain/model"
	"melodiapp-web/internal/shared/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Storage is a TabStorage keeping one redis hash per tab. The hash expires
// ttl after the tab's last access.
type Storage struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
	logger    logger.Logger
}

// NewStorage creates a redis backed tab storage.
func NewStorage(client redis.UniversalClient, keyPrefix string, ttl time.Duration, log logger.Logger) *Storage {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Storage{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
		logger:    log.WithComponent("redis_tab_storage"),
	}
}

func (s *Storage) tabKey(tabID string) string {
	return s.keyPrefix + tabID
}

// GetItem reads key from the tab hash and slides its expiry.
func (s *Storage) GetItem(ctx context.Context, tabID, key string) (string, bool, error) {
	if tabID == "" {
		return "", false, model.ErrTabIDRequired
	}

	tabKey := s.tabKey(tabID)
	value, err := s.client.HGet(ctx, tabKey, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		s.logger.Error("Failed to read tab item",
			zap.String("tabKey", tabKey),
			zap.String("key", key),
			zap.Error(err))
		return "", false, fmt.Errorf("redis hget %s: %w", tabKey, err)
	}

	if s.ttl > 0 {
		if err := s.client.Expire(ctx, tabKey, s.ttl).Err(); err != nil {
			s.logger.Warn("Failed to refresh tab expiry", zap.String("tabKey", tabKey), zap.Error(err))
		}
	}
	return value, true, nil
}

// SetItem writes key into the tab hash and resets its expiry.
func (s *Storage) SetItem(ctx context.Context, tabID, key, value string) error {
	if tabID == "" {
		return model.ErrTabIDRequired
	}

	tabKey := s.tabKey(tabID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, tabKey, key, value)
		if s.ttl > 0 {
			pipe.Expire(ctx, tabKey, s.ttl)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to write tab item",
			zap.String("tabKey", tabKey),
			zap.String("key", key),
			zap.Error(err))
		return fmt.Errorf("redis hset %s: %w", tabKey, err)
	}

	s.logger.Debug("Tab item stored", zap.String("tabKey", tabKey), zap.String("key", key))
	return nil
}

// RemoveItem deletes key from the tab hash. Redis drops the hash once empty.
func (s *Storage) RemoveItem(ctx context.Context, tabID, key string) error {
	if tabID == "" {
		return model.ErrTabIDRequired
	}

	tabKey := s.tabKey(tabID)
	if err := s.client.HDel(ctx, tabKey, key).Err(); err != nil {
		s.logger.Error("Failed to remove tab item",
			zap.String("tabKey", tabKey),
			zap.String("key", key),
			zap.Error(err))
		return fmt.Errorf("redis hdel %s: %w", tabKey, err)
	}
	return nil
}

// Ping checks the redis connection.
func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
