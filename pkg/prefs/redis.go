package prefs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultProfile is used when no profile name is configured.
const DefaultProfile = "default"

// RedisStore keeps preferences in Redis so several terminals of one profile
// share them.
type RedisStore struct {
	redis   *redis.Client
	profile string
	logger  zerolog.Logger
}

// NewRedisStore creates a store for profile.
func NewRedisStore(redisClient *redis.Client, profile string, logger zerolog.Logger) *RedisStore {
	if profile == "" {
		profile = DefaultProfile
	}
	return &RedisStore{
		redis:   redisClient,
		profile: profile,
		logger:  logger,
	}
}

// KeyActiveTab returns the key holding the active tab of the profile.
func (s *RedisStore) KeyActiveTab() string {
	return "agentmon:prefs:" + s.profile + ":active_tab"
}

// KeyUpdatedAt returns the key holding the time of the last write.
func (s *RedisStore) KeyUpdatedAt() string {
	return "agentmon:prefs:" + s.profile + ":updated_at"
}

// ActiveTab reads the saved tab. A missing key yields "".
func (s *RedisStore) ActiveTab(ctx context.Context) (string, error) {
	tab, err := s.redis.Get(ctx, s.KeyActiveTab()).Result()
	if errors.Is(err, redis.Nil) {
		s.logger.Debug().Str("profile", s.profile).Msg("No saved tab in Redis")
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get active tab: %w", err)
	}
	return tab, nil
}

// SetActiveTab stores the tab and its update time in one pipeline.
func (s *RedisStore) SetActiveTab(ctx context.Context, tab string) error {
	pipe := s.redis.Pipeline()
	pipe.Set(ctx, s.KeyActiveTab(), tab, 0)
	pipe.Set(ctx, s.KeyUpdatedAt(), time.Now().Unix(), 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store active tab in redis: %w", err)
	}

	s.logger.Debug().Str("profile", s.profile).Str("tab", tab).Msg("Active tab saved")
	return nil
}
