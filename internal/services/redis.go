package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"betman-backend/internal/config"
	"betman-backend/internal/models"
)

const (
	keyRateLimit   = "ratelimit:%d:%s"
	keyRoundLock   = "round:inflight:%d"
	keyLeaderboard = "leaderboard:top"

	ttlLeaderboard = 30 * time.Second
	ttlRoundLock   = 15 * time.Minute
)

// RedisService backs the hot paths that do not belong in sqlite: request
// rate limiting and the leaderboard cache.
type RedisService struct {
	client *redis.Client
}

func NewRedisService(cfg *config.Config) (*RedisService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisService{client: client}, nil
}

func (s *RedisService) Close() error {
	return s.client.Close()
}

// CheckRateLimit counts actions in a rolling window; returns false once the
// limit is hit.
func (s *RedisService) CheckRateLimit(ctx context.Context, userID int64, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf(keyRateLimit, userID, action)

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		s.client.Expire(ctx, key, window)
	}

	return count <= int64(limit), nil
}

// AcquireRoundLock marks the user's round as in flight across instances.
// The TTL is a safety net; the casino releases the lock on settlement.
func (s *RedisService) AcquireRoundLock(ctx context.Context, userID int64, roundID string) (bool, error) {
	key := fmt.Sprintf(keyRoundLock, userID)
	return s.client.SetNX(ctx, key, roundID, ttlRoundLock).Result()
}

func (s *RedisService) ReleaseRoundLock(ctx context.Context, userID int64) error {
	return s.client.Del(ctx, fmt.Sprintf(keyRoundLock, userID)).Err()
}

// CacheLeaderboard stores a ranking snapshot with a short TTL.
func (s *RedisService) CacheLeaderboard(ctx context.Context, rankings []models.UserRanking) error {
	data, err := json.Marshal(rankings)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, keyLeaderboard, data, ttlLeaderboard).Err()
}

// CachedLeaderboard returns the snapshot, or nil on a miss.
func (s *RedisService) CachedLeaderboard(ctx context.Context) ([]models.UserRanking, error) {
	data, err := s.client.Get(ctx, keyLeaderboard).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rankings []models.UserRanking
	if err := json.Unmarshal([]byte(data), &rankings); err != nil {
		return nil, err
	}
	return rankings, nil
}
