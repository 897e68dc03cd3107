package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"betman-backend/internal/models"
	"betman-backend/internal/store"
)

// The original dashboard shows the eight richest players.
const LeaderboardSize = 8

// Leaderboard serves ranking queries, with a short-lived redis cache in
// front of the database. A cache failure degrades to a direct query instead
// of blocking the request.
type Leaderboard struct {
	store *store.Store
	redis *RedisService
}

func NewLeaderboard(st *store.Store, rs *RedisService) *Leaderboard {
	return &Leaderboard{store: st, redis: rs}
}

func (l *Leaderboard) TopN(ctx context.Context, n int) ([]models.UserRanking, error) {
	if l.redis != nil && n <= LeaderboardSize {
		cached, err := l.redis.CachedLeaderboard(ctx)
		if err != nil {
			logrus.WithError(err).Warn("leaderboard cache read failed")
		} else if cached != nil {
			if n < len(cached) {
				cached = cached[:n]
			}
			return cached, nil
		}
	}

	rankings, err := l.store.Users().TopN(ctx, n)
	if err != nil {
		return nil, err
	}

	if l.redis != nil && n >= LeaderboardSize {
		if err := l.redis.CacheLeaderboard(ctx, rankings); err != nil {
			logrus.WithError(err).Warn("leaderboard cache write failed")
		}
	}
	return rankings, nil
}

// Rank is the user's 1-based position by balance.
func (l *Leaderboard) Rank(ctx context.Context, userID int64) (int, error) {
	return l.store.Users().Rank(ctx, userID)
}
