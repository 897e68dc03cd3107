package services

import (
	"context"

	"betman-backend/internal/models"
	"betman-backend/internal/store"
)

// Stats assembles the profile view: bet count, favourite game, lifetime net
// winnings and ranking position.
type Stats struct {
	store       *store.Store
	leaderboard *Leaderboard
}

func NewStats(st *store.Store, lb *Leaderboard) *Stats {
	return &Stats{store: st, leaderboard: lb}
}

func (s *Stats) ForUser(ctx context.Context, userID int64) (*models.UserStats, error) {
	count, err := s.store.Bets().CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	mostPlayed, err := s.store.Bets().MostPlayedGame(ctx, userID)
	if err != nil {
		return nil, err
	}

	winnings, err := s.store.Bets().TotalWinnings(ctx, userID)
	if err != nil {
		return nil, err
	}

	rank, err := s.leaderboard.Rank(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &models.UserStats{
		BetCount:       count,
		MostPlayedGame: mostPlayed,
		TotalWinnings:  winnings,
		Rank:           rank,
	}, nil
}
