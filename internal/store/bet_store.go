package store

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"betman-backend/internal/models"
)

type BetStore struct {
	db *gorm.DB
}

// Append writes one immutable bet record. A second write under the same id
// reports ErrDuplicateBet so callers can tell a replay from a storage fault.
func (s *BetStore) Append(ctx context.Context, bet *models.Bet) error {
	if err := s.db.WithContext(ctx).Create(bet).Error; err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return ErrDuplicateBet
		}
		return fmt.Errorf("failed to record bet: %w", err)
	}
	return nil
}

// Latest returns the n most recent bets, newest first.
func (s *BetStore) Latest(ctx context.Context, n int) ([]models.Bet, error) {
	var bets []models.Bet
	err := s.db.WithContext(ctx).
		Order("created_at DESC").Limit(n).
		Find(&bets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query latest bets: %w", err)
	}
	return bets, nil
}

func (s *BetStore) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Bet{}).
		Where("user_id = ?", userID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count bets for user %d: %w", userID, err)
	}
	return count, nil
}

// MostPlayedGame returns the game the user has bet on most often, or "" when
// they have no bets.
func (s *BetStore) MostPlayedGame(ctx context.Context, userID int64) (models.Game, error) {
	var game models.Game
	err := s.db.WithContext(ctx).Model(&models.Bet{}).
		Select("game").Where("user_id = ?", userID).
		Group("game").Order("COUNT(*) DESC").Limit(1).
		Scan(&game).Error
	if err != nil {
		return "", fmt.Errorf("failed to query most played game for user %d: %w", userID, err)
	}
	return game, nil
}

// TotalWinnings sums net profit (bet_result - initial_bet) across all of the
// user's bets; losses make it negative.
func (s *BetStore) TotalWinnings(ctx context.Context, userID int64) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&models.Bet{}).
		Select("COALESCE(SUM(bet_result - initial_bet), 0)").
		Where("user_id = ?", userID).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum winnings for user %d: %w", userID, err)
	}
	return total, nil
}
