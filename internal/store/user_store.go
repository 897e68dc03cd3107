package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"betman-backend/internal/models"
)

type UserStore struct {
	db *gorm.DB
}

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	err := s.db.WithContext(ctx).Create(user).Error
	if err != nil {
		// sqlite reports the unique index violation by message
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return ErrUsernameTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	return &user, nil
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %q: %w", username, err)
	}
	return &user, nil
}

func (s *UserStore) Balance(ctx context.Context, userID int64) (int, error) {
	var balance int
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Select("balance").Where("id = ?", userID).Scan(&balance).Error
	if err != nil {
		return 0, fmt.Errorf("failed to read balance for user %d: %w", userID, err)
	}
	return balance, nil
}

// Debit subtracts amount from the user's balance. The guard is in the UPDATE
// itself, so the balance can never go negative no matter how calls interleave.
func (s *UserStore) Debit(ctx context.Context, userID int64, amount int) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND balance >= ?", userID, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return fmt.Errorf("failed to debit user %d: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientFunds
	}
	return nil
}

func (s *UserStore) Credit(ctx context.Context, userID int64, amount int) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("balance", gorm.Expr("balance + ?", amount))
	if res.Error != nil {
		return fmt.Errorf("failed to credit user %d: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// TopN returns the ranking view, richest first.
func (s *UserStore) TopN(ctx context.Context, n int) ([]models.UserRanking, error) {
	var rankings []models.UserRanking
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Select("id as user_id, username, balance").
		Order("balance DESC").Limit(n).
		Scan(&rankings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query ranking: %w", err)
	}
	return rankings, nil
}

// Rank returns the user's 1-based position by balance, or -1 if unknown.
func (s *UserStore) Rank(ctx context.Context, userID int64) (int, error) {
	var rank int
	err := s.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) + 1 FROM users
		WHERE balance > (SELECT balance FROM users WHERE id = ?)`, userID).
		Scan(&rank).Error
	if err != nil {
		return -1, fmt.Errorf("failed to rank user %d: %w", userID, err)
	}
	return rank, nil
}

func (s *UserStore) UpdateProfileImage(ctx context.Context, userID int64, image []byte) error {
	return s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("profile_image", image).Error
}

// Delete removes the user and cascades to their bets in one transaction.
func (s *UserStore) Delete(ctx context.Context, userID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.Bet{}).Error; err != nil {
			return fmt.Errorf("failed to delete bets for user %d: %w", userID, err)
		}
		res := tx.Delete(&models.User{}, userID)
		if res.Error != nil {
			return fmt.Errorf("failed to delete user %d: %w", userID, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
