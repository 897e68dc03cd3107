// Package ledger applies balance mutations and bet records with the
// guarantees every round relies on: the stake is debited before any outcome
// is committed, the payout is credited exactly once, and a bet record is
// written for every completed round, losses included. Mutations for one user
// are serialized; different users never contend.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"betman-backend/internal/models"
	"betman-backend/internal/store"
)

var (
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrSettleFailed marks any settlement that did not commit; the cause
	// is wrapped alongside it.
	ErrSettleFailed = errors.New("failed to settle round")

	// Storage sentinels re-exported so callers do not import the store
	// package just to classify a failure.
	ErrInsufficientFunds = store.ErrInsufficientFunds
	ErrAlreadySettled    = store.ErrDuplicateBet
)

type Ledger struct {
	store *store.Store

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func New(st *store.Store) *Ledger {
	return &Ledger{
		store: st,
		locks: make(map[int64]*sync.Mutex),
	}
}

func (l *Ledger) userLock(userID int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[userID] = lock
	}
	return lock
}

func (l *Ledger) Balance(ctx context.Context, userID int64) (int, error) {
	return l.store.Users().Balance(ctx, userID)
}

// Debit locks in a stake. Fails with ErrInsufficientFunds before any round
// state exists, so a refused bet never needs unwinding.
func (l *Ledger) Debit(ctx context.Context, userID int64, amount int) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	lock := l.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if err := l.store.Users().Debit(ctx, userID, amount); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"amount":  amount,
	}).Debug("stake debited")
	return nil
}

// Credit adds coins outside of a round settlement (top-ups).
func (l *Ledger) Credit(ctx context.Context, userID int64, amount int) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	lock := l.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	return l.store.Users().Credit(ctx, userID, amount)
}

// Settle completes a round: the payout credit (if any) and the bet record
// land in one transaction. Either both commit or neither does; a failure
// here leaves the already-debited stake intact for Refund, never a
// half-written round.
func (l *Ledger) Settle(ctx context.Context, bet *models.Bet) error {
	if bet.InitialBet <= 0 {
		return ErrInvalidAmount
	}
	if bet.ID == "" {
		bet.ID = uuid.New().String()
	}
	if bet.CreatedAt.IsZero() {
		bet.CreatedAt = time.Now()
	}

	lock := l.userLock(bet.UserID)
	lock.Lock()
	defer lock.Unlock()

	err := l.store.Transaction(ctx, func(tx *store.Store) error {
		if bet.BetResult > 0 {
			if err := tx.Users().Credit(ctx, bet.UserID, bet.BetResult); err != nil {
				return err
			}
		}
		return tx.Bets().Append(ctx, bet)
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSettleFailed, err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":     bet.UserID,
		"game":        bet.Game,
		"initial_bet": bet.InitialBet,
		"bet_result":  bet.BetResult,
	}).Info("round settled")
	return nil
}

// Refund reverses a debit when a round could not run to completion after the
// stake was taken. It retries the credit so money is never silently dropped.
func (l *Ledger) Refund(ctx context.Context, userID int64, amount int) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	lock := l.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	var err error
	for attempt := 0; attempt < 3; attempt++ {
		if err = l.store.Users().Credit(ctx, userID, amount); err == nil {
			return nil
		}
		time.Sleep(time.Duration(attempt+1) * 50 * time.Millisecond)
	}

	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"amount":  amount,
	}).WithError(err).Error("refund failed after retries")
	return fmt.Errorf("failed to refund user %d: %w", userID, err)
}
