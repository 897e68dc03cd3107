package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betman-backend/internal/models"
	"betman-backend/internal/store"
)

func newTestLedger(t *testing.T) (*Ledger, *store.Store, int64) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	user := &models.User{Username: "player", Password: "hash", Balance: 1000}
	require.NoError(t, st.Users().Create(context.Background(), user))

	return New(st), st, user.ID
}

func TestDebitAndCredit(t *testing.T) {
	l, _, userID := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.Debit(ctx, userID, 300))
	balance, err := l.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 700, balance)

	require.NoError(t, l.Credit(ctx, userID, 100))
	balance, err = l.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 800, balance)
}

func TestDebitRejectsOverdraft(t *testing.T) {
	l, _, userID := newTestLedger(t)
	ctx := context.Background()

	err := l.Debit(ctx, userID, 1001)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	balance, err := l.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1000, balance)
}

func TestInvalidAmounts(t *testing.T) {
	l, _, userID := newTestLedger(t)
	ctx := context.Background()

	assert.ErrorIs(t, l.Debit(ctx, userID, 0), ErrInvalidAmount)
	assert.ErrorIs(t, l.Debit(ctx, userID, -5), ErrInvalidAmount)
	assert.ErrorIs(t, l.Credit(ctx, userID, 0), ErrInvalidAmount)
	assert.ErrorIs(t, l.Refund(ctx, userID, -1), ErrInvalidAmount)
	assert.ErrorIs(t, l.Settle(ctx, &models.Bet{UserID: userID}), ErrInvalidAmount)
}

func TestSettleCreditsAndRecords(t *testing.T) {
	l, st, userID := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.Debit(ctx, userID, 100))

	bet := &models.Bet{
		UserID:     userID,
		InitialBet: 100,
		BetResult:  200,
		Game:       models.GameDice,
	}
	require.NoError(t, l.Settle(ctx, bet))
	assert.NotEmpty(t, bet.ID)
	assert.False(t, bet.CreatedAt.IsZero())

	balance, err := l.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1100, balance)

	bets, err := st.Bets().Latest(ctx, 1)
	require.NoError(t, err)
	require.Len(t, bets, 1)
	assert.Equal(t, bet.ID, bets[0].ID)
	assert.Equal(t, 100, bets[0].NetProfit())
}

func TestSettleLossRecordsWithoutCredit(t *testing.T) {
	l, st, userID := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.Debit(ctx, userID, 100))
	require.NoError(t, l.Settle(ctx, &models.Bet{
		UserID:     userID,
		InitialBet: 100,
		BetResult:  0,
		Game:       models.GameSlots,
	}))

	balance, err := l.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 900, balance)

	count, err := st.Bets().CountByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSettleSameRoundTwice(t *testing.T) {
	l, st, userID := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.Debit(ctx, userID, 100))

	bet := &models.Bet{
		ID:         "round-1",
		UserID:     userID,
		InitialBet: 100,
		BetResult:  200,
		Game:       models.GameDice,
	}
	require.NoError(t, l.Settle(ctx, bet))

	// a replay of the same round must not credit again
	err := l.Settle(ctx, &models.Bet{
		ID:         "round-1",
		UserID:     userID,
		InitialBet: 100,
		BetResult:  200,
		Game:       models.GameDice,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadySettled)
	assert.ErrorIs(t, err, ErrSettleFailed)

	balance, err := l.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1100, balance)

	count, err := st.Bets().CountByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRefundRestoresStake(t *testing.T) {
	l, _, userID := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.Debit(ctx, userID, 400))
	require.NoError(t, l.Refund(ctx, userID, 400))

	balance, err := l.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1000, balance)
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	l, _, userID := newTestLedger(t)
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, refused := 0, 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.Debit(ctx, userID, 100)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrInsufficientFunds):
				refused++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	assert.Equal(t, workers-10, refused)

	balance, err := l.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}
