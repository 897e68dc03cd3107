package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betman-backend/internal/ledger"
	"betman-backend/internal/models"
	"betman-backend/internal/rng"
	"betman-backend/internal/store"
)

func newTestCasino(t *testing.T, src rng.Source) (*Casino, *ledger.Ledger, *store.Store, int64) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "casino.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	user := &models.User{Username: "player", Password: "hash", Balance: 1000}
	require.NoError(t, st.Users().Create(context.Background(), user))

	bank := ledger.New(st)
	return NewCasino(bank, src, nil, nil), bank, st, user.ID
}

func TestPlaceBetDiceWin(t *testing.T) {
	casino, bank, st, userID := newTestCasino(t, &rng.Fixed{Ints: []int{75}})
	ctx := context.Background()

	resp, err := casino.PlaceBet(ctx, userID, &models.BetRequest{
		Game: models.GameDice, Amount: 100, Threshold: 50,
	})
	require.NoError(t, err)

	assert.True(t, resp.Win)
	assert.Equal(t, 200, resp.Payout)
	require.NotNil(t, resp.Balance)
	assert.Equal(t, 1100, *resp.Balance)

	balance, err := bank.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1100, balance)

	bets, err := st.Bets().Latest(ctx, 1)
	require.NoError(t, err)
	require.Len(t, bets, 1)
	assert.Equal(t, models.GameDice, bets[0].Game)
	assert.Equal(t, resp.RoundID, bets[0].ID)

	// one-shot rounds release the player immediately
	_, active := casino.ActiveRound(userID)
	assert.False(t, active)
}

func TestPlaceBetRejectsInvalidRequest(t *testing.T) {
	casino, bank, _, userID := newTestCasino(t, rng.NewSeeded(1))
	ctx := context.Background()

	_, err := casino.PlaceBet(ctx, userID, &models.BetRequest{
		Game: models.GameDice, Amount: 50, Threshold: 50, // below the dice minimum
	})
	assert.Error(t, err)

	balance, err := bank.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1000, balance)

	_, active := casino.ActiveRound(userID)
	assert.False(t, active)
}

func TestPlaceBetInsufficientFunds(t *testing.T) {
	casino, _, _, userID := newTestCasino(t, rng.NewSeeded(1))

	_, err := casino.PlaceBet(context.Background(), userID, &models.BetRequest{
		Game: models.GameDice, Amount: 5000, Threshold: 50,
	})
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	_, active := casino.ActiveRound(userID)
	assert.False(t, active)
}

func TestMinesRoundLifecycle(t *testing.T) {
	casino, bank, _, userID := newTestCasino(t, &rng.Fixed{Ints: []int{0, 1, 2}})
	ctx := context.Background()

	resp, err := casino.PlaceBet(ctx, userID, &models.BetRequest{
		Game: models.GameMines, Amount: 100, Mines: 3,
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.RoundID)

	// stake held, round parked
	balance, err := bank.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 900, balance)

	_, err = casino.PlaceBet(ctx, userID, &models.BetRequest{
		Game: models.GameDice, Amount: 100, Threshold: 50,
	})
	assert.ErrorIs(t, err, ErrRoundInFlight)

	move, err := casino.RevealMine(ctx, userID, resp.RoundID, 10)
	require.NoError(t, err)
	assert.False(t, move.Done)

	move, err = casino.CashOutMines(ctx, userID, resp.RoundID)
	require.NoError(t, err)
	assert.True(t, move.Done)
	assert.Equal(t, 41, move.Payout) // one safe cell at 3 mines on a 100 stake
	require.NotNil(t, move.Balance)
	assert.Equal(t, 941, *move.Balance)

	// round is gone and the player is free again
	_, err = casino.CashOutMines(ctx, userID, resp.RoundID)
	assert.ErrorIs(t, err, ErrRoundNotFound)
	_, active := casino.ActiveRound(userID)
	assert.False(t, active)
}

func TestMinesHitSettlesAtZero(t *testing.T) {
	casino, bank, _, userID := newTestCasino(t, &rng.Fixed{Ints: []int{0, 1, 2}})
	ctx := context.Background()

	resp, err := casino.PlaceBet(ctx, userID, &models.BetRequest{
		Game: models.GameMines, Amount: 100, Mines: 3,
	})
	require.NoError(t, err)

	move, err := casino.RevealMine(ctx, userID, resp.RoundID, 1)
	require.NoError(t, err)
	assert.True(t, move.Done)
	assert.Equal(t, 0, move.Payout)
	require.NotNil(t, move.Balance)
	assert.Equal(t, 900, *move.Balance)

	balance, err := bank.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 900, balance)
}

func TestRoundOwnership(t *testing.T) {
	casino, _, st, userID := newTestCasino(t, &rng.Fixed{Ints: []int{0, 1, 2}})
	ctx := context.Background()

	other := &models.User{Username: "intruder", Password: "hash", Balance: 1000}
	require.NoError(t, st.Users().Create(ctx, other))

	resp, err := casino.PlaceBet(ctx, userID, &models.BetRequest{
		Game: models.GameMines, Amount: 100, Mines: 3,
	})
	require.NoError(t, err)

	_, err = casino.RevealMine(ctx, other.ID, resp.RoundID, 5)
	assert.ErrorIs(t, err, ErrNotYourRound)

	_, err = casino.RevealMine(ctx, userID, "no-such-round", 5)
	assert.ErrorIs(t, err, ErrRoundNotFound)
}

func TestTowerClimbSettlesWin(t *testing.T) {
	// zero-scripted shuffle puts every skull in column 1
	casino, _, _, userID := newTestCasino(t, &rng.Fixed{Ints: []int{0}})
	ctx := context.Background()

	resp, err := casino.PlaceBet(ctx, userID, &models.BetRequest{
		Game: models.GameDragonTower, Amount: 100, Difficulty: "easy",
	})
	require.NoError(t, err)

	var move *MoveResponse
	for row := 0; row < 6; row++ {
		move, err = casino.PickTower(ctx, userID, resp.RoundID, 0)
		require.NoError(t, err)
	}

	assert.True(t, move.Done)
	assert.Equal(t, 800, move.Payout)
	require.NotNil(t, move.Balance)
	assert.Equal(t, 1700, *move.Balance)
}

func TestBlackjackStandSettles(t *testing.T) {
	casino, bank, st, userID := newTestCasino(t, rng.NewSeeded(4))
	ctx := context.Background()

	resp, err := casino.PlaceBet(ctx, userID, &models.BetRequest{
		Game: models.GameBlackjack, Amount: 100,
	})
	require.NoError(t, err)

	move, err := casino.Stand(ctx, userID, resp.RoundID)
	require.NoError(t, err)
	assert.True(t, move.Done)

	balance, err := bank.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 900+move.Payout, balance)

	count, err := st.Bets().CountByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMoveRejectsWrongGame(t *testing.T) {
	casino, _, _, userID := newTestCasino(t, &rng.Fixed{Ints: []int{0, 1, 2}})
	ctx := context.Background()

	resp, err := casino.PlaceBet(ctx, userID, &models.BetRequest{
		Game: models.GameMines, Amount: 100, Mines: 3,
	})
	require.NoError(t, err)

	_, err = casino.Hit(ctx, userID, resp.RoundID)
	assert.Error(t, err)
	_, err = casino.PickTower(ctx, userID, resp.RoundID, 0)
	assert.Error(t, err)
}

func TestCleanupStaleRoundsCashesOutMines(t *testing.T) {
	casino, bank, st, userID := newTestCasino(t, &rng.Fixed{Ints: []int{0, 1, 2}})
	ctx := context.Background()

	resp, err := casino.PlaceBet(ctx, userID, &models.BetRequest{
		Game: models.GameMines, Amount: 100, Mines: 3,
	})
	require.NoError(t, err)

	_, err = casino.RevealMine(ctx, userID, resp.RoundID, 10)
	require.NoError(t, err)

	casino.mu.Lock()
	casino.rounds[resp.RoundID].LastUpdate = time.Now().Add(-time.Hour)
	casino.mu.Unlock()

	casino.CleanupStaleRounds(ctx, 10*time.Minute)

	// the abandoned round cashed out its one safe reveal
	balance, err := bank.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 941, balance)

	count, err := st.Bets().CountByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, active := casino.ActiveRound(userID)
	assert.False(t, active)
}

func TestConcurrentRevealsStayConsistent(t *testing.T) {
	casino, bank, _, userID := newTestCasino(t, &rng.Fixed{Ints: []int{0, 1, 2}})
	ctx := context.Background()

	resp, err := casino.PlaceBet(ctx, userID, &models.BetRequest{
		Game: models.GameMines, Amount: 100, Mines: 3,
	})
	require.NoError(t, err)

	// hammer the round with parallel reveals of distinct safe cells
	cells := []int{5, 6, 7, 8, 9, 10, 11, 12, 13, 14}
	var wg sync.WaitGroup
	for _, cell := range cells {
		wg.Add(1)
		go func(cell int) {
			defer wg.Done()
			_, err := casino.RevealMine(ctx, userID, resp.RoundID, cell)
			assert.NoError(t, err)
		}(cell)
	}
	wg.Wait()

	move, err := casino.CashOutMines(ctx, userID, resp.RoundID)
	require.NoError(t, err)
	assert.Equal(t, len(cells)*41, move.Payout)

	balance, err := bank.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 900+len(cells)*41, balance)
}

func TestConcurrentSweepsSettleOnce(t *testing.T) {
	casino, bank, st, userID := newTestCasino(t, &rng.Fixed{Ints: []int{0, 1, 2}})
	ctx := context.Background()

	resp, err := casino.PlaceBet(ctx, userID, &models.BetRequest{
		Game: models.GameMines, Amount: 100, Mines: 3,
	})
	require.NoError(t, err)

	_, err = casino.RevealMine(ctx, userID, resp.RoundID, 10)
	require.NoError(t, err)

	casino.mu.Lock()
	casino.rounds[resp.RoundID].LastUpdate = time.Now().Add(-time.Hour)
	casino.mu.Unlock()

	// two sweeps and the player's own cash-out all race for the round;
	// exactly one of them may credit the winnings
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			casino.CleanupStaleRounds(ctx, 10*time.Minute)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		// losing the race is fine, the error just must not touch balances
		_, _ = casino.CashOutMines(ctx, userID, resp.RoundID)
	}()
	wg.Wait()

	balance, err := bank.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 941, balance)

	count, err := st.Bets().CountByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, active := casino.ActiveRound(userID)
	assert.False(t, active)
}

func TestCrashRoundStreamsAndSettles(t *testing.T) {
	// zero draws pin the crash point at the 1.01 floor, under the target
	casino, bank, _, userID := newTestCasino(t, &rng.Fixed{Floats: []float64{0.0}})
	casino.tickInterval = time.Millisecond
	ctx := context.Background()

	resp, err := casino.PlaceBet(ctx, userID, &models.BetRequest{
		Game: models.GameCrash, Amount: 100, Target: 1.2,
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.RoundID)

	deadline := time.Now().Add(10 * time.Second)
	for {
		if _, active := casino.ActiveRound(userID); !active {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("crash round never settled")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// target above the crash point, stake lost
	balance, err := bank.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 900, balance)
}
