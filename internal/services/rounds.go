package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"betman-backend/internal/engine"
	"betman-backend/internal/models"
)

// MoveResponse answers one move inside a stateful round. Balance is only
// populated once the round is done and settled.
type MoveResponse struct {
	RoundID string      `json:"round_id"`
	Done    bool        `json:"done"`
	Payout  int         `json:"payout"`
	Balance *int        `json:"balance,omitempty"`
	Detail  interface{} `json:"detail,omitempty"`
}

// startCrash parks a crash round and lets it run on its own ticker; the
// outcome is already fixed (target vs crash point) but the multiplier climb
// is streamed so clients can animate the curve live.
func (c *Casino) startCrash(ctx context.Context, userID int64, roundID string, req *models.BetRequest) (*models.RoundResponse, error) {
	crash := engine.NewCrashRound(req.Amount, req.Target, c.rng)
	resp := c.park(userID, roundID, req, &Round{Crash: crash})
	resp.Detail = map[string]interface{}{
		"target":     req.Target,
		"win_chance": engine.CrashWinChance(req.Target),
	}

	crash.Start()
	go c.runCrash(roundID, userID)
	return resp, nil
}

func (c *Casino) runCrash(roundID string, userID int64) {
	round, err := c.round(roundID, userID)
	if err != nil {
		return
	}

	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()

	start := time.Now()
	for range ticker.C {
		round.mu.Lock()
		multiplier, crashed := round.Crash.At(time.Since(start).Seconds())
		if crashed {
			c.broadcaster.BroadcastCrash(roundID, round.Crash.CrashPoint)
			// Settlement must run to completion even if the client is
			// long gone, so it gets its own context.
			if _, err := c.settleRound(context.Background(), round, round.Crash.Payout()); err != nil && !errors.Is(err, ErrRoundNotFound) {
				logrus.WithError(err).WithField("round_id", roundID).
					Error("failed to settle crash round")
			}
			round.mu.Unlock()
			return
		}
		round.mu.Unlock()
		c.broadcaster.BroadcastCrashTick(roundID, multiplier)
	}
}

// RevealMine uncovers one cell of a live mines round. Hitting a mine settles
// the round at zero and reveals the field.
func (c *Casino) RevealMine(ctx context.Context, userID int64, roundID string, cell int) (*MoveResponse, error) {
	round, err := c.round(roundID, userID)
	if err != nil {
		return nil, err
	}
	if round.Game != models.GameMines {
		return nil, fmt.Errorf("%w: round is %s", ErrRoundNotFound, round.Game)
	}

	round.mu.Lock()
	defer round.mu.Unlock()

	safe, err := round.Mines.Reveal(cell)
	if err != nil {
		return nil, err
	}

	if !safe {
		settled, err := c.settleRound(ctx, round, 0)
		if err != nil {
			return nil, err
		}
		return &MoveResponse{
			RoundID: roundID,
			Done:    true,
			Balance: settled.Balance,
			Detail: map[string]interface{}{
				"cell":  cell,
				"mine":  true,
				"mines": round.Mines.Mines(),
			},
		}, nil
	}

	return &MoveResponse{
		RoundID: roundID,
		Detail: map[string]interface{}{
			"cell":     cell,
			"mine":     false,
			"winnings": round.Mines.Winnings(),
			"revealed": round.Mines.RevealedCount(),
		},
	}, nil
}

// CashOutMines locks in the accumulated winnings and settles.
func (c *Casino) CashOutMines(ctx context.Context, userID int64, roundID string) (*MoveResponse, error) {
	round, err := c.round(roundID, userID)
	if err != nil {
		return nil, err
	}
	if round.Game != models.GameMines {
		return nil, fmt.Errorf("%w: round is %s", ErrRoundNotFound, round.Game)
	}

	round.mu.Lock()
	defer round.mu.Unlock()

	winnings, err := round.Mines.CashOut()
	if err != nil {
		return nil, err
	}

	settled, err := c.settleRound(ctx, round, winnings)
	if err != nil {
		return nil, err
	}
	return &MoveResponse{
		RoundID: roundID,
		Done:    true,
		Payout:  winnings,
		Balance: settled.Balance,
		Detail: map[string]interface{}{
			"mines": round.Mines.Mines(),
		},
	}, nil
}

// PickTower selects a cell in the current dragon tower row.
func (c *Casino) PickTower(ctx context.Context, userID int64, roundID string, col int) (*MoveResponse, error) {
	round, err := c.round(roundID, userID)
	if err != nil {
		return nil, err
	}
	if round.Game != models.GameDragonTower {
		return nil, fmt.Errorf("%w: round is %s", ErrRoundNotFound, round.Game)
	}

	round.mu.Lock()
	defer round.mu.Unlock()

	pick, err := round.Tower.Pick(col)
	if err != nil {
		return nil, err
	}

	if !pick.Done {
		return &MoveResponse{RoundID: roundID, Detail: pick}, nil
	}

	settled, err := c.settleRound(ctx, round, pick.Payout)
	if err != nil {
		return nil, err
	}
	return &MoveResponse{
		RoundID: roundID,
		Done:    true,
		Payout:  pick.Payout,
		Balance: settled.Balance,
		Detail:  pick,
	}, nil
}

// Hit draws a card for the player; a bust settles immediately.
func (c *Casino) Hit(ctx context.Context, userID int64, roundID string) (*MoveResponse, error) {
	round, err := c.round(roundID, userID)
	if err != nil {
		return nil, err
	}
	if round.Game != models.GameBlackjack {
		return nil, fmt.Errorf("%w: round is %s", ErrRoundNotFound, round.Game)
	}

	round.mu.Lock()
	defer round.mu.Unlock()

	result, busted, err := round.Blackjack.Hit()
	if err != nil {
		return nil, err
	}

	if busted {
		settled, err := c.settleRound(ctx, round, result.Payout)
		if err != nil {
			return nil, err
		}
		return &MoveResponse{
			RoundID: roundID,
			Done:    true,
			Payout:  result.Payout,
			Balance: settled.Balance,
			Detail:  result,
		}, nil
	}

	return &MoveResponse{
		RoundID: roundID,
		Detail: map[string]interface{}{
			"player_cards": round.Blackjack.PlayerCards(),
			"player_score": round.Blackjack.PlayerScore(),
			"dealer_up":    round.Blackjack.VisibleDealerCard(),
		},
	}, nil
}

// Stand ends the player's turn, plays out the dealer and settles.
func (c *Casino) Stand(ctx context.Context, userID int64, roundID string) (*MoveResponse, error) {
	round, err := c.round(roundID, userID)
	if err != nil {
		return nil, err
	}
	if round.Game != models.GameBlackjack {
		return nil, fmt.Errorf("%w: round is %s", ErrRoundNotFound, round.Game)
	}

	round.mu.Lock()
	defer round.mu.Unlock()

	result, err := round.Blackjack.Stand()
	if err != nil {
		return nil, err
	}

	settled, err := c.settleRound(ctx, round, result.Payout)
	if err != nil {
		return nil, err
	}
	return &MoveResponse{
		RoundID: roundID,
		Done:    true,
		Payout:  result.Payout,
		Balance: settled.Balance,
		Detail:  result,
	}, nil
}
