package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"betman-backend/internal/engine"
	"betman-backend/internal/ledger"
	"betman-backend/internal/models"
	"betman-backend/internal/rng"
)

var (
	ErrRoundInFlight = errors.New("another round is already in flight")
	ErrRoundNotFound = errors.New("round not found")
	ErrNotYourRound  = errors.New("round belongs to another user")
)

// Round is the engine-owned state of one live stateful game, referenced by
// an opaque id. Clients only ever see the id and per-move snapshots; the
// engine internals stay in here.
type Round struct {
	ID     string
	UserID int64
	Game   models.Game
	Bet    int

	// mu serializes moves on this round; engine state is not safe for
	// concurrent mutation. Held across the engine call and settlement.
	mu sync.Mutex

	Mines     *engine.MinesRound
	Tower     *engine.TowerRound
	Blackjack *engine.BlackjackRound
	Crash     *engine.CrashRound

	CreatedAt  time.Time
	LastUpdate time.Time
}

// Casino orchestrates rounds: validate, debit, run the engine, settle. One
// user has at most one round in flight; cross-user rounds are independent.
type Casino struct {
	ledger      *ledger.Ledger
	rng         rng.Source
	broadcaster Broadcaster
	redis       *RedisService // optional cross-instance round lock

	mu       sync.Mutex
	rounds   map[string]*Round
	inFlight map[int64]string // user id -> active round id

	// crash rounds tick at this cadence while running
	tickInterval time.Duration
}

func NewCasino(l *ledger.Ledger, src rng.Source, b Broadcaster, rs *RedisService) *Casino {
	if b == nil {
		b = noopBroadcaster{}
	}
	return &Casino{
		ledger:       l,
		rng:          src,
		broadcaster:  b,
		redis:        rs,
		rounds:       make(map[string]*Round),
		inFlight:     make(map[int64]string),
		tickInterval: 100 * time.Millisecond,
	}
}

// PlaceBet validates and debits the stake, then either resolves the round in
// place (dice, roulette, slots, plinko) or parks engine state in the arena
// and returns the round id for the follow-up moves (mines, dragon tower,
// blackjack) or the live feed (crash).
func (c *Casino) PlaceBet(ctx context.Context, userID int64, req *models.BetRequest) (*models.RoundResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid bet: %w", err)
	}

	roundID := uuid.New().String()
	if err := c.acquire(userID, roundID); err != nil {
		return nil, err
	}

	// Stake is locked in before any draw happens.
	if err := c.ledger.Debit(ctx, userID, req.Amount); err != nil {
		c.release(userID, roundID)
		return nil, err
	}

	switch req.Game {
	case models.GameDice:
		res := engine.PlayDice(req.Amount, req.Threshold, c.rng)
		return c.settleOneShot(ctx, userID, roundID, req, res.Payout, res)
	case models.GameRoulette:
		res := engine.PlayRoulette(req.Amount, req.Color, c.rng)
		return c.settleOneShot(ctx, userID, roundID, req, res.Payout, res)
	case models.GameSlots:
		res := engine.PlaySlots(req.Amount, c.rng)
		return c.settleOneShot(ctx, userID, roundID, req, res.Payout, res)
	case models.GamePlinko:
		res := engine.PlayPlinko(req.Amount, c.rng)
		return c.settleOneShot(ctx, userID, roundID, req, res.Payout, res)
	case models.GameCrash:
		return c.startCrash(ctx, userID, roundID, req)
	case models.GameMines:
		round, err := engine.NewMinesRound(req.Amount, req.Mines, c.rng)
		if err != nil {
			return c.abort(ctx, userID, roundID, req.Amount, err)
		}
		return c.park(userID, roundID, req, &Round{Mines: round}), nil
	case models.GameDragonTower:
		round := engine.NewTowerRound(req.Amount, engine.Difficulty(req.Difficulty), c.rng)
		return c.park(userID, roundID, req, &Round{Tower: round}), nil
	case models.GameBlackjack:
		round := engine.NewBlackjackRound(req.Amount, c.rng)
		return c.park(userID, roundID, req, &Round{Blackjack: round}), nil
	default:
		return c.abort(ctx, userID, roundID, req.Amount, fmt.Errorf("invalid bet: unknown game %s", req.Game))
	}
}

// settleOneShot finishes a round that resolved within the call.
func (c *Casino) settleOneShot(ctx context.Context, userID int64, roundID string, req *models.BetRequest, payout int, detail interface{}) (*models.RoundResponse, error) {
	defer c.release(userID, roundID)

	bet := &models.Bet{
		ID:         roundID,
		UserID:     userID,
		InitialBet: req.Amount,
		BetResult:  payout,
		Game:       req.Game,
	}
	if err := c.ledger.Settle(ctx, bet); err != nil {
		// never leave a debited-but-unrecorded round behind, but a
		// duplicate record means the round already paid out
		if !errors.Is(err, ledger.ErrAlreadySettled) {
			if rerr := c.ledger.Refund(ctx, userID, req.Amount); rerr != nil {
				logrus.WithError(rerr).WithField("user_id", userID).
					Error("refund after failed settlement also failed")
			}
		}
		return nil, err
	}
	c.broadcaster.BroadcastBet(bet)

	resp := &models.RoundResponse{
		RoundID:    roundID,
		Game:       req.Game,
		InitialBet: req.Amount,
		Payout:     payout,
		Win:        payout > 0,
		Detail:     detail,
	}
	c.fillBalance(ctx, userID, &resp.Balance)
	return resp, nil
}

// fillBalance reads the post-settlement balance into dst; on failure the
// field stays unset rather than carrying a made-up number.
func (c *Casino) fillBalance(ctx context.Context, userID int64, dst **int) {
	balance, err := c.ledger.Balance(ctx, userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).
			Warn("balance read after settlement failed")
		return
	}
	*dst = &balance
}

// park stores a stateful round in the arena and answers with its handle.
func (c *Casino) park(userID int64, roundID string, req *models.BetRequest, round *Round) *models.RoundResponse {
	round.ID = roundID
	round.UserID = userID
	round.Game = req.Game
	round.Bet = req.Amount
	round.CreatedAt = time.Now()
	round.LastUpdate = round.CreatedAt

	c.mu.Lock()
	c.rounds[roundID] = round
	c.mu.Unlock()

	resp := &models.RoundResponse{
		RoundID:    roundID,
		Game:       req.Game,
		InitialBet: req.Amount,
	}
	switch req.Game {
	case models.GameMines:
		resp.Detail = map[string]interface{}{
			"reward_per_cell": round.Mines.RewardPerCell,
			"mine_count":      round.Mines.MineCount,
		}
	case models.GameDragonTower:
		resp.Detail = map[string]interface{}{
			"difficulty": req.Difficulty,
			"multiplier": round.Tower.Difficulty.Multiplier(),
		}
	case models.GameBlackjack:
		resp.Detail = map[string]interface{}{
			"player_cards": round.Blackjack.PlayerCards(),
			"player_score": round.Blackjack.PlayerScore(),
			"dealer_up":    round.Blackjack.VisibleDealerCard(),
		}
	}
	return resp
}

// abort unwinds a debit for a round that never produced an outcome.
func (c *Casino) abort(ctx context.Context, userID int64, roundID string, amount int, cause error) (*models.RoundResponse, error) {
	defer c.release(userID, roundID)
	if err := c.ledger.Refund(ctx, userID, amount); err != nil {
		return nil, fmt.Errorf("%v (refund failed: %w)", cause, err)
	}
	return nil, cause
}

func (c *Casino) acquire(userID int64, roundID string) error {
	c.mu.Lock()
	if _, busy := c.inFlight[userID]; busy {
		c.mu.Unlock()
		return ErrRoundInFlight
	}
	c.inFlight[userID] = roundID
	c.mu.Unlock()

	// mirror the lock in redis so other instances refuse the user too
	if c.redis != nil {
		ok, err := c.redis.AcquireRoundLock(context.Background(), userID, roundID)
		if err != nil {
			logrus.WithError(err).WithField("user_id", userID).
				Warn("redis round lock unavailable, serving with local lock only")
			return nil
		}
		if !ok {
			c.mu.Lock()
			delete(c.inFlight, userID)
			c.mu.Unlock()
			return ErrRoundInFlight
		}
	}
	return nil
}

func (c *Casino) release(userID int64, roundID string) {
	c.mu.Lock()
	if c.inFlight[userID] == roundID {
		delete(c.inFlight, userID)
	}
	delete(c.rounds, roundID)
	c.mu.Unlock()

	if c.redis != nil {
		if err := c.redis.ReleaseRoundLock(context.Background(), userID); err != nil {
			logrus.WithError(err).WithField("user_id", userID).
				Warn("failed to release redis round lock")
		}
	}
}

// round looks up a live round and checks ownership.
func (c *Casino) round(roundID string, userID int64) (*Round, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	round, ok := c.rounds[roundID]
	if !ok {
		return nil, ErrRoundNotFound
	}
	if round.UserID != userID {
		return nil, ErrNotYourRound
	}
	round.LastUpdate = time.Now()
	return round, nil
}

// claim removes the round from the arena, so of all racing settlers exactly
// one proceeds.
func (c *Casino) claim(roundID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.rounds[roundID]; !ok {
		return false
	}
	delete(c.rounds, roundID)
	return true
}

// settleRound finishes a parked round. The round is claimed out of the arena
// first; a caller that loses that race gets ErrRoundNotFound and must not
// touch balances.
func (c *Casino) settleRound(ctx context.Context, round *Round, payout int) (*models.RoundResponse, error) {
	if !c.claim(round.ID) {
		return nil, ErrRoundNotFound
	}
	defer c.release(round.UserID, round.ID)

	bet := &models.Bet{
		ID:         round.ID,
		UserID:     round.UserID,
		InitialBet: round.Bet,
		BetResult:  payout,
		Game:       round.Game,
	}
	if err := c.ledger.Settle(ctx, bet); err != nil {
		// a duplicate record means this round already settled; refunding
		// on top of that would mint coins
		if !errors.Is(err, ledger.ErrAlreadySettled) {
			if rerr := c.ledger.Refund(ctx, round.UserID, round.Bet); rerr != nil {
				logrus.WithError(rerr).WithField("user_id", round.UserID).
					Error("refund after failed settlement also failed")
			}
		}
		return nil, err
	}
	c.broadcaster.BroadcastBet(bet)

	resp := &models.RoundResponse{
		RoundID:    round.ID,
		Game:       round.Game,
		InitialBet: round.Bet,
		Payout:     payout,
		Win:        payout > 0,
	}
	c.fillBalance(ctx, round.UserID, &resp.Balance)
	return resp, nil
}

// CleanupStaleRounds settles abandoned rounds: mines cash out whatever was
// accumulated, blackjack auto-stands, the rest resolve as played. The ledger
// sequence still runs to completion for every swept round.
func (c *Casino) CleanupStaleRounds(ctx context.Context, maxAge time.Duration) {
	c.mu.Lock()
	var stale []*Round
	for _, round := range c.rounds {
		if time.Since(round.LastUpdate) > maxAge && round.Game != models.GameCrash {
			stale = append(stale, round)
		}
	}
	c.mu.Unlock()

	for _, round := range stale {
		round.mu.Lock()
		payout := 0
		switch round.Game {
		case models.GameMines:
			if w, err := round.Mines.CashOut(); err == nil {
				payout = w
			}
		case models.GameBlackjack:
			if res, err := round.Blackjack.Stand(); err == nil {
				payout = res.Payout
			}
		case models.GameDragonTower:
			payout = round.Tower.Payout()
		}
		_, err := c.settleRound(ctx, round, payout)
		round.mu.Unlock()

		if errors.Is(err, ErrRoundNotFound) {
			// settled by its owner or another sweep in the meantime
			continue
		}
		if err != nil {
			logrus.WithError(err).WithField("round_id", round.ID).
				Error("failed to settle stale round")
		} else {
			logrus.WithFields(logrus.Fields{
				"round_id": round.ID,
				"game":     round.Game,
				"payout":   payout,
			}).Info("stale round settled")
		}
	}
}

// ActiveRound returns the id of the user's in-flight round, if any.
func (c *Casino) ActiveRound(userID int64) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.inFlight[userID]
	return id, ok
}
