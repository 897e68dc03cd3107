package engine

import (
	"fmt"
	"math"
	"sort"

	"betman-backend/internal/rng"
)

const (
	MinesGridSize = 25 // 5x5, cells addressed 0-24
)

// MinesRound tracks one minefield from bet to mine hit or cash-out.
// Reward accumulates per safe cell at a rate fixed by the mine count:
// ceil(bet * k/(25-k) * 3).
type MinesRound struct {
	Bet           int
	MineCount     int
	RewardPerCell int

	mines    map[int]bool
	revealed map[int]bool
	winnings int
	finished bool
}

// NewMinesRound places mineCount mines uniformly without replacement.
func NewMinesRound(bet, mineCount int, src rng.Source) (*MinesRound, error) {
	if mineCount < 1 || mineCount >= MinesGridSize {
		return nil, fmt.Errorf("mine count %d out of range", mineCount)
	}

	mines := make(map[int]bool, mineCount)
	for len(mines) < mineCount {
		mines[src.Intn(MinesGridSize)] = true
	}

	return &MinesRound{
		Bet:           bet,
		MineCount:     mineCount,
		RewardPerCell: MinesCellReward(bet, mineCount),
		mines:         mines,
		revealed:      make(map[int]bool),
	}, nil
}

// MinesCellReward is the payout accumulated per safe reveal.
func MinesCellReward(bet, mineCount int) int {
	k := float64(mineCount)
	return int(math.Ceil(float64(bet) * (k / (float64(MinesGridSize) - k)) * 3))
}

// Reveal uncovers a cell. A safe cell accumulates the per-cell reward; a
// mine ends the round with nothing. Revealing after the round is over, or
// revealing the same cell twice, is a caller bug and fails loudly.
func (r *MinesRound) Reveal(cell int) (safe bool, err error) {
	if r.finished {
		return false, ErrRoundFinished
	}
	if cell < 0 || cell >= MinesGridSize {
		return false, fmt.Errorf("%w: cell %d out of range", ErrInvalidMove, cell)
	}
	if r.revealed[cell] {
		return false, ErrCellRevealed
	}

	if r.mines[cell] {
		r.finished = true
		r.winnings = 0
		return false, nil
	}

	r.revealed[cell] = true
	r.winnings += r.RewardPerCell
	return true, nil
}

// CashOut locks in the accumulated winnings and ends the round.
func (r *MinesRound) CashOut() (int, error) {
	if r.finished {
		return 0, ErrRoundFinished
	}
	r.finished = true
	return r.winnings, nil
}

func (r *MinesRound) Finished() bool { return r.finished }

func (r *MinesRound) Winnings() int { return r.winnings }

func (r *MinesRound) RevealedCount() int { return len(r.revealed) }

// Mines lists the mine cells in ascending order, for the post-round reveal.
func (r *MinesRound) Mines() []int {
	out := make([]int, 0, len(r.mines))
	for cell := range r.mines {
		out = append(out, cell)
	}
	sort.Ints(out)
	return out
}
