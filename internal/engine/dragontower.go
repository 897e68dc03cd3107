package engine

import (
	"fmt"

	"betman-backend/internal/rng"
)

const (
	TowerRows = 6
	TowerCols = 4
)

type Difficulty string

const (
	DifficultyEasy Difficulty = "easy"
	DifficultyMid  Difficulty = "mid"
	DifficultyHard Difficulty = "hard"
)

// SkullCount is the number of losing cells per row.
func (d Difficulty) SkullCount() int {
	switch d {
	case DifficultyMid:
		return 2
	case DifficultyHard:
		return 3
	default:
		return 1
	}
}

// Multiplier is flat per difficulty: clearing the tower pays bet times this,
// no per-row compounding.
func (d Difficulty) Multiplier() int {
	switch d {
	case DifficultyEasy:
		return 8
	case DifficultyMid:
		return 80
	case DifficultyHard:
		return 5000
	default:
		return 0
	}
}

// TowerRound is one climb: pick a cell per row, skulls end the round,
// clearing all rows wins.
type TowerRound struct {
	Bet        int
	Difficulty Difficulty

	skulls     [TowerRows][TowerCols]bool
	currentRow int
	finished   bool
	won        bool
}

type TowerPick struct {
	Row       int   `json:"row"`
	Col       int   `json:"col"`
	Safe      bool  `json:"safe"`
	Done      bool  `json:"done"`
	Won       bool  `json:"won"`
	Payout    int   `json:"payout"`
	SkullCols []int `json:"skull_cols,omitempty"` // revealed for the resolved row
}

// NewTowerRound lays out skulls row by row, chosen uniformly among the four
// columns without replacement.
func NewTowerRound(bet int, diff Difficulty, src rng.Source) *TowerRound {
	r := &TowerRound{Bet: bet, Difficulty: diff}

	for row := 0; row < TowerRows; row++ {
		cols := [TowerCols]int{0, 1, 2, 3}
		for i := TowerCols - 1; i > 0; i-- {
			j := src.Intn(i + 1)
			cols[i], cols[j] = cols[j], cols[i]
		}
		for _, col := range cols[:diff.SkullCount()] {
			r.skulls[row][col] = true
		}
	}

	return r
}

// Pick selects a cell in the current row. A safe cell advances the climb;
// clearing the last row wins bet times the difficulty multiplier; a skull
// ends the round with nothing.
func (r *TowerRound) Pick(col int) (TowerPick, error) {
	if r.finished {
		return TowerPick{}, ErrRoundFinished
	}
	if col < 0 || col >= TowerCols {
		return TowerPick{}, fmt.Errorf("%w: column %d out of range", ErrInvalidMove, col)
	}

	row := r.currentRow
	pick := TowerPick{Row: row, Col: col, SkullCols: r.rowSkulls(row)}

	if r.skulls[row][col] {
		r.finished = true
		pick.Done = true
		return pick, nil
	}

	pick.Safe = true
	r.currentRow++
	if r.currentRow >= TowerRows {
		r.finished = true
		r.won = true
		pick.Done = true
		pick.Won = true
		pick.Payout = r.Bet * r.Difficulty.Multiplier()
	}
	return pick, nil
}

func (r *TowerRound) CurrentRow() int { return r.currentRow }

func (r *TowerRound) Finished() bool { return r.finished }

func (r *TowerRound) Won() bool { return r.won }

func (r *TowerRound) Payout() int {
	if !r.won {
		return 0
	}
	return r.Bet * r.Difficulty.Multiplier()
}

func (r *TowerRound) rowSkulls(row int) []int {
	var out []int
	for col := 0; col < TowerCols; col++ {
		if r.skulls[row][col] {
			out = append(out, col)
		}
	}
	return out
}
