package engine

import (
	"math"

	"betman-backend/internal/rng"
)

// DiceResult is the outcome of a single dice roll against the player's
// slider threshold.
type DiceResult struct {
	Roll       int     `json:"roll"`
	Threshold  int     `json:"threshold"`
	Multiplier float64 `json:"multiplier"`
	Win        bool    `json:"win"`
	Payout     int     `json:"payout"`
}

// DiceMultiplier maps a threshold to its payout multiplier, rounded to two
// decimals: 1 + threshold/100 * 2.
func DiceMultiplier(threshold int) float64 {
	m := 1.0 + float64(threshold)/100.0*2.0
	return math.Round(m*100) / 100
}

// DiceWinChance is the displayed percentage for a threshold.
func DiceWinChance(threshold int) int {
	return 100 - threshold
}

// PlayDice rolls a uniform integer in [0, 100]. The player wins when the
// roll lands at or above the threshold, which keeps win chance at
// (100 - threshold)% to match the multiplier tradeoff.
func PlayDice(bet, threshold int, src rng.Source) DiceResult {
	roll := src.Intn(101)
	mult := DiceMultiplier(threshold)
	win := roll >= threshold

	payout := 0
	if win {
		payout = int(float64(bet) * mult)
	}

	return DiceResult{
		Roll:       roll,
		Threshold:  threshold,
		Multiplier: mult,
		Win:        win,
		Payout:     payout,
	}
}
