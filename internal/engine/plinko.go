package engine

import "betman-backend/internal/rng"

// PlinkoMultipliers is the fixed slot table, symmetric around index 5.
var PlinkoMultipliers = [11]float64{0, 0.1, 0.2, 0.6, 5, 20, 5, 0.6, 0.2, 0.1, 0}

// One peg row per slot boundary; the landing slot equals the number of
// rightward bounces.
const plinkoRows = len(PlinkoMultipliers) - 1

// Momentum carried between rows. A bounce nudges the next row's left/right
// odds in the same direction, capped so no row is ever deterministic.
const (
	plinkoDrift    = 0.06
	plinkoMaxDrift = 0.35
)

type PlinkoResult struct {
	Slot       int     `json:"slot"`
	Path       []int   `json:"path"` // 0 = left, 1 = right, one entry per row
	Multiplier float64 `json:"multiplier"`
	Payout     int     `json:"payout"`
}

// PlayPlinko drops one ball through the peg lattice. Each row deflects left
// or right with base probability 0.5 perturbed by accumulated horizontal
// momentum; the perturbation is symmetric, so the slot distribution stays
// centered while the momentum pushes mass toward the edges.
func PlayPlinko(bet int, src rng.Source) PlinkoResult {
	drift := 0.0
	rights := 0
	path := make([]int, 0, plinkoRows)

	for row := 0; row < plinkoRows; row++ {
		p := 0.5 + drift
		if src.Float64() < p {
			rights++
			drift += plinkoDrift
			path = append(path, 1)
		} else {
			drift -= plinkoDrift
			path = append(path, 0)
		}
		if drift > plinkoMaxDrift {
			drift = plinkoMaxDrift
		} else if drift < -plinkoMaxDrift {
			drift = -plinkoMaxDrift
		}
	}

	mult := PlinkoMultipliers[rights]
	return PlinkoResult{
		Slot:       rights,
		Path:       path,
		Multiplier: mult,
		Payout:     int(float64(bet) * mult),
	}
}
