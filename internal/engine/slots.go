package engine

import "betman-backend/internal/rng"

type Symbol string

// Five regular symbols plus the jackpot. Bell and Cherry form the
// "second best" tier with their own multipliers.
const (
	SymbolBell    Symbol = "bell"
	SymbolCherry  Symbol = "cherry"
	SymbolLemon   Symbol = "lemon"
	SymbolGrape   Symbol = "grape"
	SymbolClover  Symbol = "clover"
	SymbolJackpot Symbol = "jackpot"
)

var slotSymbols = [6]Symbol{
	SymbolBell, SymbolCherry, SymbolLemon, SymbolGrape, SymbolClover, SymbolJackpot,
}

var slotSecondBest = map[Symbol]bool{
	SymbolBell:   true,
	SymbolCherry: true,
}

type SlotsResult struct {
	Reels      [3]Symbol `json:"reels"`
	Label      string    `json:"label"`
	Multiplier int       `json:"multiplier"`
	Payout     int       `json:"payout"`
}

// CheckSlotResult resolves three reels to a label and multiplier.
// Three of a kind: jackpot x500, second-best x50, other x20.
// Two of a kind: jackpot x40, second-best x5, other x1. No match pays 0.
func CheckSlotResult(reels [3]Symbol) (string, int) {
	counts := map[Symbol]int{}
	for _, s := range reels {
		counts[s]++
	}

	for symbol, n := range counts {
		if n == 3 {
			switch {
			case symbol == SymbolJackpot:
				return "JACKPOT! x500", 500
			case slotSecondBest[symbol]:
				return "THREE OF A KIND! x50", 50
			default:
				return "THREE OF A KIND! x20", 20
			}
		}
	}

	for symbol, n := range counts {
		if n == 2 {
			switch {
			case symbol == SymbolJackpot:
				return "TWO OF A KIND! x40", 40
			case slotSecondBest[symbol]:
				return "TWO OF A KIND! x5", 5
			default:
				return "TWO OF A KIND! x1", 1
			}
		}
	}

	return "TRY AGAIN!", 0
}

// PlaySlots spins three independent uniform reels.
func PlaySlots(bet int, src rng.Source) SlotsResult {
	var reels [3]Symbol
	for i := range reels {
		reels[i] = slotSymbols[src.Intn(len(slotSymbols))]
	}

	label, mult := CheckSlotResult(reels)
	return SlotsResult{
		Reels:      reels,
		Label:      label,
		Multiplier: mult,
		Payout:     bet * mult,
	}
}
