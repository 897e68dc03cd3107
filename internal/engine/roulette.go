package engine

import "betman-backend/internal/rng"

// European wheel layout, clockwise from zero. The draw picks a pocket index
// into this order, not a raw number, so animated clients can map the index
// straight to a wheel position.
var rouletteWheel = [37]int{
	0, 32, 15, 19, 4, 21, 2, 25, 17, 34, 6, 27, 13, 36,
	11, 30, 8, 23, 10, 5, 24, 16, 33, 1, 20, 14, 31, 9,
	22, 18, 29, 7, 28, 12, 35, 3, 26,
}

var rouletteRed = map[int]bool{
	1: true, 3: true, 5: true, 7: true, 9: true, 12: true,
	14: true, 16: true, 18: true, 19: true, 21: true, 23: true,
	25: true, 27: true, 30: true, 32: true, 34: true, 36: true,
}

const (
	RouletteRed   = "red"
	RouletteBlack = "black"
	RouletteGreen = "green"
)

type RouletteResult struct {
	Pocket int    `json:"pocket"`
	Number int    `json:"number"`
	Color  string `json:"color"`
	Picked string `json:"picked"`
	Win    bool   `json:"win"`
	Payout int    `json:"payout"`
}

// RouletteColor maps a winning number to its color: 0 is green, the fixed
// red set is red, everything else black.
func RouletteColor(number int) string {
	switch {
	case number == 0:
		return RouletteGreen
	case rouletteRed[number]:
		return RouletteRed
	default:
		return RouletteBlack
	}
}

// PlayRoulette spins once. Red and black pay 2x the bet, green pays 20x,
// a color mismatch pays nothing.
func PlayRoulette(bet int, color string, src rng.Source) RouletteResult {
	pocket := src.Intn(len(rouletteWheel))
	number := rouletteWheel[pocket]
	winning := RouletteColor(number)

	res := RouletteResult{
		Pocket: pocket,
		Number: number,
		Color:  winning,
		Picked: color,
		Win:    winning == color,
	}
	if res.Win {
		if winning == RouletteGreen {
			res.Payout = bet * 20
		} else {
			res.Payout = bet * 2
		}
	}
	return res
}
