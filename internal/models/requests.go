package models

import (
	"fmt"
	"math"
)

// Per-game minimum wagers, matching the table rules.
const (
	MinBetCrash  = 100
	MinBetDice   = 100
	MinBetPlinko = 10
	MinBetMines  = 10
	MinBetOther  = 1
)

var MineCountOptions = []int{1, 3, 5, 8, 12, 15, 20, 24}

type BetRequest struct {
	Game   Game `json:"game" binding:"required"`
	Amount int  `json:"amount" binding:"required"`

	// Game-specific parameters; only the fields relevant to Game are read.
	Target     float64 `json:"target,omitempty"`     // crash: cash-out multiplier
	Threshold  int     `json:"threshold"`            // dice: slider value 0-100
	Color      string  `json:"color,omitempty"`      // roulette: red, black, green
	Mines      int     `json:"mines,omitempty"`      // mines: mine count
	Difficulty string  `json:"difficulty,omitempty"` // dragontower: easy, mid, hard
}

// Validate rejects a malformed bet before any balance mutation or draw.
func (br *BetRequest) Validate() error {
	if !br.Game.Valid() {
		return fmt.Errorf("invalid game: %s", br.Game)
	}

	min := MinBetOther
	switch br.Game {
	case GameCrash:
		min = MinBetCrash
	case GameDice:
		min = MinBetDice
	case GamePlinko:
		min = MinBetPlinko
	case GameMines:
		min = MinBetMines
	}
	if br.Amount < min {
		return fmt.Errorf("minimum bet for %s is %d coins", br.Game, min)
	}

	switch br.Game {
	case GameCrash:
		if br.Target <= 1.0 {
			return fmt.Errorf("target multiplier must be greater than 1.0")
		}
		// targets are entered with two decimals at most
		if math.Abs(br.Target*100-math.Round(br.Target*100)) > 1e-9 {
			return fmt.Errorf("target multiplier allows two decimals max")
		}
	case GameDice:
		if br.Threshold < 0 || br.Threshold > 100 {
			return fmt.Errorf("threshold must be between 0 and 100")
		}
	case GameRoulette:
		switch br.Color {
		case "red", "black", "green":
		default:
			return fmt.Errorf("invalid color: %q", br.Color)
		}
	case GameMines:
		valid := false
		for _, n := range MineCountOptions {
			if br.Mines == n {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("mine count must be one of %v", MineCountOptions)
		}
	case GameDragonTower:
		switch br.Difficulty {
		case "easy", "mid", "hard":
		default:
			return fmt.Errorf("invalid difficulty: %q", br.Difficulty)
		}
	}

	return nil
}

type SignupRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=32"`
	Password    string `json:"password" binding:"required,min=4"`
	CountryCode string `json:"country_code"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TopUpRequest struct {
	Pack string `json:"pack" binding:"required"`
}

// RoundResponse is the terminal summary of a round returned to the client.
type RoundResponse struct {
	RoundID    string      `json:"round_id"`
	Game       Game        `json:"game"`
	InitialBet int         `json:"initial_bet"`
	Payout     int         `json:"payout"`
	Win        bool        `json:"win"`
	Balance    *int        `json:"balance,omitempty"`
	Detail     interface{} `json:"detail,omitempty"`
}
