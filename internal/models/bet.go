package models

import "time"

type Game string

const (
	GameBlackjack   Game = "blackjack"
	GameCrash       Game = "crash"
	GameDice        Game = "dice"
	GameRoulette    Game = "roulette"
	GamePlinko      Game = "plinko"
	GameMines       Game = "mines"
	GameSlots       Game = "slots"
	GameDragonTower Game = "dragontower"
)

func (g Game) Valid() bool {
	switch g {
	case GameBlackjack, GameCrash, GameDice, GameRoulette,
		GamePlinko, GameMines, GameSlots, GameDragonTower:
		return true
	}
	return false
}

// Bet is the immutable ledger record of one completed round.
// BetResult is the total amount returned to the player, 0 on a loss;
// net profit is BetResult - InitialBet.
type Bet struct {
	ID         string `json:"id" gorm:"primaryKey"`
	UserID     int64  `json:"user_id" gorm:"index;not null"`
	InitialBet int    `json:"initial_bet" gorm:"not null"`
	BetResult  int    `json:"bet_result" gorm:"not null"`
	Game       Game   `json:"game" gorm:"index;not null"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`

	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (b *Bet) NetProfit() int {
	return b.BetResult - b.InitialBet
}
