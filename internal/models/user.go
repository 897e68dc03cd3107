package models

import "time"

type User struct {
	ID           int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Username     string `json:"username" gorm:"uniqueIndex;not null"`
	Password     string `json:"-" gorm:"not null"`
	Balance      int    `json:"balance" gorm:"not null;default:0"`
	ProfileImage []byte `json:"-"`
	CountryCode  string `json:"country_code"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserRanking is a derived view; computed on demand, never stored.
type UserRanking struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Balance  int    `json:"balance"`
}

type UserStats struct {
	BetCount       int64 `json:"bet_count"`
	MostPlayedGame Game  `json:"most_played_game,omitempty"`
	TotalWinnings  int64 `json:"total_winnings"`
	Rank           int   `json:"rank"`
}
