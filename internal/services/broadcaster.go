package services

import "betman-backend/internal/models"

// Broadcaster delivers live round events to whatever transport is attached
// (the websocket hub in production, nothing in tests).
type Broadcaster interface {
	BroadcastCrashTick(roundID string, multiplier float64)
	BroadcastCrash(roundID string, crashPoint float64)
	BroadcastBet(bet *models.Bet)
}

type noopBroadcaster struct{}

func (noopBroadcaster) BroadcastCrashTick(string, float64) {}
func (noopBroadcaster) BroadcastCrash(string, float64)     {}
func (noopBroadcaster) BroadcastBet(*models.Bet)           {}
