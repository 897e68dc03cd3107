package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"betman-backend/internal/ledger"
)

// Coin packs sold in the black market, matching the original chip stacks.
var marketPacks = map[string]int{
	"small":  1000,
	"medium": 10000,
	"large":  100000,
}

// Market credits purchased coin packs straight to the balance.
type Market struct {
	ledger *ledger.Ledger
}

func NewMarket(l *ledger.Ledger) *Market {
	return &Market{ledger: l}
}

// TopUp credits the pack and returns the resulting balance.
func (m *Market) TopUp(ctx context.Context, userID int64, pack string) (int, error) {
	amount, ok := marketPacks[pack]
	if !ok {
		return 0, fmt.Errorf("unknown coin pack: %q", pack)
	}

	if err := m.ledger.Credit(ctx, userID, amount); err != nil {
		return 0, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"pack":    pack,
		"amount":  amount,
	}).Info("coins purchased")
	return m.ledger.Balance(ctx, userID)
}
