// Package engine holds the outcome logic for every table game. Engines are
// pure state machines over an injected rng.Source: given the same draws they
// produce the same outcome, and they never touch balances or storage.
package engine

import "errors"

var (
	// ErrRoundFinished means a move was attempted on a terminal round.
	// Callers treat this as a programming error, not a recoverable state.
	ErrRoundFinished = errors.New("round already finished")

	ErrCellRevealed = errors.New("cell already revealed")
	ErrInvalidMove  = errors.New("invalid move")
)
