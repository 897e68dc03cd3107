package engine

import "betman-backend/internal/rng"

var (
	cardSuits = [4]string{"clubs", "diamonds", "hearts", "spades"}
	cardRanks = [13]string{"2", "3", "4", "5", "6", "7", "8", "9", "10", "j", "q", "k", "a"}
)

type Card struct {
	Suit string `json:"suit"`
	Rank string `json:"rank"`
}

func (c Card) String() string { return c.Rank + " of " + c.Suit }

// Value is the face value before any ace adjustment: number cards count as
// themselves, faces as 10, aces as 11.
func (c Card) Value() int {
	switch c.Rank {
	case "j", "q", "k", "10":
		return 10
	case "a":
		return 11
	default:
		return int(c.Rank[0] - '0')
	}
}

// Score totals a hand with soft aces at 11, demoting one ace at a time to 1
// while the total busts. Every ace in the hand participates, not just the
// last card drawn.
func Score(cards []Card) int {
	score := 0
	aces := 0
	for _, c := range cards {
		score += c.Value()
		if c.Rank == "a" {
			aces++
		}
	}
	for score > 21 && aces > 0 {
		score -= 10
		aces--
	}
	return score
}

type BlackjackOutcome string

const (
	BlackjackWin  BlackjackOutcome = "win"
	BlackjackLose BlackjackOutcome = "lose"
	BlackjackPush BlackjackOutcome = "push"
)

type BlackjackResult struct {
	Outcome     BlackjackOutcome `json:"outcome"`
	PlayerScore int              `json:"player_score"`
	DealerScore int              `json:"dealer_score"`
	PlayerCards []Card           `json:"player_cards"`
	DealerCards []Card           `json:"dealer_cards"`
	Payout      int              `json:"payout"`
}

// BlackjackRound plays one hand against the dealer. The dealer's first card
// stays hidden until the player stands or busts.
type BlackjackRound struct {
	Bet int

	deck     []Card
	player   []Card
	dealer   []Card
	finished bool
	src      rng.Source
}

// NewBlackjackRound shuffles a fresh 52-card deck and deals two cards each,
// alternating dealer first.
func NewBlackjackRound(bet int, src rng.Source) *BlackjackRound {
	r := &BlackjackRound{Bet: bet, src: src, deck: newDeck(src)}
	r.dealer = append(r.dealer, r.draw())
	r.player = append(r.player, r.draw())
	r.dealer = append(r.dealer, r.draw())
	r.player = append(r.player, r.draw())
	return r
}

func newDeck(src rng.Source) []Card {
	deck := make([]Card, 0, 52)
	for _, suit := range cardSuits {
		for _, rank := range cardRanks {
			deck = append(deck, Card{Suit: suit, Rank: rank})
		}
	}
	for i := len(deck) - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}
	return deck
}

func (r *BlackjackRound) draw() Card {
	if len(r.deck) == 0 {
		r.deck = newDeck(r.src)
	}
	i := r.src.Intn(len(r.deck))
	card := r.deck[i]
	r.deck = append(r.deck[:i], r.deck[i+1:]...)
	return card
}

func (r *BlackjackRound) PlayerCards() []Card { return r.player }

// VisibleDealerCard is the dealer's up card while the hand is live.
func (r *BlackjackRound) VisibleDealerCard() Card { return r.dealer[1] }

func (r *BlackjackRound) PlayerScore() int { return Score(r.player) }

func (r *BlackjackRound) Finished() bool { return r.finished }

// Hit draws one card for the player. Going over 21 busts and resolves the
// hand immediately as a loss.
func (r *BlackjackRound) Hit() (BlackjackResult, bool, error) {
	if r.finished {
		return BlackjackResult{}, false, ErrRoundFinished
	}

	r.player = append(r.player, r.draw())
	if Score(r.player) > 21 {
		r.finished = true
		return r.resolve(), true, nil
	}
	return BlackjackResult{}, false, nil
}

// Stand ends the player's turn. The dealer draws to 17, but only while the
// player's score sits strictly between the dealer's current total and 21;
// otherwise the hidden card already decides it.
func (r *BlackjackRound) Stand() (BlackjackResult, error) {
	if r.finished {
		return BlackjackResult{}, ErrRoundFinished
	}

	playerScore := Score(r.player)
	dealerScore := Score(r.dealer)

	if playerScore > dealerScore && playerScore <= 21 {
		for Score(r.dealer) < 17 {
			r.dealer = append(r.dealer, r.draw())
		}
	}

	r.finished = true
	return r.resolve(), nil
}

func (r *BlackjackRound) resolve() BlackjackResult {
	playerScore := Score(r.player)
	dealerScore := Score(r.dealer)

	res := BlackjackResult{
		PlayerScore: playerScore,
		DealerScore: dealerScore,
		PlayerCards: r.player,
		DealerCards: r.dealer,
	}

	switch {
	case playerScore > 21:
		res.Outcome = BlackjackLose
	case dealerScore > 21 || playerScore > dealerScore:
		res.Outcome = BlackjackWin
		res.Payout = r.Bet * 2
	case playerScore == dealerScore:
		res.Outcome = BlackjackPush
		res.Payout = r.Bet
	default:
		res.Outcome = BlackjackLose
	}
	return res
}
