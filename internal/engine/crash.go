package engine

import (
	"math"

	"betman-backend/internal/rng"
)

// Crash growth curve: multiplier = 1 + baseGrowth * elapsed^growthExponent.
const (
	crashBaseGrowth     = 0.015
	crashGrowthExponent = 2.3
	crashMinPoint       = 1.01
)

type CrashState int

const (
	CrashIdle CrashState = iota
	CrashRunning
	CrashCrashed
)

// CrashRound fixes the crash point at creation; the player's target is locked
// in with the bet, so the outcome is already decided even while the
// multiplier is still climbing on screen.
type CrashRound struct {
	Bet        int
	Target     float64
	CrashPoint float64

	state CrashState
}

func NewCrashRound(bet int, target float64, src rng.Source) *CrashRound {
	return &CrashRound{
		Bet:        bet,
		Target:     target,
		CrashPoint: GenerateCrashPoint(src),
		state:      CrashIdle,
	}
}

// GenerateCrashPoint draws the point the multiplier will crash at:
// 60% chance of 1.0x-1.5x, 35% of 1.5x-3.0x, 5% of a heavy right tail
// above 3.0x. Never below 1.01x.
func GenerateCrashPoint(src rng.Source) float64 {
	r := src.Float64()

	var point float64
	switch {
	case r < 0.60:
		point = 1.0 + src.Float64()*0.5
	case r < 0.95:
		point = 1.5 + src.Float64()*1.5
	default:
		u := src.Float64()
		point = 3.0 + u*u*u*50
	}

	return math.Max(point, crashMinPoint)
}

// CrashMultiplierAt returns the displayed multiplier after elapsed seconds of
// a running round.
func CrashMultiplierAt(elapsed float64) float64 {
	if elapsed < 0 {
		return 1.0
	}
	return 1.0 + crashBaseGrowth*math.Pow(elapsed, crashGrowthExponent)
}

func (r *CrashRound) State() CrashState { return r.state }

func (r *CrashRound) Start() {
	if r.state == CrashIdle {
		r.state = CrashRunning
	}
}

// At reports the multiplier elapsed seconds into the round. Once the curve
// reaches the crash point the value is clamped there and the round moves to
// Crashed.
func (r *CrashRound) At(elapsed float64) (multiplier float64, crashed bool) {
	m := CrashMultiplierAt(elapsed)
	if m >= r.CrashPoint {
		r.state = CrashCrashed
		return r.CrashPoint, true
	}
	return m, false
}

// Win reports whether the locked-in target was reached before the crash.
func (r *CrashRound) Win() bool {
	return r.Target <= r.CrashPoint
}

// Payout returns bet * target on a win, 0 otherwise.
func (r *CrashRound) Payout() int {
	if !r.Win() {
		return 0
	}
	return int(float64(r.Bet) * r.Target)
}

// CrashWinChance returns the advisory win probability, in percent, of
// cashing out at the given target. It mirrors GenerateCrashPoint's regional
// split exactly: 60% mass fading linearly over [1.0, 1.5], 35% over
// [1.5, 3.0], and a 5% tail decaying by the cube root of the 50-wide window
// above 3.0.
func CrashWinChance(target float64) float64 {
	t := target
	probability := 0.0

	if t <= 1.0 {
		probability += 0.60
	} else if t <= 1.5 {
		probability += 0.60 * (1.5 - t) / 0.5
	}

	if t <= 1.5 {
		probability += 0.35
	} else if t <= 3.0 {
		probability += 0.35 * (3.0 - t) / 1.5
	}

	if t <= 3.0 {
		probability += 0.05
	} else {
		w := (t - 3.0) / 50.0
		if w < 1.0 {
			probability += 0.05 * (1.0 - math.Cbrt(w))
		}
	}

	return math.Min(math.Max(probability*100, 0), 100)
}
