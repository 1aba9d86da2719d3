package engine

import (
	"neat-trader/internal/models"
)

// CrossoverDecider is a baseline decision provider: it votes from the first
// two vision entries, treated as a fast and a slow moving average. It exists
// so backtests can run without an external strategy plugged in, and doubles
// as a reference implementation of the decision-vector contract.
type CrossoverDecider struct {
	actions   []models.Action
	sideIndex int
}

// NewCrossoverDecider builds a decider whose vote vector matches the given
// enabled action set. sideIndex is the position of the side scalar in the
// vision vector, or -1 when position info is not fed back.
func NewCrossoverDecider(actions []models.Action, sideIndex int) *CrossoverDecider {
	return &CrossoverDecider{actions: actions, sideIndex: sideIndex}
}

// Decide votes for an entry in the direction of the fast/slow spread while
// flat, and for closing once the spread turns against an open position.
func (d *CrossoverDecider) Decide(vision []float64) ([]float64, error) {
	votes := make([]float64, len(d.actions))

	trend := 0.0
	if len(vision) >= 2 && vision[0] != 0 && vision[1] != 0 {
		switch {
		case vision[0] > vision[1]:
			trend = 1
		case vision[0] < vision[1]:
			trend = -1
		}
	}

	side := 0.0
	if d.sideIndex >= 0 && d.sideIndex < len(vision) {
		side = vision[d.sideIndex]
	}

	want := models.ActionWait
	switch {
	case side > 0 && trend < 0:
		want = models.ActionCloseLong
	case side < 0 && trend > 0:
		want = models.ActionCloseShort
	case side == 0 && trend > 0:
		want = models.ActionEnterLong
	case side == 0 && trend < 0:
		want = models.ActionEnterShort
	}

	for i, a := range d.actions {
		if a == want {
			votes[i] = 1
		}
	}
	return votes, nil
}
