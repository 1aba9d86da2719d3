package trading

import (
	"io"

	errs "neat-trader/internal/errors"
	"neat-trader/internal/models"
	"neat-trader/internal/report"
)

// Look assembles the vision vector for the decision collaborator: the
// supplied indicator values followed by one scalar per requested
// position-info kind. Position scalars are 0 while no position is open, so
// the vector length never changes mid-run.
func (t *Trader) Look(indicatorValues []float64, fxRate float64, kinds []models.PositionInfoKind) []float64 {
	if fxRate != 0 {
		t.fxRate = fxRate
	}

	vision := make([]float64, 0, len(indicatorValues)+len(kinds))
	vision = append(vision, indicatorValues...)

	for _, kind := range kinds {
		var v float64
		if t.position != nil {
			switch kind {
			case models.PositionInfoSide:
				v = t.position.Side.Direction()
			case models.PositionInfoPnL:
				if t.balance > 0 {
					v = t.position.PnL / t.balance
				}
			case models.PositionInfoDuration:
				v = float64(t.durationInPosition)
			}
		}
		vision = append(vision, v)
	}

	t.vision = vision
	return vision
}

// Think obtains the decision vector from the decision provider and
// length-checks it against the enabled action set. A mismatch is a
// configuration error, not a runtime-recoverable condition.
func (t *Trader) Think() ([]float64, error) {
	decision, err := t.decider.Decide(t.vision)
	if err != nil {
		return nil, errs.Wrap(err, "decision provider")
	}
	if len(decision) != len(t.actions) {
		return nil, errs.NewConfigurationError("decision", len(decision),
			"decision vector length does not match enabled action set")
	}
	t.decision = decision
	return decision, nil
}

// selectedAction resolves the decision vector by argmax, ties broken by
// list order (first-listed action wins).
func (t *Trader) selectedAction() models.Action {
	if len(t.decision) != len(t.actions) {
		return models.ActionWait
	}
	best := 0
	for i := 1; i < len(t.decision); i++ {
		if t.decision[i] > t.decision[best] {
			best = i
		}
	}
	return t.actions[best]
}

// Trade executes the decision half of the step: forced closes, gating and
// the selected action, then records the step's balance sample. It returns
// the action actually taken, which is ActionWait whenever a gate blocked
// the decision.
func (t *Trader) Trade() (models.Action, error) {
	if t.dead {
		return models.ActionWait, nil
	}
	if len(t.candles) == 0 {
		return models.ActionWait, errs.NewDataError("candles", t.params.Symbol.Symbol, "no candle history", nil)
	}
	last := t.candles[len(t.candles)-1]

	// Trade-duration limit applies independently of the decision.
	if t.position != nil && t.params.MaxTradeDuration > 0 && t.durationInPosition >= t.params.MaxTradeDuration {
		taken := closeActionFor(t.position.Side)
		t.closePosition(last.Close, last.Timestamp, CloseMaxDuration)
		t.recordBalance()
		return taken, nil
	}

	taken := models.ActionWait
	switch action := t.selectedAction(); action {
	case models.ActionEnterLong, models.ActionEnterShort:
		side := models.SideLong
		if action == models.ActionEnterShort {
			side = models.SideShort
		}
		if t.position == nil && t.entryAllowed(last) {
			if err := t.openPosition(side, last); err != nil {
				return models.ActionWait, err
			}
			if t.position != nil {
				taken = action
			}
		}

	case models.ActionCloseLong, models.ActionCloseShort:
		side := models.SideLong
		if action == models.ActionCloseShort {
			side = models.SideShort
		}
		// Closing ignores the schedule and spread gates: a position must
		// remain closable even when entries are blocked.
		if t.position != nil && t.position.Side == side && t.durationInPosition >= t.params.MinHold {
			t.closePosition(last.Close, last.Timestamp, CloseDecision)
			taken = action
		}
	}

	t.recordBalance()
	return taken, nil
}

// entryAllowed resolves the entry gates: schedule, spread, cooldown and the
// daily trade cap.
func (t *Trader) entryAllowed(candle models.Candle) bool {
	if !IsTradableAt(candle.Timestamp, t.params.Schedule) {
		return false
	}
	if t.params.MaxSpread > 0 && candle.Spread > t.params.MaxSpread {
		return false
	}
	if t.durationWithoutTrade < t.params.Cooldown {
		return false
	}
	if t.params.MaxDailyTrades > 0 && t.dailyTrades >= t.params.MaxDailyTrades {
		return false
	}
	return true
}

func closeActionFor(side models.Side) models.Action {
	if side == models.SideShort {
		return models.ActionCloseShort
	}
	return models.ActionCloseLong
}

// GenerateReport writes the human-readable performance report derived from
// the current history.
func (t *Trader) GenerateReport(w io.Writer) error {
	return report.Generate(w, t.CalculateStats())
}
