// Package policy decides when an accrual earns a reward. Evaluation is pure:
// it never reads the clock or any store, so identical inputs always produce
// identical decisions.
package policy

import "github.com/brewtab/perka/internal/config"

// Decision marks a single threshold crossing. ThresholdMultiple is the
// absolute point value that was crossed (10, 20, 30, ...), and doubles as the
// issuance dedup key per customer.
type Decision struct {
	ThresholdMultiple int
	PointsAtDecision  int
}

// Evaluate compares a before/after point snapshot against the threshold
// ladder and returns one decision per multiple crossed. A bulk accrual that
// jumps several multiples (5 -> 25) yields a decision for each.
func Evaluate(before, after int, cfg config.Loyalty) []Decision {
	step := cfg.PointsForFreeDrink
	if step <= 0 || after <= before {
		return nil
	}

	// First multiple strictly above the before balance.
	first := (before/step + 1) * step
	var decisions []Decision
	for multiple := first; multiple <= after; multiple += step {
		decisions = append(decisions, Decision{
			ThresholdMultiple: multiple,
			PointsAtDecision:  after,
		})
	}
	return decisions
}
