// Package riskeval classifies canonical position records. The evaluator is
// pure and total: every record maps to exactly one of liquidatable, bad-debt
// or neither.
package riskeval

import (
	"github.com/archon-research/obrisk/internal/domain/entity"
)

// Evaluator classifies positions.
type Evaluator struct{}

// NewEvaluator creates a new Evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Classify maps a position to its classification. Bad debt (outstanding
// debt with no collateral) is never ordinary-liquidatable: however extreme
// the reported risk, there is nothing to seize.
func (e *Evaluator) Classify(position *entity.Position) entity.Classification {
	if position == nil {
		return entity.Classification{}
	}
	badDebt := position.BadDebt()
	return entity.Classification{
		BadDebt:      badDebt,
		Liquidatable: !badDebt && position.Liquidatable(),
	}
}
