// Package inbound defines the service interfaces the core exposes to callers
// such as the CLI.
package inbound

import (
	"context"

	"github.com/archon-research/obrisk/internal/domain/entity"
)

// PositionQuerier resolves an obligation ID into a canonical position record,
// falling back from the structured source to raw on-chain parsing.
type PositionQuerier interface {
	QueryPosition(ctx context.Context, obligationID string) (*entity.Position, error)
}

// Classifier maps a position record to its eligibility classification.
type Classifier interface {
	Classify(position *entity.Position) entity.Classification
}

// Planner derives action plans from classified positions. Both methods
// return nil when the position does not qualify for the policy.
type Planner interface {
	PlanLiquidation(position *entity.Position) *entity.Plan
	PlanBadDebtRepayment(position *entity.Position) *entity.Plan
}

// PlanExecutor hands a plan to the transaction builder and converts raised
// builder errors into a structured result.
type PlanExecutor interface {
	Execute(ctx context.Context, plan *entity.Plan) *entity.ExecutionResult
}
