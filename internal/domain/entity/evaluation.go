package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Evaluation is the audit record of one completed position evaluation,
// persisted for later inspection. It captures what was decided and, when a
// plan was executed, how that went.
type Evaluation struct {
	ID           int64
	ObligationID string

	// State is the classification label ("liquidatable", "bad-debt", "neither").
	State string

	// RiskBasis is the risk basis label ("exact", "assumed", "severe", "none").
	RiskBasis string

	// RiskRatio is the reported ratio; zero when the basis carries none.
	RiskRatio decimal.Decimal

	DebtCount       int
	CollateralCount int

	// PlanKind is the derived plan's kind label, empty when no plan applied.
	PlanKind string

	// RepayRaw is the planned repay amount in raw units as a decimal string,
	// empty when no plan applied.
	RepayRaw string

	// Executed is true when the plan was handed to the transaction builder.
	Executed bool

	// TxDigest is the submitted transaction digest, when execution succeeded.
	TxDigest string

	// ExecError is the classified failure message, when execution failed.
	ExecError string

	EvaluatedAt time.Time
}

// NewEvaluation creates an Evaluation with validation.
func NewEvaluation(obligationID, state, riskBasis string, riskRatio decimal.Decimal, debtCount, collateralCount int, evaluatedAt time.Time) (*Evaluation, error) {
	e := &Evaluation{
		ObligationID:    obligationID,
		State:           state,
		RiskBasis:       riskBasis,
		RiskRatio:       riskRatio,
		DebtCount:       debtCount,
		CollateralCount: collateralCount,
		EvaluatedAt:     evaluatedAt,
	}
	if err := e.validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// validate checks that all fields have valid values.
func (e *Evaluation) validate() error {
	if e.ObligationID == "" {
		return fmt.Errorf("obligationID must not be empty")
	}
	if e.State == "" {
		return fmt.Errorf("state must not be empty")
	}
	if e.RiskBasis == "" {
		return fmt.Errorf("riskBasis must not be empty")
	}
	if e.RiskRatio.IsNegative() {
		return fmt.Errorf("riskRatio must be non-negative, got %s", e.RiskRatio)
	}
	if e.DebtCount < 0 {
		return fmt.Errorf("debtCount must be non-negative, got %d", e.DebtCount)
	}
	if e.CollateralCount < 0 {
		return fmt.Errorf("collateralCount must be non-negative, got %d", e.CollateralCount)
	}
	if e.EvaluatedAt.IsZero() {
		return fmt.Errorf("evaluatedAt must be set")
	}
	return nil
}
