package entity

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// PlanKind distinguishes the two repayment policies.
type PlanKind int

const (
	// PlanLiquidate is an ordinary partial liquidation: repay half the first
	// debt entry, receive discounted collateral from the first collateral
	// entry.
	PlanLiquidate PlanKind = iota

	// PlanRepayBadDebt is a forced full repayment of the first debt entry on
	// a bad-debt position. The caller receives no collateral in return.
	PlanRepayBadDebt
)

// String returns the kind as a stable lowercase label.
func (k PlanKind) String() string {
	switch k {
	case PlanLiquidate:
		return "liquidate"
	case PlanRepayBadDebt:
		return "repay-bad-debt"
	default:
		return fmt.Sprintf("plankind(%d)", int(k))
	}
}

// Plan is a concrete action derived from a classified position, ready to be
// handed to the transaction builder. The core derives plans; it never
// executes them itself.
type Plan struct {
	Kind         PlanKind
	ObligationID string

	// DebtShortName is the lowercase protocol-facing name of the asset to
	// repay.
	DebtShortName string

	// CollateralShortName names the collateral to receive. Empty for
	// bad-debt repayment.
	CollateralShortName string

	// RepayRaw is the repay amount in raw on-chain units.
	RepayRaw *big.Int

	// RepayHuman is RepayRaw scaled by the debt asset's precision, for
	// caller-facing output.
	RepayHuman decimal.Decimal

	// EstimatedProfitUSD is a heuristic upper bound ignoring gas and
	// slippage. Always zero for bad-debt repayment.
	EstimatedProfitUSD decimal.Decimal

	// Profitable is true when the estimate clears the configured floor.
	// Always false for bad-debt repayment, which bypasses the check.
	Profitable bool

	// Warning carries a caller-facing caution, set for bad-debt repayment
	// (deliberate write-off, no collateral received).
	Warning string
}

// validate checks a plan's structural invariants.
func (p *Plan) validate() error {
	if p.ObligationID == "" {
		return fmt.Errorf("obligationID must not be empty")
	}
	if p.DebtShortName == "" {
		return fmt.Errorf("debtShortName must not be empty")
	}
	if p.RepayRaw == nil || p.RepayRaw.Sign() < 0 {
		return fmt.Errorf("repayRaw must be a non-negative amount")
	}
	if p.Kind == PlanLiquidate && p.CollateralShortName == "" {
		return fmt.Errorf("liquidation plan requires a collateral short name")
	}
	if p.Kind == PlanRepayBadDebt && p.CollateralShortName != "" {
		return fmt.Errorf("bad-debt plan must not name collateral, got %q", p.CollateralShortName)
	}
	return nil
}

// NewPlan creates a Plan with validation.
func NewPlan(kind PlanKind, obligationID, debtShortName, collateralShortName string, repayRaw *big.Int, repayHuman decimal.Decimal) (*Plan, error) {
	p := &Plan{
		Kind:                kind,
		ObligationID:        obligationID,
		DebtShortName:       debtShortName,
		CollateralShortName: collateralShortName,
		RepayRaw:            repayRaw,
		RepayHuman:          repayHuman,
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// ExecutionResult is the structured outcome of handing a plan to the
// transaction builder. Builder failures are converted to a result rather than
// raised, so a caller can report failure without crashing.
type ExecutionResult struct {
	Success bool

	// Digest is the submitted transaction digest on success.
	Digest string

	// Err carries the classified builder error on failure.
	Err error
}
