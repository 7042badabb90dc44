package entity

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RiskBasis states how a position's risk ratio was obtained. The raw-chain
// fallback path cannot consult the price oracle, so it can only produce a
// coarse classification; the basis makes that explicit instead of encoding it
// in a magic ratio value.
type RiskBasis int

const (
	// RiskBasisNone means the position carries no debt; the ratio is zero.
	RiskBasisNone RiskBasis = iota

	// RiskBasisExact means the ratio came from the structured source and is
	// authoritative.
	RiskBasisExact

	// RiskBasisAssumed means the raw-chain path found both debt and
	// collateral but no price data; the ratio is pinned to the liquidation
	// threshold as a conservative placeholder and the caller must verify
	// economics before acting.
	RiskBasisAssumed

	// RiskBasisSevere means the raw-chain path found debt with no collateral
	// at all. The position is severely underwater; the ratio field is not
	// meaningful and must not be used for arithmetic.
	RiskBasisSevere
)

// String returns the basis as a stable lowercase label.
func (b RiskBasis) String() string {
	switch b {
	case RiskBasisNone:
		return "none"
	case RiskBasisExact:
		return "exact"
	case RiskBasisAssumed:
		return "assumed"
	case RiskBasisSevere:
		return "severe"
	default:
		return fmt.Sprintf("riskbasis(%d)", int(b))
	}
}

// LiquidationThreshold is the risk ratio at and above which a position is
// eligible for ordinary liquidation.
var LiquidationThreshold = decimal.NewFromInt(1)

// DebtEntry is one borrowed asset on a position.
type DebtEntry struct {
	Asset  AssetIdentity
	Amount AssetAmount

	// ValueUSD is the estimated dollar value. Zero when no price oracle was
	// consulted (the raw-chain parse path).
	ValueUSD decimal.Decimal
}

// CollateralEntry is one deposited asset on a position.
type CollateralEntry struct {
	Asset  AssetIdentity
	Amount AssetAmount

	// ValueUSD is the estimated dollar value. Zero when no price oracle was
	// consulted (the raw-chain parse path).
	ValueUSD decimal.Decimal
}

// Position is a borrower's obligation: its outstanding debts, deposited
// collateral, and risk level. A Position is constructed fresh per query,
// never cached, and never mutated after construction.
type Position struct {
	// ObligationID is the opaque on-chain identifier of the obligation.
	ObligationID string

	// Debts and Collaterals are ordered deterministically (sorted by asset
	// short name); planner logic depends on first-entry selection.
	Debts       []DebtEntry
	Collaterals []CollateralEntry

	// RiskRatio is weighted borrow value over weighted collateral value.
	// Authoritative only when RiskBasis is RiskBasisExact; a placeholder at
	// the threshold for RiskBasisAssumed; not meaningful for RiskBasisSevere.
	RiskRatio decimal.Decimal

	// RiskBasis states where the ratio came from.
	RiskBasis RiskBasis
}

// NewPosition creates a Position with validation.
func NewPosition(obligationID string, debts []DebtEntry, collaterals []CollateralEntry, riskRatio decimal.Decimal, basis RiskBasis) (*Position, error) {
	p := &Position{
		ObligationID: obligationID,
		Debts:        debts,
		Collaterals:  collaterals,
		RiskRatio:    riskRatio,
		RiskBasis:    basis,
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// validate checks structural invariants.
func (p *Position) validate() error {
	if p.ObligationID == "" {
		return fmt.Errorf("obligationID must not be empty")
	}
	if p.RiskRatio.IsNegative() {
		return fmt.Errorf("riskRatio must be non-negative, got %s", p.RiskRatio)
	}
	if len(p.Debts) == 0 && p.RiskBasis != RiskBasisNone && p.RiskBasis != RiskBasisExact {
		return fmt.Errorf("basis %s requires at least one debt entry", p.RiskBasis)
	}
	if p.RiskBasis == RiskBasisSevere && len(p.Collaterals) > 0 {
		return fmt.Errorf("basis severe requires zero collateral entries, got %d", len(p.Collaterals))
	}
	for i, d := range p.Debts {
		if err := d.Asset.validate(); err != nil {
			return fmt.Errorf("debt %d: %w", i, err)
		}
		if d.Amount.Raw == nil {
			return fmt.Errorf("debt %d: amount must not be nil", i)
		}
	}
	for i, c := range p.Collaterals {
		if err := c.Asset.validate(); err != nil {
			return fmt.Errorf("collateral %d: %w", i, err)
		}
		if c.Amount.Raw == nil {
			return fmt.Errorf("collateral %d: amount must not be nil", i)
		}
	}
	return nil
}

// BadDebt reports whether the position has outstanding debt with no
// collateral left to seize.
func (p *Position) BadDebt() bool {
	return len(p.Debts) > 0 && len(p.Collaterals) == 0
}

// Liquidatable reports whether the position is eligible for ordinary
// liquidation: risk at or above the threshold, at least one debt entry, and
// not bad debt (with no collateral there is nothing to seize, so ordinary
// liquidation cannot proceed however extreme the risk).
func (p *Position) Liquidatable() bool {
	if len(p.Debts) == 0 || p.BadDebt() {
		return false
	}
	return p.RiskRatio.GreaterThanOrEqual(LiquidationThreshold)
}
