// Package planner derives concrete repayment actions from classified
// positions and executes them against the external transaction builder.
//
// Two policies exist. Ordinary liquidation repays half of the first debt
// entry in exchange for discounted collateral, gated on a profit estimate.
// Bad-debt repayment pays off the first debt entry in full with nothing in
// return, a deliberate write-off that callers must explicitly force.
package planner

import (
	"errors"
	"log/slog"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/archon-research/obrisk/internal/domain/entity"
)

// BadDebtWarning is surfaced on every bad-debt plan: the repayment buys
// nothing back.
const BadDebtWarning = "bad-debt repayment returns NO collateral; this is a write-off, not a liquidation"

// Config holds configuration for the Planner.
type Config struct {
	// BonusRate is the liquidation bonus as a fraction of the repaid value.
	BonusRate decimal.Decimal

	// MinProfitUSD is the floor the profit estimate must clear for a plan to
	// be flagged profitable.
	MinProfitUSD decimal.Decimal

	// Logger is the structured logger.
	Logger *slog.Logger
}

// ConfigDefaults returns default configuration.
func ConfigDefaults() Config {
	return Config{
		BonusRate:    decimal.RequireFromString("0.05"),
		MinProfitUSD: decimal.RequireFromString("0.10"),
		Logger:       slog.Default(),
	}
}

// Planner derives plans. It never optimizes pair choice: the first debt and
// first collateral entry are taken as-is, so callers wanting best-pair
// selection must pre-sort the record.
type Planner struct {
	config Config
	logger *slog.Logger
}

// NewPlanner creates a new Planner.
func NewPlanner(config Config) (*Planner, error) {
	defaults := ConfigDefaults()
	if config.BonusRate.IsZero() {
		config.BonusRate = defaults.BonusRate
	}
	if config.BonusRate.IsNegative() {
		return nil, errors.New("bonus rate must be non-negative")
	}
	if config.MinProfitUSD.IsZero() {
		config.MinProfitUSD = defaults.MinProfitUSD
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}
	return &Planner{
		config: config,
		logger: config.Logger.With("component", "planner"),
	}, nil
}

// PlanLiquidation derives an ordinary liquidation plan, or nil when the
// position is not liquidatable or lacks a debt/collateral pair.
//
// The repay amount is a fixed 50% of the debt's raw amount, floored: a
// partial-liquidation safety cap independent of profitability. The profit
// estimate is a heuristic bound that ignores gas and slippage.
func (p *Planner) PlanLiquidation(position *entity.Position) *entity.Plan {
	if position == nil || !position.Liquidatable() {
		return nil
	}
	if len(position.Debts) == 0 || len(position.Collaterals) == 0 {
		return nil
	}

	debt := position.Debts[0]
	coll := position.Collaterals[0]

	repayRaw := new(big.Int).Rsh(debt.Amount.Raw, 1) // floor(raw / 2)
	repayAmount, err := entity.NewAssetAmount(repayRaw, debt.Amount.Precision)
	if err != nil {
		p.logger.Error("repay amount construction failed", "obligation", position.ObligationID, "error", err)
		return nil
	}

	plan, err := entity.NewPlan(entity.PlanLiquidate, position.ObligationID,
		debt.Asset.ShortName, coll.Asset.ShortName, repayRaw, repayAmount.Human())
	if err != nil {
		p.logger.Error("liquidation plan invalid", "obligation", position.ObligationID, "error", err)
		return nil
	}

	profit := p.estimateProfit(debt.ValueUSD, coll.ValueUSD)
	plan.EstimatedProfitUSD = profit
	plan.Profitable = profit.GreaterThan(p.config.MinProfitUSD)

	p.logger.Info("derived liquidation plan",
		"obligation", position.ObligationID,
		"repay", plan.RepayHuman,
		"debt", plan.DebtShortName,
		"collateral", plan.CollateralShortName,
		"estProfitUsd", profit,
		"profitable", plan.Profitable)
	return plan
}

// estimateProfit bounds the value recoverable from repaying half the debt:
// the seized collateral cannot exceed what exists, and the bonus applies to
// the repaid value.
func (p *Planner) estimateProfit(debtUSD, collateralUSD decimal.Decimal) decimal.Decimal {
	half := debtUSD.Div(decimal.NewFromInt(2))
	base := decimal.Min(half, collateralUSD)
	return base.Mul(p.config.BonusRate)
}

// PlanBadDebtRepayment derives a full-repayment plan for a bad-debt
// position, or nil when the position is not bad debt or has no debt entry.
// The profitability gate does not apply: this is a deliberate write-off and
// is only ever built on an explicit caller directive.
func (p *Planner) PlanBadDebtRepayment(position *entity.Position) *entity.Plan {
	if position == nil || !position.BadDebt() {
		return nil
	}

	debt := position.Debts[0]
	repayRaw := new(big.Int).Set(debt.Amount.Raw)
	plan, err := entity.NewPlan(entity.PlanRepayBadDebt, position.ObligationID,
		debt.Asset.ShortName, "", repayRaw, debt.Amount.Human())
	if err != nil {
		p.logger.Error("bad-debt plan invalid", "obligation", position.ObligationID, "error", err)
		return nil
	}
	plan.Warning = BadDebtWarning

	p.logger.Warn("derived bad-debt repayment plan",
		"obligation", position.ObligationID,
		"repay", plan.RepayHuman,
		"debt", plan.DebtShortName,
		"warning", BadDebtWarning)
	return plan
}
