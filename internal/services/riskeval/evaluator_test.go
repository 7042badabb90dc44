package riskeval

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/archon-research/obrisk/internal/domain/entity"
)

func debt(t *testing.T, short string, raw int64, precision int, usd string) entity.DebtEntry {
	t.Helper()
	asset, err := entity.NewAssetIdentity("0x2::"+short+"::X", short, short)
	if err != nil {
		t.Fatalf("asset: %v", err)
	}
	amt, err := entity.NewAssetAmount(big.NewInt(raw), precision)
	if err != nil {
		t.Fatalf("amount: %v", err)
	}
	return entity.DebtEntry{Asset: asset, Amount: amt, ValueUSD: decimal.RequireFromString(usd)}
}

func collateral(t *testing.T, short string, raw int64, precision int, usd string) entity.CollateralEntry {
	t.Helper()
	d := debt(t, short, raw, precision, usd)
	return entity.CollateralEntry{Asset: d.Asset, Amount: d.Amount, ValueUSD: d.ValueUSD}
}

func position(t *testing.T, debts []entity.DebtEntry, collaterals []entity.CollateralEntry, ratio string, basis entity.RiskBasis) *entity.Position {
	t.Helper()
	p, err := entity.NewPosition("0xob", debts, collaterals, decimal.RequireFromString(ratio), basis)
	if err != nil {
		t.Fatalf("position: %v", err)
	}
	return p
}

func TestClassifyPartitions(t *testing.T) {
	usdcDebt := debt(t, "usdc", 120000000, 6, "120")
	suiColl := collateral(t, "sui", 100500000000, 9, "150.75")

	tests := []struct {
		name      string
		position  *entity.Position
		wantState entity.State
	}{
		{
			name:      "above threshold with collateral",
			position:  position(t, []entity.DebtEntry{usdcDebt}, []entity.CollateralEntry{suiColl}, "1.0523", entity.RiskBasisExact),
			wantState: entity.StateLiquidatable,
		},
		{
			name:      "healthy",
			position:  position(t, []entity.DebtEntry{usdcDebt}, []entity.CollateralEntry{suiColl}, "0.62", entity.RiskBasisExact),
			wantState: entity.StateNeither,
		},
		{
			name:      "debt without collateral",
			position:  position(t, []entity.DebtEntry{debt(t, "wusdc", 10591093, 6, "0")}, nil, "0", entity.RiskBasisSevere),
			wantState: entity.StateBadDebt,
		},
		{
			name:      "no debt at all",
			position:  position(t, nil, []entity.CollateralEntry{suiColl}, "0", entity.RiskBasisNone),
			wantState: entity.StateNeither,
		},
		{
			name:      "no debt with absurd ratio",
			position:  position(t, nil, []entity.CollateralEntry{suiColl}, "99", entity.RiskBasisExact),
			wantState: entity.StateNeither,
		},
		{
			name:      "assumed basis at threshold",
			position:  position(t, []entity.DebtEntry{usdcDebt}, []entity.CollateralEntry{suiColl}, "1", entity.RiskBasisAssumed),
			wantState: entity.StateLiquidatable,
		},
	}

	eval := NewEvaluator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := eval.Classify(tt.position)

			if c.Liquidatable && c.BadDebt {
				t.Fatal("classification must never be both liquidatable and bad debt")
			}
			if got := c.State(); got != tt.wantState {
				t.Errorf("State() = %s, want %s", got, tt.wantState)
			}
		})
	}
}

func TestClassifyNil(t *testing.T) {
	c := NewEvaluator().Classify(nil)
	if c.Liquidatable || c.BadDebt {
		t.Errorf("nil position must classify as neither, got %+v", c)
	}
}
