package entity

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
)

func testDebt(t *testing.T, shortName string, raw int64, precision int, usd string) DebtEntry {
	t.Helper()
	asset, err := NewAssetIdentity("0x2::"+shortName+"::X", shortName, shortName)
	if err != nil {
		t.Fatalf("asset: %v", err)
	}
	amt, err := NewAssetAmount(big.NewInt(raw), precision)
	if err != nil {
		t.Fatalf("amount: %v", err)
	}
	return DebtEntry{Asset: asset, Amount: amt, ValueUSD: decimal.RequireFromString(usd)}
}

func testCollateral(t *testing.T, shortName string, raw int64, precision int, usd string) CollateralEntry {
	t.Helper()
	d := testDebt(t, shortName, raw, precision, usd)
	return CollateralEntry{Asset: d.Asset, Amount: d.Amount, ValueUSD: d.ValueUSD}
}

func TestNewPositionValidation(t *testing.T) {
	debt := testDebt(t, "usdc", 120000000, 6, "120")
	coll := testCollateral(t, "sui", 100500000000, 9, "150.75")

	tests := []struct {
		name        string
		obligation  string
		debts       []DebtEntry
		collaterals []CollateralEntry
		ratio       decimal.Decimal
		basis       RiskBasis
		wantErr     bool
	}{
		{"valid exact", "0xabc", []DebtEntry{debt}, []CollateralEntry{coll}, decimal.RequireFromString("1.0523"), RiskBasisExact, false},
		{"empty id", "", []DebtEntry{debt}, []CollateralEntry{coll}, decimal.Zero, RiskBasisExact, true},
		{"negative ratio", "0xabc", []DebtEntry{debt}, []CollateralEntry{coll}, decimal.RequireFromString("-1"), RiskBasisExact, true},
		{"severe with collateral", "0xabc", []DebtEntry{debt}, []CollateralEntry{coll}, decimal.Zero, RiskBasisSevere, true},
		{"severe without collateral", "0xabc", []DebtEntry{debt}, nil, decimal.Zero, RiskBasisSevere, false},
		{"assumed without debt", "0xabc", nil, []CollateralEntry{coll}, LiquidationThreshold, RiskBasisAssumed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPosition(tt.obligation, tt.debts, tt.collaterals, tt.ratio, tt.basis)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewPosition() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPositionLiquidatable(t *testing.T) {
	debt := testDebt(t, "usdc", 120000000, 6, "120")
	coll := testCollateral(t, "sui", 100500000000, 9, "150.75")

	tests := []struct {
		name        string
		debts       []DebtEntry
		collaterals []CollateralEntry
		ratio       string
		basis       RiskBasis
		want        bool
	}{
		{"above threshold", []DebtEntry{debt}, []CollateralEntry{coll}, "1.0523", RiskBasisExact, true},
		{"at threshold", []DebtEntry{debt}, []CollateralEntry{coll}, "1", RiskBasisExact, true},
		{"below threshold", []DebtEntry{debt}, []CollateralEntry{coll}, "0.93", RiskBasisExact, false},
		{"no debt high ratio", nil, []CollateralEntry{coll}, "7", RiskBasisExact, false},
		{"bad debt never liquidatable", []DebtEntry{debt}, nil, "0", RiskBasisSevere, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPosition("0xabc", tt.debts, tt.collaterals, decimal.RequireFromString(tt.ratio), tt.basis)
			if err != nil {
				t.Fatalf("NewPosition: %v", err)
			}
			if got := p.Liquidatable(); got != tt.want {
				t.Errorf("Liquidatable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPositionBadDebt(t *testing.T) {
	debt := testDebt(t, "wusdc", 10591093, 6, "0")
	coll := testCollateral(t, "sui", 1, 9, "0")

	p, err := NewPosition("0xabc", []DebtEntry{debt}, nil, decimal.Zero, RiskBasisSevere)
	if err != nil {
		t.Fatalf("NewPosition: %v", err)
	}
	if !p.BadDebt() {
		t.Error("debt with no collateral must be bad debt")
	}
	if p.Liquidatable() {
		t.Error("bad debt must never be liquidatable")
	}

	healthy, err := NewPosition("0xabc", []DebtEntry{debt}, []CollateralEntry{coll}, decimal.Zero, RiskBasisExact)
	if err != nil {
		t.Fatalf("NewPosition: %v", err)
	}
	if healthy.BadDebt() {
		t.Error("position with collateral must not be bad debt")
	}

	empty, err := NewPosition("0xabc", nil, nil, decimal.Zero, RiskBasisNone)
	if err != nil {
		t.Fatalf("NewPosition: %v", err)
	}
	if empty.BadDebt() {
		t.Error("position without debt must not be bad debt")
	}
}
