package main

import (
	"math/big"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/archon-research/obrisk/internal/domain/entity"
)

func liquidationPlan(t *testing.T, profitable bool) *entity.Plan {
	t.Helper()
	plan, err := entity.NewPlan(entity.PlanLiquidate, "0xob", "usdc", "sui",
		big.NewInt(60000000), decimal.NewFromInt(60))
	if err != nil {
		t.Fatalf("NewPlan: %v", err)
	}
	plan.Profitable = profitable
	return plan
}

func TestExecutionBlockReason(t *testing.T) {
	badDebtPlan, err := entity.NewPlan(entity.PlanRepayBadDebt, "0xob", "wusdc", "",
		big.NewInt(10591093), decimal.RequireFromString("10.591093"))
	if err != nil {
		t.Fatalf("NewPlan: %v", err)
	}

	tests := []struct {
		name              string
		plan              *entity.Plan
		allowUnprofitable bool
		wantBlocked       bool
	}{
		{"profitable liquidation", liquidationPlan(t, true), false, false},
		{"unprofitable liquidation", liquidationPlan(t, false), false, true},
		{"unprofitable with override", liquidationPlan(t, false), true, false},
		{"bad-debt repayment", badDebtPlan, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason := executionBlockReason(tt.plan, tt.allowUnprofitable)
			if blocked := reason != ""; blocked != tt.wantBlocked {
				t.Errorf("blocked = %v (reason %q), want %v", blocked, reason, tt.wantBlocked)
			}
			if tt.wantBlocked && !strings.Contains(reason, "-allow-unprofitable") {
				t.Errorf("reason %q must name the override flag", reason)
			}
		})
	}
}

func TestHistoryBackendErr(t *testing.T) {
	if err := historyBackendErr(""); err == nil {
		t.Fatal("expected an error without a database URL")
	} else if !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Errorf("error %q must name DATABASE_URL", err)
	}
	if err := historyBackendErr("postgres://localhost/obrisk"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
