package planner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/archon-research/obrisk/internal/ports/outbound"
)

// mockBuilder implements outbound.TransactionBuilder.
type mockBuilder struct {
	liquidateResult *outbound.TxResult
	liquidateErr    error
	repayResult     *outbound.TxResult
	repayErr        error

	lastLiquidate *outbound.LiquidateRequest
	lastRepay     *outbound.RepayRequest
}

func (m *mockBuilder) Liquidate(ctx context.Context, req outbound.LiquidateRequest) (*outbound.TxResult, error) {
	m.lastLiquidate = &req
	return m.liquidateResult, m.liquidateErr
}

func (m *mockBuilder) Repay(ctx context.Context, req outbound.RepayRequest) (*outbound.TxResult, error) {
	m.lastRepay = &req
	return m.repayResult, m.repayErr
}

func newExecutor(t *testing.T, builder outbound.TransactionBuilder) *Executor {
	t.Helper()
	e, err := NewExecutor(builder, ExecutorConfig{WalletAddress: "0xwallet"})
	if err != nil {
		t.Fatalf("NewExecutor: %v", err)
	}
	return e
}

func TestExecuteLiquidation(t *testing.T) {
	builder := &mockBuilder{liquidateResult: &outbound.TxResult{Digest: "8gXs..."}}
	e := newExecutor(t, builder)
	p := newPlanner(t, Config{})
	plan := p.PlanLiquidation(liquidatablePosition(t))

	result := e.Execute(context.Background(), plan)
	if !result.Success {
		t.Fatalf("Execute failed: %v", result.Err)
	}
	if result.Digest != "8gXs..." {
		t.Errorf("digest = %s", result.Digest)
	}
	if builder.lastLiquidate == nil {
		t.Fatal("builder.Liquidate not invoked")
	}
	if builder.lastLiquidate.WalletAddress != "0xwallet" {
		t.Errorf("wallet = %s", builder.lastLiquidate.WalletAddress)
	}
	if builder.lastLiquidate.RepayRaw.Int64() != 60000000 {
		t.Errorf("repayRaw = %s", builder.lastLiquidate.RepayRaw)
	}
	if builder.lastRepay != nil {
		t.Error("builder.Repay must not be invoked for a liquidation plan")
	}
}

func TestExecuteBadDebtRepayment(t *testing.T) {
	builder := &mockBuilder{repayResult: &outbound.TxResult{Digest: "3kQm..."}}
	e := newExecutor(t, builder)
	p := newPlanner(t, Config{})
	plan := p.PlanBadDebtRepayment(badDebtPosition(t))

	result := e.Execute(context.Background(), plan)
	if !result.Success {
		t.Fatalf("Execute failed: %v", result.Err)
	}
	if builder.lastRepay == nil {
		t.Fatal("builder.Repay not invoked")
	}
	if builder.lastRepay.RepayRaw.Int64() != 10591093 {
		t.Errorf("repayRaw = %s, want the full debt", builder.lastRepay.RepayRaw)
	}
}

// A builder failure naming a lock must come back as a structured result,
// never as a raised error.
func TestExecuteLockedObligation(t *testing.T) {
	builder := &mockBuilder{repayErr: errors.New(`MoveAbort in obligation_access: "obligation is_locked" (code 770)`)}
	e := newExecutor(t, builder)
	p := newPlanner(t, Config{})
	plan := p.PlanBadDebtRepayment(badDebtPosition(t))

	result := e.Execute(context.Background(), plan)
	if result.Success {
		t.Fatal("expected a failed result")
	}

	var be *BuilderError
	if !errors.As(result.Err, &be) {
		t.Fatalf("expected *BuilderError, got %T", result.Err)
	}
	if be.Kind != BuilderErrLocked {
		t.Errorf("kind = %s, want locked", be.Kind)
	}
	if !strings.Contains(be.Error(), "locked") {
		t.Errorf("message should name the lock: %q", be.Error())
	}
	if !strings.Contains(be.Error(), "wusdc") {
		t.Errorf("message should name the asset: %q", be.Error())
	}
	if !strings.Contains(be.Error(), "unstaked") {
		t.Errorf("message should carry the operator hint: %q", be.Error())
	}
}

func TestExecuteClassifiesBuilderErrors(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantKind BuilderErrorKind
	}{
		{"locked obligation", "obligation 0xab is locked by boost", BuilderErrLocked},
		{"zero amount", "repay coin has zero value", BuilderErrZeroAmount},
		{"insufficient funds", "Insufficient balance for coin 0x5d4b::coin::COIN", BuilderErrInsufficientBalance},
		{"unsupported asset", "unknown coin type in market", BuilderErrUnsupportedAsset},
		{"anything else", "deadline exceeded waiting for checkpoint", BuilderErrUnclassified},
	}

	p := newPlanner(t, Config{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builder := &mockBuilder{repayErr: errors.New(tt.raw)}
			e := newExecutor(t, builder)

			result := e.Execute(context.Background(), p.PlanBadDebtRepayment(badDebtPosition(t)))
			if result.Success {
				t.Fatal("expected failure")
			}
			var be *BuilderError
			if !errors.As(result.Err, &be) {
				t.Fatalf("expected *BuilderError, got %T", result.Err)
			}
			if be.Kind != tt.wantKind {
				t.Errorf("kind = %s, want %s", be.Kind, tt.wantKind)
			}
			if !errors.Is(result.Err, be.Raw) {
				t.Error("classified error must unwrap to the raw builder error")
			}
		})
	}
}

func TestNewExecutorValidation(t *testing.T) {
	if _, err := NewExecutor(nil, ExecutorConfig{WalletAddress: "0xw"}); err == nil {
		t.Error("nil builder must be rejected")
	}
	if _, err := NewExecutor(&mockBuilder{}, ExecutorConfig{}); err == nil {
		t.Error("missing wallet address must be rejected")
	}
}
