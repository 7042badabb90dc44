package planner

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/archon-research/obrisk/internal/domain/entity"
	"github.com/archon-research/obrisk/internal/ports/outbound"
)

const tracerName = "github.com/archon-research/obrisk/internal/services/planner"

// ExecutorConfig holds configuration for the Executor.
type ExecutorConfig struct {
	// WalletAddress receives seized collateral and residual repay coins.
	WalletAddress string

	// Logger is the structured logger.
	Logger *slog.Logger
}

// Executor hands plans to the transaction builder and converts builder
// failures into structured results. It never raises a builder error: callers
// always get an ExecutionResult they can report on.
type Executor struct {
	builder outbound.TransactionBuilder
	wallet  string
	logger  *slog.Logger
}

// NewExecutor creates a new Executor.
func NewExecutor(builder outbound.TransactionBuilder, config ExecutorConfig) (*Executor, error) {
	if builder == nil {
		return nil, errors.New("transaction builder is required")
	}
	if config.WalletAddress == "" {
		return nil, errors.New("wallet address is required")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Executor{
		builder: builder,
		wallet:  config.WalletAddress,
		logger:  config.Logger.With("component", "plan-executor"),
	}, nil
}

// Execute submits the plan. The returned result is always non-nil; builder
// failures come back as Success=false with a classified error.
func (e *Executor) Execute(ctx context.Context, plan *entity.Plan) *entity.ExecutionResult {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "planner.Execute",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("obligation.id", plan.ObligationID),
			attribute.String("plan.kind", plan.Kind.String()),
		),
	)
	defer span.End()

	var (
		result *outbound.TxResult
		err    error
	)
	switch plan.Kind {
	case entity.PlanLiquidate:
		result, err = e.builder.Liquidate(ctx, outbound.LiquidateRequest{
			ObligationID:        plan.ObligationID,
			DebtShortName:       plan.DebtShortName,
			CollateralShortName: plan.CollateralShortName,
			RepayRaw:            plan.RepayRaw,
			WalletAddress:       e.wallet,
		})
	case entity.PlanRepayBadDebt:
		result, err = e.builder.Repay(ctx, outbound.RepayRequest{
			ObligationID:  plan.ObligationID,
			DebtShortName: plan.DebtShortName,
			RepayRaw:      plan.RepayRaw,
			WalletAddress: e.wallet,
		})
	default:
		err = errors.New("unknown plan kind")
	}

	if err != nil {
		classified := translateBuilderError(plan, err)
		span.RecordError(classified)
		span.SetStatus(codes.Error, "transaction build failed")
		e.logger.Error("plan execution failed",
			"obligation", plan.ObligationID,
			"kind", plan.Kind,
			"errorKind", classified.Kind,
			"error", classified)
		return &entity.ExecutionResult{Success: false, Err: classified}
	}

	span.SetAttributes(attribute.String("tx.digest", result.Digest))
	e.logger.Info("plan executed",
		"obligation", plan.ObligationID,
		"kind", plan.Kind,
		"digest", result.Digest)
	return &entity.ExecutionResult{Success: true, Digest: result.Digest}
}
