// Package main provides the obligation risk evaluator CLI.
// Given an obligation ID it resolves the position, classifies it, derives a
// repayment plan, records the evaluation and optionally executes the plan
// through the external transaction builder.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/archon-research/obrisk/db"
	"github.com/archon-research/obrisk/db/migrator"
	"github.com/archon-research/obrisk/internal/adapters/outbound/memory"
	"github.com/archon-research/obrisk/internal/adapters/outbound/postgres"
	"github.com/archon-research/obrisk/internal/adapters/outbound/scallopapi"
	snssink "github.com/archon-research/obrisk/internal/adapters/outbound/sns"
	"github.com/archon-research/obrisk/internal/adapters/outbound/suirpc"
	"github.com/archon-research/obrisk/internal/adapters/outbound/telemetry"
	"github.com/archon-research/obrisk/internal/adapters/outbound/txbuilderapi"
	"github.com/archon-research/obrisk/internal/domain/entity"
	"github.com/archon-research/obrisk/internal/pkg/coins"
	"github.com/archon-research/obrisk/internal/pkg/env"
	"github.com/archon-research/obrisk/internal/ports/outbound"
	"github.com/archon-research/obrisk/internal/services/chainparser"
	"github.com/archon-research/obrisk/internal/services/planner"
	"github.com/archon-research/obrisk/internal/services/positionquery"
	"github.com/archon-research/obrisk/internal/services/riskeval"
)

// Build-time variables
var (
	GitCommit string
	BuildTime string
)

func init() {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				if GitCommit == "" {
					GitCommit = setting.Value
				}
			case "vcs.time":
				if BuildTime == "" {
					BuildTime = setting.Value
				}
			}
		}
	}
}

// report is the CLI's JSON output.
type report struct {
	ObligationID string           `json:"obligationId"`
	State        string           `json:"state"`
	RiskBasis    string           `json:"riskBasis"`
	RiskRatio    string           `json:"riskRatio"`
	Debts        []reportAsset    `json:"debts"`
	Collaterals  []reportAsset    `json:"collaterals"`
	Plan         *reportPlan      `json:"plan,omitempty"`
	Execution    *reportExecution `json:"execution,omitempty"`
}

type reportAsset struct {
	ShortName string `json:"shortName"`
	TypeTag   string `json:"typeTag"`
	Amount    string `json:"amount"`
	ValueUSD  string `json:"valueUsd"`
}

type reportPlan struct {
	Kind                string `json:"kind"`
	DebtShortName       string `json:"debtShortName"`
	CollateralShortName string `json:"collateralShortName,omitempty"`
	RepayRaw            string `json:"repayRaw"`
	RepayHuman          string `json:"repayHuman"`
	EstimatedProfitUSD  string `json:"estimatedProfitUsd"`
	Profitable          bool   `json:"profitable"`
	Warning             string `json:"warning,omitempty"`
}

type reportExecution struct {
	Success bool   `json:"success"`
	Digest  string `json:"digest,omitempty"`
	Error   string `json:"error,omitempty"`
}

func main() {
	os.Exit(run())
}

func run() int {
	showVersion := flag.Bool("version", false, "Show version information and exit")
	obligationID := flag.String("obligation", "", "Obligation object ID to evaluate")
	execute := flag.Bool("execute", false, "Execute the derived plan through the transaction builder")
	allowUnprofitable := flag.Bool("allow-unprofitable", false, "Execute liquidation plans whose profit estimate is below the floor")
	forceBadDebt := flag.Bool("force-bad-debt", false, "Allow full repayment of bad-debt positions (a write-off)")
	wallet := flag.String("wallet", "", "Wallet address receiving collateral and residuals (required with -execute)")
	history := flag.Int("history", 0, "Print the last N recorded evaluations for the obligation and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("obrisk-liquidator\n")
		fmt.Printf("  Commit:     %s\n", GitCommit)
		fmt.Printf("  Build Time: %s\n", BuildTime)
		return 0
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: env.ParseLogLevel(slog.LevelInfo),
	}))
	slog.SetDefault(logger)

	if *obligationID == "" {
		logger.Error("-obligation is required")
		return 1
	}
	if *execute && *wallet == "" {
		logger.Error("-wallet is required with -execute")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if otlpEndpoint := env.Get("OTLP_ENDPOINT", ""); otlpEndpoint != "" {
		shutdown, err := telemetry.InitTracer(ctx, telemetry.TracerConfig{
			ServiceName:  "obrisk-liquidator",
			Environment:  env.Get("ENVIRONMENT", "development"),
			OTLPEndpoint: otlpEndpoint,
		})
		if err != nil {
			logger.Error("failed to initialize tracing", "error", err)
			return 1
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				logger.Warn("failed to shut down tracing", "error", err)
			}
		}()
	}

	// Outbound adapters.
	rpcClient, err := suirpc.NewClient(suirpc.ClientConfig{
		RPCURL:          env.Get("RPC_URL", ""),
		MaxRetries:      env.GetInt("RPC_MAX_RETRIES", 0),
		RateLimitPerSec: env.GetInt("RPC_RATE_LIMIT_PER_SEC", 0),
		Logger:          logger,
	})
	if err != nil {
		logger.Error("failed to create RPC client", "error", err)
		return 1
	}

	apiClient, err := scallopapi.NewClient(scallopapi.ClientConfig{
		BaseURL:         env.Get("SCALLOP_API_URL", ""),
		MaxRetries:      env.GetInt("SCALLOP_API_MAX_RETRIES", 0),
		RateLimitPerSec: env.GetInt("SCALLOP_API_RATE_LIMIT_PER_SEC", 0),
		Logger:          logger,
	})
	if err != nil {
		logger.Error("failed to create indexer client", "error", err)
		return 1
	}

	databaseURL := env.Get("DATABASE_URL", "")
	if *history > 0 {
		if err := historyBackendErr(databaseURL); err != nil {
			logger.Error("cannot serve -history", "error", err)
			return 1
		}
	}

	repository, cleanup, err := buildRepository(ctx, databaseURL, logger)
	if err != nil {
		logger.Error("failed to create evaluation repository", "error", err)
		return 1
	}
	defer cleanup()

	if *history > 0 {
		return printHistory(ctx, repository, *obligationID, *history)
	}

	sink, err := buildSink(ctx, logger)
	if err != nil {
		logger.Error("failed to create evaluation sink", "error", err)
		return 1
	}
	defer func() {
		if err := sink.Close(); err != nil {
			logger.Warn("failed to close evaluation sink", "error", err)
		}
	}()

	// Core services.
	parser, err := chainparser.NewParser(rpcClient, coins.DefaultRegistry(), chainparser.Config{Logger: logger})
	if err != nil {
		logger.Error("failed to create chain parser", "error", err)
		return 1
	}
	querier, err := positionquery.NewService(apiClient, parser, positionquery.Config{Logger: logger})
	if err != nil {
		logger.Error("failed to create position query service", "error", err)
		return 1
	}
	classifier := riskeval.NewEvaluator()
	plannerSvc, err := planner.NewPlanner(planner.Config{Logger: logger})
	if err != nil {
		logger.Error("failed to create planner", "error", err)
		return 1
	}

	// Evaluate.
	position, err := querier.QueryPosition(ctx, *obligationID)
	if err != nil {
		logger.Error("failed to resolve position", "obligation", *obligationID, "error", err)
		return 1
	}

	classification := classifier.Classify(position)
	state := classification.State()

	var plan *entity.Plan
	switch {
	case classification.BadDebt && *forceBadDebt:
		plan = plannerSvc.PlanBadDebtRepayment(position)
	case classification.BadDebt:
		logger.Warn("position carries bad debt; pass -force-bad-debt to plan a write-off",
			"obligation", *obligationID)
	case classification.Liquidatable:
		plan = plannerSvc.PlanLiquidation(position)
	}

	var execution *entity.ExecutionResult
	blockReason := ""
	if plan != nil && *execute {
		blockReason = executionBlockReason(plan, *allowUnprofitable)
	}
	if blockReason != "" {
		logger.Warn("refusing to execute plan",
			"obligation", *obligationID,
			"estProfitUsd", plan.EstimatedProfitUSD,
			"reason", blockReason)
	}
	if plan != nil && *execute && blockReason == "" {
		builder, err := txbuilderapi.NewClient(txbuilderapi.ClientConfig{
			BaseURL: env.Get("TXBUILDER_URL", ""),
			Logger:  logger,
		})
		if err != nil {
			logger.Error("failed to create transaction builder client", "error", err)
			return 1
		}
		executor, err := planner.NewExecutor(builder, planner.ExecutorConfig{
			WalletAddress: *wallet,
			Logger:        logger,
		})
		if err != nil {
			logger.Error("failed to create plan executor", "error", err)
			return 1
		}
		execution = executor.Execute(ctx, plan)
	}

	if err := record(ctx, repository, sink, position, state, plan, execution, logger); err != nil {
		logger.Warn("failed to record evaluation", "error", err)
	}

	if err := printReport(position, state, plan, execution); err != nil {
		logger.Error("failed to print report", "error", err)
		return 1
	}
	if execution != nil && !execution.Success {
		return 1
	}
	if blockReason != "" {
		return 1
	}
	return 0
}

// executionBlockReason returns why a plan requested for execution must not be
// submitted, or an empty string when nothing blocks it. Liquidation plans
// below the profit floor require the explicit -allow-unprofitable override;
// bad-debt plans already passed their own -force-bad-debt gate.
func executionBlockReason(plan *entity.Plan, allowUnprofitable bool) string {
	if plan.Kind == entity.PlanLiquidate && !plan.Profitable && !allowUnprofitable {
		return "estimated profit is below the floor; pass -allow-unprofitable to submit anyway"
	}
	return ""
}

// historyBackendErr reports whether -history can be served: evaluations are
// only persisted when PostgreSQL is configured, so an unset DATABASE_URL
// would silently print an empty list.
func historyBackendErr(databaseURL string) error {
	if databaseURL == "" {
		return errors.New("-history requires DATABASE_URL, evaluations are only persisted to PostgreSQL")
	}
	return nil
}

// buildRepository returns the PostgreSQL repository when a database URL is
// set, the in-memory one otherwise.
func buildRepository(ctx context.Context, databaseURL string, logger *slog.Logger) (outbound.EvaluationRepository, func(), error) {
	if databaseURL == "" {
		logger.Info("DATABASE_URL not set, evaluations are not persisted")
		return memory.NewEvaluationRepository(), func() {}, nil
	}

	pool, err := postgres.OpenPool(ctx, postgres.DefaultDBConfig(databaseURL))
	if err != nil {
		return nil, nil, fmt.Errorf("opening database pool: %w", err)
	}
	if err := migrator.New(pool, db.Migrations(), logger).ApplyAll(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("applying migrations: %w", err)
	}
	repository, err := postgres.NewEvaluationRepository(pool, logger)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return repository, pool.Close, nil
}

// buildSink returns the SNS sink when SNS_TOPIC_ARN is set, the in-memory
// one otherwise.
func buildSink(ctx context.Context, logger *slog.Logger) (outbound.EvaluationSink, error) {
	topicARN := env.Get("SNS_TOPIC_ARN", "")
	if topicARN == "" {
		logger.Info("SNS_TOPIC_ARN not set, evaluation events are not published")
		return memory.NewEvaluationSink(), nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return snssink.NewEvaluationSink(awssns.NewFromConfig(awsCfg), snssink.Config{
		TopicARN: topicARN,
		Logger:   logger,
	})
}

// record persists the evaluation and publishes an event when the position is
// actionable. Recording failures never abort the run: the decision already
// happened and was printed.
func record(ctx context.Context, repository outbound.EvaluationRepository, sink outbound.EvaluationSink,
	position *entity.Position, state entity.State, plan *entity.Plan, execution *entity.ExecutionResult,
	logger *slog.Logger) error {

	now := time.Now().UTC()
	eval, err := entity.NewEvaluation(position.ObligationID, state.String(), position.RiskBasis.String(),
		position.RiskRatio, len(position.Debts), len(position.Collaterals), now)
	if err != nil {
		return err
	}
	if plan != nil {
		eval.PlanKind = plan.Kind.String()
		eval.RepayRaw = plan.RepayRaw.String()
	}
	if execution != nil {
		eval.Executed = true
		eval.TxDigest = execution.Digest
		if execution.Err != nil {
			eval.ExecError = execution.Err.Error()
		}
	}
	if _, err := repository.SaveEvaluation(ctx, eval); err != nil {
		return err
	}

	if state == entity.StateNeither {
		return nil
	}
	event := outbound.EvaluationEvent{
		ObligationID: position.ObligationID,
		State:        state.String(),
		RiskBasis:    position.RiskBasis.String(),
		RiskRatio:    position.RiskRatio.String(),
		EvaluatedAt:  now,
	}
	if plan != nil {
		event.DebtShortName = plan.DebtShortName
		event.EstimatedProfitUSD = plan.EstimatedProfitUSD.String()
		event.Warning = plan.Warning
	}
	if err := sink.Publish(ctx, event); err != nil {
		return err
	}
	logger.Info("evaluation event published", "obligation", position.ObligationID, "state", state)
	return nil
}

func printReport(position *entity.Position, state entity.State, plan *entity.Plan, execution *entity.ExecutionResult) error {
	out := report{
		ObligationID: position.ObligationID,
		State:        state.String(),
		RiskBasis:    position.RiskBasis.String(),
		RiskRatio:    position.RiskRatio.String(),
		Debts:        make([]reportAsset, 0, len(position.Debts)),
		Collaterals:  make([]reportAsset, 0, len(position.Collaterals)),
	}
	for _, d := range position.Debts {
		out.Debts = append(out.Debts, reportAsset{
			ShortName: d.Asset.ShortName,
			TypeTag:   d.Asset.TypeTag,
			Amount:    d.Amount.Human().String(),
			ValueUSD:  d.ValueUSD.String(),
		})
	}
	for _, c := range position.Collaterals {
		out.Collaterals = append(out.Collaterals, reportAsset{
			ShortName: c.Asset.ShortName,
			TypeTag:   c.Asset.TypeTag,
			Amount:    c.Amount.Human().String(),
			ValueUSD:  c.ValueUSD.String(),
		})
	}
	if plan != nil {
		out.Plan = &reportPlan{
			Kind:                plan.Kind.String(),
			DebtShortName:       plan.DebtShortName,
			CollateralShortName: plan.CollateralShortName,
			RepayRaw:            plan.RepayRaw.String(),
			RepayHuman:          plan.RepayHuman.String(),
			EstimatedProfitUSD:  plan.EstimatedProfitUSD.String(),
			Profitable:          plan.Profitable,
			Warning:             plan.Warning,
		}
	}
	if execution != nil {
		out.Execution = &reportExecution{Success: execution.Success, Digest: execution.Digest}
		if execution.Err != nil {
			out.Execution.Error = execution.Err.Error()
		}
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func printHistory(ctx context.Context, repository outbound.EvaluationRepository, obligationID string, limit int) int {
	evaluations, err := repository.GetEvaluationsByObligation(ctx, obligationID, limit)
	if err != nil {
		slog.Error("failed to load evaluations", "obligation", obligationID, "error", err)
		return 1
	}
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(evaluations); err != nil {
		slog.Error("failed to print evaluations", "error", err)
		return 1
	}
	return 0
}
