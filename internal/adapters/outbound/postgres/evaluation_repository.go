package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/archon-research/obrisk/internal/domain/entity"
	"github.com/archon-research/obrisk/internal/ports/outbound"
)

// Compile-time check that EvaluationRepository implements outbound.EvaluationRepository
var _ outbound.EvaluationRepository = (*EvaluationRepository)(nil)

// EvaluationRepository is a PostgreSQL implementation of the
// outbound.EvaluationRepository port.
type EvaluationRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewEvaluationRepository creates a new PostgreSQL evaluation repository.
func NewEvaluationRepository(pool *pgxpool.Pool, logger *slog.Logger) (*EvaluationRepository, error) {
	if pool == nil {
		return nil, fmt.Errorf("database pool cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EvaluationRepository{
		pool:   pool,
		logger: logger,
	}, nil
}

// SaveEvaluation stores an evaluation and returns its assigned ID.
func (r *EvaluationRepository) SaveEvaluation(ctx context.Context, eval *entity.Evaluation) (int64, error) {
	if eval == nil {
		return 0, fmt.Errorf("evaluation cannot be nil")
	}

	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO evaluation (obligation_id, state, risk_basis, risk_ratio, debt_count, collateral_count,
		                         plan_kind, repay_raw, executed, tx_digest, exec_error, evaluated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id`,
		eval.ObligationID, eval.State, eval.RiskBasis, eval.RiskRatio,
		eval.DebtCount, eval.CollateralCount, eval.PlanKind, eval.RepayRaw,
		eval.Executed, eval.TxDigest, eval.ExecError, eval.EvaluatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to save evaluation: %w", err)
	}

	r.logger.Debug("evaluation saved", "id", id, "obligation", eval.ObligationID, "state", eval.State)
	return id, nil
}

// GetEvaluationsByObligation returns the most recent evaluations for an
// obligation, newest first.
func (r *EvaluationRepository) GetEvaluationsByObligation(ctx context.Context, obligationID string, limit int) ([]entity.Evaluation, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, obligation_id, state, risk_basis, risk_ratio, debt_count, collateral_count,
		        plan_kind, repay_raw, executed, tx_digest, exec_error, evaluated_at
		 FROM evaluation
		 WHERE obligation_id = $1
		 ORDER BY evaluated_at DESC, id DESC
		 LIMIT $2`,
		obligationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluations: %w", err)
	}
	defer rows.Close()

	var evaluations []entity.Evaluation
	for rows.Next() {
		var eval entity.Evaluation
		if err := rows.Scan(&eval.ID, &eval.ObligationID, &eval.State, &eval.RiskBasis,
			&eval.RiskRatio, &eval.DebtCount, &eval.CollateralCount,
			&eval.PlanKind, &eval.RepayRaw, &eval.Executed,
			&eval.TxDigest, &eval.ExecError, &eval.EvaluatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan evaluation: %w", err)
		}
		evaluations = append(evaluations, eval)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate evaluations: %w", err)
	}

	return evaluations, nil
}
