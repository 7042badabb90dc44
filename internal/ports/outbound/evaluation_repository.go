package outbound

import (
	"context"

	"github.com/archon-research/obrisk/internal/domain/entity"
)

// EvaluationRepository persists completed evaluations for audit.
type EvaluationRepository interface {
	// SaveEvaluation stores an evaluation and returns its assigned ID.
	SaveEvaluation(ctx context.Context, eval *entity.Evaluation) (int64, error)

	// GetEvaluationsByObligation returns the most recent evaluations for an
	// obligation, newest first.
	GetEvaluationsByObligation(ctx context.Context, obligationID string, limit int) ([]entity.Evaluation, error)
}
