package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/archon-research/obrisk/internal/domain/entity"
	"github.com/archon-research/obrisk/internal/ports/outbound"
)

// Compile-time check that EvaluationRepository implements outbound.EvaluationRepository
var _ outbound.EvaluationRepository = (*EvaluationRepository)(nil)

// EvaluationRepository stores evaluations in memory.
type EvaluationRepository struct {
	mu     sync.Mutex
	nextID int64
	rows   []entity.Evaluation
}

// NewEvaluationRepository creates a new in-memory evaluation repository.
func NewEvaluationRepository() *EvaluationRepository {
	return &EvaluationRepository{nextID: 1}
}

// SaveEvaluation stores an evaluation and returns its assigned ID.
func (r *EvaluationRepository) SaveEvaluation(ctx context.Context, eval *entity.Evaluation) (int64, error) {
	if eval == nil {
		return 0, errors.New("evaluation cannot be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *eval
	stored.ID = r.nextID
	r.nextID++
	r.rows = append(r.rows, stored)
	return stored.ID, nil
}

// GetEvaluationsByObligation returns the most recent evaluations for an
// obligation, newest first.
func (r *EvaluationRepository) GetEvaluationsByObligation(ctx context.Context, obligationID string, limit int) ([]entity.Evaluation, error) {
	if limit <= 0 {
		limit = 50
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var matches []entity.Evaluation
	for _, row := range r.rows {
		if row.ObligationID == obligationID {
			matches = append(matches, row)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if !matches[i].EvaluatedAt.Equal(matches[j].EvaluatedAt) {
			return matches[i].EvaluatedAt.After(matches[j].EvaluatedAt)
		}
		return matches[i].ID > matches[j].ID
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}
