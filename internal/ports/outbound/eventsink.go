package outbound

import (
	"context"
	"time"
)

// EvaluationEvent is published when an evaluation finds an actionable
// position. Serialized as JSON for downstream consumers.
type EvaluationEvent struct {
	ObligationID       string    `json:"obligationId"`
	State              string    `json:"state"`
	RiskBasis          string    `json:"riskBasis"`
	RiskRatio          string    `json:"riskRatio"`
	DebtShortName      string    `json:"debtShortName,omitempty"`
	EstimatedProfitUSD string    `json:"estimatedProfitUsd,omitempty"`
	Warning            string    `json:"warning,omitempty"`
	EvaluatedAt        time.Time `json:"evaluatedAt"`
}

// EvaluationSink publishes evaluation events to downstream consumers.
type EvaluationSink interface {
	Publish(ctx context.Context, event EvaluationEvent) error
	Close() error
}
