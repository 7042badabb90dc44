package planner

import (
	"fmt"
	"strings"

	"github.com/archon-research/obrisk/internal/domain/entity"
)

// BuilderErrorKind identifies a recognized transaction builder failure mode.
type BuilderErrorKind string

const (
	BuilderErrLocked              BuilderErrorKind = "locked"
	BuilderErrZeroAmount          BuilderErrorKind = "zero-amount"
	BuilderErrInsufficientBalance BuilderErrorKind = "insufficient-balance"
	BuilderErrUnsupportedAsset    BuilderErrorKind = "unsupported-asset"
	BuilderErrUnclassified        BuilderErrorKind = "unclassified"
)

// BuilderError is a transaction builder failure translated into an
// actionable diagnostic. Raw builder errors name internal object IDs and
// Move abort codes that operators cannot act on.
type BuilderError struct {
	Kind BuilderErrorKind

	// Asset is the short name of the asset the request concerned.
	Asset string

	// Amount is the human-readable amount the request carried.
	Amount string

	// Hint tells the operator what to do next.
	Hint string

	// Raw is the underlying builder error.
	Raw error
}

func (e *BuilderError) Error() string {
	switch e.Kind {
	case BuilderErrLocked:
		return fmt.Sprintf("obligation is locked and cannot be repaid against (asset %s, amount %s): %s", e.Asset, e.Amount, e.Hint)
	case BuilderErrZeroAmount:
		return fmt.Sprintf("repay amount for %s resolved to zero: %s", e.Asset, e.Hint)
	case BuilderErrInsufficientBalance:
		return fmt.Sprintf("wallet lacks %s %s to fund the repayment: %s", e.Amount, e.Asset, e.Hint)
	case BuilderErrUnsupportedAsset:
		return fmt.Sprintf("asset %s is not supported by the protocol interface: %s", e.Asset, e.Hint)
	default:
		return fmt.Sprintf("transaction build failed for %s %s: %v", e.Amount, e.Asset, e.Raw)
	}
}

func (e *BuilderError) Unwrap() error {
	return e.Raw
}

// builderRule maps an indicator substring in the raw builder error to a
// kind and operator hint. Rules are checked in order; first match wins.
type builderRule struct {
	indicator string
	kind      BuilderErrorKind
	hint      string
}

var builderRules = []builderRule{
	{"locked", BuilderErrLocked, "the obligation has an active lock (boost or borrow incentive); it must be unstaked before repayment"},
	{"is_locked", BuilderErrLocked, "the obligation has an active lock (boost or borrow incentive); it must be unstaked before repayment"},
	{"zero", BuilderErrZeroAmount, "the position likely changed since it was read; re-query before retrying"},
	{"insufficient", BuilderErrInsufficientBalance, "top up the wallet or lower the repay fraction"},
	{"balance", BuilderErrInsufficientBalance, "top up the wallet or lower the repay fraction"},
	{"unsupported", BuilderErrUnsupportedAsset, "the coin type is not in the protocol's asset set; no automated action applies"},
	{"unknown coin", BuilderErrUnsupportedAsset, "the coin type is not in the protocol's asset set; no automated action applies"},
}

// translateBuilderError classifies a raw builder failure for the given plan.
// Unrecognized errors still come back structured, just unclassified.
func translateBuilderError(plan *entity.Plan, raw error) *BuilderError {
	msg := strings.ToLower(raw.Error())
	be := &BuilderError{
		Kind:   BuilderErrUnclassified,
		Asset:  plan.DebtShortName,
		Amount: plan.RepayHuman.String(),
		Raw:    raw,
	}
	for _, rule := range builderRules {
		if strings.Contains(msg, rule.indicator) {
			be.Kind = rule.kind
			be.Hint = rule.hint
			break
		}
	}
	return be
}
