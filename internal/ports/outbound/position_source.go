package outbound

import (
	"context"
	"math/big"

	"github.com/shopspring/decimal"
)

// StructuredAsset is one debt or collateral entry as reported by the
// structured position source.
type StructuredAsset struct {
	// TypeTag is the on-chain coin type, when the source reports it.
	TypeTag string

	// RawAmount is the raw integer amount.
	RawAmount *big.Int

	// Precision is the decimal precision the source reports for the asset.
	Precision int

	// ValueUSD is the oracle-derived dollar value.
	ValueUSD decimal.Decimal
}

// StructuredObligation is a position as reported by the structured source,
// with debt and collateral maps keyed by asset short name.
type StructuredObligation struct {
	ObligationID string
	RiskRatio    decimal.Decimal
	Debts        map[string]StructuredAsset
	Collaterals  map[string]StructuredAsset
}

// StructuredPositionSource queries the lending protocol's indexed API for an
// obligation. A nil obligation with a nil error is a normal outcome meaning
// the source has no record (which is the designed behavior for bad-debt
// positions); callers fall back to raw on-chain parsing, not to an error.
type StructuredPositionSource interface {
	GetObligation(ctx context.Context, obligationID string) (*StructuredObligation, error)
}
