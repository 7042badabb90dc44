package entity

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// AssetIdentity identifies one asset kind across the protocol surface.
type AssetIdentity struct {
	// TypeTag is the canonical on-chain type string, e.g. "0x2::sui::SUI".
	TypeTag string

	// ShortName is the protocol-facing name. It is always lowercase and is
	// the value passed to any downstream transaction or price-update call.
	ShortName string

	// Display is the human-readable symbol or name.
	Display string
}

// NewAssetIdentity creates a new AssetIdentity with validation.
func NewAssetIdentity(typeTag, shortName, display string) (AssetIdentity, error) {
	a := AssetIdentity{
		TypeTag:   typeTag,
		ShortName: shortName,
		Display:   display,
	}
	if err := a.validate(); err != nil {
		return AssetIdentity{}, err
	}
	return a, nil
}

// validate checks that all fields have valid values.
func (a AssetIdentity) validate() error {
	if a.TypeTag == "" {
		return fmt.Errorf("typeTag must not be empty")
	}
	if a.ShortName == "" {
		return fmt.Errorf("shortName must not be empty")
	}
	if a.ShortName != strings.ToLower(a.ShortName) {
		return fmt.Errorf("shortName must be lowercase, got %q", a.ShortName)
	}
	if a.Display == "" {
		return fmt.Errorf("display must not be empty")
	}
	return nil
}

// AssetAmount is a quantity of one asset kind as raw integer units plus the
// decimal precision used to interpret them.
type AssetAmount struct {
	Raw       *big.Int // raw on-chain units, never negative
	Precision int      // decimal places; human quantity = raw / 10^precision
}

// NewAssetAmount creates a new AssetAmount with validation.
func NewAssetAmount(raw *big.Int, precision int) (AssetAmount, error) {
	if raw == nil {
		return AssetAmount{}, fmt.Errorf("raw amount must not be nil")
	}
	if raw.Sign() < 0 {
		return AssetAmount{}, fmt.Errorf("raw amount must be non-negative, got %s", raw)
	}
	if precision < 0 {
		return AssetAmount{}, fmt.Errorf("precision must be non-negative, got %d", precision)
	}
	return AssetAmount{Raw: new(big.Int).Set(raw), Precision: precision}, nil
}

// Human returns the human-readable quantity, raw / 10^precision.
func (a AssetAmount) Human() decimal.Decimal {
	if a.Raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(a.Raw, -int32(a.Precision))
}

// String renders the human-readable quantity.
func (a AssetAmount) String() string {
	return a.Human().String()
}
