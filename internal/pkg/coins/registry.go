// Package coins maps on-chain asset identifiers to protocol-facing names and
// decimal precision. Resolution is pure: exact table lookup first, then a
// structural fallback that derives a best-effort identity from the type
// string's segments. Any input produces some identity, possibly low-fidelity.
package coins

import (
	"strings"

	"github.com/archon-research/obrisk/internal/domain/entity"
	"github.com/archon-research/obrisk/internal/pkg/movetype"
)

const (
	// DefaultDebtPrecision is used for debt-side amounts when the asset is
	// not in the precision table. Most stablecoin debt uses 6 decimals; this
	// is an approximation, not a guarantee.
	DefaultDebtPrecision = 6

	// DefaultCollateralPrecision is used for collateral-side amounts when
	// the asset is not in the precision table. Native-coin collateral uses 9
	// decimals; this is an approximation, not a guarantee.
	DefaultCollateralPrecision = 9
)

// containerModules are generic wrapper module names that carry no asset
// meaning of their own; for these the struct segment names the asset.
var containerModules = map[string]bool{
	"coin":    true,
	"reserve": true,
	"balance": true,
	"cert":    true,
}

// Registry resolves asset identifiers. Tables are immutable after
// construction so tests can substitute alternates.
type Registry struct {
	byTypeTag  map[string]entity.AssetIdentity
	precisions map[string]int
}

// NewRegistry creates a Registry from explicit tables. The identity slice is
// indexed by normalized type tag; the precision map is keyed by short name.
func NewRegistry(identities []entity.AssetIdentity, precisions map[string]int) *Registry {
	byTag := make(map[string]entity.AssetIdentity, len(identities))
	for _, id := range identities {
		byTag[movetype.Normalize(id.TypeTag)] = id
	}
	prec := make(map[string]int, len(precisions))
	for name, p := range precisions {
		prec[strings.ToLower(name)] = p
	}
	return &Registry{byTypeTag: byTag, precisions: prec}
}

// Resolve maps an on-chain asset identifier to an identity. Exact matches
// return the table entry unchanged; anything else falls back to structural
// derivation and never fails.
func (r *Registry) Resolve(identifier string) entity.AssetIdentity {
	if id, ok := r.byTypeTag[movetype.Normalize(identifier)]; ok {
		return id
	}
	return structuralIdentity(identifier)
}

// Precision returns the decimal precision for a short name, and whether the
// name was found in the table.
func (r *Registry) Precision(shortName string) (int, bool) {
	p, ok := r.precisions[strings.ToLower(shortName)]
	return p, ok
}

// PrecisionOrDefault returns the table precision for a short name, or the
// given default when the name is unknown.
func (r *Registry) PrecisionOrDefault(shortName string, def int) int {
	if p, ok := r.Precision(shortName); ok {
		return p
	}
	return def
}

// structuralIdentity derives a best-effort identity from the type string's
// package/module/struct segments. If the module is a generic container name
// the struct segment names the asset; otherwise the module segment is the
// short name and the struct segment the display name.
func structuralIdentity(identifier string) entity.AssetIdentity {
	t, err := movetype.Parse(identifier)
	if err != nil {
		// Not even a type string. Use the raw identifier for everything so
		// the caller still gets a non-empty identity.
		name := strings.ToLower(strings.TrimSpace(identifier))
		if name == "" {
			name = "unknown"
		}
		return entity.AssetIdentity{TypeTag: identifier, ShortName: name, Display: strings.ToUpper(name)}
	}

	var short, display string
	if containerModules[strings.ToLower(t.Module)] {
		short = strings.ToLower(t.Name)
		display = t.Name
	} else {
		short = strings.ToLower(t.Module)
		display = t.Name
	}
	return entity.AssetIdentity{
		TypeTag:   t.String(),
		ShortName: short,
		Display:   display,
	}
}
