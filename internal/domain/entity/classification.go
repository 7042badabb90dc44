package entity

// State is the mutually exclusive outcome of classifying a position.
type State int

const (
	// StateNeither means the position is healthy or at least not actionable.
	StateNeither State = iota

	// StateLiquidatable means ordinary liquidation may proceed.
	StateLiquidatable

	// StateBadDebt means the position has debt but no collateral; only a
	// forced write-off repayment applies.
	StateBadDebt
)

// String returns the state as a stable lowercase label.
func (s State) String() string {
	switch s {
	case StateLiquidatable:
		return "liquidatable"
	case StateBadDebt:
		return "bad-debt"
	default:
		return "neither"
	}
}

// Classification is the evaluator's verdict on a position. Liquidatable and
// BadDebt are never both true.
type Classification struct {
	Liquidatable bool
	BadDebt      bool
}

// State collapses the classification into its single state.
func (c Classification) State() State {
	switch {
	case c.BadDebt:
		return StateBadDebt
	case c.Liquidatable:
		return StateLiquidatable
	default:
		return StateNeither
	}
}
