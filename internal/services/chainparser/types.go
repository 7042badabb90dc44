package chainparser

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeError means an on-chain structure did not match the expected shape.
// Surfaced verbatim: silent coercion in a financial-amount context risks
// misreporting debt.
type DecodeError struct {
	ObjectID string
	Path     string
	Reason   string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode object %s at %s: %s", e.ObjectID, e.Path, e.Reason)
}

// obligationFields is the expected shape of an obligation object's Move
// fields. Both tables store entries as dynamic children of an inner table
// object, keyed by coin type.
type obligationFields struct {
	Debts       *tableField `json:"debts"`
	Collaterals *tableField `json:"collaterals"`
}

// tableField wraps the table sub-structure inside the obligation.
type tableField struct {
	Fields struct {
		Table struct {
			Fields struct {
				ID struct {
					ID string `json:"id"`
				} `json:"id"`
				// Size is the number of keys as a decimal string.
				Size string `json:"size"`
			} `json:"fields"`
		} `json:"table"`
	} `json:"fields"`
}

// childFields is the expected shape of one table child: a dynamic field
// whose value wraps the raw amount, with the coin type embedded as the
// wrapper's generic parameter.
type childFields struct {
	Name struct {
		Fields struct {
			Name string `json:"name"`
		} `json:"fields"`
	} `json:"name"`
	Value struct {
		Type   string `json:"type"`
		Fields struct {
			Amount string `json:"amount"`
		} `json:"fields"`
	} `json:"value"`
}

// decodeStrictEnough unmarshals JSON while rejecting type mismatches on the
// fields we model. Unknown sibling fields are tolerated; the chain adds
// fields over time and only shape violations on modeled paths are hazards.
func decodeStrictEnough(raw json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(v); err != nil {
		return err
	}
	return nil
}
