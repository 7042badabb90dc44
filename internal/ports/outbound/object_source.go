package outbound

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrObjectNotFound is returned when an object does not exist on chain or
// carries no decodable content. Fatal to the current invocation; not retried.
var ErrObjectNotFound = errors.New("object not found")

// RawObject is an on-chain object with its Move struct fields as raw JSON.
// Shape validation happens at the parsing boundary, not here.
type RawObject struct {
	ObjectID string

	// Type is the object's full Move type string.
	Type string

	// Fields holds the object's decoded Move fields, arbitrarily nested.
	Fields json.RawMessage
}

// DynamicFieldInfo identifies one child entry of an on-chain table. Each
// entry requires a separate object fetch.
type DynamicFieldInfo struct {
	ObjectID string
}

// ObjectSource reads raw objects and their dynamic-field children from the
// chain. Used by the fallback parse path when the structured source has no
// record.
type ObjectSource interface {
	// GetObject fetches an object by ID. Returns ErrObjectNotFound when the
	// object does not exist or has no content.
	GetObject(ctx context.Context, objectID string) (*RawObject, error)

	// GetDynamicFields enumerates the child entries of a table object.
	GetDynamicFields(ctx context.Context, parentID string) ([]DynamicFieldInfo, error)
}
