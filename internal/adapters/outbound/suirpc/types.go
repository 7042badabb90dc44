package suirpc

import "encoding/json"

// rpcRequest is the JSON-RPC 2.0 request envelope.
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

// rpcResponse is the JSON-RPC 2.0 response envelope.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// getObjectResponse matches the sui_getObject result. Exactly one of Data
// and Error is set; Error carries status answers like notExists, not
// transport failures.
type getObjectResponse struct {
	Data  *objectData  `json:"data,omitempty"`
	Error *objectError `json:"error,omitempty"`
}

type objectError struct {
	Code     string `json:"code"`
	ObjectID string `json:"object_id,omitempty"`
}

type objectData struct {
	ObjectID string         `json:"objectId"`
	Version  string         `json:"version"`
	Type     string         `json:"type,omitempty"`
	Content  *objectContent `json:"content,omitempty"`
}

// objectContent is the parsed Move content (dataType "moveObject"). Fields
// stays raw: the domain parser owns interpretation.
type objectContent struct {
	DataType string          `json:"dataType"`
	Type     string          `json:"type"`
	Fields   json.RawMessage `json:"fields"`
}

// dynamicFieldsPage matches the suix_getDynamicFields result.
type dynamicFieldsPage struct {
	Data        []dynamicFieldEntry `json:"data"`
	NextCursor  *string             `json:"nextCursor,omitempty"`
	HasNextPage bool                `json:"hasNextPage"`
}

type dynamicFieldEntry struct {
	ObjectID   string `json:"objectId"`
	ObjectType string `json:"objectType"`
}
