package suirpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/archon-research/obrisk/internal/ports/outbound"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientConfig{
		RPCURL:          server.URL,
		MaxRetries:      2,
		InitialBackoff:  time.Millisecond,
		MaxBackoff:      5 * time.Millisecond,
		RateLimitPerSec: 1000,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func rpcResult(t *testing.T, result string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"result":  json.RawMessage(result),
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return body
}

func TestGetObject(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Method != "sui_getObject" {
			t.Errorf("method = %s", req.Method)
		}
		options, ok := req.Params[1].(map[string]any)
		if !ok || options["showContent"] != true {
			t.Errorf("showContent option missing: %v", req.Params)
		}
		w.Write(rpcResult(t, `{
			"data": {
				"objectId": "0xob",
				"version": "412",
				"content": {
					"dataType": "moveObject",
					"type": "0xefe8::obligation::Obligation",
					"fields": {"debts": {}}
				}
			}
		}`))
	})

	obj, err := client.GetObject(context.Background(), "0xob")
	if err != nil {
		t.Fatalf("GetObject: %v", err)
	}
	if obj.ObjectID != "0xob" {
		t.Errorf("objectID = %s", obj.ObjectID)
	}
	if obj.Type != "0xefe8::obligation::Obligation" {
		t.Errorf("type = %s", obj.Type)
	}
	if !strings.Contains(string(obj.Fields), "debts") {
		t.Errorf("fields not carried through: %s", obj.Fields)
	}
}

func TestGetObjectNotExists(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(rpcResult(t, `{"error": {"code": "notExists", "object_id": "0xmissing"}}`))
	})

	_, err := client.GetObject(context.Background(), "0xmissing")
	if !errors.Is(err, outbound.ErrObjectNotFound) {
		t.Errorf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestGetObjectRPCErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		body, _ := json.Marshal(map[string]any{
			"jsonrpc": "2.0",
			"id":      1,
			"error":   map[string]any{"code": -32602, "message": "Invalid params"},
		})
		w.Write(body)
	})

	if _, err := client.GetObject(context.Background(), "not-an-id"); err == nil {
		t.Fatal("expected an error")
	}
	if calls.Load() != 1 {
		t.Errorf("RPC-level errors must not be retried, got %d calls", calls.Load())
	}
}

func TestGetObjectRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write(rpcResult(t, `{"data": {"objectId": "0xob", "version": "1"}}`))
	})

	obj, err := client.GetObject(context.Background(), "0xob")
	if err != nil {
		t.Fatalf("GetObject after retries: %v", err)
	}
	if obj.ObjectID != "0xob" {
		t.Errorf("objectID = %s", obj.ObjectID)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestGetObjectRetriesRateLimited(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write(rpcResult(t, `{"data": {"objectId": "0xob", "version": "1"}}`))
	})

	if _, err := client.GetObject(context.Background(), "0xob"); err != nil {
		t.Fatalf("GetObject after retry: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestGetDynamicFieldsPaginates(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Method != "suix_getDynamicFields" {
			t.Errorf("method = %s", req.Method)
		}
		switch calls.Add(1) {
		case 1:
			if req.Params[1] != nil {
				t.Errorf("first page must carry a nil cursor, got %v", req.Params[1])
			}
			w.Write(rpcResult(t, `{
				"data": [{"objectId": "0xc1", "objectType": "dynamic_field"}],
				"nextCursor": "0xc1",
				"hasNextPage": true
			}`))
		default:
			if req.Params[1] != "0xc1" {
				t.Errorf("second page cursor = %v, want 0xc1", req.Params[1])
			}
			w.Write(rpcResult(t, `{
				"data": [{"objectId": "0xc2", "objectType": "dynamic_field"}],
				"hasNextPage": false
			}`))
		}
	})

	fields, err := client.GetDynamicFields(context.Background(), "0xtable")
	if err != nil {
		t.Fatalf("GetDynamicFields: %v", err)
	}
	if len(fields) != 2 {
		t.Fatalf("fields = %d, want 2", len(fields))
	}
	if fields[0].ObjectID != "0xc1" || fields[1].ObjectID != "0xc2" {
		t.Errorf("unexpected field IDs: %+v", fields)
	}
}

func TestClientDefaults(t *testing.T) {
	client, err := NewClient(ClientConfig{})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if client.config.RPCURL != "https://fullnode.mainnet.sui.io" {
		t.Errorf("default RPC URL = %s", client.config.RPCURL)
	}
	if client.config.MaxRetries != 3 {
		t.Errorf("default retries = %d", client.config.MaxRetries)
	}
}
