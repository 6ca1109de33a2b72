package registry

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ybbus/jsonrpc/v3"

	"github.com/cuongbtq/render-jobs/internal/domain"
)

type rpcHandler func(method string, params map[string]any) (any, *jsonrpc.RPCError)

func newRPCClient(t *testing.T, handle rpcHandler) *RPCClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			JSONRPC string         `json:"jsonrpc"`
			ID      int64          `json:"id"`
			Method  string         `json:"method"`
			Params  map[string]any `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "2.0", req.JSONRPC)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "0xcontract", req.Params["contract_address"])

		result, rpcErr := handle(req.Method, req.Params)
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)

	return NewRPCClient(&RPCConfig{
		RPCURL:          srv.URL,
		ContractAddress: "0xcontract",
		CallTimeout:     time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRPCClient_SubmitJob(t *testing.T) {
	client := newRPCClient(t, func(method string, params map[string]any) (any, *jsonrpc.RPCError) {
		assert.Equal(t, MethodSubmitJob, method)
		assert.Equal(t, "Qm123", params["content_hash"])
		assert.Equal(t, 12.5, params["reward_amount"])
		assert.Equal(t, float64(24), params["deadline_hours"])
		assert.Equal(t, "0xwallet", params["wallet_address"])
		return map[string]string{"job_id": "abc"}, nil
	})

	id, err := client.SubmitJob(context.Background(), "Qm123", 12.5, 24, "0xwallet")

	require.NoError(t, err)
	assert.Equal(t, "abc", id)
}

func TestRPCClient_SubmitJobRejected(t *testing.T) {
	client := newRPCClient(t, func(string, map[string]any) (any, *jsonrpc.RPCError) {
		return nil, &jsonrpc.RPCError{Code: -32000, Message: "insufficient funds"}
	})

	_, err := client.SubmitJob(context.Background(), "Qm123", 10, 24, "0xwallet")

	var regErr *domain.RegistrationError
	require.ErrorAs(t, err, &regErr)
	assert.Contains(t, err.Error(), "insufficient funds")
	var rpcErr *jsonrpc.RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32000, rpcErr.Code)
	assert.False(t, domain.IsRetryable(err))
}

func TestRPCClient_GetStatus(t *testing.T) {
	client := newRPCClient(t, func(method string, params map[string]any) (any, *jsonrpc.RPCError) {
		assert.Equal(t, MethodGetStatus, method)
		switch params["job_id"] {
		case "abc":
			return map[string]string{"status": "in_progress"}, nil
		case "weird":
			return map[string]string{"status": "EXPLODED"}, nil
		default:
			return nil, &jsonrpc.RPCError{Code: -32001, Message: "node syncing"}
		}
	})

	status, err := client.GetStatus(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, status)

	for _, id := range []string{"weird", "other"} {
		_, err = client.GetStatus(context.Background(), id)
		var queryErr *domain.QueryError
		require.ErrorAs(t, err, &queryErr)
		assert.Equal(t, id, queryErr.JobID)
	}
}

func TestRPCClient_GetResultHash(t *testing.T) {
	client := newRPCClient(t, func(_ string, params map[string]any) (any, *jsonrpc.RPCError) {
		if params["job_id"] == "done" {
			return map[string]string{"result_hash": "QmResult"}, nil
		}
		return map[string]any{"result_hash": nil}, nil
	})

	hash, ok, err := client.GetResultHash(context.Background(), "done")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "QmResult", hash)

	hash, ok, err = client.GetResultHash(context.Background(), "pending")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, hash)
}

func TestRPCClient_CancelJob(t *testing.T) {
	client := newRPCClient(t, func(method string, params map[string]any) (any, *jsonrpc.RPCError) {
		assert.Equal(t, MethodCancelJob, method)
		assert.Equal(t, "0xwallet", params["wallet_address"])
		return map[string]bool{"cancelled": params["job_id"] == "abc"}, nil
	})

	ok, err := client.CancelJob(context.Background(), "abc", "0xwallet")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.CancelJob(context.Background(), "running", "0xwallet")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRPCClient_HTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewRPCClient(&RPCConfig{RPCURL: srv.URL}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := client.GetStatus(context.Background(), "abc")
	var queryErr *domain.QueryError
	require.ErrorAs(t, err, &queryErr)
	assert.True(t, domain.IsRetryable(err))
}
