package ledger

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"crowdcache/internal/models"
)

// viewMethod is the contract view call that pages through project records.
const viewMethod = "get_projects"

// RPCClient is a Client backed by the chain's JSON-RPC endpoint. Project
// pages are read through a read-only contract view call, so no signing or
// gas is involved.
type RPCClient struct {
	endpoint   string
	contractID string
	httpClient *http.Client
}

// NewRPCClient creates a ledger client for the given RPC endpoint and
// crowdfunding contract account.
func NewRPCClient(endpoint, contractID string) *RPCClient {
	return &RPCClient{
		endpoint:   endpoint,
		contractID: contractID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type queryParams struct {
	RequestType string `json:"request_type"`
	Finality    string `json:"finality"`
	AccountID   string `json:"account_id"`
	MethodName  string `json:"method_name"`
	ArgsBase64  string `json:"args_base64"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

func (e *rpcError) Error() string {
	if e.Data != "" {
		return fmt.Sprintf("rpc error %d: %s (%s)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// callFunctionResult carries the view call's return value as an array of
// byte values (the node emits JSON numbers, not a base64 string).
type callFunctionResult struct {
	Result []int `json:"result"`
}

type pageArgs struct {
	FromIndex string `json:"from_index"`
	Limit     string `json:"limit"`
}

// FetchPage implements Client over a get_projects view call.
func (c *RPCClient) FetchPage(ctx context.Context, fromIndex, limit uint64) ([]models.RawProject, error) {
	args, err := json.Marshal(pageArgs{
		FromIndex: fmt.Sprintf("%d", fromIndex),
		Limit:     fmt.Sprintf("%d", limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal view args: %w", err)
	}

	params := queryParams{
		RequestType: "call_function",
		Finality:    "final",
		AccountID:   c.contractID,
		MethodName:  viewMethod,
		ArgsBase64:  base64.StdEncoding.EncodeToString(args),
	}

	var result callFunctionResult
	if err := c.call(ctx, "query", params, &result); err != nil {
		return nil, err
	}

	payload := make([]byte, len(result.Result))
	for i, b := range result.Result {
		payload[i] = byte(b)
	}

	var page []models.RawProject
	if err := json.Unmarshal(payload, &page); err != nil {
		return nil, fmt.Errorf("failed to decode project page: %w", err)
	}

	return page, nil
}

type statusResult struct {
	SyncInfo struct {
		LatestBlockHeight uint64 `json:"latest_block_height"`
		LatestBlockTime   string `json:"latest_block_time"`
	} `json:"sync_info"`
	ChainID string `json:"chain_id"`
}

// Status returns the node's chain id and latest block height. Used at
// startup to verify the endpoint is reachable before syncing.
func (c *RPCClient) Status(ctx context.Context) (string, uint64, error) {
	var result statusResult
	if err := c.call(ctx, "status", []any{}, &result); err != nil {
		return "", 0, err
	}
	return result.ChainID, result.SyncInfo.LatestBlockHeight, nil
}

// call performs a single JSON-RPC round trip and decodes the result.
func (c *RPCClient) call(ctx context.Context, method string, params, result any) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      "crowdcache",
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal rpc request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("rpc request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rpc endpoint returned status %d", resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("failed to decode rpc response: %w", err)
	}

	if rpcResp.Error != nil {
		return rpcResp.Error
	}

	if err := json.Unmarshal(rpcResp.Result, result); err != nil {
		return fmt.Errorf("failed to decode rpc result: %w", err)
	}

	return nil
}
