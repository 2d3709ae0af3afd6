package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sanketnighot/hookified/pkg/interpolate"
	"github.com/sanketnighot/hookified/pkg/types"
)

// ContractCallExecutor performs a read-only EVM call via JSON-RPC eth_call.
type ContractCallExecutor struct {
	httpClient *http.Client
}

func NewContractCallExecutor(timeout time.Duration) *ContractCallExecutor {
	return &ContractCallExecutor{httpClient: &http.Client{Timeout: timeout}}
}

func (e *ContractCallExecutor) Type() types.ActionType { return types.ActionContractCall }

func (e *ContractCallExecutor) Validate(cfg types.ActionConfig) ValidationResult {
	c := cfg.ContractCall
	if c == nil {
		return invalid("contract call action requires configuration")
	}
	var errs []string
	if c.RpcURL == "" {
		errs = append(errs, "contract call action requires an rpc url")
	}
	if !strings.HasPrefix(c.ContractAddress, "0x") || len(c.ContractAddress) != 42 {
		errs = append(errs, "contract call action requires a valid contract address")
	}
	if !strings.HasPrefix(c.CallData, "0x") {
		errs = append(errs, "contract call action requires 0x-prefixed call data")
	}
	if len(errs) > 0 {
		return invalid(errs...)
	}
	return valid()
}

type rpcRequest struct {
	JsonRPC string `json:"jsonrpc"`
	Id      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	Result string `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (e *ContractCallExecutor) Execute(ctx context.Context, cfg types.ActionConfig, scope *interpolate.Scope) ExecutionResult {
	c := cfg.ContractCall
	if c == nil {
		return failed("contract call action has no configuration")
	}

	payload, _ := json.Marshal(rpcRequest{
		JsonRPC: "2.0",
		Id:      1,
		Method:  "eth_call",
		Params: []any{
			map[string]string{
				"to":   c.ContractAddress,
				"data": scope.Resolve(c.CallData),
			},
			"latest",
		},
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.RpcURL, bytes.NewReader(payload))
	if err != nil {
		return failed("build rpc request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return failed("rpc request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 256*1024))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return failed("rpc endpoint returned %d: %s", resp.StatusCode, string(respBody))
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return failed("decode rpc response: %v", err)
	}
	if rpcResp.Error != nil {
		return failed("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}

	return succeeded(map[string]any{
		"result":           rpcResp.Result,
		"contract_address": c.ContractAddress,
	})
}

func (e *ContractCallExecutor) Schema() map[string]any {
	return map[string]any{
		"type": "CONTRACT_CALL",
		"fields": []map[string]any{
			{"name": "rpc_url", "type": "string", "required": true},
			{"name": "contract_address", "type": "string", "required": true},
			{"name": "call_data", "type": "string", "required": true, "templated": true},
		},
	}
}
