// Package nearclient provides a client for the sandbox node's JSON-RPC API.
package nearclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/nftgas/gastest/core/types"
	"github.com/nftgas/gastest/crypto"
	"github.com/ybbus/jsonrpc/v3"
)

// Finality selects which block a query reads from.
type Finality string

const (
	FinalityOptimistic Finality = "optimistic"
	FinalityFinal      Finality = "final"
)

// DefaultTimeout bounds a single HTTP round trip. broadcast_tx_commit waits for
// the transaction to execute, so this is generous.
const DefaultTimeout = 60 * time.Second

// ErrorCause is the structured reason of an error response, e.g.
// UNKNOWN_ACCESS_KEY or INVALID_TRANSACTION.
type ErrorCause struct {
	Name string          `json:"name"`
	Info json.RawMessage `json:"info,omitempty"`
}

// Error is an error response of the node.
type Error struct {
	Method  string
	Code    int
	Message string
	Name    string // error class, e.g. HANDLER_ERROR
	Cause   *ErrorCause
	Data    interface{}
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s (code %d)", e.Method, e.Message, e.Code)
	if e.Name != "" {
		msg += " " + e.Name
	}
	if e.Cause != nil && e.Cause.Name != "" {
		msg += "/" + e.Cause.Name
	}
	if e.Data != nil {
		msg += fmt.Sprintf(": %v", e.Data)
	}
	return msg
}

var ErrQueryFailed = errors.New("query failed")

// Client defines typed wrappers for the node's RPC API.
type Client struct {
	c jsonrpc.RPCClient
}

// Dial creates a client for the HTTP endpoint at rawurl.
func Dial(rawurl string) (*Client, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported rpc url scheme %q", u.Scheme)
	}
	return NewClient(jsonrpc.NewClientWithOpts(rawurl, &jsonrpc.RPCClientOpts{
		HTTPClient: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: &errorCapturer{next: http.DefaultTransport},
		},
		AllowUnknownFields: true,
	})), nil
}

// NewClient creates a client that uses the given RPC client.
func NewClient(c jsonrpc.RPCClient) *Client {
	return &Client{c}
}

func (ec *Client) call(ctx context.Context, out interface{}, method string, params ...interface{}) error {
	detail := new(errorDetail)
	err := ec.c.CallFor(context.WithValue(ctx, errorDetailKey{}, detail), out, method, params...)
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		return &Error{
			Method:  method,
			Code:    rpcErr.Code,
			Message: rpcErr.Message,
			Name:    detail.Name,
			Cause:   detail.Cause,
			Data:    rpcErr.Data,
		}
	}
	return err
}

// errorDetail holds the fields of an error object that jsonrpc.RPCError
// does not decode.
type errorDetail struct {
	Name  string      `json:"name"`
	Cause *ErrorCause `json:"cause"`
}

type errorDetailKey struct{}

// errorCapturer is the HTTP transport of the RPC client. When the request
// context carries an *errorDetail, it fills it from the error object of the
// response and hands the body on unchanged.
type errorCapturer struct {
	next http.RoundTripper
}

func (ec *errorCapturer) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := ec.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	detail, ok := req.Context().Value(errorDetailKey{}).(*errorDetail)
	if !ok {
		return resp, nil
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	var msg struct {
		Error *errorDetail `json:"error"`
	}
	if json.Unmarshal(body, &msg) == nil && msg.Error != nil {
		*detail = *msg.Error
	}
	return resp, nil
}

// Node status

// SyncInfo describes the chain head of the node.
type SyncInfo struct {
	LatestBlockHash   string `json:"latest_block_hash"`
	LatestBlockHeight uint64 `json:"latest_block_height"`
	LatestBlockTime   string `json:"latest_block_time"`
	Syncing           bool   `json:"syncing"`
}

// NodeVersion is the build of the node.
type NodeVersion struct {
	Version string `json:"version"`
	Build   string `json:"build"`
}

// Status is the result of the status method.
type Status struct {
	ChainID         string      `json:"chain_id"`
	ProtocolVersion uint32      `json:"protocol_version"`
	Version         NodeVersion `json:"version"`
	SyncInfo        SyncInfo    `json:"sync_info"`
}

// Status returns the node's chain id, version and head.
func (ec *Client) Status(ctx context.Context) (*Status, error) {
	var st Status
	if err := ec.call(ctx, &st, "status"); err != nil {
		return nil, err
	}
	return &st, nil
}

// State queries

// queryResult holds the fields common to all query results. Older nodes
// report query errors inside a successful result.
type queryResult struct {
	BlockHeight uint64 `json:"block_height"`
	BlockHash   string `json:"block_hash"`
	Error       string `json:"error,omitempty"`
}

func (r *queryResult) err() error {
	if r.Error != "" {
		return fmt.Errorf("%w: %s", ErrQueryFailed, r.Error)
	}
	return nil
}

// AccessKeyView is the state of an access key.
type AccessKeyView struct {
	queryResult
	Nonce      uint64          `json:"nonce"`
	Permission json.RawMessage `json:"permission"`
}

// RecentBlockHash returns the decoded hash of the block the key was read at.
func (v *AccessKeyView) RecentBlockHash() (types.CryptoHash, error) {
	return types.HashFromBase58(v.BlockHash)
}

// ViewAccessKey returns the nonce and permission of an account's access key.
func (ec *Client) ViewAccessKey(ctx context.Context, accountID string, pk crypto.PublicKey, finality Finality) (*AccessKeyView, error) {
	var out AccessKeyView
	err := ec.call(ctx, &out, "query", map[string]interface{}{
		"request_type": "view_access_key",
		"finality":     finality,
		"account_id":   accountID,
		"public_key":   pk.String(),
	})
	if err != nil {
		return nil, err
	}
	if err := out.err(); err != nil {
		return nil, err
	}
	return &out, nil
}

// AccountView is the state of an account.
type AccountView struct {
	queryResult
	Amount       types.Balance `json:"amount"`
	Locked       types.Balance `json:"locked"`
	CodeHash     string        `json:"code_hash"`
	StorageUsage uint64        `json:"storage_usage"`
}

// ViewAccount returns the balance and code hash of an account.
func (ec *Client) ViewAccount(ctx context.Context, accountID string, finality Finality) (*AccountView, error) {
	var out AccountView
	err := ec.call(ctx, &out, "query", map[string]interface{}{
		"request_type": "view_account",
		"finality":     finality,
		"account_id":   accountID,
	})
	if err != nil {
		return nil, err
	}
	if err := out.err(); err != nil {
		return nil, err
	}
	return &out, nil
}

// byteArray decodes the JSON array of numbers the node uses for raw bytes.
type byteArray []byte

func (b *byteArray) UnmarshalJSON(input []byte) error {
	var ints []uint8Value
	if err := json.Unmarshal(input, &ints); err != nil {
		return err
	}
	out := make([]byte, len(ints))
	for i, v := range ints {
		out[i] = byte(v)
	}
	*b = out
	return nil
}

type uint8Value uint8

func (v *uint8Value) UnmarshalJSON(input []byte) error {
	var n uint64
	if err := json.Unmarshal(input, &n); err != nil {
		return err
	}
	if n > 0xff {
		return fmt.Errorf("byte value %d out of range", n)
	}
	*v = uint8Value(n)
	return nil
}

// CallResult is the return value of a view function.
type CallResult struct {
	queryResult
	Result byteArray `json:"result"`
	Logs   []string  `json:"logs"`
}

// JSON decodes the returned bytes into v.
func (r *CallResult) JSON(v interface{}) error {
	return json.Unmarshal(r.Result, v)
}

// CallFunction runs a view method of the contract on accountID.
func (ec *Client) CallFunction(ctx context.Context, accountID, method string, args []byte, finality Finality) (*CallResult, error) {
	var out CallResult
	err := ec.call(ctx, &out, "query", map[string]interface{}{
		"request_type": "call_function",
		"finality":     finality,
		"account_id":   accountID,
		"method_name":  method,
		"args_base64":  base64.StdEncoding.EncodeToString(args),
	})
	if err != nil {
		return nil, err
	}
	if err := out.err(); err != nil {
		return nil, err
	}
	return &out, nil
}

// Transactions

// BroadcastTxCommit submits a signed transaction and waits until it and all
// of its receipts have executed.
func (ec *Client) BroadcastTxCommit(ctx context.Context, stx *types.SignedTransaction) (*types.FinalExecutionOutcome, error) {
	enc, err := stx.Base64()
	if err != nil {
		return nil, err
	}
	var out types.FinalExecutionOutcome
	if err := ec.call(ctx, &out, "broadcast_tx_commit", enc); err != nil {
		return nil, err
	}
	return &out, nil
}
