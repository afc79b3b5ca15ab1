// Package sandboxtest provides an in-process stand-in for the sandbox node's
// RPC endpoint. It checks signatures, nonces and balances like the real node
// and executes function calls through handlers registered by the test.
package sandboxtest

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/near/borsh-go"
	"github.com/nftgas/gastest/core/types"
	"github.com/nftgas/gastest/crypto"
	"github.com/nftgas/gastest/params"
)

// Gas figures charged by the node. They are in the range a real node reports
// for the same work.
const (
	TxConversionGas uint64 = 2_428_000_000_000 // charged on the transaction outcome
	ActionBaseGas   uint64 = 1_500_000_000_000 // per non-call action in a receipt
	RefundGas       uint64 = 223_182_562_500   // burnt by the refund receipt
	DefaultCallGas  uint64 = 5_000_000_000_000 // used when a method reports no gas

	GasPrice = 100_000_000 // yoctoNEAR per unit of gas
)

// Call is the context of a function call made against the node.
type Call struct {
	Predecessor string
	Receiver    string
	Method      string
	Args        []byte
	Deposit     *big.Int
	PrepaidGas  uint64
}

// Result is what a method returns to the node.
type Result struct {
	Value []byte
	Logs  []string
	Gas   uint64
}

// MethodFunc executes a change method. A non-nil error fails the receipt.
type MethodFunc func(call *Call) (*Result, error)

// ViewFunc executes a view method.
type ViewFunc func(args []byte) ([]byte, error)

// Account is the node's state for one account.
type Account struct {
	Balance *big.Int
	Code    []byte
	Keys    map[crypto.PublicKey]uint64 // key -> nonce
}

// Node is a fake sandbox RPC endpoint. It is safe for concurrent use.
type Node struct {
	mu       sync.Mutex
	root     *crypto.AccountKey
	accounts map[string]*Account
	methods  map[string]MethodFunc
	views    map[string]ViewFunc
	txs      []*types.SignedTransaction
	height   uint64
	head     types.CryptoHash
	blocks   map[types.CryptoHash]uint64
}

// NewNode creates a node whose root account holds the given key.
func NewNode(root *crypto.AccountKey) *Node {
	n := &Node{
		root:     root,
		accounts: make(map[string]*Account),
		methods:  make(map[string]MethodFunc),
		views:    make(map[string]ViewFunc),
		blocks:   make(map[types.CryptoHash]uint64),
	}
	n.produceBlock()
	supply := new(big.Int).Mul(big.NewInt(1_000_000_000), params.OneNear)
	n.accounts[root.AccountID] = &Account{
		Balance: supply,
		Keys:    map[crypto.PublicKey]uint64{root.Key.Public(): 0},
	}
	return n
}

// NewRootKey creates a fresh key for the sandbox root account.
func NewRootKey() (*crypto.AccountKey, error) {
	kp, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return &crypto.AccountKey{AccountID: params.SandboxRootAccount, Key: kp}, nil
}

// NewServer starts a node with a fresh root key behind an HTTP test server.
// The server is closed when the test ends.
func NewServer(t testing.TB) (*Node, *httptest.Server) {
	t.Helper()
	root, err := NewRootKey()
	if err != nil {
		t.Fatalf("failed to create root key: %v", err)
	}
	node := NewNode(root)
	srv := httptest.NewServer(node)
	t.Cleanup(srv.Close)
	return node, srv
}

// WriteKeyFile stores the root key in dir the way the node writes its
// validator key, and returns the file path.
func (n *Node) WriteKeyFile(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	path := filepath.Join(dir, "validator_key.json")
	return path, crypto.WriteKeyFile(path, n.root)
}

// Root returns the root account key.
func (n *Node) Root() *crypto.AccountKey { return n.root }

// HandleMethod registers a change method available on every contract.
func (n *Node) HandleMethod(name string, fn MethodFunc) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.methods[name] = fn
}

// HandleView registers a view method available on every contract.
func (n *Node) HandleView(name string, fn ViewFunc) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.views[name] = fn
}

// Transactions returns every transaction the node accepted, in order.
func (n *Node) Transactions() []*types.SignedTransaction {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*types.SignedTransaction(nil), n.txs...)
}

// Account returns a copy of the state of an account.
func (n *Node) Account(id string) (Account, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	acc, ok := n.accounts[id]
	if !ok {
		return Account{}, false
	}
	cpy := Account{
		Balance: new(big.Int).Set(acc.Balance),
		Code:    append([]byte(nil), acc.Code...),
		Keys:    make(map[crypto.PublicKey]uint64, len(acc.Keys)),
	}
	for k, v := range acc.Keys {
		cpy.Keys[k] = v
	}
	return cpy, true
}

func (n *Node) produceBlock() types.CryptoHash {
	n.height++
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], n.height)
	n.head = types.CryptoHash(sha256.Sum256(buf[:]))
	n.blocks[n.head] = n.height
	return n.head
}

// JSON-RPC plumbing

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type rpcError struct {
	Name    string      `json:"name"`
	Cause   interface{} `json:"cause"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

func handlerError(cause, data string) *rpcError {
	return &rpcError{
		Name:    "HANDLER_ERROR",
		Cause:   map[string]interface{}{"name": cause},
		Code:    -32000,
		Message: "Server error",
		Data:    data,
	}
}

func (n *Node) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}
	resp.Result, resp.Error = n.dispatch(req.Method, req.Params)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (n *Node) dispatch(method string, params json.RawMessage) (interface{}, *rpcError) {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch method {
	case "status":
		return n.status(), nil
	case "query":
		var q map[string]string
		if err := json.Unmarshal(params, &q); err != nil {
			return nil, &rpcError{Name: "REQUEST_VALIDATION_ERROR", Code: -32700, Message: "Parse error", Data: err.Error()}
		}
		return n.query(q)
	case "broadcast_tx_commit":
		var args []string
		if err := json.Unmarshal(params, &args); err != nil || len(args) != 1 {
			return nil, &rpcError{Name: "REQUEST_VALIDATION_ERROR", Code: -32700, Message: "Parse error", Data: "expected [signed_tx_base64]"}
		}
		return n.broadcast(args[0])
	default:
		return nil, &rpcError{Name: "REQUEST_VALIDATION_ERROR", Code: -32601, Message: "Method not found", Data: method}
	}
}

func (n *Node) status() interface{} {
	return map[string]interface{}{
		"chain_id":         "sandbox",
		"protocol_version": 63,
		"version":          map[string]string{"version": "1.35.0", "build": "sandboxtest"},
		"sync_info": map[string]interface{}{
			"latest_block_hash":   n.head.String(),
			"latest_block_height": n.height,
			"latest_block_time":   "2022-01-01T00:00:00Z",
			"syncing":             false,
		},
	}
}

func (n *Node) query(q map[string]string) (interface{}, *rpcError) {
	acc, ok := n.accounts[q["account_id"]]
	if !ok {
		return nil, handlerError("UNKNOWN_ACCOUNT", fmt.Sprintf("account %s does not exist while viewing", q["account_id"]))
	}
	block := map[string]interface{}{
		"block_height": n.height,
		"block_hash":   n.head.String(),
	}
	switch q["request_type"] {
	case "view_access_key":
		pk, err := crypto.ParsePublicKey(q["public_key"])
		if err != nil {
			return nil, handlerError("INVALID_ACCOUNT", err.Error())
		}
		nonce, ok := acc.Keys[pk]
		if !ok {
			return nil, handlerError("UNKNOWN_ACCESS_KEY", fmt.Sprintf("access key %s does not exist while viewing", pk))
		}
		block["nonce"] = nonce
		block["permission"] = "FullAccess"
		return block, nil

	case "view_account":
		block["amount"] = acc.Balance.String()
		block["locked"] = "0"
		block["code_hash"] = codeHash(acc.Code)
		block["storage_usage"] = 182 + len(acc.Code)
		return block, nil

	case "call_function":
		if len(acc.Code) == 0 {
			return nil, handlerError("NO_CONTRACT_CODE", fmt.Sprintf("Contract code for contract ID #%s has never been observed on the node", q["account_id"]))
		}
		view, ok := n.views[q["method_name"]]
		if !ok {
			return nil, handlerError("CONTRACT_EXECUTION_ERROR", "wasm execution failed with error: MethodResolveError(MethodNotFound)")
		}
		args, err := base64.StdEncoding.DecodeString(q["args_base64"])
		if err != nil {
			return nil, handlerError("PARSE_ERROR", err.Error())
		}
		ret, err := view(args)
		if err != nil {
			return nil, handlerError("CONTRACT_EXECUTION_ERROR", err.Error())
		}
		ints := make([]int, len(ret))
		for i, b := range ret {
			ints[i] = int(b)
		}
		block["result"] = ints
		block["logs"] = []string{}
		return block, nil

	default:
		return nil, &rpcError{Name: "REQUEST_VALIDATION_ERROR", Code: -32602, Message: "Invalid params", Data: q["request_type"]}
	}
}

func codeHash(code []byte) string {
	if len(code) == 0 {
		return "11111111111111111111111111111111"
	}
	return types.CryptoHash(sha256.Sum256(code)).String()
}

func invalidTx(kind string, detail interface{}) *rpcError {
	return &rpcError{
		Name:    "HANDLER_ERROR",
		Cause:   map[string]interface{}{"name": "INVALID_TRANSACTION"},
		Code:    -32000,
		Message: "Server error",
		Data:    map[string]interface{}{"TxExecutionError": map[string]interface{}{"InvalidTxError": map[string]interface{}{kind: detail}}},
	}
}

func (n *Node) broadcast(enc string) (interface{}, *rpcError) {
	raw, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return nil, &rpcError{Name: "REQUEST_VALIDATION_ERROR", Code: -32700, Message: "Parse error", Data: err.Error()}
	}
	stx := new(types.SignedTransaction)
	if err := borsh.Deserialize(stx, raw); err != nil {
		return nil, &rpcError{Name: "REQUEST_VALIDATION_ERROR", Code: -32700, Message: "Parse error", Data: err.Error()}
	}
	if err := stx.Verify(); err != nil {
		return nil, invalidTx("InvalidSignature", nil)
	}
	tx := &stx.Transaction
	if _, ok := n.blocks[tx.BlockHash]; !ok {
		return nil, invalidTx("Expired", nil)
	}
	signer, ok := n.accounts[tx.SignerID]
	if !ok {
		return nil, invalidTx("SignerDoesNotExist", map[string]string{"signer_id": tx.SignerID})
	}
	nonce, ok := signer.Keys[tx.PublicKey]
	if !ok {
		return nil, invalidTx("InvalidAccessKeyError", map[string]interface{}{"AccessKeyNotFound": map[string]string{"account_id": tx.SignerID, "public_key": tx.PublicKey.String()}})
	}
	if tx.Nonce <= nonce {
		return nil, invalidTx("InvalidNonce", map[string]uint64{"tx_nonce": tx.Nonce, "ak_nonce": nonce})
	}
	cost := new(big.Int).Mul(new(big.Int).SetUint64(tx.Gas()), big.NewInt(GasPrice))
	cost.Add(cost, tx.Deposit())
	if signer.Balance.Cmp(cost) < 0 {
		return nil, invalidTx("NotEnoughBalance", map[string]string{"signer_id": tx.SignerID, "balance": signer.Balance.String(), "cost": cost.String()})
	}
	signer.Keys[tx.PublicKey] = tx.Nonce
	signer.Balance.Sub(signer.Balance, tx.Deposit())
	n.txs = append(n.txs, stx)

	txHash, err := tx.Hash()
	if err != nil {
		return nil, &rpcError{Name: "INTERNAL_ERROR", Code: -32000, Message: "Server error", Data: err.Error()}
	}
	blockHash := n.produceBlock()
	receiptID := deriveID(txHash, 0)
	refundID := deriveID(txHash, 1)

	status, gas, logs := n.execute(tx)
	txOutcome := outcomeWithID(txHash.String(), blockHash, TxConversionGas, tx.SignerID, nil, []string{receiptID}, types.ExecutionStatus{Kind: types.StatusSuccessReceiptID, SuccessReceiptID: receiptID})
	receipt := outcomeWithID(receiptID, blockHash, gas, tx.ReceiverID, logs, []string{refundID}, status)
	refund := outcomeWithID(refundID, blockHash, RefundGas, tx.SignerID, nil, nil, types.ExecutionStatus{Kind: types.StatusSuccessValue})

	final := types.ExecutionStatus{Kind: types.StatusSuccessValue}
	if status.IsFailure() {
		final = status
	} else if status.Kind == types.StatusSuccessValue {
		final.SuccessValue = status.SuccessValue
	}
	return &types.FinalExecutionOutcome{
		Status:             final,
		TransactionOutcome: txOutcome,
		ReceiptsOutcome:    []types.ExecutionOutcomeWithID{receipt, refund},
	}, nil
}

// execute applies the actions of tx to the receiver. A failing action leaves
// the state changes of earlier actions in place, which is enough for tests.
func (n *Node) execute(tx *types.Transaction) (types.ExecutionStatus, uint64, []string) {
	var (
		gas   uint64
		logs  []string
		value []byte
	)
	fail := func(index int, kind interface{}) (types.ExecutionStatus, uint64, []string) {
		raw, _ := json.Marshal(map[string]interface{}{"ActionError": map[string]interface{}{"index": index, "kind": kind}})
		return types.ExecutionStatus{Kind: types.StatusFailure, Failure: raw}, gas, logs
	}
	for i := range tx.Actions {
		action := &tx.Actions[i]
		receiver := n.accounts[tx.ReceiverID]
		if receiver == nil && action.Enum != types.ActionCreateAccount {
			return fail(i, map[string]interface{}{"AccountDoesNotExist": map[string]string{"account_id": tx.ReceiverID}})
		}
		switch action.Enum {
		case types.ActionCreateAccount:
			if receiver != nil {
				return fail(i, map[string]interface{}{"AccountAlreadyExists": map[string]string{"account_id": tx.ReceiverID}})
			}
			n.accounts[tx.ReceiverID] = &Account{Balance: new(big.Int), Keys: make(map[crypto.PublicKey]uint64)}
			gas += ActionBaseGas

		case types.ActionTransfer:
			receiver.Balance.Add(receiver.Balance, &action.Transfer.Deposit)
			gas += ActionBaseGas

		case types.ActionAddKey:
			receiver.Keys[action.AddKey.PublicKey] = n.height * 1_000_000
			gas += ActionBaseGas

		case types.ActionDeployContract:
			receiver.Code = append([]byte(nil), action.DeployContract.Code...)
			gas += ActionBaseGas + uint64(len(receiver.Code))*6_812_999

		case types.ActionFunctionCall:
			fc := &action.FunctionCall
			receiver.Balance.Add(receiver.Balance, &fc.Deposit)
			if len(receiver.Code) == 0 {
				return fail(i, map[string]interface{}{"FunctionCallError": map[string]string{"CompilationError": "CodeDoesNotExist"}})
			}
			method, ok := n.methods[fc.MethodName]
			if !ok {
				return fail(i, map[string]interface{}{"FunctionCallError": map[string]string{"MethodResolveError": "MethodNotFound"}})
			}
			res, err := method(&Call{
				Predecessor: tx.SignerID,
				Receiver:    tx.ReceiverID,
				Method:      fc.MethodName,
				Args:        fc.Args,
				Deposit:     new(big.Int).Set(&fc.Deposit),
				PrepaidGas:  fc.Gas,
			})
			if err != nil {
				gas += fc.Gas / 2
				return fail(i, map[string]interface{}{"FunctionCallError": map[string]string{"ExecutionError": "Smart contract panicked: " + err.Error()}})
			}
			used := res.Gas
			if used == 0 {
				used = DefaultCallGas
			}
			if used > fc.Gas {
				gas += fc.Gas
				return fail(i, map[string]interface{}{"FunctionCallError": map[string]string{"ExecutionError": "Exceeded the prepaid gas."}})
			}
			gas += used
			logs = append(logs, res.Logs...)
			value = res.Value

		default:
			return fail(i, map[string]interface{}{"UnsupportedAction": action.Name()})
		}
	}
	return types.ExecutionStatus{Kind: types.StatusSuccessValue, SuccessValue: value}, gas, logs
}

func outcomeWithID(id string, block types.CryptoHash, gas uint64, executor string, logs, receipts []string, status types.ExecutionStatus) types.ExecutionOutcomeWithID {
	if logs == nil {
		logs = []string{}
	}
	if receipts == nil {
		receipts = []string{}
	}
	burnt := new(big.Int).Mul(new(big.Int).SetUint64(gas), big.NewInt(GasPrice))
	return types.ExecutionOutcomeWithID{
		ID:        id,
		BlockHash: block.String(),
		Outcome: types.ExecutionOutcome{
			Logs:        logs,
			ReceiptIDs:  receipts,
			GasBurnt:    gas,
			TokensBurnt: types.Balance(*burnt),
			ExecutorID:  executor,
			Status:      status,
		},
	}
}

func deriveID(txHash types.CryptoHash, index byte) string {
	return types.CryptoHash(sha256.Sum256(append(txHash[:], index))).String()
}
