package sandbox

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"github.com/nftgas/gastest/core/types"
	"github.com/nftgas/gastest/crypto"
	"github.com/nftgas/gastest/nearclient"
	"github.com/nftgas/gastest/params"
)

// Account signs transactions for one account on the sandbox.
type Account struct {
	id  string
	key *crypto.KeyPair
	w   *Worker

	mu sync.Mutex // serialises nonce use
}

func newAccount(w *Worker, id string, key *crypto.KeyPair) *Account {
	return &Account{id: id, key: key, w: w}
}

// ID returns the account id.
func (a *Account) ID() string { return a.id }

// PublicKey returns the public half of the signing key.
func (a *Account) PublicKey() crypto.PublicKey { return a.key.Public() }

// SecretKey returns the signing key.
func (a *Account) SecretKey() *crypto.KeyPair { return a.key }

// Balance returns the account's liquid balance in yoctoNEAR.
func (a *Account) Balance(ctx context.Context) (*big.Int, error) {
	view, err := a.w.client.ViewAccount(ctx, a.id, nearclient.FinalityFinal)
	if err != nil {
		return nil, err
	}
	return view.Amount.Int(), nil
}

// Call starts a function call from this account to the contract on receiver.
func (a *Account) Call(receiver, method string) *CallTx {
	return &CallTx{
		signer:   a,
		receiver: receiver,
		method:   method,
		deposit:  new(big.Int),
		gas:      params.DefaultFunctionCallGas,
	}
}

// Transact signs a transaction with the given actions and waits for it to
// execute. A failed execution is reported in the outcome, not as an error.
func (a *Account) Transact(ctx context.Context, receiver string, actions ...types.Action) (*types.FinalExecutionOutcome, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	key, err := a.w.client.ViewAccessKey(ctx, a.id, a.key.Public(), nearclient.FinalityOptimistic)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch access key of %s: %w", a.id, err)
	}
	block, err := key.RecentBlockHash()
	if err != nil {
		return nil, err
	}
	stx, err := types.SignNewTx(a.key, a.id, key.Nonce+1, receiver, block, actions...)
	if err != nil {
		return nil, err
	}
	hash, err := stx.Hash()
	if err != nil {
		return nil, err
	}
	log.Debug("Sending transaction", "hash", hash, "signer", a.id, "receiver", receiver, "nonce", key.Nonce+1, "actions", len(actions))
	out, err := a.w.client.BroadcastTxCommit(ctx, stx)
	if err != nil {
		return nil, err
	}
	logOutcome(hash, out)
	return out, nil
}

func logOutcome(hash types.CryptoHash, out *types.FinalExecutionOutcome) {
	gas, err := out.TotalGasBurnt()
	if err != nil {
		log.Warn("Failed to sum gas burnt", "hash", hash, "status", out.Status.Kind, "err", err)
		return
	}
	log.Debug("Transaction executed", "hash", hash, "status", out.Status.Kind, "gas", gas)
}

// Contract is an account with code deployed to it.
type Contract struct {
	*Account
}

// Call starts a function call that the contract account signs itself.
func (c *Contract) Call(method string) *CallTx {
	return c.Account.Call(c.id, method)
}

// View runs a view method of the contract.
func (c *Contract) View(ctx context.Context, method string, args []byte) (*nearclient.CallResult, error) {
	return c.w.View(ctx, c.id, method, args)
}

// CallTx builds a function call transaction.
type CallTx struct {
	signer   *Account
	receiver string
	method   string
	args     []byte
	deposit  *big.Int
	gas      uint64
	err      error
}

// Args sets the call arguments to the JSON encoding of v.
func (tx *CallTx) Args(v interface{}) *CallTx {
	args, err := json.Marshal(v)
	if err != nil {
		tx.err = fmt.Errorf("invalid arguments for %s: %w", tx.method, err)
		return tx
	}
	tx.args = args
	return tx
}

// ArgsJSON sets already encoded JSON arguments.
func (tx *CallTx) ArgsJSON(raw []byte) *CallTx {
	if !json.Valid(raw) {
		tx.err = fmt.Errorf("invalid JSON arguments for %s", tx.method)
		return tx
	}
	tx.args = raw
	return tx
}

// Deposit attaches yoctoNEAR to the call.
func (tx *CallTx) Deposit(amount *big.Int) *CallTx {
	tx.deposit = new(big.Int).Set(amount)
	return tx
}

// Gas sets the prepaid gas.
func (tx *CallTx) Gas(gas uint64) *CallTx {
	if gas > params.MaxFunctionCallGas {
		tx.err = fmt.Errorf("prepaid gas %d exceeds the limit of %d", gas, params.MaxFunctionCallGas)
		return tx
	}
	tx.gas = gas
	return tx
}

// Transact sends the call and waits for it to execute.
func (tx *CallTx) Transact(ctx context.Context) (*types.FinalExecutionOutcome, error) {
	if tx.err != nil {
		return nil, tx.err
	}
	args := tx.args
	if args == nil {
		args = []byte("{}")
	}
	return tx.signer.Transact(ctx, tx.receiver, types.NewFunctionCall(tx.method, args, tx.gas, tx.deposit))
}
