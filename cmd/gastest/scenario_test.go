package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nftgas/gastest/core/types"
	"github.com/nftgas/gastest/internal/gasreport"
	"github.com/nftgas/gastest/params"
	"github.com/nftgas/gastest/sandbox"
	"github.com/nftgas/gastest/sandbox/sandboxtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEnv is an in-process sandbox with the NFT contract and its credentials
// on disk.
type testEnv struct {
	node    *sandboxtest.Node
	url     string
	keyFile string
	wasm    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	node, srv := sandboxtest.NewServer(t)
	sandboxtest.RegisterNFT(node)
	dir := t.TempDir()
	keyFile, err := node.WriteKeyFile(dir)
	require.NoError(t, err)
	wasm := filepath.Join(dir, "nep171.wasm")
	require.NoError(t, os.WriteFile(wasm, []byte("\x00asm\x01\x00\x00\x00"), 0644))
	return &testEnv{node: node, url: srv.URL, keyFile: keyFile, wasm: wasm}
}

func (env *testEnv) worker(t *testing.T) *sandbox.Worker {
	t.Helper()
	w, err := sandbox.Connect(context.Background(), &sandbox.Config{RPCURL: env.url, KeyFile: env.keyFile})
	require.NoError(t, err)
	return w
}

func (env *testEnv) scenario() *ScenarioConfig {
	cfg := DefaultScenarioConfig
	cfg.Wasm = env.wasm
	return &cfg
}

const mintGas = sandboxtest.TxConversionGas + sandboxtest.MintGas + sandboxtest.RefundGas

func TestScenarioReport(t *testing.T) {
	env := newTestEnv(t)
	var out bytes.Buffer
	summary, err := runScenario(context.Background(), env.worker(t), env.scenario(), &out)
	require.NoError(t, err)

	report := out.String()
	assert.True(t, strings.HasPrefix(report, "nft_mint outcome: "), report)
	assert.True(t, strings.HasSuffix(report, "\n------------------\n"+
		"Gas burnt: 10,824,277,024,609\n"+
		"converted to NEAR: 0.010824277024609\n"), report)
	assert.NotContains(t, report, "new_default_meta")

	require.Len(t, summary.Steps, 2)
	assert.Equal(t, mintGas, summary.Steps[1].GasBurnt)
	assert.Greater(t, summary.Steps[1].GasBurnt, uint64(0))
}

func TestScenarioTransactions(t *testing.T) {
	env := newTestEnv(t)
	_, err := runScenario(context.Background(), env.worker(t), env.scenario(), new(bytes.Buffer))
	require.NoError(t, err)

	txs := env.node.Transactions()
	require.Len(t, txs, 3)
	contract := txs[0].Transaction.ReceiverID
	assert.Regexp(t, `^dev-\d+-\d+\.test\.near$`, contract)

	initTx := txs[1].Transaction
	assert.Equal(t, contract, initTx.SignerID)
	assert.Equal(t, "new_default_meta", initTx.Actions[0].FunctionCall.MethodName)
	assert.JSONEq(t, `{"owner_id":"`+contract+`"}`, string(initTx.Actions[0].FunctionCall.Args))

	mint := txs[2].Transaction.Actions[0].FunctionCall
	assert.Equal(t, "nft_mint", mint.MethodName)
	assert.JSONEq(t, `{
		"token_id": "0",
		"receiver_id": "test.near",
		"token_metadata": {
			"title": "Olympus Mons",
			"dscription": "Tallest mountain in charted solar system",
			"copies": 1
		}
	}`, string(mint.Args))
	assert.Equal(t, 0, mint.Deposit.Cmp(new(big.Int).Mul(big.NewInt(1e10), big.NewInt(1e12))))
	assert.Equal(t, params.DefaultFunctionCallGas, mint.Gas)
}

func TestScenarioMintFailure(t *testing.T) {
	env := newTestEnv(t)
	cfg := env.scenario()
	cfg.Deposit = "1"

	var out bytes.Buffer
	_, err := runScenario(context.Background(), env.worker(t), cfg, &out)
	var execErr *types.ExecutionError
	require.True(t, errors.As(err, &execErr), "have %v", err)
	assert.Contains(t, err.Error(), "nft_mint")

	// The failed outcome is still reported.
	assert.True(t, strings.HasPrefix(out.String(), "nft_mint outcome: "))
	assert.Contains(t, out.String(), "Gas burnt: ")
}

func TestScenarioInitFailureStopsRun(t *testing.T) {
	env := newTestEnv(t)
	env.node.HandleMethod("new_default_meta", func(call *sandboxtest.Call) (*sandboxtest.Result, error) {
		return nil, errors.New("The contract has already been initialized")
	})

	var out bytes.Buffer
	_, err := runScenario(context.Background(), env.worker(t), env.scenario(), &out)
	var execErr *types.ExecutionError
	require.True(t, errors.As(err, &execErr), "have %v", err)
	assert.Contains(t, err.Error(), "new_default_meta")
	assert.Empty(t, out.String())

	// Deploy and init only, no mint.
	txs := env.node.Transactions()
	require.Len(t, txs, 2)
	assert.Equal(t, "new_default_meta", txs[1].Transaction.Actions[0].FunctionCall.MethodName)
}

func TestScenarioJSON(t *testing.T) {
	env := newTestEnv(t)
	cfg := env.scenario()
	cfg.JSON = true

	var out bytes.Buffer
	_, err := runScenario(context.Background(), env.worker(t), cfg, &out)
	require.NoError(t, err)

	var summary gasreport.Summary
	require.NoError(t, json.Unmarshal(out.Bytes(), &summary))
	require.Len(t, summary.Steps, 2)
	assert.Equal(t, "new_default_meta", summary.Steps[0].Method)
	assert.Equal(t, "nft_mint", summary.Steps[1].Method)
	assert.Equal(t, "10,824,277,024,609", summary.Steps[1].Gas)
	assert.NotEmpty(t, summary.Contract)
}

func TestScenarioInputErrors(t *testing.T) {
	env := newTestEnv(t)
	w := env.worker(t)

	cfg := env.scenario()
	cfg.Wasm = filepath.Join(t.TempDir(), "missing.wasm")
	_, err := runScenario(context.Background(), w, cfg, new(bytes.Buffer))
	require.ErrorIs(t, err, os.ErrNotExist)

	cfg = env.scenario()
	cfg.Deposit = "0.5"
	_, err = runScenario(context.Background(), w, cfg, new(bytes.Buffer))
	require.Error(t, err)

	assert.Empty(t, env.node.Transactions())
}
