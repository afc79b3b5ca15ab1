package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nftgas/gastest/params"
	"github.com/nftgas/gastest/sandbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runGastest runs the app in-process and returns what it wrote to stdout.
func runGastest(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app.Writer = &out
	defer func() { app.Writer = os.Stdout }()
	err := app.Run(append([]string{"gastest", "--log.nocolor", "--verbosity=1"}, args...))
	return out.String(), err
}

func (env *testEnv) attachArgs() []string {
	return []string{"--sandbox.rpcurl", env.url, "--sandbox.keyfile", env.keyFile, "--wasm", env.wasm}
}

func TestRunDefaultAction(t *testing.T) {
	env := newTestEnv(t)
	out, err := runGastest(t, env.attachArgs()...)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "nft_mint outcome: "), out)
	assert.Contains(t, out, "Gas burnt: 10,824,277,024,609\n")
}

func TestRunCommandSummary(t *testing.T) {
	env := newTestEnv(t)
	args := append([]string{"run"}, env.attachArgs()...)
	out, err := runGastest(t, append(args, "--summary", "--token-id", "olympus")...)
	require.NoError(t, err)
	assert.Contains(t, out, "TOTAL")
	assert.Contains(t, out, "new_default_meta")

	txs := env.node.Transactions()
	require.Len(t, txs, 3)
	assert.Contains(t, string(txs[2].Transaction.Actions[0].FunctionCall.Args), `"token_id":"olympus"`)
}

func TestRunDepositNear(t *testing.T) {
	env := newTestEnv(t)
	_, err := runGastest(t, append(env.attachArgs(), "--deposit.near", "0.02")...)
	require.NoError(t, err)

	txs := env.node.Transactions()
	require.Len(t, txs, 3)
	want, _ := params.ParseNear("0.02")
	assert.Equal(t, 0, txs[2].Transaction.Actions[0].FunctionCall.Deposit.Cmp(want))
}

func TestRunRejectsArguments(t *testing.T) {
	_, err := runGastest(t, "bogus")
	require.Error(t, err)
}

func TestRunFromConfigFile(t *testing.T) {
	env := newTestEnv(t)
	file := filepath.Join(t.TempDir(), "gastest.toml")
	require.NoError(t, os.WriteFile(file, []byte(`
[Sandbox]
RPCURL = "`+env.url+`"
KeyFile = "`+env.keyFile+`"

[Scenario]
Wasm = "`+env.wasm+`"
TokenID = "7"
JSON = true
`), 0644))

	out, err := runGastest(t, "--config", file)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "{"), out)
	assert.Contains(t, out, `"method": "nft_mint"`)
}

func TestViewCommand(t *testing.T) {
	env := newTestEnv(t)
	contract, err := env.worker(t).DevDeploy(context.Background(), []byte("code"))
	require.NoError(t, err)

	out, err := runGastest(t, "view", "--sandbox.rpcurl", env.url, contract.ID(), "nft_metadata")
	require.NoError(t, err)
	assert.Contains(t, out, `"spec": "nft-1.0.0"`)

	_, err = runGastest(t, "view", "--sandbox.rpcurl", env.url, contract.ID(), "nft_total_supply")
	require.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := runGastest(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Gastest\n")
	assert.Contains(t, out, "Version: "+params.VersionWithMeta+"\n")
}

// TestRealSandbox runs the scenario against a real sandbox binary. It needs
// NEAR_SANDBOX_BIN_PATH and the compiled contract in GASTEST_WASM.
func TestRealSandbox(t *testing.T) {
	if os.Getenv(sandbox.BinaryEnv) == "" {
		t.Skip(sandbox.BinaryEnv + " not set")
	}
	wasm := os.Getenv("GASTEST_WASM")
	if wasm == "" {
		t.Skip("GASTEST_WASM not set")
	}
	out, err := runGastest(t, "--wasm", wasm, "--verbosity=3")
	require.NoError(t, err)
	assert.Contains(t, out, "Gas burnt: ")
}
