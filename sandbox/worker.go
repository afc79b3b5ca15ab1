package sandbox

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/nftgas/gastest/core/types"
	"github.com/nftgas/gastest/crypto"
	"github.com/nftgas/gastest/nearclient"
	"github.com/nftgas/gastest/params"
)

// Worker is a connection to a sandbox node signing as its root account.
type Worker struct {
	client *nearclient.Client
	server *Server // nil when attached to an external node
	root   *Account
}

// NewSandbox spawns a sandbox node and connects to it.
func NewSandbox(ctx context.Context, cfg *Config) (*Worker, error) {
	srv, err := Start(ctx, cfg)
	if err != nil {
		return nil, err
	}
	w, err := connect(ctx, srv.RPCURL(), srv.KeyFile())
	if err != nil {
		srv.Stop()
		return nil, err
	}
	w.server = srv
	return w, nil
}

// Connect attaches to the running node at cfg.RPCURL using the root account
// credentials in cfg.KeyFile.
func Connect(ctx context.Context, cfg *Config) (*Worker, error) {
	if cfg.KeyFile == "" {
		return nil, ErrNoKeyFile
	}
	return connect(ctx, cfg.RPCURL, cfg.KeyFile)
}

// Open spawns or attaches depending on the config.
func Open(ctx context.Context, cfg *Config) (*Worker, error) {
	if cfg.Attached() {
		return Connect(ctx, cfg)
	}
	return NewSandbox(ctx, cfg)
}

func connect(ctx context.Context, rpcURL, keyFile string) (*Worker, error) {
	key, err := crypto.LoadKeyFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load root key: %w", err)
	}
	client, err := nearclient.Dial(rpcURL)
	if err != nil {
		return nil, err
	}
	st, err := client.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("sandbox at %s is not reachable: %w", rpcURL, err)
	}
	log.Debug("Connected to sandbox", "url", rpcURL, "chain", st.ChainID, "version", st.Version.Version, "head", st.SyncInfo.LatestBlockHeight)
	w := &Worker{client: client}
	w.root = newAccount(w, key.AccountID, key.Key)
	return w, nil
}

// Client returns the underlying RPC client.
func (w *Worker) Client() *nearclient.Client { return w.client }

// RootAccount returns the account that owns the sandbox's initial supply.
func (w *Worker) RootAccount() *Account { return w.root }

// DevAccountID returns a fresh dev account name under the root account.
func (w *Worker) DevAccountID() string {
	return fmt.Sprintf("%s-%s-%d.%s", params.DevAccountPrefix, time.Now().UTC().Format("20060102150405"),
		10_000_000+rand.Intn(90_000_000), w.root.ID())
}

// DevDeploy creates a funded dev account with a new full access key and
// deploys code to it in a single transaction.
func (w *Worker) DevDeploy(ctx context.Context, code []byte) (*Contract, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	id := w.DevAccountID()
	out, err := w.root.Transact(ctx, id,
		types.NewCreateAccount(),
		types.NewTransfer(params.DevAccountBalance),
		types.NewAddFullAccessKey(key.Public()),
		types.NewDeployContract(code),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to deploy to %s: %w", id, err)
	}
	if err := out.Err(); err != nil {
		return nil, fmt.Errorf("failed to deploy to %s: %w", id, err)
	}
	log.Info("Deployed contract", "account", id, "size", len(code))
	return &Contract{Account: newAccount(w, id, key)}, nil
}

// View runs a view method of the contract on accountID at final finality.
func (w *Worker) View(ctx context.Context, accountID, method string, args []byte) (*nearclient.CallResult, error) {
	return w.client.CallFunction(ctx, accountID, method, args, nearclient.FinalityFinal)
}

// Close stops a spawned node. It is a no-op for attached workers.
func (w *Worker) Close() error {
	if w.server == nil {
		return nil
	}
	return w.server.Stop()
}
