package sandbox

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"time"

	"github.com/google/shlex"
)

// BinaryEnv names the environment variable holding the sandbox binary path.
const BinaryEnv = "NEAR_SANDBOX_BIN_PATH"

const defaultBinary = "near-sandbox"

var (
	ErrNoBinary  = errors.New("sandbox binary not found")
	ErrNoKeyFile = errors.New("no key file configured for attached sandbox")
)

// Config contains the settings for starting or attaching to a sandbox node.
type Config struct {
	// Binary is the near-sandbox executable. Empty means $NEAR_SANDBOX_BIN_PATH,
	// then near-sandbox on $PATH.
	Binary string `toml:",omitempty"`

	// Home is the node's data directory. Empty means a temporary directory
	// that is removed on shutdown.
	Home     string `toml:",omitempty"`
	KeepHome bool   `toml:",omitempty"`

	// RPCAddr and NetworkAddr are the listen addresses of the spawned node.
	// Empty picks a free local port.
	RPCAddr     string `toml:",omitempty"`
	NetworkAddr string `toml:",omitempty"`

	// RPCURL attaches to a running node instead of spawning one. KeyFile then
	// holds the root account credentials.
	RPCURL  string `toml:",omitempty"`
	KeyFile string `toml:",omitempty"`

	StartTimeout time.Duration

	// ExtraArgs are appended to the run command, split like a shell would.
	ExtraArgs string `toml:",omitempty"`
}

// DefaultConfig is the default sandbox configuration.
var DefaultConfig = Config{
	StartTimeout: 60 * time.Second,
}

// Attached reports whether the config points at an already running node.
func (c *Config) Attached() bool {
	return c.RPCURL != ""
}

// binary resolves the executable to spawn.
func (c *Config) binary() (string, error) {
	bin := c.Binary
	if bin == "" {
		bin = os.Getenv(BinaryEnv)
	}
	if bin == "" {
		bin = defaultBinary
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoBinary, err)
	}
	return path, nil
}

// extraArgs splits ExtraArgs into arguments.
func (c *Config) extraArgs() ([]string, error) {
	if c.ExtraArgs == "" {
		return nil, nil
	}
	args, err := shlex.Split(c.ExtraArgs)
	if err != nil {
		return nil, fmt.Errorf("invalid extra sandbox arguments %q: %w", c.ExtraArgs, err)
	}
	return args, nil
}

// freeAddr returns a local TCP address that nothing listens on right now.
func freeAddr() (string, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	defer l.Close()
	return l.Addr().String(), nil
}
