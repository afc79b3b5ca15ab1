// Package sandbox runs a local sandbox node and drives accounts and contracts
// on it.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/nftgas/gastest/nearclient"
)

const (
	keyFileName = "validator_key.json"
	logFileName = "sandbox.log"

	pollInterval = 100 * time.Millisecond
)

var (
	ErrNotStarted = errors.New("sandbox is not running")
	ErrExited     = errors.New("sandbox exited during startup")
)

// command creates the process for one sandbox invocation.
var command = exec.Command

// Server is a spawned sandbox node.
type Server struct {
	home    string
	tmpHome bool
	rpcURL  string

	cmd     *exec.Cmd
	logFile *os.File
	done    chan struct{}
	waitErr error

	stopOnce sync.Once
	stopErr  error
}

// Start initialises a home directory, launches the node and waits until its
// RPC endpoint answers.
func Start(ctx context.Context, cfg *Config) (*Server, error) {
	bin, err := cfg.binary()
	if err != nil {
		return nil, err
	}
	extra, err := cfg.extraArgs()
	if err != nil {
		return nil, err
	}
	s := &Server{home: cfg.Home, done: make(chan struct{})}
	if s.home == "" {
		if s.home, err = os.MkdirTemp("", "sandbox-"); err != nil {
			return nil, err
		}
		s.tmpHome = !cfg.KeepHome
	}
	if err := s.start(ctx, cfg, bin, extra); err != nil {
		s.cleanup()
		return nil, err
	}
	return s, nil
}

func (s *Server) start(ctx context.Context, cfg *Config, bin string, extra []string) error {
	if _, err := os.Stat(filepath.Join(s.home, keyFileName)); os.IsNotExist(err) {
		log.Debug("Initialising sandbox home", "home", s.home)
		out, err := command(bin, "--home", s.home, "init").CombinedOutput()
		if err != nil {
			return fmt.Errorf("sandbox init failed: %w: %s", err, out)
		}
	}
	rpcAddr, netAddr := cfg.RPCAddr, cfg.NetworkAddr
	var err error
	if rpcAddr == "" {
		if rpcAddr, err = freeAddr(); err != nil {
			return err
		}
	}
	if netAddr == "" {
		if netAddr, err = freeAddr(); err != nil {
			return err
		}
	}
	s.rpcURL = "http://" + rpcAddr

	if s.logFile, err = os.Create(filepath.Join(s.home, logFileName)); err != nil {
		return err
	}
	args := append([]string{"--home", s.home, "run", "--rpc-addr", rpcAddr, "--network-addr", netAddr}, extra...)
	s.cmd = command(bin, args...)
	s.cmd.Stdout = s.logFile
	s.cmd.Stderr = s.logFile
	if err := s.cmd.Start(); err != nil {
		return fmt.Errorf("failed to launch sandbox: %w", err)
	}
	log.Info("Started sandbox", "pid", s.cmd.Process.Pid, "rpc", s.rpcURL, "home", s.home)
	go func() {
		s.waitErr = s.cmd.Wait()
		close(s.done)
	}()

	timeout := cfg.StartTimeout
	if timeout == 0 {
		timeout = DefaultConfig.StartTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.waitReady(ctx)
}

// waitReady polls the status endpoint until the node answers.
func (s *Server) waitReady(ctx context.Context) error {
	client, err := nearclient.Dial(s.rpcURL)
	if err != nil {
		return err
	}
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		if _, err := client.Status(ctx); err == nil {
			return nil
		}
		select {
		case <-s.done:
			return fmt.Errorf("%w: %v (see %s)", ErrExited, s.waitErr, filepath.Join(s.home, logFileName))
		case <-ctx.Done():
			return fmt.Errorf("sandbox did not become ready: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// RPCURL returns the HTTP endpoint of the node.
func (s *Server) RPCURL() string { return s.rpcURL }

// Home returns the data directory of the node.
func (s *Server) Home() string { return s.home }

// KeyFile returns the path of the root account credentials.
func (s *Server) KeyFile() string { return filepath.Join(s.home, keyFileName) }

// Stop kills the node and removes a temporary home directory. It is safe to
// call more than once.
func (s *Server) Stop() error {
	s.stopOnce.Do(func() {
		if s.cmd == nil || s.cmd.Process == nil {
			s.stopErr = ErrNotStarted
			s.cleanup()
			return
		}
		select {
		case <-s.done:
		default:
			if err := s.cmd.Process.Kill(); err != nil {
				log.Warn("Failed to kill sandbox", "pid", s.cmd.Process.Pid, "err", err)
			}
			<-s.done
		}
		log.Info("Stopped sandbox", "pid", s.cmd.Process.Pid)
		s.stopErr = s.cleanup()
	})
	return s.stopErr
}

func (s *Server) cleanup() error {
	if s.cmd != nil && s.cmd.Process != nil {
		select {
		case <-s.done:
		default:
			s.cmd.Process.Kill()
			<-s.done
		}
	}
	if s.logFile != nil {
		s.logFile.Close()
	}
	if s.tmpHome {
		return os.RemoveAll(s.home)
	}
	return nil
}
