package sandboxtest

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/nftgas/gastest/crypto"
	"github.com/urfave/cli/v2"
)

// FailRunEnv makes the fake binary exit right after starting to run.
const FailRunEnv = "SANDBOXTEST_FAIL_RUN"

var homeFlag = &cli.StringFlag{
	Name:     "home",
	Usage:    "Directory for config and data",
	Required: true,
}

// App is a stand-in for the sandbox binary with the init and run commands.
// Tests re-execute themselves as this app to exercise process management.
var App = &cli.App{
	Name:  "near-sandbox",
	Flags: []cli.Flag{homeFlag},
	Commands: []*cli.Command{
		{
			Name:   "init",
			Usage:  "Initialise the home directory with a root key",
			Action: initHome,
		},
		{
			Name:  "run",
			Usage: "Serve the RPC endpoint until killed",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "rpc-addr", Value: "127.0.0.1:3030"},
				&cli.StringFlag{Name: "network-addr", Value: "127.0.0.1:24567"},
			},
			Action: run,
		},
	},
}

func initHome(ctx *cli.Context) error {
	root, err := NewRootKey()
	if err != nil {
		return err
	}
	_, err = NewNode(root).WriteKeyFile(ctx.String(homeFlag.Name))
	return err
}

func run(ctx *cli.Context) error {
	if os.Getenv(FailRunEnv) != "" {
		return errors.New("failing on request")
	}
	root, err := crypto.LoadKeyFile(filepath.Join(ctx.String(homeFlag.Name), "validator_key.json"))
	if err != nil {
		return err
	}
	node := NewNode(root)
	RegisterNFT(node)
	return http.ListenAndServe(ctx.String("rpc-addr"), node)
}
