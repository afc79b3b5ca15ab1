package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/log"
	"github.com/nftgas/gastest/cmd/utils"
	"github.com/nftgas/gastest/internal/flags"
	"github.com/nftgas/gastest/nearclient"
	"github.com/urfave/cli/v2"
)

var (
	viewArgsFlag = &cli.StringFlag{
		Name:     "args",
		Usage:    "JSON arguments of the view method",
		Value:    "{}",
		Category: flags.ScenarioCategory,
	}
	viewFinalityFlag = &cli.StringFlag{
		Name:     "finality",
		Usage:    "Block to read from (optimistic|final)",
		Value:    string(nearclient.FinalityFinal),
		Category: flags.ScenarioCategory,
	}

	viewCommand = &cli.Command{
		Action:    view,
		Name:      "view",
		Usage:     "Call a view method of a contract on a running sandbox",
		ArgsUsage: "<account> <method>",
		Flags: []cli.Flag{
			utils.ConfigFileFlag,
			utils.SandboxRPCURLFlag,
			viewArgsFlag,
			viewFinalityFlag,
		},
		Description: `
The view command calls a view method, e.g. nft_metadata, on the sandbox given
by --sandbox.rpcurl and prints the JSON result.`,
	}
)

func view(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		utils.Fatalf("This command requires two arguments.")
	}
	cfg := defaultConfig()
	if file := ctx.String(utils.ConfigFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			utils.Fatalf("%v", err)
		}
	}
	if ctx.IsSet(utils.SandboxRPCURLFlag.Name) {
		cfg.Sandbox.RPCURL = ctx.String(utils.SandboxRPCURLFlag.Name)
	}
	if !cfg.Sandbox.Attached() {
		utils.Fatalf("Option %q is required", utils.SandboxRPCURLFlag.Name)
	}
	finality := nearclient.Finality(ctx.String(viewFinalityFlag.Name))
	if finality != nearclient.FinalityFinal && finality != nearclient.FinalityOptimistic {
		utils.Fatalf("Option %q: unknown finality %q", viewFinalityFlag.Name, finality)
	}
	args := []byte(ctx.String(viewArgsFlag.Name))
	if !json.Valid(args) {
		utils.Fatalf("Option %q: invalid JSON", viewArgsFlag.Name)
	}

	client, err := nearclient.Dial(cfg.Sandbox.RPCURL)
	if err != nil {
		return err
	}
	account, method := ctx.Args().Get(0), ctx.Args().Get(1)
	res, err := client.CallFunction(ctx.Context, account, method, args, finality)
	if err != nil {
		return err
	}
	for _, line := range res.Logs {
		log.Info("Contract log", "account", account, "msg", line)
	}
	var out bytes.Buffer
	if err := json.Indent(&out, res.Result, "", "  "); err != nil {
		// Not JSON, print the raw bytes.
		out.Reset()
		out.Write(res.Result)
	}
	fmt.Fprintln(ctx.App.Writer, out.String())
	return nil
}
