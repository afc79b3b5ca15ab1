// gastest measures the gas burnt by minting an NFT on a sandbox node.
package main

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/nftgas/gastest/cmd/utils"
	"github.com/nftgas/gastest/internal/debug"
	"github.com/nftgas/gastest/internal/flags"
	"github.com/nftgas/gastest/sandbox"
	"github.com/urfave/cli/v2"
)

const clientIdentifier = "gastest"

// Git SHA1 commit hash of the release (set via linker flags)
var gitCommit = ""
var gitDate = ""

var app = flags.NewApp(gitCommit, gitDate, "measure the gas burnt by minting an NFT on a sandbox node")

var (
	wasmFlag = &cli.StringFlag{
		Name:     "wasm",
		Usage:    "Path of the compiled NFT contract",
		Value:    DefaultScenarioConfig.Wasm,
		Category: flags.ScenarioCategory,
	}
	depositFlag = &cli.StringFlag{
		Name:     "deposit",
		Usage:    "yoctoNEAR attached to nft_mint",
		Value:    DefaultScenarioConfig.Deposit,
		Category: flags.ScenarioCategory,
	}
	depositNearFlag = &cli.StringFlag{
		Name:     "deposit.near",
		Usage:    "NEAR attached to nft_mint, as a decimal (e.g. 0.01)",
		Category: flags.ScenarioCategory,
	}
	tokenIDFlag = &cli.StringFlag{
		Name:     "token-id",
		Usage:    "Id of the minted token",
		Value:    DefaultScenarioConfig.TokenID,
		Category: flags.ScenarioCategory,
	}
	gasFlag = &cli.Uint64Flag{
		Name:     "gas",
		Usage:    "Prepaid gas of each function call",
		Value:    DefaultScenarioConfig.Gas,
		Category: flags.ScenarioCategory,
	}
	summaryFlag = &cli.BoolFlag{
		Name:     "summary",
		Usage:    "Print a table of the gas burnt by every step",
		Category: flags.OutputCategory,
	}
	jsonFlag = &cli.BoolFlag{
		Name:     "json",
		Usage:    "Output a JSON report instead of human-readable text",
		Category: flags.OutputCategory,
	}

	scenarioFlags = []cli.Flag{
		wasmFlag,
		depositFlag,
		depositNearFlag,
		tokenIDFlag,
		gasFlag,
		summaryFlag,
		jsonFlag,
	}

	runFlags = flags.Merge(
		[]cli.Flag{utils.ConfigFileFlag},
		scenarioFlags,
		utils.SandboxFlags,
	)
)

var runCommand = &cli.Command{
	Action:    run,
	Name:      "run",
	Usage:     "Deploy the contract to a dev account, initialise it and mint a token",
	ArgsUsage: " ",
	Flags:     runFlags,
	Description: `
The run command is the default action. It prints the outcome of nft_mint and
the gas it burnt.`,
}

func init() {
	app.Action = run
	app.Flags = flags.Merge(runFlags, debug.Flags)
	app.Commands = []*cli.Command{
		runCommand,
		viewCommand,
		dumpConfigCommand,
		versionCommand,
	}
	app.Before = func(ctx *cli.Context) error {
		return debug.Setup(ctx)
	}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run is the default action: it brings up the sandbox and runs the scenario.
func run(ctx *cli.Context) error {
	if args := ctx.Args(); args.Len() > 0 {
		return fmt.Errorf("invalid command: %q", args.Get(0))
	}
	cfg := makeConfig(ctx)
	if cfg.Sandbox.Attached() && cfg.Sandbox.KeyFile == "" {
		utils.Fatalf("Option %q requires %q", utils.SandboxRPCURLFlag.Name, utils.SandboxKeyFileFlag.Name)
	}
	w, err := sandbox.Open(ctx.Context, &cfg.Sandbox)
	if err != nil {
		return err
	}
	defer func() {
		if err := w.Close(); err != nil {
			log.Warn("Failed to stop sandbox", "err", err)
		}
	}()
	_, err = runScenario(ctx.Context, w, &cfg.Scenario, ctx.App.Writer)
	return err
}
