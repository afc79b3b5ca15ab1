package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"unicode"

	"github.com/naoina/toml"
	"github.com/nftgas/gastest/cmd/utils"
	"github.com/nftgas/gastest/params"
	"github.com/nftgas/gastest/sandbox"
	"github.com/urfave/cli/v2"
)

var (
	dumpConfigCommand = &cli.Command{
		Action:      dumpConfig,
		Name:        "dumpconfig",
		Usage:       "Show configuration values",
		ArgsUsage:   "[dumpfile]",
		Flags:       runFlags,
		Description: `The dumpconfig command shows configuration values.`,
	}
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

// ScenarioConfig holds the inputs of the mint scenario.
type ScenarioConfig struct {
	Wasm    string
	Deposit string // yoctoNEAR, too large for a TOML integer
	TokenID string
	Gas     uint64
	Summary bool `toml:",omitempty"`
	JSON    bool `toml:",omitempty"`
}

// DefaultScenarioConfig mints token "0" from the contract at the path the
// contract build writes to.
var DefaultScenarioConfig = ScenarioConfig{
	Wasm:    "../res/nep171.wasm",
	Deposit: params.DefaultMintDeposit.String(),
	TokenID: "0",
	Gas:     params.DefaultFunctionCallGas,
}

type gastestConfig struct {
	Sandbox  sandbox.Config
	Scenario ScenarioConfig
}

func loadConfig(file string, cfg *gastestConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

func defaultConfig() gastestConfig {
	return gastestConfig{
		Sandbox:  sandbox.DefaultConfig,
		Scenario: DefaultScenarioConfig,
	}
}

// makeConfig loads the config file if one is given and applies the command
// line flags on top.
func makeConfig(ctx *cli.Context) gastestConfig {
	cfg := defaultConfig()
	if file := ctx.String(utils.ConfigFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			utils.Fatalf("%v", err)
		}
	}
	utils.SetSandboxConfig(ctx, &cfg.Sandbox)
	setScenarioConfig(ctx, &cfg.Scenario)
	return cfg
}

func setScenarioConfig(ctx *cli.Context, cfg *ScenarioConfig) {
	utils.CheckExclusive(ctx, depositFlag, depositNearFlag)

	if ctx.IsSet(wasmFlag.Name) {
		cfg.Wasm = ctx.String(wasmFlag.Name)
	}
	if ctx.IsSet(depositFlag.Name) {
		cfg.Deposit = ctx.String(depositFlag.Name)
	}
	if ctx.IsSet(depositNearFlag.Name) {
		amount, err := params.ParseNear(ctx.String(depositNearFlag.Name))
		if err != nil {
			utils.Fatalf("Option %q: %v", depositNearFlag.Name, err)
		}
		cfg.Deposit = amount.String()
	}
	if ctx.IsSet(tokenIDFlag.Name) {
		cfg.TokenID = ctx.String(tokenIDFlag.Name)
	}
	if ctx.IsSet(gasFlag.Name) {
		cfg.Gas = ctx.Uint64(gasFlag.Name)
	}
	if ctx.IsSet(summaryFlag.Name) {
		cfg.Summary = ctx.Bool(summaryFlag.Name)
	}
	if ctx.IsSet(jsonFlag.Name) {
		cfg.JSON = ctx.Bool(jsonFlag.Name)
	}
}

// dumpConfig is the dumpconfig command.
func dumpConfig(ctx *cli.Context) error {
	cfg := makeConfig(ctx)
	out, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		return err
	}

	var dump io.Writer = ctx.App.Writer
	if ctx.NArg() > 0 {
		f, err := os.OpenFile(ctx.Args().Get(0), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		dump = f
	}
	_, err = dump.Write(out)
	return err
}
