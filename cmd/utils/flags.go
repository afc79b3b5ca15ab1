// Copyright 2015 The go-ethereum Authors
// This file is part of go-ethereum.
//
// go-ethereum is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-ethereum is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-ethereum. If not, see <http://www.gnu.org/licenses/>.

// Package utils contains internal helper functions for gastest commands.
package utils

import (
	"fmt"
	"strings"

	"github.com/nftgas/gastest/internal/flags"
	"github.com/nftgas/gastest/sandbox"
	"github.com/urfave/cli/v2"
)

// These are all the command line flags we support.
// If you add to this list, please remember to include the
// flag in the appropriate command definition.
//
// The flags are defined here so their names and help texts
// are the same for all commands.

var (
	// Sandbox settings
	SandboxBinaryFlag = &cli.StringFlag{
		Name:     "sandbox.bin",
		Usage:    "Path of the near-sandbox binary (default: $" + sandbox.BinaryEnv + " or near-sandbox on $PATH)",
		Category: flags.SandboxCategory,
	}
	SandboxHomeFlag = &cli.StringFlag{
		Name:     "sandbox.home",
		Usage:    "Home directory of the spawned sandbox (default: temporary directory)",
		Category: flags.SandboxCategory,
	}
	SandboxKeepHomeFlag = &cli.BoolFlag{
		Name:     "sandbox.keephome",
		Usage:    "Keep the temporary sandbox home directory after exit",
		Category: flags.SandboxCategory,
	}
	SandboxRPCAddrFlag = &cli.StringFlag{
		Name:     "sandbox.rpcaddr",
		Usage:    "RPC listen address of the spawned sandbox (default: free local port)",
		Category: flags.SandboxCategory,
	}
	SandboxNetAddrFlag = &cli.StringFlag{
		Name:     "sandbox.netaddr",
		Usage:    "Network listen address of the spawned sandbox (default: free local port)",
		Category: flags.SandboxCategory,
	}
	SandboxTimeoutFlag = &cli.DurationFlag{
		Name:     "sandbox.timeout",
		Usage:    "Maximum time to wait for the sandbox to start",
		Value:    sandbox.DefaultConfig.StartTimeout,
		Category: flags.SandboxCategory,
	}
	SandboxArgsFlag = &cli.StringFlag{
		Name:     "sandbox.args",
		Usage:    "Extra arguments for the sandbox run command",
		Category: flags.SandboxCategory,
	}
	SandboxRPCURLFlag = &cli.StringFlag{
		Name:     "sandbox.rpcurl",
		Usage:    "Attach to a running sandbox at this RPC URL instead of spawning one",
		Category: flags.SandboxCategory,
	}
	SandboxKeyFileFlag = &cli.StringFlag{
		Name:     "sandbox.keyfile",
		Usage:    "Root account key file of the attached sandbox",
		Category: flags.SandboxCategory,
	}

	ConfigFileFlag = &cli.StringFlag{
		Name:     "config",
		Usage:    "TOML configuration file",
		Category: flags.MiscCategory,
	}
)

// SandboxFlags are the flags that configure the sandbox node.
var SandboxFlags = []cli.Flag{
	SandboxBinaryFlag,
	SandboxHomeFlag,
	SandboxKeepHomeFlag,
	SandboxRPCAddrFlag,
	SandboxNetAddrFlag,
	SandboxTimeoutFlag,
	SandboxArgsFlag,
	SandboxRPCURLFlag,
	SandboxKeyFileFlag,
}

// SetSandboxConfig applies sandbox-related command line flags to the config.
func SetSandboxConfig(ctx *cli.Context, cfg *sandbox.Config) {
	CheckExclusive(ctx, SandboxRPCURLFlag, SandboxHomeFlag)
	CheckExclusive(ctx, SandboxRPCURLFlag, SandboxBinaryFlag)

	if ctx.IsSet(SandboxBinaryFlag.Name) {
		cfg.Binary = ctx.String(SandboxBinaryFlag.Name)
	}
	if ctx.IsSet(SandboxHomeFlag.Name) {
		cfg.Home = ctx.String(SandboxHomeFlag.Name)
	}
	if ctx.IsSet(SandboxKeepHomeFlag.Name) {
		cfg.KeepHome = ctx.Bool(SandboxKeepHomeFlag.Name)
	}
	if ctx.IsSet(SandboxRPCAddrFlag.Name) {
		cfg.RPCAddr = ctx.String(SandboxRPCAddrFlag.Name)
	}
	if ctx.IsSet(SandboxNetAddrFlag.Name) {
		cfg.NetworkAddr = ctx.String(SandboxNetAddrFlag.Name)
	}
	if ctx.IsSet(SandboxTimeoutFlag.Name) {
		cfg.StartTimeout = ctx.Duration(SandboxTimeoutFlag.Name)
	}
	if ctx.IsSet(SandboxArgsFlag.Name) {
		cfg.ExtraArgs = ctx.String(SandboxArgsFlag.Name)
	}
	if ctx.IsSet(SandboxRPCURLFlag.Name) {
		cfg.RPCURL = ctx.String(SandboxRPCURLFlag.Name)
	}
	if ctx.IsSet(SandboxKeyFileFlag.Name) {
		cfg.KeyFile = ctx.String(SandboxKeyFileFlag.Name)
	}
}

// CheckExclusive verifies that only a single instance of the provided flags was
// set by the user. Each flag might optionally be followed by a string type to
// specialize it further.
func CheckExclusive(ctx *cli.Context, args ...interface{}) {
	set := make([]string, 0, 1)
	for i := 0; i < len(args); i++ {
		// Make sure the next argument is a flag and skip if not set
		flag, ok := args[i].(cli.Flag)
		if !ok {
			panic(fmt.Sprintf("invalid argument, not cli.Flag type: %T", args[i]))
		}
		// Check if next arg extends current and expand its name if so
		name := flag.Names()[0]

		if i+1 < len(args) {
			switch option := args[i+1].(type) {
			case string:
				// Extended flag check, make sure value set doesn't conflict with passed in option
				if ctx.String(flag.Names()[0]) == option {
					name += "=" + option
					set = append(set, "--"+name)
				}
				// shift arguments and continue
				i++
				continue

			case cli.Flag:
			default:
				panic(fmt.Sprintf("invalid argument, not cli.Flag or string extension: %T", args[i+1]))
			}
		}
		// Mark the flag if it's set
		if ctx.IsSet(flag.Names()[0]) {
			set = append(set, "--"+name)
		}
	}
	if len(set) > 1 {
		Fatalf("Flags %v can't be used at the same time", strings.Join(set, ", "))
	}
}
