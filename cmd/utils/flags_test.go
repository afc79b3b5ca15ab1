// Copyright 2019 The go-ethereum Authors
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
	"bytes"
	"flag"
	"reflect"
	"testing"
	"time"

	"github.com/nftgas/gastest/sandbox"
	"github.com/urfave/cli/v2"
)

func newContext(t *testing.T, flags []cli.Flag, args ...string) *cli.Context {
	t.Helper()
	app := cli.NewApp()
	app.Flags = flags

	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range app.Flags {
		if err := f.Apply(set); err != nil {
			t.Fatalf("apply flag: %v", err)
		}
	}
	if err := set.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cli.NewContext(app, set, nil)
}

func TestSetSandboxConfig(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want sandbox.Config
	}{
		{
			name: "defaults untouched",
			args: nil,
			want: sandbox.DefaultConfig,
		},
		{
			name: "spawn settings",
			args: []string{
				"--sandbox.bin=/opt/near-sandbox",
				"--sandbox.home=/tmp/sbx",
				"--sandbox.keephome",
				"--sandbox.rpcaddr=127.0.0.1:3030",
				"--sandbox.netaddr=127.0.0.1:3031",
				"--sandbox.timeout=5s",
				"--sandbox.args=--verbose",
			},
			want: sandbox.Config{
				Binary:       "/opt/near-sandbox",
				Home:         "/tmp/sbx",
				KeepHome:     true,
				RPCAddr:      "127.0.0.1:3030",
				NetworkAddr:  "127.0.0.1:3031",
				StartTimeout: 5 * time.Second,
				ExtraArgs:    "--verbose",
			},
		},
		{
			name: "attach settings",
			args: []string{"--sandbox.rpcurl=http://127.0.0.1:3030", "--sandbox.keyfile=/tmp/key.json"},
			want: sandbox.Config{
				RPCURL:       "http://127.0.0.1:3030",
				KeyFile:      "/tmp/key.json",
				StartTimeout: sandbox.DefaultConfig.StartTimeout,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := sandbox.DefaultConfig
			SetSandboxConfig(newContext(t, SandboxFlags, tt.args...), &cfg)
			if !reflect.DeepEqual(cfg, tt.want) {
				t.Fatalf("have %+v want %+v", cfg, tt.want)
			}
		})
	}
}

func TestFatalfFormat(t *testing.T) {
	var buf bytes.Buffer
	fatalf(&buf, "Failed to read %s: %v", "nep171.wasm", "no such file")
	if have, want := buf.String(), "Fatal: Failed to read nep171.wasm: no such file\n"; have != want {
		t.Fatalf("have %q want %q", have, want)
	}
}
