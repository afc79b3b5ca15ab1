package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDumpConfigRoundTrip(t *testing.T) {
	out, err := runGastest(t, "dumpconfig", "--wasm", "contract.wasm", "--gas", "5000", "--sandbox.timeout", "15s")
	if err != nil {
		t.Fatal(err)
	}
	file := filepath.Join(t.TempDir(), "dump.toml")
	if err := os.WriteFile(file, []byte(out), 0644); err != nil {
		t.Fatal(err)
	}
	var cfg gastestConfig
	if err := loadConfig(file, &cfg); err != nil {
		t.Fatalf("dumped config does not load: %v\n%s", err, out)
	}
	if cfg.Scenario.Wasm != "contract.wasm" {
		t.Fatalf("have wasm %q want %q", cfg.Scenario.Wasm, "contract.wasm")
	}
	if cfg.Scenario.Gas != 5000 {
		t.Fatalf("have gas %d want 5000", cfg.Scenario.Gas)
	}
	if cfg.Scenario.Deposit != DefaultScenarioConfig.Deposit {
		t.Fatalf("have deposit %q want %q", cfg.Scenario.Deposit, DefaultScenarioConfig.Deposit)
	}
	if cfg.Sandbox.StartTimeout != 15*time.Second {
		t.Fatalf("have timeout %v want 15s", cfg.Sandbox.StartTimeout)
	}
}

func TestDumpConfigToFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "out.toml")
	out, err := runGastest(t, "dumpconfig", file)
	if err != nil {
		t.Fatal(err)
	}
	if out != "" {
		t.Fatalf("unexpected stdout %q", out)
	}
	blob, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(blob, []byte("[Scenario]")) || !bytes.Contains(blob, []byte("[Sandbox]")) {
		t.Fatalf("missing sections in\n%s", blob)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown field", "[Scenario]\nWasmPath = \"x\"\n", "field 'WasmPath' is not defined"},
		{"syntax", "[Scenario\n", ""},
	}
	for _, tt := range tests {
		file := filepath.Join(dir, "bad.toml")
		if err := os.WriteFile(file, []byte(tt.content), 0644); err != nil {
			t.Fatal(err)
		}
		cfg := defaultConfig()
		err := loadConfig(file, &cfg)
		if err == nil {
			t.Fatalf("%s: expected error", tt.name)
		}
		if !strings.Contains(err.Error(), tt.want) {
			t.Fatalf("%s: have %q, want it to contain %q", tt.name, err, tt.want)
		}
	}
}

func TestLoadConfigKeepsDefaults(t *testing.T) {
	file := filepath.Join(t.TempDir(), "partial.toml")
	if err := os.WriteFile(file, []byte("[Scenario]\nTokenID = \"42\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := defaultConfig()
	if err := loadConfig(file, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Scenario.TokenID != "42" {
		t.Fatalf("have token id %q want 42", cfg.Scenario.TokenID)
	}
	if cfg.Scenario.Wasm != DefaultScenarioConfig.Wasm || cfg.Scenario.Gas != DefaultScenarioConfig.Gas {
		t.Fatalf("defaults lost: %+v", cfg.Scenario)
	}
}
