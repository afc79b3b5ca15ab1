package debug

import (
	"bytes"
	"flag"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
)

func newContext(t *testing.T, args ...string) *cli.Context {
	t.Helper()
	app := cli.NewApp()
	app.Flags = Flags
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

func TestSetupVerbosity(t *testing.T) {
	defer log.SetDefault(log.Root())

	tests := []struct {
		args      []string
		wantInfo  bool
		wantDebug bool
	}{
		{nil, true, false},
		{[]string{"--verbosity=4"}, true, true},
		{[]string{"--verbosity=2"}, false, false},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		if err := setup(newContext(t, tt.args...), &buf, false); err != nil {
			t.Fatalf("%v: setup failed: %v", tt.args, err)
		}
		log.Info("info line")
		log.Debug("debug line")
		out := buf.String()
		if have := strings.Contains(out, "info line"); have != tt.wantInfo {
			t.Fatalf("%v: info logged %v, want %v", tt.args, have, tt.wantInfo)
		}
		if have := strings.Contains(out, "debug line"); have != tt.wantDebug {
			t.Fatalf("%v: debug logged %v, want %v", tt.args, have, tt.wantDebug)
		}
	}
}

func TestSetupFormats(t *testing.T) {
	defer log.SetDefault(log.Root())

	var buf bytes.Buffer
	if err := setup(newContext(t, "--log.format=json"), &buf, false); err != nil {
		t.Fatal(err)
	}
	log.Info("hello", "gas", 42)
	if !strings.Contains(buf.String(), `"gas":42`) {
		t.Fatalf("unexpected json output %q", buf.String())
	}
	if err := setup(newContext(t, "--log.format=xml"), &buf, false); err == nil {
		t.Fatal("expected error for unknown format")
	}
	if err := setup(newContext(t, "--vmodule=bad"), &buf, false); err == nil {
		t.Fatal("expected error for invalid vmodule")
	}
}
