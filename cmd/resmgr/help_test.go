package main

// Notes:
// - printUsage and the per-command usages: we test that the content a user
//   needs is present, not the exact layout.
// - runHelp: we test routing to the correct help topic.

import (
	"bytes"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestPrintUsage - Main usage output
// ---------------------------------------------------------------------------

func TestPrintUsage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	printUsage(&buf)

	for _, s := range []string{"Usage: resmgr", "Commands:", "load", "doctor", "completion", "version", "help"} {
		if !strings.Contains(buf.String(), s) {
			t.Errorf("printUsage output should contain %q", s)
		}
	}
}

// ---------------------------------------------------------------------------
// TestPrintLoadUsage - Every parser flag is documented
// ---------------------------------------------------------------------------

func TestPrintLoadUsage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	printLoadUsage(&buf)
	output := buf.String()

	for _, f := range extractFlagsFromFlagSet(newLoadFlagSet(&loadFlags{})) {
		if !strings.Contains(output, "--"+f.Long) {
			t.Errorf("load usage should document --%s", f.Long)
		}
	}
}

// ---------------------------------------------------------------------------
// TestRunHelp - Topic routing
// ---------------------------------------------------------------------------

func TestRunHelp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		args     []string
		wantCode int
		want     string
	}{
		{nil, ExitSuccess, "Commands:"},
		{[]string{"load"}, ExitSuccess, "Usage: resmgr load"},
		{[]string{"doctor"}, ExitSuccess, "Usage: resmgr doctor"},
		{[]string{"completion"}, ExitSuccess, "Usage: resmgr completion"},
		{[]string{"version"}, ExitSuccess, "Usage: resmgr version"},
		{[]string{"help"}, ExitSuccess, "Usage: resmgr help"},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			t.Parallel()

			env, stdout, _ := testEnv(nil)
			if code := runHelp(tt.args, env); code != tt.wantCode {
				t.Errorf("runHelp() = %d, want %d", code, tt.wantCode)
			}
			if !strings.Contains(stdout.String(), tt.want) {
				t.Errorf("stdout should contain %q, got %q", tt.want, stdout.String())
			}
		})
	}
}
