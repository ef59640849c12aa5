package main

import (
	"bytes"
	"os"
	"testing"
)

func TestDefaultEnv(t *testing.T) {
	t.Parallel()

	env := DefaultEnv()

	if env.Stdout != os.Stdout || env.Stderr != os.Stderr {
		t.Error("DefaultEnv should write to os.Stdout and os.Stderr")
	}
	if env.Now == nil || env.Getenv == nil || env.Environ == nil || env.IsTerminal == nil {
		t.Error("DefaultEnv should set every function field")
	}
	if env.NewSession != nil {
		t.Error("NewSession should be nil so options choose Chrome or static")
	}
}

func TestIsTerminal(t *testing.T) {
	t.Parallel()

	if isTerminal(&bytes.Buffer{}) {
		t.Error("a buffer is not a terminal")
	}

	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer f.Close()
	if isTerminal(f) {
		t.Error("a regular file is not a terminal")
	}
}
