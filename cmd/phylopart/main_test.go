// Package main provides tests for the phylopart CLI.
package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/phylopart/internal/cli"
)

func testdataDir(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	return filepath.Join(wd, "..", "..", "testdata")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Errorf("version command error = %v", err)
	}
	if !strings.Contains(out, "phylopart v"+cli.Version) {
		t.Errorf("version output should contain the version, got: %s", out)
	}
}

func TestHelpCommand(t *testing.T) {
	out, err := execute(t, "--help")
	if err != nil {
		t.Errorf("help command error = %v", err)
	}

	expectedCommands := []string{"import", "load", "list", "rename", "remove", "merge", "split", "model", "export", "watch"}
	for _, expected := range expectedCommands {
		if !strings.Contains(out, expected) {
			t.Errorf("help output should contain '%s', got: %s", expected, out)
		}
	}
}

func TestLoadAndExport(t *testing.T) {
	td := testdataDir(t)
	state := filepath.Join(t.TempDir(), "state.db")

	if _, err := execute(t, "load", filepath.Join(td, "partitions", "concatenated_small.nex"), "--state", state, "-o", "markdown"); err != nil {
		t.Fatalf("load command error = %v", err)
	}

	out, err := execute(t, "list", "--state", state, "--output", "json")
	if err != nil {
		t.Fatalf("list command error = %v", err)
	}
	var listed struct {
		Dialect    string `json:"dialect"`
		Partitions []struct {
			Name string `json:"name"`
		} `json:"partitions"`
	}
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatalf("list output is not JSON: %v\n%s", err, out)
	}
	if listed.Dialect != "nexus" || len(listed.Partitions) != 7 {
		t.Errorf("list = %s with %d partitions, want nexus with 7", listed.Dialect, len(listed.Partitions))
	}

	out, err = execute(t, "export", "--format", "raxml", "--state", state)
	if err != nil {
		t.Fatalf("export command error = %v", err)
	}
	want, err := os.ReadFile(filepath.Join(td, "partitions", "concatenated_small.part"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != strings.TrimSpace(string(want)) {
		t.Errorf("export output mismatch:\n%s", out)
	}
}

func TestInvalidOutputFlag(t *testing.T) {
	_, err := execute(t, "list", "--state", filepath.Join(t.TempDir(), "state.db"), "--output", "xml")
	if err == nil {
		t.Error("list with an unknown output mode should fail")
	}
}

func TestCompletionCommand(t *testing.T) {
	shells := []string{"bash", "zsh", "fish", "powershell"}

	for _, shell := range shells {
		t.Run(shell, func(t *testing.T) {
			out, err := execute(t, "completion", shell)
			if err != nil {
				t.Errorf("completion %s command error = %v", shell, err)
			}
			if out == "" {
				t.Errorf("completion %s produced no output", shell)
			}
		})
	}
}

func TestUnknownCommand(t *testing.T) {
	if _, err := execute(t, "unknown-command"); err == nil {
		t.Error("unknown command should return an error")
	}
}
