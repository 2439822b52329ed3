package main

import (
	"errors"
	"flag"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

const validFixture = `{
  "classes": [{"name": "Main"}],
  "methods": [
    {
      "class": "Main", "name": "main", "static": true,
      "vars": [{"name": "x", "type": "int"}, {"name": "z", "type": "int"}],
      "returns": ["z"],
      "body": [
        {"op": "assign", "lhs": "x", "rhs": {"kind": "int", "value": 5}},
        {"op": "assign", "lhs": "z", "rhs": {"kind": "int", "value": 1}},
        {"op": "return", "var": "z"}
      ]
    }
  ],
  "entryPoints": ["Main."]
}`

func TestRun_NoInputReturnsFailure(t *testing.T) {
	t.Parallel()

	code := runInSubprocess(t, "no-input", "")
	if code != exitFailure {
		t.Fatalf("unexpected exit code: got %d want %d", code, exitFailure)
	}
}

func TestRun_ValidFixtureReturnsSuccess(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "program.json")
	if err := os.WriteFile(path, []byte(validFixture), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	code := runInSubprocess(t, "valid-fixture", path)
	if code != exitSuccess {
		t.Fatalf("unexpected exit code: got %d want %d", code, exitSuccess)
	}
}

func TestRun_MissingFixtureFileReturnsFailure(t *testing.T) {
	t.Parallel()

	code := runInSubprocess(t, "valid-fixture", filepath.Join(t.TempDir(), "does-not-exist.json"))
	if code != exitFailure {
		t.Fatalf("unexpected exit code: got %d want %d", code, exitFailure)
	}
}

func runInSubprocess(t *testing.T, scenario, input string) int {
	t.Helper()

	executable, err := os.Executable()
	if err != nil {
		t.Fatalf("failed to resolve test executable: %v", err)
	}

	cmd := exec.Command(executable, "-test.run=^TestRunHelperProcess$")
	cmd.Env = append(os.Environ(),
		"LATTICEFLOW_RUN_HELPER=1",
		"LATTICEFLOW_RUN_SCENARIO="+scenario,
		"LATTICEFLOW_RUN_INPUT="+input,
	)

	err = cmd.Run()
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("failed to run helper process: %v", err)
	}
	return exitErr.ExitCode()
}

func TestRunHelperProcess(t *testing.T) {
	_ = t

	if os.Getenv("LATTICEFLOW_RUN_HELPER") != "1" {
		return
	}

	scenario := os.Getenv("LATTICEFLOW_RUN_SCENARIO")

	flag.CommandLine = flag.NewFlagSet("latticeflow-helper", flag.ContinueOnError)
	os.Args = []string{"latticeflow"}

	*flagInput = ""
	*flagKCFALimit = 1
	*flagObjSensDep = 1
	*flagTaintConfig = ""
	*flagColor = false
	*flagOutput = ""

	if scenario == "valid-fixture" {
		*flagInput = os.Getenv("LATTICEFLOW_RUN_INPUT")
	}

	os.Exit(run())
}
