package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testCatalog = `
objects:
  - kind: group
    name: pilot
    group:
      description: phase one devices
  - kind: package
    name: definitions
    package:
      share_path: \\fileserver\updates\definitions
  - kind: rule
    name: weekly-definitions
    rule:
      deploy: true
      phases:
        - target_group: pilot
`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestValidateCommand(t *testing.T) {
	catalog := writeCatalog(t, testCatalog)

	out, err := execute(t, "validate", "--catalog", catalog)
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "1 groups, 1 packages, 1 rules") {
		t.Errorf("output = %q", out)
	}
}

func TestValidateCommand_BadCatalog(t *testing.T) {
	catalog := writeCatalog(t, `
objects:
  - kind: rule
    name: r1
    rule:
      phases:
        - target_group: nowhere
`)
	if _, err := execute(t, "validate", "--catalog", catalog); err == nil {
		t.Fatal("validate accepted a rule phase targeting an unknown group")
	}
}

func TestInstallStandalone(t *testing.T) {
	catalog := writeCatalog(t, testCatalog)
	t.Setenv("PATCHWAVE_STATE_DB", filepath.Join(t.TempDir(), "state.db"))

	out, err := execute(t, "install", "--catalog", catalog, "--standalone")
	if err != nil {
		t.Fatalf("install: %v\n%s", err, out)
	}
	if !strings.Contains(out, "created 3") {
		t.Errorf("output does not report 3 created objects:\n%s", out)
	}

	out, err = execute(t, "install", "--catalog", catalog, "--standalone")
	if err != nil {
		t.Fatalf("second install: %v\n%s", err, out)
	}
	if !strings.Contains(out, "already present 3") {
		t.Errorf("second install is not idempotent:\n%s", out)
	}

	out, err = execute(t, "runs", "--standalone")
	if err != nil {
		t.Fatalf("runs: %v\n%s", err, out)
	}
	if !strings.Contains(out, "install") {
		t.Errorf("runs output missing install record:\n%s", out)
	}
}
