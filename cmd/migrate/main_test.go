package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDatabasePathFromEnv(t *testing.T) {
	t.Setenv("DATABASE_PATH", "/tmp/elsewhere.db")
	flag := newRootCmd().PersistentFlags().Lookup("db")
	if flag == nil {
		t.Fatal("db flag not registered")
	}
	if flag.DefValue != "/tmp/elsewhere.db" {
		t.Errorf("db default = %q, want /tmp/elsewhere.db", flag.DefValue)
	}
}

func TestUpThenVersion(t *testing.T) {
	db := filepath.Join(t.TempDir(), "nested", "readlater.db")

	if _, err := execute(t, "--db", db, "up"); err != nil {
		t.Fatalf("up: %v", err)
	}
	out, err := execute(t, "--db", db, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if got := strings.TrimSpace(out); got != "2" {
		t.Errorf("version = %q, want 2", got)
	}

	if _, err := execute(t, "--db", db, "down"); err != nil {
		t.Fatalf("down: %v", err)
	}
	out, err = execute(t, "--db", db, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if got := strings.TrimSpace(out); got != "1" {
		t.Errorf("version after down = %q, want 1", got)
	}
}

func TestResetNeedsConfirmation(t *testing.T) {
	db := filepath.Join(t.TempDir(), "readlater.db")
	if _, err := execute(t, "--db", db, "up"); err != nil {
		t.Fatalf("up: %v", err)
	}

	_, err := execute(t, "--db", db, "reset")
	if err == nil || !strings.Contains(err.Error(), "--yes") {
		t.Fatalf("reset without --yes: err = %v", err)
	}

	if _, err := execute(t, "--db", db, "reset", "--yes"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	out, err := execute(t, "--db", db, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if got := strings.TrimSpace(out); got != "0" {
		t.Errorf("version after reset = %q, want 0", got)
	}
}
