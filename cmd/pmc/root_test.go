package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func executeCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd("test")
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd("1.2.3")
	if cmd.Use != "pmc" {
		t.Fatalf("Use 不符合预期：%q", cmd.Use)
	}
	if cmd.Version != "1.2.3" {
		t.Fatalf("Version 不符合预期：%q", cmd.Version)
	}
	for _, name := range []string{"run", "providers"} {
		if sub, _, err := cmd.Find([]string{name}); err != nil || sub.Name() != name {
			t.Fatalf("缺少子命令 %q：%v", name, err)
		}
	}
}

func TestRunCmdHasFlags(t *testing.T) {
	cmd := newRunCmd()
	for _, name := range []string{"config", "provider", "api-key", "log-level", "dry-run", "json", "no-progress"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Fatalf("缺少 flag %q", name)
		}
	}
}

func TestProvidersCmd_ListsBuiltin(t *testing.T) {
	stdout, _, err := executeCLI(t, "providers")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	got := strings.Fields(stdout)
	want := []string{"google", "nominatim", "photon"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("provider 列表不符合预期：%v", got)
	}
}
