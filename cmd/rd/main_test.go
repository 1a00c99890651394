package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCmd(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "rd dev") {
		t.Errorf("expected output to contain 'rd dev', got: %s", out)
	}
	if !strings.Contains(out, "commit: none") {
		t.Errorf("expected output to contain 'commit: none', got: %s", out)
	}
}

func TestVersionCmdWithCustomValues(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, Date
	Version, Commit, Date = "1.0.0", "abc123", "2026-01-01"
	defer func() { Version, Commit, Date = origVersion, origCommit, origDate }()

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "rd 1.0.0") {
		t.Errorf("expected output to contain 'rd 1.0.0', got: %s", out)
	}
	if !strings.Contains(out, "built: 2026-01-01") {
		t.Errorf("expected output to contain 'built: 2026-01-01', got: %s", out)
	}
}

func TestRootCmdHelp(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("help command failed: %v", err)
	}

	out := buf.String()
	for _, sub := range []string{"asset", "health", "report", "dashboard", "db", "labor"} {
		if !strings.Contains(out, sub) {
			t.Errorf("expected help output to list %q, got: %s", sub, out)
		}
	}
}

func TestSubcommandHelp(t *testing.T) {
	tests := []struct {
		args []string
		want []string
	}{
		{[]string{"asset", "--help"}, []string{"create", "relate", "sync-releases"}},
		{[]string{"health", "--help"}, []string{"show", "history", "schedule"}},
		{[]string{"report", "--help"}, []string{"person", "engineer"}},
		{[]string{"db", "--help"}, []string{"init", "migrate", "reset"}},
		{[]string{"dashboard", "--help"}, []string{"--port", "--config"}},
		{[]string{"report", "person", "--help"}, []string{"--name", "--start", "--end", "--json"}},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			cmd := newRootCmd()
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)
			cmd.SetArgs(tt.args)
			if err := cmd.Execute(); err != nil {
				t.Fatalf("Execute: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Errorf("help missing %q:\n%s", w, buf.String())
				}
			}
		})
	}
}

func TestMissingConfig(t *testing.T) {
	for _, args := range [][]string{
		{"asset", "list"},
		{"dashboard"},
		{"health", "dashboard"},
		{"db", "reset", "--yes"},
	} {
		cmd := newRootCmd()
		buf := new(bytes.Buffer)
		cmd.SetOut(buf)
		cmd.SetErr(buf)
		cmd.SetArgs(append(args, "--config", "/nonexistent/rdtrack.yaml"))

		err := cmd.Execute()
		if err == nil {
			t.Fatalf("%v: expected error for missing config file", args)
		}
		if !strings.Contains(err.Error(), "load config") {
			t.Errorf("%v: error = %q, want to contain %q", args, err.Error(), "load config")
		}
	}
}

func TestDashboardCmd_DefaultPort(t *testing.T) {
	cmd := newDashboardCmd()
	flag := cmd.Flags().Lookup("port")
	if flag == nil {
		t.Fatal("expected --port flag")
	}
	if flag.DefValue != "0" {
		t.Errorf("port default = %q, want 0 (from config)", flag.DefValue)
	}
	if flag.Shorthand != "p" {
		t.Errorf("port shorthand = %q, want p", flag.Shorthand)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a longer title here", 10, "a longe..."},
		{"abcdef", 3, "abc"},
		{"héllo wörld", 8, "héllo..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestOrDash(t *testing.T) {
	if orDash("") != "-" {
		t.Error("orDash(\"\") should be -")
	}
	if orDash("x") != "x" {
		t.Error("orDash(\"x\") should be x")
	}
}
