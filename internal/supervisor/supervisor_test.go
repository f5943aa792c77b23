package supervisor

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/edirooss/gopssh/internal/config"
	"github.com/edirooss/gopssh/internal/host"
)

func TestRunJoinModeAllSucceed(t *testing.T) {
	cfg := &config.Config{
		Exec:            "/bin/echo",
		Mode:            host.ModeJoin,
		MaxJobs:         2,
		MaxLineLength:   1024,
		MaxOutputLength: 8192,
		RemoteCommand:   []string{"hello"},
	}
	table := host.NewTable([]string{"h1", "h2", "h3"})
	var out bytes.Buffer

	sup, err := New(cfg, table, zap.NewNop(), 42, &out, 0)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	exitCode, err := sup.Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if exitCode != 0 {
		t.Fatalf("exitCode = %d, want 0", exitCode)
	}

	for i := 0; i < table.Len(); i++ {
		h := table.At(i)
		if h.Child.State != host.Done {
			t.Fatalf("host %s state = %v, want Done", h.Hostname, h.Child.State)
		}
		if h.Child.StdioFD != host.ClosedFD {
			t.Fatalf("host %s StdioFD not closed: %d", h.Hostname, h.Child.StdioFD)
		}
	}

	s := out.String()
	if !strings.Contains(s, "3 unique result(s) among 3 host(s)") {
		t.Fatalf("output = %q, want 3 distinct groups", s)
	}
}

func TestRunLineModeCapturesOutput(t *testing.T) {
	cfg := &config.Config{
		Exec:            "/bin/echo",
		Mode:            host.ModeLine,
		MaxJobs:         4,
		MaxLineLength:   1024,
		MaxOutputLength: 8192,
		RemoteCommand:   []string{"line-test"},
	}
	table := host.NewTable([]string{"alpha", "beta"})
	var out bytes.Buffer

	sup, err := New(cfg, table, zap.NewNop(), 7, &out, 0)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	exitCode, err := sup.Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if exitCode != 0 {
		t.Fatalf("exitCode = %d, want 0", exitCode)
	}

	s := out.String()
	if !strings.Contains(s, "[alpha] alpha line-test") {
		t.Fatalf("output = %q, missing alpha line", s)
	}
	if !strings.Contains(s, "[beta] beta line-test") {
		t.Fatalf("output = %q, missing beta line", s)
	}
}

func TestRunNonZeroExitReflectedInExitCode(t *testing.T) {
	cfg := &config.Config{
		Exec:            "/bin/false",
		Mode:            host.ModeJoin,
		MaxJobs:         2,
		MaxLineLength:   1024,
		MaxOutputLength: 8192,
	}
	table := host.NewTable([]string{"h1"})
	var out bytes.Buffer

	sup, err := New(cfg, table, zap.NewNop(), 1, &out, 0)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	exitCode, err := sup.Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if exitCode != 1 {
		t.Fatalf("exitCode = %d, want 1", exitCode)
	}
}
