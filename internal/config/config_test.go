package config

import (
	"errors"
	"testing"

	"github.com/edirooss/gopssh/internal/errs"
	"github.com/edirooss/gopssh/internal/host"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]string{"uptime"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.MaxJobs != defaultMaxJobs || cfg.MaxLineLength != defaultMaxLineLength || cfg.MaxOutputLength != defaultMaxOutputLength {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.Mode != host.ModeLine {
		t.Fatalf("default mode = %v, want ModeLine", cfg.Mode)
	}
	if len(cfg.RemoteCommand) != 1 || cfg.RemoteCommand[0] != "uptime" {
		t.Fatalf("RemoteCommand = %v", cfg.RemoteCommand)
	}
}

func TestParseJoinModeSetsFlag(t *testing.T) {
	cfg, err := Parse([]string{"-j", "echo", "hi"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Mode != host.ModeJoin {
		t.Fatalf("mode = %v, want ModeJoin", cfg.Mode)
	}
	if len(cfg.RemoteCommand) != 2 {
		t.Fatalf("RemoteCommand = %v", cfg.RemoteCommand)
	}
}

func TestParseRepeatableOption(t *testing.T) {
	cfg, err := Parse([]string{"-o", "StrictHostKeyChecking=no", "--option", "BatchMode=yes", "ls"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := []string{"StrictHostKeyChecking=no", "BatchMode=yes"}
	if len(cfg.SSHOpts) != 2 || cfg.SSHOpts[0] != want[0] || cfg.SSHOpts[1] != want[1] {
		t.Fatalf("SSHOpts = %v, want %v", cfg.SSHOpts, want)
	}
}

func TestParseMutuallyExclusiveGroupJoin(t *testing.T) {
	_, err := Parse([]string{"-g", "-j", "ls"})
	if !errors.Is(err, errs.ErrMutuallyExclusive) {
		t.Fatalf("error = %v, want ErrMutuallyExclusive", err)
	}
}

func TestParseMutuallyExclusiveAnonJoin(t *testing.T) {
	_, err := Parse([]string{"-a", "-j", "ls"})
	if !errors.Is(err, errs.ErrMutuallyExclusive) {
		t.Fatalf("error = %v, want ErrMutuallyExclusive", err)
	}
}

func TestParseMutuallyExclusiveJoinSilent(t *testing.T) {
	_, err := Parse([]string{"-j", "-s", "ls"})
	if !errors.Is(err, errs.ErrMutuallyExclusive) {
		t.Fatalf("error = %v, want ErrMutuallyExclusive", err)
	}
}

func TestParseInvalidColor(t *testing.T) {
	_, err := Parse([]string{"-c", "purple", "ls"})
	if !errors.Is(err, errs.ErrInvalidColor) {
		t.Fatalf("error = %v, want ErrInvalidColor", err)
	}
}

func TestParsePortOutOfRange(t *testing.T) {
	_, err := Parse([]string{"-p", "70000", "ls"})
	if !errors.Is(err, errs.ErrIntegerOutOfRange) {
		t.Fatalf("error = %v, want ErrIntegerOutOfRange", err)
	}
}

func TestParseMaxJobsZero(t *testing.T) {
	_, err := Parse([]string{"-m", "0", "ls"})
	if !errors.Is(err, errs.ErrIntegerOutOfRange) {
		t.Fatalf("error = %v, want ErrIntegerOutOfRange", err)
	}
}

func TestParseHelpShortCircuits(t *testing.T) {
	_, err := Parse([]string{"-h"})
	if !errors.Is(err, errs.ErrHelpRequested) {
		t.Fatalf("error = %v, want ErrHelpRequested", err)
	}
}

func TestParseVersionTakesPriorityOverHelp(t *testing.T) {
	_, err := Parse([]string{"-v", "-h"})
	if !errors.Is(err, errs.ErrVersionRequested) {
		t.Fatalf("error = %v, want ErrVersionRequested", err)
	}
}

func TestParseUnknownOption(t *testing.T) {
	_, err := Parse([]string{"--bogus"})
	if !errors.Is(err, errs.ErrUnknownOption) {
		t.Fatalf("error = %v, want ErrUnknownOption", err)
	}
}

func TestParseEmptyRemoteCommandWithoutExecErrors(t *testing.T) {
	_, err := Parse([]string{"-f", "hosts"})
	if !errors.Is(err, errs.ErrMissingArgument) {
		t.Fatalf("error = %v, want ErrMissingArgument", err)
	}
}

func TestParseEmptyRemoteCommandWithExecSucceeds(t *testing.T) {
	cfg, err := Parse([]string{"-x", "uptime"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(cfg.RemoteCommand) != 0 {
		t.Fatalf("RemoteCommand = %v, want empty", cfg.RemoteCommand)
	}
	if cfg.Exec != "uptime" {
		t.Fatalf("Exec = %q", cfg.Exec)
	}
}

func TestParseLongAndShortShareBackingVar(t *testing.T) {
	cfg, err := Parse([]string{"--identity", "/k", "ls"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Identity != "/k" {
		t.Fatalf("Identity = %q", cfg.Identity)
	}
}
