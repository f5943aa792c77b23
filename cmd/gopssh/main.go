// Command gopssh runs a remote command across many hosts in parallel,
// fanning out one ssh child per host under a bounded concurrency ceiling
// (spec §1-§2).
package main

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/edirooss/gopssh/internal/config"
	"github.com/edirooss/gopssh/internal/errs"
	"github.com/edirooss/gopssh/internal/host"
	"github.com/edirooss/gopssh/internal/hostsfile"
	"github.com/edirooss/gopssh/internal/signalfac"
	"github.com/edirooss/gopssh/internal/supervisor"
)

const (
	progName    = "gopssh"
	progVersion = "0.1.0"
)

// Exit codes (spec §6).
const (
	exitOK           = 0
	exitSomeFailed   = 1
	exitUsageOrParse = 2
	exitRuntimeFatal = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		return handleParseErr(err)
	}

	hosts, err := hostsfile.Read(cfg.File, os.Stdin)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsageOrParse
	}
	if len(hosts) == 0 {
		fmt.Fprintln(os.Stderr, "gopssh: no hosts specified")
		return exitUsageOrParse
	}

	table := host.NewTable(hosts)

	if cfg.Debug {
		table.DebugDump(os.Stderr)
	}

	if cfg.DryRun {
		supervisor.DryRunSummary(os.Stdout, table)
		return exitOK
	}

	log := newLogger(cfg.Debug)
	defer log.Sync()

	facility := signalfac.Install(table, os.Stderr)
	defer facility.Uninstall()

	seed, err := generateSeed()
	if err != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("%w: %s", errs.ErrSeedGen, err))
		return exitRuntimeFatal
	}

	sup, err := supervisor.New(cfg, table, log, seed, os.Stdout, os.Stdout.Fd())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitRuntimeFatal
	}

	exitCode, err := sup.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, errs.ErrArgvTooLong) || errors.Is(err, errs.ErrTrimFailure) {
			return exitUsageOrParse
		}
		return exitRuntimeFatal
	}
	return exitCode
}

// handleParseErr classifies a config.Parse failure into its exit code
// and, for help/version, the right stream and message.
func handleParseErr(err error) int {
	switch {
	case errors.Is(err, errs.ErrHelpRequested):
		printUsage(os.Stdout)
		return exitOK
	case errors.Is(err, errs.ErrVersionRequested):
		fmt.Fprintf(os.Stdout, "%s %s\n", progName, progVersion)
		return exitOK
	default:
		fmt.Fprintln(os.Stderr, err)
		printUsage(os.Stderr)
		return exitUsageOrParse
	}
}

func printUsage(w *os.File) {
	fmt.Fprintf(w, "usage: %s [options] [remote-command...]\n", progName)
	fmt.Fprintln(w, "run a remote command across many hosts in parallel over ssh")
	fmt.Fprintln(w, "see the flag table in the project documentation for the full option list")
}

// generateSeed produces the join-mode hash seed from a CSPRNG, matching
// the original tool's OsRng-seeded hash (see this repo's design notes on
// supplemented features).
func generateSeed() (uint64, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func newLogger(debug bool) *zap.Logger {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.TimeKey = ""
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.DisableStacktrace = true
	logConfig.DisableCaller = true
	logConfig.OutputPaths = []string{"stderr"}
	if !debug {
		logConfig.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	return zap.Must(logConfig.Build()).Named(progName)
}
