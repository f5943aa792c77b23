// Package config parses and validates the CLI surface (spec §6): flags,
// then a free-form remote command. Grounded on original_source's
// Config::new (the option loop, its validation order, and its
// help/version/unknown-option precedence) but built with Go's standard
// flag package rather than a hand-rolled argv loop — the ambient-stack
// choice recorded in the configuration section of this repo's expanded
// specification, registering both the short and long name of every flag
// against the same backing variable.
package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/edirooss/gopssh/internal/errs"
	"github.com/edirooss/gopssh/internal/host"
)

const (
	defaultMaxJobs         = 50
	defaultMaxLineLength   = 1024
	defaultMaxOutputLength = 8192
	minPort                = 1
	maxPort                = 65535
)

// Config is the fully parsed and validated CLI configuration.
type Config struct {
	Anonymous    bool
	Color        string // "on", "off", or "auto" as given; resolved into ColorEnabled
	ColorEnabled bool
	Debug        bool
	ExitCodes    bool
	File         string
	Group        bool
	Help         bool
	Identity     string
	Join         bool
	Login        string
	MaxJobs      int
	DryRun       bool
	SSHOpts      []string
	Port         int
	Quiet        bool
	Silent       bool
	Trim         bool
	Version      bool
	Exec         string

	MaxLineLength   int
	MaxOutputLength int

	RemoteCommand []string
	Mode          host.OutputMode
}

// stringList is a flag.Value appending every occurrence to a shared slice,
// used for the repeatable -o/--option flag.
type stringList struct{ vals *[]string }

func (s stringList) String() string {
	if s.vals == nil {
		return ""
	}
	return strings.Join(*s.vals, ",")
}

func (s stringList) Set(v string) error {
	*s.vals = append(*s.vals, v)
	return nil
}

// Parse parses argv (excluding the program name, i.e. os.Args[1:]) into a
// validated Config. Any failure is classified per spec §7's parse-kind
// taxonomy and wrapped with one of the errs.Err* sentinels.
func Parse(argv []string) (*Config, error) {
	cfg := &Config{Color: "auto", File: "-", MaxJobs: defaultMaxJobs,
		MaxLineLength: defaultMaxLineLength, MaxOutputLength: defaultMaxOutputLength}

	fs := flag.NewFlagSet("gopssh", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}

	reg := func(short, long string, dst *bool) {
		fs.BoolVar(dst, short, false, "")
		fs.BoolVar(dst, long, false, "")
	}
	reg("a", "anonymous", &cfg.Anonymous)
	reg("d", "debug", &cfg.Debug)
	reg("e", "exit-codes", &cfg.ExitCodes)
	reg("g", "group", &cfg.Group)
	reg("h", "help", &cfg.Help)
	reg("j", "join", &cfg.Join)
	reg("n", "dry-run", &cfg.DryRun)
	reg("q", "quiet", &cfg.Quiet)
	reg("s", "silent", &cfg.Silent)
	reg("t", "trim", &cfg.Trim)
	reg("v", "version", &cfg.Version)

	regStr := func(short, long, def string, dst *string) {
		fs.StringVar(dst, short, def, "")
		fs.StringVar(dst, long, def, "")
	}
	regStr("c", "color", cfg.Color, &cfg.Color)
	regStr("f", "file", cfg.File, &cfg.File)
	regStr("i", "identity", "", &cfg.Identity)
	regStr("l", "login", "", &cfg.Login)
	regStr("x", "exec", "", &cfg.Exec)

	regInt := func(short, long string, def int, dst *int) {
		fs.IntVar(dst, short, def, "")
		fs.IntVar(dst, long, def, "")
	}
	regInt("m", "max-jobs", cfg.MaxJobs, &cfg.MaxJobs)
	regInt("p", "port", 0, &cfg.Port)
	fs.IntVar(&cfg.MaxLineLength, "max-line-length", cfg.MaxLineLength, "")
	fs.IntVar(&cfg.MaxOutputLength, "max-output-length", cfg.MaxOutputLength, "")

	opts := stringList{&cfg.SSHOpts}
	fs.Var(opts, "o", "")
	fs.Var(opts, "option", "")

	if err := fs.Parse(argv); err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrUnknownOption, err)
	}
	cfg.RemoteCommand = fs.Args()

	// Version and help both short-circuit before any other validation;
	// version takes priority, matching original_source's inline early
	// return for -v versus the end-of-parse help check.
	if cfg.Version {
		return cfg, errs.ErrVersionRequested
	}
	if cfg.Help {
		return cfg, errs.ErrHelpRequested
	}

	if len(cfg.RemoteCommand) == 0 && cfg.Exec == "" {
		return nil, fmt.Errorf("%w: remote command required unless -x/--exec is given", errs.ErrMissingArgument)
	}

	if err := validateExclusive(cfg); err != nil {
		return nil, err
	}
	if cfg.MaxJobs <= 0 {
		return nil, fmt.Errorf("%w: --max-jobs must be > 0, got %d", errs.ErrIntegerOutOfRange, cfg.MaxJobs)
	}
	if cfg.MaxLineLength <= 0 {
		return nil, fmt.Errorf("%w: --max-line-length must be > 0, got %d", errs.ErrIntegerOutOfRange, cfg.MaxLineLength)
	}
	if cfg.MaxOutputLength <= 0 {
		return nil, fmt.Errorf("%w: --max-output-length must be > 0, got %d", errs.ErrIntegerOutOfRange, cfg.MaxOutputLength)
	}
	if cfg.Port != 0 && (cfg.Port < minPort || cfg.Port > maxPort) {
		return nil, fmt.Errorf("%w: --port must be 1..65535, got %d", errs.ErrIntegerOutOfRange, cfg.Port)
	}
	switch cfg.Color {
	case "on", "off", "auto":
	default:
		return nil, fmt.Errorf("%w: %q", errs.ErrInvalidColor, cfg.Color)
	}

	cfg.Mode = host.ModeLine
	if cfg.Join {
		cfg.Mode = host.ModeJoin
	} else if cfg.Group {
		cfg.Mode = host.ModeGroup
	}

	cfg.ColorEnabled = resolveColor(cfg.Color)

	return cfg, nil
}

func validateExclusive(cfg *Config) error {
	if cfg.Group && cfg.Join {
		return fmt.Errorf("%w: --group and --join", errs.ErrMutuallyExclusive)
	}
	if cfg.Anonymous && cfg.Join {
		return fmt.Errorf("%w: --anonymous and --join", errs.ErrMutuallyExclusive)
	}
	if cfg.Join && cfg.Silent {
		return fmt.Errorf("%w: --join and --silent", errs.ErrMutuallyExclusive)
	}
	return nil
}

// resolveColor turns the "on"/"off"/"auto" flag value into a concrete
// decision, checking the real stdout fd for "auto" (spec §6 "auto = on
// when stdout is a TTY").
func resolveColor(mode string) bool {
	switch mode {
	case "on":
		return true
	case "off":
		return false
	default: // "auto"
		fd := os.Stdout.Fd()
		return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
}
