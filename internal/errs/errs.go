// Package errs defines the error taxonomy shared across the supervisor
// core. Each sentinel corresponds to one of the error kinds in the
// program's design: callers wrap a sentinel with fmt.Errorf("...: %w", ...)
// so the taxonomy survives context-enrichment and classification at the
// top of main() stays a set of errors.Is checks instead of string matching.
package errs

import "errors"

// Parse-kind errors (spec §7): surfaced before any child is launched, exit 2
// (0 for help/version).
var (
	ErrUnknownOption     = errors.New("unknown option")
	ErrMissingArgument   = errors.New("missing argument")
	ErrMutuallyExclusive = errors.New("mutually exclusive flags")
	ErrIntegerOutOfRange = errors.New("integer out of range")
	ErrInvalidColor      = errors.New("invalid color mode")
	ErrHelpRequested     = errors.New("help requested")
	ErrVersionRequested  = errors.New("version requested")
	ErrHostsFileIO       = errors.New("hosts file i/o error")
	ErrHostFileFormat    = errors.New("hosts file format error")
	ErrHostnameTooLong   = errors.New("hostname too long")
	ErrNonUTF8Byte       = errors.New("non-utf8 byte in input")
	ErrNoHosts           = errors.New("no hosts specified")
)

// Runtime-fatal errors (spec §7): reported to stderr with syscall/fd
// context, exit 3.
var (
	ErrPipeCreation = errors.New("pipe creation failed")
	ErrMonitorFd    = errors.New("watcher fd operation failed")
	ErrCloneProcess = errors.New("process spawn failed")
	ErrClosePipe    = errors.New("pipe close failed")
	ErrReadFd       = errors.New("fd read failed")
	ErrChildWait    = errors.New("child wait failed")
	ErrSeedGen      = errors.New("join-mode hash seed generation failed")
)

// Runtime recoverable-at-user errors (spec §7): exit 2, but only
// discovered once the full host/command set is known.
var (
	ErrArgvTooLong = errors.New("constructed command line too long")
	ErrTrimFailure = errors.New("hostname trim produced empty display name")
)
