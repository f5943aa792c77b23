// Package sshcmd constructs the child argv (spec §6 "Constructed child
// argv"): a pure, I/O-free command builder, no different in spirit from
// the teacher's pkg/remuxcmd — a fluent Builder assembling argv in a
// fixed, documented order, with a defensive-copy BuildArgv(). Adapted
// from remuxcmd's "always emit numeric/bool, emit optional strings only
// when set" emission policy to ssh(1)'s own optional-flag conventions.
package sshcmd

import (
	"fmt"
	"strconv"

	"github.com/edirooss/gopssh/internal/errs"
)

// MaxArgvChars is the spec §6 cap on the constructed argv's total
// character count (sum of every token's length).
const MaxArgvChars = 256

// Options carries the subset of CLI flags that feed into the child
// command line (spec §6 table): identity, login, port, quiet, and the
// repeatable -o option, plus an --exec override replacing "ssh" itself.
type Options struct {
	Exec     string // defaults to "ssh" when empty
	Identity string
	Login    string
	Port     int // 0 = unset; otherwise already validated to 1..65535
	Quiet    bool
	SSHOpts  []string // each already formatted "k=v", in CLI order
}

// Builder assembles one child argv. Not concurrency-safe; single-use.
type Builder struct {
	args []string
}

// NewBuilder seeds a Builder with the executable name (opts.Exec, or
// "ssh" if unset).
func NewBuilder(exec string) *Builder {
	if exec == "" {
		exec = "ssh"
	}
	return &Builder{args: []string{exec}}
}

// WithIdentity appends "-i path" if path is non-empty.
func (b *Builder) WithIdentity(path string) *Builder {
	if path != "" {
		b.args = append(b.args, "-i", path)
	}
	return b
}

// WithLogin appends "-l user" if user is non-empty.
func (b *Builder) WithLogin(user string) *Builder {
	if user != "" {
		b.args = append(b.args, "-l", user)
	}
	return b
}

// WithPort appends "-p port" if port is non-zero.
func (b *Builder) WithPort(port int) *Builder {
	if port != 0 {
		b.args = append(b.args, "-p", strconv.Itoa(port))
	}
	return b
}

// WithQuiet appends "-q" if quiet is set.
func (b *Builder) WithQuiet(quiet bool) *Builder {
	if quiet {
		b.args = append(b.args, "-q")
	}
	return b
}

// WithSSHOpts appends "-o k=v" for every entry, in order.
func (b *Builder) WithSSHOpts(opts []string) *Builder {
	for _, o := range opts {
		b.args = append(b.args, "-o", o)
	}
	return b
}

// WithHost appends the target host, unconditionally.
func (b *Builder) WithHost(host string) *Builder {
	b.args = append(b.args, host)
	return b
}

// WithRemoteCommand appends the remote command words, in order.
func (b *Builder) WithRemoteCommand(words []string) *Builder {
	b.args = append(b.args, words...)
	return b
}

// BuildArgv returns a defensive copy of the constructed argv.
func (b *Builder) BuildArgv() []string {
	out := make([]string, len(b.args))
	copy(out, b.args)
	return out
}

// charCount sums the length of every argv token (spec §6's "total argv
// character count").
func charCount(argv []string) int {
	n := 0
	for _, a := range argv {
		n += len(a)
	}
	return n
}

// Build constructs the full child argv for one host: ssh [-i ident]
// [-l login] [-p port] [-q] [-o opt]* HOST remote-command…, in that
// fixed order, and enforces the MaxArgvChars cap.
func Build(opts Options, host string, remoteCommand []string) ([]string, error) {
	argv := NewBuilder(opts.Exec).
		WithIdentity(opts.Identity).
		WithLogin(opts.Login).
		WithPort(opts.Port).
		WithQuiet(opts.Quiet).
		WithSSHOpts(opts.SSHOpts).
		WithHost(host).
		WithRemoteCommand(remoteCommand).
		BuildArgv()

	if charCount(argv) >= MaxArgvChars {
		return nil, fmt.Errorf("%w: host %s: %d chars, limit %d", errs.ErrArgvTooLong, host, charCount(argv), MaxArgvChars)
	}
	return argv, nil
}
