// Package pipeio implements the pipe factory (spec §4.1): anonymous
// unidirectional pipes with a non-blocking read end and close-on-exec set
// on both ends, so re-invoking the launcher for the next host never leaks
// fds into a freshly spawned child.
//
// Grounded on golang.org/x/sys/unix, the same package the rest of the
// retrieval pack (canonical-lxd, aledbf-qemubox) reaches for whenever it
// needs raw syscall access the standard library doesn't expose directly
// (here, Pipe2 with O_CLOEXEC, plus SetNonblock on the read end).
package pipeio

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/edirooss/gopssh/internal/errs"
)

// Pipe is one anonymous pipe: ReadFD is non-blocking, both ends are
// close-on-exec.
type Pipe struct {
	ReadFD  int
	WriteFD int
}

// New creates one pipe. Fails with errs.ErrPipeCreation when the OS
// refuses (out of fds, etc).
func New() (Pipe, error) {
	var fds [2]int
	// O_CLOEXEC on both ends prevents an fd opened for host N from
	// leaking into the child spawned for host N+1. O_NONBLOCK is set on
	// the read end only, below, matching spec §4.1's "read end is
	// non-blocking" (the write end stays blocking, but the parent only
	// ever closes it, never writes to it).
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC); err != nil {
		return Pipe{}, fmt.Errorf("%w: pipe2: %s", errs.ErrPipeCreation, err)
	}

	if err := unix.SetNonblock(fds[0], true); err != nil {
		unix.Close(fds[0])
		unix.Close(fds[1])
		return Pipe{}, fmt.Errorf("%w: set nonblock on read end: %s", errs.ErrPipeCreation, err)
	}

	return Pipe{ReadFD: fds[0], WriteFD: fds[1]}, nil
}

// CloseWrite closes the write end, wrapping a failure in
// errs.ErrClosePipe. The read end sees EOF only once every copy of the
// write end is closed (spec §4.3 step 3).
func (p Pipe) CloseWrite() error {
	if err := unix.Close(p.WriteFD); err != nil {
		return fmt.Errorf("%w: close write end: %s", errs.ErrClosePipe, err)
	}
	return nil
}

// CloseRead closes the read end.
func (p Pipe) CloseRead() error {
	return unix.Close(p.ReadFD)
}
