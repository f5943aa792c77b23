// Package watcher wraps the OS readiness multiplexer (spec §4.2): level-
// triggered readable events over a set of file descriptors, with Add,
// Remove, and a blocking-with-timeout Wait. The concrete mechanism is
// selected at build time — epoll on Linux (watcher_epoll.go), kqueue on
// BSD-like systems including Darwin (watcher_kqueue.go) — behind this one
// interface, matching spec §4.2's "the public contract does not vary".
//
// Grounded in style on the retrieval pack's gaio watcher (a proactor-style
// netpoll abstraction in _examples/other_examples) and on golang.org/x/sys/
// unix, the low-level syscall package several pack repos already depend on.
package watcher

import (
	"fmt"

	"github.com/edirooss/gopssh/internal/errs"
)

// Timeout passed to Wait meaning "block indefinitely" — the supervisor's
// only use (spec §4.2 "timeout=∞ is supported and used by the core").
const WaitIndefinitely = -1

// Watcher is the readiness multiplexer contract.
type Watcher interface {
	// Add registers fd for level-triggered readable events. Adding an
	// fd already present is an error.
	Add(fd int) error
	// Remove deregisters fd. Removing an absent fd is an error.
	Remove(fd int) error
	// Wait blocks up to timeoutMS (WaitIndefinitely to block forever)
	// and fills out with ready fds, returning how many were written.
	// out must have enough capacity for every fd that could be ready
	// at once (the caller sizes it to the concurrency ceiling).
	Wait(out []int, timeoutMS int) (n int, err error)
	// Close releases the underlying kernel object.
	Close() error
}

func fdOpError(op string, fd int, err error) error {
	return fmt.Errorf("%w: %s(fd=%d): %s", errs.ErrMonitorFd, op, fd, err)
}
