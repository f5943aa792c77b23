// Package host holds the supervisor's data model: the host record, its
// child descriptor, and the host table shared between the supervisor
// goroutine and the signal facility.
//
// Ownership follows the teacher's processmgr package: the supervisor is
// the sole mutator of the table (grounded on processmgr.ProcessManager's
// mu-guarded processes map), while a second reader — here, the SIGUSR1
// snapshot handler rather than an HTTP handler — only ever reads already
// set-once-then-monotonic fields. Unlike the Rust original this spec was
// distilled from (_examples/original_source), Go delivers signals to an
// ordinary goroutine rather than interrupting the supervisor's own stack,
// so the scalar fields the handler touches (PID, State, Display) are
// guarded by a table-wide RWMutex instead of relying on signal-handler
// non-preemption. FD slots, the output buffer, and timestamps are never
// read by the handler and need no lock.
package host

import "fmt"

// State is the monotonic lifecycle of a child descriptor: Ready -> Running -> Done.
type State int32

const (
	Ready State = iota
	Running
	Done
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// OutputMode selects one of the three output disciplines (spec §4.4).
type OutputMode int

const (
	ModeLine OutputMode = iota
	ModeGroup
	ModeJoin
)

// ClosedFD is the sentinel value for a child descriptor's fd slots: unset
// (never opened, because the current OutputMode doesn't use that slot) or
// closed (EOF already observed and the fd has been closed). A slot is
// live whenever its value is >= 0.
const ClosedFD = -1

// UnsetPID/ReapedPID bound the pid lifecycle: unset before Launch, the
// real OS pid while Running, ReapedPID once Wait() has reaped the child.
const (
	UnsetPID  = 0
	ReapedPID = -1
)

// Child is the per-host child descriptor (spec §3).
type Child struct {
	PID      int
	State    State
	StdoutFD int
	StderrFD int
	StdioFD  int

	// OutputBuffer accumulates sanitized output in join mode only; it is
	// empty in line/group mode.
	OutputBuffer []byte

	ExitCode int

	StartedMS  int64
	FinishedMS int64

	// GroupIndex mirrors the spec's "output_index": -1 until the join-mode
	// finalization pass assigns this host to a hash equivalence class.
	GroupIndex int
}

func newChild() Child {
	return Child{
		StdoutFD:   ClosedFD,
		StderrFD:   ClosedFD,
		StdioFD:    ClosedFD,
		GroupIndex: -1,
	}
}

// AllFDsClosed reports whether every fd slot this mode uses is closed.
func (c *Child) AllFDsClosed(mode OutputMode) bool {
	if mode == ModeJoin {
		return c.StdioFD == ClosedFD
	}
	return c.StdoutFD == ClosedFD && c.StderrFD == ClosedFD
}

// HasOpenFD reports whether the host has at least one live fd.
func (c *Child) HasOpenFD(mode OutputMode) bool {
	return !c.AllFDsClosed(mode)
}

// Host binds a hostname to its lifecycle state (spec §3).
type Host struct {
	// Hostname is the identity; it never changes after construction.
	Hostname string
	// Display is the name rendered to the operator. Equal to Hostname
	// unless --trim shortened it to the first dot-separated label.
	Display string

	Child Child
}

func newHost(hostname string) *Host {
	return &Host{Hostname: hostname, Display: hostname, Child: newChild()}
}

// Snapshot is a point-in-time, lock-free copy of one host's handler-visible
// fields, returned by Table.Snapshot for the SIGUSR1 progress printer.
type Snapshot struct {
	Hostname string
	Display  string
	PID      int
	State    State
}

// String renders the snapshot the way the signal facility prints a single
// running entry ("--> pid %d %s" in the original tool).
func (s Snapshot) String() string {
	return fmt.Sprintf("pid %d %s", s.PID, s.Display)
}
