package host

import (
	"fmt"
	"io"
	"sync"

	"github.com/davecgh/go-spew/spew"
)

// Table is the full set of hosts for one run, created once at
// configuration time and destroyed only at program end (spec §3
// "Lifecycle"). The supervisor goroutine is the only mutator; the
// mutex here exists solely to make PID/State/Display reads from the
// SIGUSR1 snapshot goroutine race-free (see package doc).
type Table struct {
	mu    sync.RWMutex
	hosts []*Host
}

// NewTable builds a table in Ready state for every hostname, in the
// order given — admission order matches this order (spec §4.5).
func NewTable(hostnames []string) *Table {
	hosts := make([]*Host, len(hostnames))
	for i, h := range hostnames {
		hosts[i] = newHost(h)
	}
	return &Table{hosts: hosts}
}

// Len returns the number of hosts in the table.
func (t *Table) Len() int { return len(t.hosts) }

// At returns the host at index i for direct, unsynchronized mutation by
// the supervisor goroutine. Only PID/State/Display are shared with the
// snapshot reader; callers mutating those fields must go through
// SetRunning/SetDone/SetDisplay instead of writing to the struct.
func (t *Table) At(i int) *Host { return t.hosts[i] }

// SetDisplay sets the host's display name (used by --trim, before launch).
func (t *Table) SetDisplay(i int, display string) {
	t.mu.Lock()
	t.hosts[i].Display = display
	t.mu.Unlock()
}

// SetRunning records a successful launch: pid, start time, and the
// Ready->Running transition.
func (t *Table) SetRunning(i int, pid int, startedMS int64) {
	t.mu.Lock()
	h := t.hosts[i]
	h.Child.PID = pid
	h.Child.StartedMS = startedMS
	h.Child.State = Running
	t.mu.Unlock()
}

// SetDone records reap completion: exit code, finish time, and the
// Running->Done transition. pid is set to ReapedPID per spec §3.
func (t *Table) SetDone(i int, exitCode int, finishedMS int64) {
	t.mu.Lock()
	h := t.hosts[i]
	h.Child.ExitCode = exitCode
	h.Child.FinishedMS = finishedMS
	h.Child.State = Done
	h.Child.PID = ReapedPID
	t.mu.Unlock()
}

// Snapshot walks the table under a read lock and returns the
// handler-visible fields for every host, plus Ready/Running/Done counts.
// Tolerates a host transitioning mid-walk (spec §4.6): counts and entries
// may be drawn from slightly different instants, which is acceptable
// because this output is informational, not transactional.
func (t *Table) Snapshot() (counts [3]int, running []Snapshot) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, h := range t.hosts {
		st := h.Child.State
		counts[st]++
		if st == Running {
			running = append(running, Snapshot{
				Hostname: h.Hostname,
				Display:  h.Display,
				PID:      h.Child.PID,
				State:    st,
			})
		}
	}
	return counts, running
}

// DebugDump writes a spew dump of every host's current state to w. Wired
// to -d/--debug, this is the CLI analogue of the teacher's
// fmtt.PrintErrChainDebug, which spew.Dump's an error chain; here it
// dumps the host table instead.
func (t *Table) DebugDump(w io.Writer) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	fmt.Fprintf(w, "host table (%d hosts):\n", len(t.hosts))
	cfg := spew.ConfigState{Indent: "  ", DisableMethods: true}
	for _, h := range t.hosts {
		fmt.Fprintf(w, "--- %s ---\n", h.Hostname)
		cfg.Fdump(w, h)
	}
}
