// Package stream implements the stream buffer and renderer (spec §4.4):
// per-fd buffering and the three output disciplines (line, group, join),
// plus the non-blocking read loop that drains a ready fd until it would
// block or reports EOF.
//
// Grounded on the teacher's processmgr.LogBuffer (per-pid accumulating
// byte buffer feeding a line scanner) and fmtt.PrintErrChain (prefixed,
// line-oriented stdout writes) — generalized here from one fixed
// discipline into three, and from a goroutine-per-pipe bufio.Scanner to
// an explicit non-blocking read loop driven by the supervisor's watcher.
package stream

import (
	"fmt"
	"io"
	"sort"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sys/unix"

	"github.com/edirooss/gopssh/internal/errs"
	"github.com/edirooss/gopssh/internal/host"
	"github.com/edirooss/gopssh/internal/watcher"
)

// Kind distinguishes stdout from stderr for colourisation. It is
// meaningless in join mode, where both streams share one fd and nothing
// is printed live.
type Kind int

const (
	KindStdout Kind = iota
	KindStderr
)

func (k Kind) ansi() string {
	if k == KindStderr {
		return ansiRed
	}
	return ansiGreen
}

// Buffer is one open fd's accumulation state. FDSlot points at the
// Child field this fd was read from (StdoutFD, StderrFD, or StdioFD),
// so ReadActiveFD can clear it on EOF without a mode switch.
type Buffer struct {
	HostIndex int
	Kind      Kind
	FDSlot    *int

	line []byte // line-mode accumulator only
}

// NewBuffer constructs a buffer for hostIndex's fd, identified by kind
// and backed by fdSlot (a pointer into that host's Child descriptor).
func NewBuffer(hostIndex int, kind Kind, fdSlot *int) *Buffer {
	return &Buffer{HostIndex: hostIndex, Kind: kind, FDSlot: fdSlot}
}

// Renderer holds the single supervisor-wide rendering state: the output
// mode, formatting flags, and (in group mode) the shared "last emitter"
// tracker. Spec §5 notes the supervisor is single-threaded, so none of
// this needs synchronization.
type Renderer struct {
	Mode            host.OutputMode
	Anonymous       bool
	Color           bool
	Silent          bool
	MaxLineLength   int
	MaxOutputLength int
	Seed            uint64

	w     io.Writer
	table *host.Table

	lastEmitter    int // group mode: host index that wrote last, -1 = none yet
	lastWasNewline bool
}

// NewRenderer builds the renderer. w is the program's stdout.
func NewRenderer(mode host.OutputMode, anonymous, color, silent bool, maxLineLength, maxOutputLength int, seed uint64, w io.Writer, table *host.Table) *Renderer {
	return &Renderer{
		Mode:            mode,
		Anonymous:       anonymous,
		Color:           color,
		Silent:          silent,
		MaxLineLength:   maxLineLength,
		MaxOutputLength: maxOutputLength,
		Seed:            seed,
		w:               w,
		table:           table,
		lastEmitter:     -1,
		lastWasNewline:  true,
	}
}

// sanitize replaces non-ASCII bytes with '?' (spec §4.4 sanitisation
// policy). Used in line and join mode; group mode passes bytes through
// unchanged.
func sanitize(data []byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		if b > 0x7f {
			out[i] = '?'
		} else {
			out[i] = b
		}
	}
	return out
}

// Process dispatches one chunk of bytes read from buf's fd according to
// the renderer's mode. It never blocks and never fails: malformed
// output degrades (via sanitisation or truncation), it does not error.
func (r *Renderer) Process(buf *Buffer, data []byte) {
	if r.Silent || len(data) == 0 {
		return
	}
	switch r.Mode {
	case host.ModeLine:
		r.processLine(buf, sanitize(data))
	case host.ModeGroup:
		r.processGroup(buf, data)
	case host.ModeJoin:
		r.processJoin(buf, sanitize(data))
	}
}

func (r *Renderer) processLine(buf *Buffer, data []byte) {
	for _, b := range data {
		if b == '\n' {
			r.emitLine(buf, buf.line)
			buf.line = buf.line[:0]
			continue
		}
		buf.line = append(buf.line, b)
		if len(buf.line) >= r.MaxLineLength {
			r.emitLine(buf, buf.line)
			buf.line = buf.line[:0]
		}
	}
}

func (r *Renderer) emitLine(buf *Buffer, line []byte) {
	prefix := ""
	if !r.Anonymous {
		prefix = fmt.Sprintf("[%s] ", r.table.At(buf.HostIndex).Display)
	}
	fmt.Fprintf(r.w, "%s%s\n", prefix, colorize(r.Color, buf.Kind.ansi(), string(line)))
}

func (r *Renderer) processGroup(buf *Buffer, data []byte) {
	if buf.HostIndex != r.lastEmitter {
		if !r.lastWasNewline {
			fmt.Fprintln(r.w)
		}
		if !r.Anonymous {
			fmt.Fprintf(r.w, "[%s]\n", r.table.At(buf.HostIndex).Display)
		}
		r.lastEmitter = buf.HostIndex
	}
	fmt.Fprint(r.w, colorize(r.Color, buf.Kind.ansi(), string(data)))
	r.lastWasNewline = data[len(data)-1] == '\n'
}

func (r *Renderer) processJoin(buf *Buffer, data []byte) {
	child := &r.table.At(buf.HostIndex).Child
	room := r.MaxOutputLength - len(child.OutputBuffer)
	if room <= 0 {
		return
	}
	if len(data) > room {
		data = data[:room]
	}
	child.OutputBuffer = append(child.OutputBuffer, data...)
}

// Flush finalises buf at EOF: line mode emits any non-empty residual
// line; join mode appends a trailing newline if the buffer is non-empty,
// under cap, and doesn't already end in one. Group mode has no residual
// state to flush.
func (r *Renderer) Flush(buf *Buffer) {
	if r.Silent {
		return
	}
	switch r.Mode {
	case host.ModeLine:
		if len(buf.line) > 0 {
			r.emitLine(buf, buf.line)
			buf.line = buf.line[:0]
		}
	case host.ModeJoin:
		child := &r.table.At(buf.HostIndex).Child
		n := len(child.OutputBuffer)
		if n > 0 && n < r.MaxOutputLength && child.OutputBuffer[n-1] != '\n' {
			child.OutputBuffer = append(child.OutputBuffer, '\n')
		}
	}
}

// ReadActiveFD drains buf's fd non-blocking until it would block or
// reports EOF (spec §4.4 read_active_fd). On EOF it removes the fd from
// w, closes it, and clears the host's fd slot. finished reports whether
// EOF was reached.
func ReadActiveFD(fd int, buf *Buffer, r *Renderer, w watcher.Watcher) (finished bool, err error) {
	chunk := make([]byte, 4096)
	for {
		n, readErr := unix.Read(fd, chunk)
		switch {
		case readErr == nil && n > 0:
			r.Process(buf, chunk[:n])
			continue
		case readErr == nil && n == 0:
			r.Flush(buf)
			if err := w.Remove(fd); err != nil {
				return false, err
			}
			if err := unix.Close(fd); err != nil {
				return false, fmt.Errorf("%w: fd %d: %s", errs.ErrClosePipe, fd, err)
			}
			*buf.FDSlot = host.ClosedFD
			return true, nil
		case readErr == unix.EAGAIN:
			return false, nil
		default:
			return false, fmt.Errorf("%w: fd %d: %s", errs.ErrReadFd, fd, readErr)
		}
	}
}

// Finalize performs join-mode finalisation (spec §4.5 step 5): groups
// hosts by a seeded hash of their accumulated output and prints one
// stanza per equivalence class, in first-seen order.
func (r *Renderer) Finalize() {
	if r.Silent || r.Mode != host.ModeJoin {
		return
	}

	n := r.table.Len()
	groupOf := make(map[uint64]int, n)
	var order []uint64
	members := make(map[uint64][]int)

	for i := 0; i < n; i++ {
		out := r.table.At(i).Child.OutputBuffer
		h := xxhash.Sum64(append(binarySeed(r.Seed), out...))
		if _, ok := groupOf[h]; !ok {
			groupOf[h] = len(order)
			order = append(order, h)
		}
		r.table.At(i).Child.GroupIndex = groupOf[h]
		members[h] = append(members[h], i)
	}

	fmt.Fprintf(r.w, "%d unique result(s) among %d host(s)\n", len(order), n)
	for _, h := range order {
		idxs := members[h]
		names := make([]string, len(idxs))
		for i, idx := range idxs {
			names[i] = r.table.At(idx).Display
		}
		sort.Strings(names)
		fmt.Fprintf(r.w, "hosts (%d/%d): ", len(idxs), n)
		for i, name := range names {
			if i > 0 {
				fmt.Fprint(r.w, " ")
			}
			fmt.Fprint(r.w, name)
		}
		fmt.Fprintln(r.w)

		out := r.table.At(idxs[0]).Child.OutputBuffer
		if len(out) == 0 {
			fmt.Fprintln(r.w, "- no output -")
		} else {
			r.w.Write(out)
		}
	}
}

// binarySeed renders the seed as a little-endian byte prefix so it
// participates in the hash without needing a second hashing pass.
func binarySeed(seed uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(seed >> (8 * i))
	}
	return b
}

// ProgressLine prints the join-mode terminal progress indicator (spec
// §4.5 step 3): "finished done/total\r", or two trailing newlines once
// done == total.
func ProgressLine(w io.Writer, done, total int) {
	if done >= total {
		fmt.Fprintf(w, "finished %d/%d\r\n\n", done, total)
		return
	}
	fmt.Fprintf(w, "finished %d/%d\r", done, total)
}
