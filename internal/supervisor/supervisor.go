// Package supervisor implements the core scheduler loop (spec §4.5): a
// bounded-concurrency admission pass, a blocking wait on the platform
// watcher, per-event dispatch into the stream renderer, and child
// reaping once every one of a host's fds has reported EOF.
//
// Grounded on the teacher's processmgr.ProcessManager run loop (admit
// under a capacity gate, wait for readiness, reap on completion) —
// generalized from ProcessManager's slotPool (a cond-var blocking gate
// suited to multiple concurrent callers) to golang.org/x/sync/semaphore's
// non-blocking TryAcquire, the right primitive for a single cooperative
// goroutine that must never block on anything but the watcher itself.
package supervisor

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/edirooss/gopssh/internal/config"
	"github.com/edirooss/gopssh/internal/errs"
	"github.com/edirooss/gopssh/internal/host"
	"github.com/edirooss/gopssh/internal/launcher"
	"github.com/edirooss/gopssh/internal/sshcmd"
	"github.com/edirooss/gopssh/internal/stream"
	"github.com/edirooss/gopssh/internal/watcher"
)

// Supervisor runs one pass over a host table to completion.
type Supervisor struct {
	cfg   *config.Config
	table *host.Table
	log   *zap.Logger

	w        watcher.Watcher
	renderer *stream.Renderer
	sem      *semaphore.Weighted

	buffers map[int]*stream.Buffer    // fd -> its stream buffer
	procs   map[int]*launcher.Process // host index -> its launched process

	pendingIdx      int
	remaining       int
	done            int
	progressEnabled bool
	stdout          io.Writer
}

// New constructs a Supervisor. stdout is where line/group output and the
// join-mode progress line and finalisation are written.
func New(cfg *config.Config, table *host.Table, log *zap.Logger, seed uint64, stdout io.Writer, stdoutFd uintptr) (*Supervisor, error) {
	w, err := watcher.New()
	if err != nil {
		return nil, err
	}

	renderer := stream.NewRenderer(cfg.Mode, cfg.Anonymous, cfg.ColorEnabled, cfg.Silent,
		cfg.MaxLineLength, cfg.MaxOutputLength, seed, stdout, table)

	return &Supervisor{
		cfg:             cfg,
		table:           table,
		log:             log,
		w:               w,
		renderer:        renderer,
		sem:             semaphore.NewWeighted(int64(cfg.MaxJobs)),
		buffers:         make(map[int]*stream.Buffer),
		procs:           make(map[int]*launcher.Process),
		progressEnabled: cfg.Mode == host.ModeJoin && isatty.IsTerminal(stdoutFd),
		stdout:          stdout,
	}, nil
}

// Run drives the scheduler to completion. The returned exitCode follows
// spec §6 (0 clean, 1 some child exited non-zero) and is only meaningful
// when err is nil. A non-nil err wrapping errs.ErrArgvTooLong or
// errs.ErrTrimFailure is recoverable-at-user (exit 2 at the caller); any
// other non-nil err is runtime-fatal (exit 3).
func (s *Supervisor) Run() (exitCode int, err error) {
	defer s.w.Close()

	if err := s.admit(); err != nil {
		return 0, err
	}

	out := make([]int, s.cfg.MaxJobs*2+2)
	for s.pendingIdx < s.table.Len() || s.remaining > 0 {
		n, err := s.w.Wait(out, watcher.WaitIndefinitely)
		if err != nil {
			return 0, err
		}
		for i := 0; i < n; i++ {
			fd := out[i]
			buf, ok := s.buffers[fd]
			if !ok {
				continue
			}
			finished, err := stream.ReadActiveFD(fd, buf, s.renderer, s.w)
			if err != nil {
				return 0, err
			}
			if !finished {
				continue
			}
			delete(s.buffers, fd)

			h := s.table.At(buf.HostIndex)
			if h.Child.HasOpenFD(s.cfg.Mode) {
				continue // sibling stdout/stderr fd still open
			}
			if err := s.reap(buf.HostIndex); err != nil {
				return 0, err
			}
		}
		if err := s.admit(); err != nil {
			return 0, err
		}
	}

	s.renderer.Finalize()

	exitCode = 0
	for i := 0; i < s.table.Len(); i++ {
		if s.table.At(i).Child.ExitCode != 0 {
			exitCode = 1
			break
		}
	}
	return exitCode, nil
}

// admit spawns as many pending hosts as the semaphore currently allows.
func (s *Supervisor) admit() error {
	for s.pendingIdx < s.table.Len() {
		if !s.sem.TryAcquire(1) {
			break
		}
		if err := s.admitOne(s.pendingIdx); err != nil {
			s.sem.Release(1)
			return err
		}
		s.pendingIdx++
		s.remaining++
	}
	return nil
}

func (s *Supervisor) admitOne(idx int) error {
	h := s.table.At(idx)

	argv, err := sshcmd.Build(sshcmd.Options{
		Exec:     s.cfg.Exec,
		Identity: s.cfg.Identity,
		Login:    s.cfg.Login,
		Port:     s.cfg.Port,
		Quiet:    s.cfg.Quiet,
		SSHOpts:  s.cfg.SSHOpts,
	}, h.Hostname, s.cfg.RemoteCommand)
	if err != nil {
		return err
	}

	if s.cfg.Trim {
		display, terr := trimDisplay(h.Hostname)
		if terr != nil {
			return terr
		}
		s.table.SetDisplay(idx, display)
	}

	proc, err := launcher.Launch(argv, s.cfg.Mode, s.log)
	if err != nil {
		return err
	}
	s.table.SetRunning(idx, proc.PID, proc.StartedMS)
	s.procs[idx] = proc

	child := &s.table.At(idx).Child
	if s.cfg.Mode == host.ModeJoin {
		child.StdioFD = proc.StdioFD
		buf := stream.NewBuffer(idx, stream.KindStdout, &child.StdioFD)
		s.buffers[proc.StdioFD] = buf
		if err := s.w.Add(proc.StdioFD); err != nil {
			return err
		}
	} else {
		child.StdoutFD = proc.StdoutFD
		child.StderrFD = proc.StderrFD
		outBuf := stream.NewBuffer(idx, stream.KindStdout, &child.StdoutFD)
		errBuf := stream.NewBuffer(idx, stream.KindStderr, &child.StderrFD)
		s.buffers[proc.StdoutFD] = outBuf
		s.buffers[proc.StderrFD] = errBuf
		if err := s.w.Add(proc.StdoutFD); err != nil {
			return err
		}
		if err := s.w.Add(proc.StderrFD); err != nil {
			return err
		}
	}

	return nil
}

func (s *Supervisor) reap(idx int) error {
	proc := s.procs[idx]
	delete(s.procs, idx)

	exitCode, err := proc.Wait()
	if err != nil {
		return err
	}
	finishedMS := time.Now().UnixMilli()
	s.table.SetDone(idx, exitCode, finishedMS)

	h := s.table.At(idx)
	if s.cfg.Debug || s.cfg.ExitCodes {
		elapsed := h.Child.FinishedMS - h.Child.StartedMS
		fmt.Fprintf(s.stdout, "[%s] exited %d (%dms)\n", h.Display, exitCode, elapsed)
	}

	s.remaining--
	s.done++
	s.sem.Release(1)

	if s.progressEnabled {
		stream.ProgressLine(s.stdout, s.done, s.table.Len())
	}

	return nil
}

// trimDisplay shortens a hostname to its first dot-separated label
// (spec §4.5 --trim). An empty result (e.g. a hostname starting with
// '.') is a recoverable-at-user error, not silently accepted.
func trimDisplay(hostname string) (string, error) {
	label := hostname
	if i := strings.IndexByte(hostname, '.'); i >= 0 {
		label = hostname[:i]
	}
	if label == "" {
		return "", fmt.Errorf("%w: %q produced an empty display name", errs.ErrTrimFailure, hostname)
	}
	return label, nil
}

// DryRunSummary prints the pre-flight "hosts (n): [ ... ]" banner (see
// this repo's supplemented dry-run feature) and nothing else; the
// supervisor itself is never invoked in dry-run mode.
func DryRunSummary(w io.Writer, table *host.Table) {
	fmt.Fprintf(w, "hosts (%d): [ ", table.Len())
	for i := 0; i < table.Len(); i++ {
		if i > 0 {
			fmt.Fprint(w, " ")
		}
		fmt.Fprintf(w, "'%s'", table.At(i).Hostname)
	}
	fmt.Fprintln(w, " ]")
}
