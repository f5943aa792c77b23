// Package launcher implements the child launcher (spec §4.3): it creates
// one pipe (join mode) or two pipes (line/group mode), spawns the child
// with its standard streams redirected to the pipe write ends, closes the
// write ends in the parent immediately — mandatory so EOF arrives on the
// read ends once the child exits — and hands the read ends back as
// non-blocking fds for the watcher to monitor.
//
// Grounded on the teacher's processmgr.process/process_manager spawn
// sequence (os/exec.Cmd plus a Linux SysProcAttr), adapted from goroutine-
// per-pipe bufio.Scanner draining to handing raw, non-blocking read fds to
// the caller — the core's readiness loop owns draining instead.
package launcher

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/edirooss/gopssh/internal/errs"
	"github.com/edirooss/gopssh/internal/host"
	"github.com/edirooss/gopssh/internal/pipeio"
)

// Process is one launched child: its pid, its open read-end fds (the
// unused slots are host.ClosedFD), and the launch timestamp.
type Process struct {
	cmd *exec.Cmd

	PID       int
	StdoutFD  int
	StderrFD  int
	StdioFD   int
	StartedMS int64
}

var devNull = sync.OnceValues(func() (*os.File, error) {
	// spec §6 "stdin": closed to /dev/null before spawning any child, so
	// children that read stdin see EOF immediately. One read-only handle
	// is safely shared across every concurrently spawned child.
	return os.Open(os.DevNull)
})

// Launch spawns argv[0](argv[1:]...) with its stdio wired per mode and
// returns once the child has been started and the parent's pipe write
// ends have been closed.
func Launch(argv []string, mode host.OutputMode, log *zap.Logger) (*Process, error) {
	dn, err := devNull()
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %s", errs.ErrCloneProcess, os.DevNull, err)
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = dn
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	proc := &Process{StdoutFD: host.ClosedFD, StderrFD: host.ClosedFD, StdioFD: host.ClosedFD}

	if mode == host.ModeJoin {
		p, err := pipeio.New()
		if err != nil {
			return nil, err
		}
		w := os.NewFile(uintptr(p.WriteFD), "stdio-write")
		cmd.Stdout = w
		cmd.Stderr = w

		if err := cmd.Start(); err != nil {
			w.Close()
			unixClose(p.ReadFD)
			return nil, fmt.Errorf("%w: %s", errs.ErrCloneProcess, err)
		}
		// The child now holds its own dup of the write end; the parent's
		// copy must close immediately or EOF will never be observed.
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("%w: %s", errs.ErrClosePipe, err)
		}
		proc.StdioFD = p.ReadFD
	} else {
		out, err := pipeio.New()
		if err != nil {
			return nil, err
		}
		errp, err := pipeio.New()
		if err != nil {
			unixClose(out.ReadFD)
			unixClose(out.WriteFD)
			return nil, err
		}

		wOut := os.NewFile(uintptr(out.WriteFD), "stdout-write")
		wErr := os.NewFile(uintptr(errp.WriteFD), "stderr-write")
		cmd.Stdout = wOut
		cmd.Stderr = wErr

		if err := cmd.Start(); err != nil {
			wOut.Close()
			wErr.Close()
			unixClose(out.ReadFD)
			unixClose(errp.ReadFD)
			return nil, fmt.Errorf("%w: %s", errs.ErrCloneProcess, err)
		}

		var closeErr error
		if err := wOut.Close(); err != nil {
			closeErr = fmt.Errorf("%w: stdout: %s", errs.ErrClosePipe, err)
		}
		if err := wErr.Close(); err != nil {
			closeErr = fmt.Errorf("%w: stderr: %s", errs.ErrClosePipe, err)
		}
		if closeErr != nil {
			return nil, closeErr
		}

		proc.StdoutFD = out.ReadFD
		proc.StderrFD = errp.ReadFD
	}

	proc.cmd = cmd
	proc.PID = cmd.Process.Pid
	proc.StartedMS = time.Now().UnixMilli()

	log.Debug("process started", zap.Int("pid", proc.PID), zap.Strings("argv", argv))

	return proc, nil
}

// Wait reaps the child. It is only called after EOF has been observed on
// every one of the child's pipes (spec §4.5), so the underlying wait4 is
// expected to return promptly. Returns the exit code; err is non-nil only
// when the wait itself failed (errs.ErrChildWait), never for an ordinary
// non-zero exit.
func (p *Process) Wait() (exitCode int, err error) {
	waitErr := p.cmd.Wait()
	if waitErr == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			if status.Signaled() {
				// By POSIX convention: 128 + signal number.
				return 128 + int(status.Signal()), nil
			}
			return status.ExitStatus(), nil
		}
		return exitErr.ExitCode(), nil
	}

	return 0, fmt.Errorf("%w: pid %d: %s", errs.ErrChildWait, p.PID, waitErr)
}

func unixClose(fd int) {
	_ = syscall.Close(fd)
}
