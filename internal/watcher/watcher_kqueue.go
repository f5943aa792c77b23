//go:build darwin || freebsd || netbsd || openbsd || dragonfly

package watcher

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/edirooss/gopssh/internal/errs"
)

// kqueueWatcher is the BSD-like backend (spec §4.2 "one for BSD-like
// systems"), including Darwin. EVFILT_READ on a kqueue is level-triggered
// by default (re-fires while data remains), matching the epoll side.
//
// EV_ADD on an already-registered ident silently updates the existing
// knote instead of failing, unlike epoll_ctl's EEXIST — so the Add-twice
// contract (spec §4.2) is enforced here with an explicit registered set
// rather than relying on the kernel.
type kqueueWatcher struct {
	kq         int
	registered map[int]struct{}
}

// New constructs the platform watcher. On BSD-like systems this is kqueue(2).
func New() (Watcher, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, fmt.Errorf("%w: kqueue: %s", errs.ErrMonitorFd, err)
	}
	unix.CloseOnExec(kq)
	return &kqueueWatcher{kq: kq, registered: make(map[int]struct{})}, nil
}

func (w *kqueueWatcher) Add(fd int) error {
	if _, ok := w.registered[fd]; ok {
		return fdOpError("kevent_add", fd, unix.EEXIST)
	}
	ev := []unix.Kevent_t{{
		Ident:  uint64(fd),
		Filter: unix.EVFILT_READ,
		Flags:  unix.EV_ADD,
	}}
	if _, err := unix.Kevent(w.kq, ev, nil, nil); err != nil {
		return fdOpError("kevent_add", fd, err)
	}
	w.registered[fd] = struct{}{}
	return nil
}

func (w *kqueueWatcher) Remove(fd int) error {
	if _, ok := w.registered[fd]; !ok {
		return fdOpError("kevent_delete", fd, unix.ENOENT)
	}
	ev := []unix.Kevent_t{{
		Ident:  uint64(fd),
		Filter: unix.EVFILT_READ,
		Flags:  unix.EV_DELETE,
	}}
	if _, err := unix.Kevent(w.kq, ev, nil, nil); err != nil {
		return fdOpError("kevent_delete", fd, err)
	}
	delete(w.registered, fd)
	return nil
}

func (w *kqueueWatcher) Wait(out []int, timeoutMS int) (int, error) {
	events := make([]unix.Kevent_t, len(out))

	var ts *unix.Timespec
	if timeoutMS >= 0 {
		t := unix.NsecToTimespec(int64(timeoutMS) * 1_000_000)
		ts = &t
	}

	for {
		n, err := unix.Kevent(w.kq, nil, events, ts)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, fdOpError("kevent_wait", w.kq, err)
		}
		for i := 0; i < n; i++ {
			out[i] = int(events[i].Ident)
		}
		return n, nil
	}
}

func (w *kqueueWatcher) Close() error {
	return unix.Close(w.kq)
}
