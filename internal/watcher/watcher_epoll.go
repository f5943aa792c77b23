//go:build linux

package watcher

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/edirooss/gopssh/internal/errs"
)

// epollWatcher is the Linux backend: one epoll instance per run, level-
// triggered (no EPOLLET) readable-only events, exactly as spec §4.2
// requires ("No edge-triggered mode").
type epollWatcher struct {
	epfd int
}

// New constructs the platform watcher. On Linux this is epoll_create1.
func New() (Watcher, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("%w: epoll_create1: %s", errs.ErrMonitorFd, err)
	}
	return &epollWatcher{epfd: epfd}, nil
}

func (w *epollWatcher) Add(fd int) error {
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	if err := unix.EpollCtl(w.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return fdOpError("epoll_ctl_add", fd, err)
	}
	return nil
}

func (w *epollWatcher) Remove(fd int) error {
	// Linux ignores the event argument on EPOLL_CTL_DEL but pre-2.6.9
	// kernels require a non-nil pointer; pass one for portability.
	ev := unix.EpollEvent{}
	if err := unix.EpollCtl(w.epfd, unix.EPOLL_CTL_DEL, fd, &ev); err != nil {
		return fdOpError("epoll_ctl_del", fd, err)
	}
	return nil
}

func (w *epollWatcher) Wait(out []int, timeoutMS int) (int, error) {
	events := make([]unix.EpollEvent, len(out))
	for {
		n, err := unix.EpollWait(w.epfd, events, timeoutMS)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, fdOpError("epoll_wait", w.epfd, err)
		}
		for i := 0; i < n; i++ {
			out[i] = int(events[i].Fd)
		}
		return n, nil
	}
}

func (w *epollWatcher) Close() error {
	return unix.Close(w.epfd)
}
