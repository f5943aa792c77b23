package signalfac

import (
	"bytes"
	"os"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/edirooss/gopssh/internal/host"
)

// syncWriter serializes writes and signals after each one, so the test
// goroutine can safely read the buffer once notified.
type syncWriter struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	written chan struct{}
}

func newSyncWriter() *syncWriter {
	return &syncWriter{written: make(chan struct{}, 8)}
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	n, err := w.buf.Write(p)
	w.mu.Unlock()
	select {
	case w.written <- struct{}{}:
	default:
	}
	return n, err
}

func (w *syncWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

func TestSIGUSR1PrintsSnapshot(t *testing.T) {
	table := host.NewTable([]string{"h1", "h2"})
	table.SetRunning(0, 4242, time.Now().UnixMilli())

	w := newSyncWriter()
	f := Install(table, w)
	defer f.Uninstall()

	if err := syscall.Kill(os.Getpid(), syscall.SIGUSR1); err != nil {
		t.Fatalf("kill: %v", err)
	}

	select {
	case <-w.written:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for SIGUSR1 snapshot")
	}
	time.Sleep(10 * time.Millisecond) // let the second Fprintf land

	out := w.String()
	if !strings.Contains(out, "running: 1") {
		t.Fatalf("snapshot = %q, want running count of 1", out)
	}
	if !strings.Contains(out, "pid 4242 h1") {
		t.Fatalf("snapshot = %q, want running host entry", out)
	}
}
