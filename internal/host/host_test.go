package host

import "testing"

func TestAllFDsClosed(t *testing.T) {
	cases := []struct {
		name string
		mode OutputMode
		c    Child
		want bool
	}{
		{"line both open", ModeLine, Child{StdoutFD: 3, StderrFD: 4, StdioFD: ClosedFD}, false},
		{"line one open", ModeLine, Child{StdoutFD: ClosedFD, StderrFD: 4, StdioFD: ClosedFD}, false},
		{"line both closed", ModeLine, Child{StdoutFD: ClosedFD, StderrFD: ClosedFD, StdioFD: ClosedFD}, true},
		{"join open", ModeJoin, Child{StdioFD: 5, StdoutFD: ClosedFD, StderrFD: ClosedFD}, false},
		{"join closed", ModeJoin, Child{StdioFD: ClosedFD}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.c.AllFDsClosed(tc.mode); got != tc.want {
				t.Errorf("AllFDsClosed() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestTableLifecycle(t *testing.T) {
	tbl := NewTable([]string{"a", "b", "c"})
	if tbl.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", tbl.Len())
	}

	tbl.SetRunning(0, 1234, 1000)
	h := tbl.At(0)
	if h.Child.State != Running || h.Child.PID != 1234 {
		t.Fatalf("SetRunning did not update state/pid: %+v", h.Child)
	}

	tbl.SetDone(0, 7, 2000)
	h = tbl.At(0)
	if h.Child.State != Done || h.Child.PID != ReapedPID || h.Child.ExitCode != 7 {
		t.Fatalf("SetDone did not update state/pid/exit: %+v", h.Child)
	}

	counts, running := tbl.Snapshot()
	if counts[Done] != 1 || counts[Ready] != 2 {
		t.Fatalf("Snapshot counts = %v, want 1 done, 2 ready", counts)
	}
	if len(running) != 0 {
		t.Fatalf("Snapshot running = %v, want empty", running)
	}

	tbl.SetRunning(1, 42, 1500)
	_, running = tbl.Snapshot()
	if len(running) != 1 || running[0].PID != 42 || running[0].Hostname != "b" {
		t.Fatalf("Snapshot running = %+v, want one entry for host b", running)
	}
}

func TestSetDisplay(t *testing.T) {
	tbl := NewTable([]string{"web1.example.com"})
	tbl.SetDisplay(0, "web1")
	if got := tbl.At(0).Display; got != "web1" {
		t.Fatalf("Display = %q, want %q", got, "web1")
	}
	if got := tbl.At(0).Hostname; got != "web1.example.com" {
		t.Fatalf("Hostname mutated: %q", got)
	}
}
