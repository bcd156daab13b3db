package session

import (
	"testing"
	"time"
)

func TestNewSessionIsPending(t *testing.T) {
	s := New(ShellBash, "/home/alice", Hooks{})
	if s.State() != StatePending {
		t.Errorf("expected PENDING, got %s", s.State())
	}
	if s.ID() != "" {
		t.Errorf("expected empty id, got %q", s.ID())
	}
	if s.SpawnDir() != "/home/alice" {
		t.Errorf("unexpected spawn dir %q", s.SpawnDir())
	}
}

func TestBufferAndResolve(t *testing.T) {
	s := New(ShellBash, "", Hooks{})

	s.Buffer([]byte("first"))
	s.Buffer([]byte("second"))
	s.Buffer([]byte("third"))

	buffered := s.Resolve("abc-123")
	if len(buffered) != 3 {
		t.Fatalf("expected 3 buffered entries, got %d", len(buffered))
	}
	for i, want := range []string{"first", "second", "third"} {
		if string(buffered[i]) != want {
			t.Errorf("entry %d: got %q, want %q", i, buffered[i], want)
		}
	}

	if s.ID() != "abc-123" {
		t.Errorf("expected id abc-123, got %q", s.ID())
	}
	if s.State() != StateActive {
		t.Errorf("expected ACTIVE after resolve, got %s", s.State())
	}

	// The queue must be cleared by Resolve.
	if again := s.Resolve("abc-123"); len(again) != 0 {
		t.Errorf("expected empty queue on second resolve, got %d entries", len(again))
	}
}

func TestBufferCopiesData(t *testing.T) {
	s := New(ShellBash, "", Hooks{})
	data := []byte("original")
	s.Buffer(data)
	data[0] = 'X'

	buffered := s.Resolve("id")
	if string(buffered[0]) != "original" {
		t.Errorf("buffered entry aliases caller slice: %q", buffered[0])
	}
}

func TestBufferBound_DropsIncoming(t *testing.T) {
	s := New(ShellBash, "", Hooks{})
	s.SetPendingLimit(2)

	if !s.Buffer([]byte("a")) {
		t.Error("first entry should be accepted")
	}
	if !s.Buffer([]byte("b")) {
		t.Error("second entry should be accepted")
	}
	if s.Buffer([]byte("c")) {
		t.Error("third entry should be dropped")
	}
	if s.DroppedCount() != 1 {
		t.Errorf("expected 1 dropped, got %d", s.DroppedCount())
	}

	// The incoming entry is the one dropped; the queued entries keep order.
	buffered := s.Resolve("id")
	if len(buffered) != 2 || string(buffered[0]) != "a" || string(buffered[1]) != "b" {
		t.Errorf("unexpected queue contents: %q", buffered)
	}
}

func TestSetPendingLimitIgnoresNonPositive(t *testing.T) {
	s := New(ShellBash, "", Hooks{})
	s.SetPendingLimit(0)
	s.SetPendingLimit(-5)
	for i := 0; i < DefaultPendingLimit; i++ {
		if !s.Buffer([]byte("x")) {
			t.Fatalf("entry %d rejected below the default bound", i)
		}
	}
	if s.Buffer([]byte("overflow")) {
		t.Error("expected rejection at the default bound")
	}
}

func TestMarkInterrupt(t *testing.T) {
	s := New(ShellBash, "", Hooks{})
	threshold := 500 * time.Millisecond
	base := time.Now()

	if s.MarkInterrupt(base, threshold) {
		t.Error("first press should not be a double")
	}
	if !s.MarkInterrupt(base.Add(100*time.Millisecond), threshold) {
		t.Error("second press within threshold should be a double")
	}
	// The pair was consumed: the next press starts a fresh cycle.
	if s.MarkInterrupt(base.Add(200*time.Millisecond), threshold) {
		t.Error("third press should start a new cycle, not chain")
	}
}

func TestMarkInterrupt_OutsideThreshold(t *testing.T) {
	s := New(ShellBash, "", Hooks{})
	threshold := 500 * time.Millisecond
	base := time.Now()

	s.MarkInterrupt(base, threshold)
	if s.MarkInterrupt(base.Add(time.Second), threshold) {
		t.Error("press after the threshold should not be a double")
	}
}

func TestRunCleanups_MostRecentFirst(t *testing.T) {
	s := New(ShellBash, "", Hooks{})

	var order []int
	s.OnCleanup(func() { order = append(order, 1) })
	s.OnCleanup(func() { order = append(order, 2) })
	s.Buffer([]byte("stale"))

	s.RunCleanups()

	if len(order) != 2 || order[0] != 2 || order[1] != 1 {
		t.Errorf("unexpected cleanup order: %v", order)
	}
	if got := s.Resolve("id"); len(got) != 0 {
		t.Errorf("pending output should be discarded at teardown, got %d entries", len(got))
	}

	// Cleanups run once.
	s.RunCleanups()
	if len(order) != 2 {
		t.Errorf("cleanups ran twice: %v", order)
	}
}

func TestSnapshot(t *testing.T) {
	s := New(ShellZsh, "/work", Hooks{})
	s.Resolve("id-1")
	s.SetDimensions(24, 80)
	s.SetReportedDir("/work/sub")
	s.SetChildCount(3)

	info := s.Snapshot()
	if info.ID != "id-1" || info.Shell != ShellZsh || info.SpawnDir != "/work" {
		t.Errorf("unexpected snapshot: %+v", info)
	}
	if info.ReportedDir != "/work/sub" || info.Rows != 24 || info.Cols != 80 || info.ChildCount != 3 {
		t.Errorf("unexpected snapshot: %+v", info)
	}
	if info.State != StateActive {
		t.Errorf("expected ACTIVE, got %s", info.State)
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StatePending, "PENDING"},
		{StateActive, "ACTIVE"},
		{StateExited, "EXITED"},
		{StateRespawning, "RESPAWNING"},
		{State(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
