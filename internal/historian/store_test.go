package historian

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/cellwatch/internal/controller"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "historian.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	states := []controller.Snapshot{
		{ConveyorRun: true, EmergencyOK: true, QualityScore: 98},
		{ConveyorRun: true, EmergencyOK: true, QualityScore: 87},
		{QualityScore: 57, Compromised: true},
	}
	for i, st := range states {
		if _, err := s.Record(ctx, base.Add(time.Duration(i)*2*time.Second), st); err != nil {
			t.Fatalf("Record %d: %v", i, err)
		}
	}

	recent, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(recent))
	}
	if recent[0].State != states[2] {
		t.Fatalf("expected newest first %+v, got %+v", states[2], recent[0].State)
	}
	if !recent[0].Timestamp.Equal(base.Add(4 * time.Second)) {
		t.Fatalf("unexpected timestamp %s", recent[0].Timestamp)
	}
	if recent[1].State != states[1] {
		t.Fatalf("expected %+v, got %+v", states[1], recent[1].State)
	}
	if recent[0].ID == "" || recent[0].ID == recent[1].ID {
		t.Fatal("expected unique sample IDs")
	}
}

func TestPrune(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		s.Record(ctx, base.Add(time.Duration(i)*time.Minute), controller.Snapshot{QualityScore: i})
	}
	n, err := s.Prune(ctx, base.Add(3*time.Minute))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 pruned, got %d", n)
	}
	if c, _ := s.Count(ctx); c != 2 {
		t.Fatalf("expected 2 left, got %d", c)
	}
}

func TestReopenKeepsSamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "historian.db")
	s1, err := NewStore(path)
	if err != nil {
		t.Fatal(err)
	}
	s1.Record(context.Background(), time.Now(), controller.Snapshot{QualityScore: 42})
	s1.Close()

	s2, err := NewStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	recent, err := s2.Recent(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 || recent[0].State.QualityScore != 42 {
		t.Fatalf("expected persisted sample, got %+v", recent)
	}
}

type countingSource struct {
	calls atomic.Int32
}

func (c *countingSource) Snapshot() controller.Snapshot {
	c.calls.Add(1)
	return controller.Snapshot{ConveyorRun: true, EmergencyOK: true, QualityScore: 98}
}

func TestSamplerRecordsUntilCancelled(t *testing.T) {
	s := tempStore(t)
	src := &countingSource{}
	sampler := NewSampler(s, src, 20*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sampler.Run(ctx) }()

	time.Sleep(110 * time.Millisecond)
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}

	n, err := s.Count(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n < 3 {
		t.Fatalf("expected at least 3 samples, got %d", n)
	}
	if int(src.calls.Load()) < n {
		t.Fatalf("expected one snapshot per sample, got %d calls for %d samples", src.calls.Load(), n)
	}
}
