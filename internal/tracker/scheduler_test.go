package tracker

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestSchedulerSupersedesSameKey(t *testing.T) {
	s := newScheduler()
	defer s.stop()

	var first, second atomic.Int32
	s.schedule("k", 10*time.Millisecond, func() { first.Add(1) })
	s.schedule("k", 10*time.Millisecond, func() { second.Add(1) })

	time.Sleep(50 * time.Millisecond)
	if first.Load() != 0 {
		t.Error("superseded timer fired")
	}
	if second.Load() != 1 {
		t.Errorf("replacement fired %d times, want 1", second.Load())
	}
}

func TestSchedulerIndependentKeys(t *testing.T) {
	s := newScheduler()
	defer s.stop()

	var n atomic.Int32
	s.schedule("a", 10*time.Millisecond, func() { n.Add(1) })
	s.schedule("b", 10*time.Millisecond, func() { n.Add(1) })

	time.Sleep(50 * time.Millisecond)
	if n.Load() != 2 {
		t.Errorf("fired %d times, want 2", n.Load())
	}
}

func TestSchedulerCancel(t *testing.T) {
	s := newScheduler()
	defer s.stop()

	var n atomic.Int32
	s.schedule("k", 10*time.Millisecond, func() { n.Add(1) })
	s.cancel("k")

	time.Sleep(50 * time.Millisecond)
	if n.Load() != 0 {
		t.Error("cancelled timer fired")
	}
}

func TestSchedulerStopSilencesEverything(t *testing.T) {
	s := newScheduler()

	var n atomic.Int32
	s.schedule("a", 5*time.Millisecond, func() { n.Add(1) })
	s.schedule("b", 5*time.Millisecond, func() { n.Add(1) })
	s.stop()
	s.schedule("c", time.Millisecond, func() { n.Add(1) })

	time.Sleep(50 * time.Millisecond)
	if n.Load() != 0 {
		t.Errorf("fired %d times after stop, want 0", n.Load())
	}
}
