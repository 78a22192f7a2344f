package timer

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

type fakeClock interface {
	clockwork.Clock
	Advance(d time.Duration)
}

func newTestService() (*Service, fakeClock) {
	clock := clockwork.NewFakeClock()
	return NewService(clock), clock
}

func waitFire(t *testing.T, s *Service) Fire {
	t.Helper()
	select {
	case f := <-s.Fired():
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for timer fire")
	}
	return Fire{}
}

func expectNoFire(t *testing.T, s *Service) {
	t.Helper()
	select {
	case f := <-s.Fired():
		t.Fatalf("unexpected fire for handle %d", f.Handle)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSchedule_FiresOnceThroughDispatch(t *testing.T) {
	s, clock := newTestService()
	calls := 0
	h := s.Schedule(5*time.Second, func(time.Time) { calls++ })

	clock.Advance(4 * time.Second)
	expectNoFire(t, s)

	clock.Advance(time.Second)
	f := waitFire(t, s)
	if f.Handle != h {
		t.Fatalf("expected handle %d, got %d", h, f.Handle)
	}
	if calls != 0 {
		t.Fatal("callback must not run before Dispatch")
	}
	if !s.Dispatch(f) {
		t.Fatal("expected Dispatch to run the callback")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if s.Dispatch(f) {
		t.Error("one-shot callback must not run twice")
	}
	if s.Pending() != 0 {
		t.Errorf("expected no pending timers, got %d", s.Pending())
	}
}

func TestScheduleRepeating(t *testing.T) {
	s, clock := newTestService()
	calls := 0
	h := s.ScheduleRepeating(time.Second, func(time.Time) { calls++ })

	for i := 0; i < 3; i++ {
		clock.Advance(time.Second)
		s.Dispatch(waitFire(t, s))
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}

	if !s.Cancel(h) {
		t.Fatal("expected Cancel to succeed")
	}
	clock.Advance(time.Second)
	expectNoFire(t, s)
}

func TestCancel_QueuedFireIsStale(t *testing.T) {
	s, clock := newTestService()
	calls := 0
	s.Schedule(time.Second, func(time.Time) { calls++ })

	clock.Advance(time.Second)
	f := waitFire(t, s)

	if n := s.CancelAll(); n != 1 {
		t.Errorf("expected 1 cancelled timer, got %d", n)
	}
	if s.Dispatch(f) {
		t.Error("stale fire must not dispatch after CancelAll")
	}
	if calls != 0 {
		t.Errorf("expected no calls, got %d", calls)
	}
}

func TestCancelAll_StopsEverything(t *testing.T) {
	s, clock := newTestService()
	s.Schedule(time.Second, func(time.Time) {})
	s.Schedule(2*time.Second, func(time.Time) {})
	s.ScheduleRepeating(time.Second, func(time.Time) {})

	if s.Pending() != 3 {
		t.Fatalf("expected 3 pending, got %d", s.Pending())
	}
	if n := s.CancelAll(); n != 3 {
		t.Errorf("expected 3 cancelled, got %d", n)
	}

	clock.Advance(5 * time.Second)
	expectNoFire(t, s)

	if s.Cancel(Handle(1)) {
		t.Error("Cancel on a cancelled handle should report false")
	}
}

func TestHandles_AreUnique(t *testing.T) {
	s, _ := newTestService()
	a := s.Schedule(time.Second, func(time.Time) {})
	s.CancelAll()
	b := s.Schedule(time.Second, func(time.Time) {})
	if a == b {
		t.Error("handles must not be reused")
	}
}
