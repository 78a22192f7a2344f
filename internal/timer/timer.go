package timer

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Handle identifies a scheduled callback. Handles are never reused.
type Handle uint64

// Callback runs on the owner's goroutine when Dispatch is called for its fire.
type Callback func(now time.Time)

// Fire is a timer expiry waiting to be dispatched by the owner.
type Fire struct {
	Handle Handle
	At     time.Time
}

type entry struct {
	cb        Callback
	repeating bool
	stop      chan struct{}
}

// Service schedules cosmetic callbacks. Timer goroutines never run callbacks
// themselves; they only post fires, so the owner decides when callbacks run and a
// cancelled handle can never run, even if its fire is already queued.
type Service struct {
	clock clockwork.Clock

	mu     sync.Mutex
	next   Handle
	active map[Handle]*entry

	fired chan Fire
}

const firedBuffer = 64

func NewService(clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		clock:  clock,
		active: make(map[Handle]*entry),
		fired:  make(chan Fire, firedBuffer),
	}
}

func (s *Service) Clock() clockwork.Clock { return s.clock }

// Fired delivers expiries to the owner, who passes each to Dispatch.
func (s *Service) Fired() <-chan Fire { return s.fired }

// Schedule runs cb once after d.
func (s *Service) Schedule(d time.Duration, cb Callback) Handle {
	h, e := s.add(cb, false)
	t := s.clock.NewTimer(d)

	go func() {
		select {
		case at := <-t.Chan():
			if !e.stopped() {
				s.post(h, at)
			}
		case <-e.stop:
			stopAndDrainTimer(t)
		}
	}()
	return h
}

// ScheduleRepeating runs cb every interval until cancelled.
func (s *Service) ScheduleRepeating(interval time.Duration, cb Callback) Handle {
	h, e := s.add(cb, true)
	tk := s.clock.NewTicker(interval)

	go func() {
		defer tk.Stop()
		for {
			select {
			case at := <-tk.Chan():
				if e.stopped() {
					return
				}
				s.post(h, at)
			case <-e.stop:
				return
			}
		}
	}()
	return h
}

func (e *entry) stopped() bool {
	select {
	case <-e.stop:
		return true
	default:
		return false
	}
}

func (s *Service) add(cb Callback, repeating bool) (Handle, *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	e := &entry{cb: cb, repeating: repeating, stop: make(chan struct{})}
	s.active[s.next] = e
	return s.next, e
}

func (s *Service) post(h Handle, at time.Time) {
	select {
	case s.fired <- Fire{Handle: h, At: at}:
	default:
		log.Warn().Uint64("handle", uint64(h)).Msg("timer fire dropped, owner not draining")
	}
}

// Dispatch runs the callback for f if its handle is still live and reports whether it ran.
func (s *Service) Dispatch(f Fire) bool {
	s.mu.Lock()
	e, ok := s.active[f.Handle]
	if ok && !e.repeating {
		delete(s.active, f.Handle)
	}
	s.mu.Unlock()

	if !ok {
		return false
	}
	e.cb(f.At)
	return true
}

// Cancel stops h. It reports false if h already fired or was cancelled.
func (s *Service) Cancel(h Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.active[h]
	if !ok {
		return false
	}
	delete(s.active, h)
	close(e.stop)
	return true
}

// CancelAll stops every live handle and returns how many there were.
func (s *Service) CancelAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.active)
	for h, e := range s.active {
		close(e.stop)
		delete(s.active, h)
	}
	return n
}

// Pending is the number of live handles.
func (s *Service) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

func stopAndDrainTimer(t clockwork.Timer) {
	if !t.Stop() {
		select {
		case <-t.Chan():
		default:
		}
	}
}
