package state

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/looplab/fsm"
)

// Phase is one stage of a round's lifecycle.
type Phase string

const (
	Idle          Phase = "idle"
	CardSelection Phase = "card_selection"
	Countdown     Phase = "countdown"
	Active        Phase = "active"
	Announcing    Phase = "announcing"
)

var Phases = []Phase{Idle, CardSelection, Countdown, Active, Announcing}

// ParsePhase accepts the phase names used on the wire ("waiting" is an alias of idle).
func ParsePhase(s string) (Phase, error) {
	switch s {
	case "waiting", "":
		return Idle, nil
	}
	for _, p := range Phases {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown phase %q", s)
}

var ErrInvalidPhaseTransition = errors.New("invalid phase transition")

const (
	evOpenSelection  = "openSelection"
	evStartCountdown = "startCountdown"
	evStart          = "start"
	evEnd            = "end"
	evFinish         = "finish"
	evAbandon        = "abandon"
)

// EnterFunc observes every phase change, including forced resets.
type EnterFunc func(from, to Phase)

// Machine guards the legal phase transitions of a round.
type Machine struct {
	mu      sync.Mutex
	fsm     *fsm.FSM
	onEnter EnterFunc
}

// NewMachine starts in Idle. onEnter may be nil.
func NewMachine(onEnter EnterFunc) *Machine {
	m := &Machine{onEnter: onEnter}
	m.fsm = fsm.NewFSM(
		string(Idle),
		getStateTransitions(),
		getStateCallbacks(m),
	)
	return m
}

func getStateTransitions() []fsm.EventDesc {
	return fsm.Events{
		{Name: evOpenSelection, Src: []string{string(Idle), string(Announcing)}, Dst: string(CardSelection)},
		{Name: evStartCountdown, Src: []string{string(CardSelection)}, Dst: string(Countdown)},
		{Name: evStart, Src: []string{string(Countdown)}, Dst: string(Active)},
		{Name: evEnd, Src: []string{string(Active)}, Dst: string(Announcing)},
		{Name: evFinish, Src: []string{string(Announcing)}, Dst: string(Idle)},

		// Unrecoverable disconnect.
		{Name: evAbandon, Src: []string{string(CardSelection), string(Countdown), string(Active), string(Announcing)}, Dst: string(Idle)},
	}
}

func getStateCallbacks(m *Machine) map[string]fsm.Callback {
	return fsm.Callbacks{
		"enter_state": func(_ context.Context, e *fsm.Event) {
			if m.onEnter != nil {
				m.onEnter(Phase(e.Src), Phase(e.Dst))
			}
		},
	}
}

// eventFor finds the ordinary event leading from the current phase to to.
func eventFor(from, to Phase) (string, bool) {
	for _, desc := range getStateTransitions() {
		if desc.Name == evAbandon || desc.Dst != string(to) {
			continue
		}
		for _, src := range desc.Src {
			if src == string(from) {
				return desc.Name, true
			}
		}
	}
	return "", false
}

func (m *Machine) Current() Phase {
	return Phase(m.fsm.Current())
}

func (m *Machine) Is(p Phase) bool {
	return m.Current() == p
}

// Can reports whether moving to to is legal from the current phase.
func (m *Machine) Can(to Phase) bool {
	_, ok := eventFor(m.Current(), to)
	return ok
}

// Transition moves to the requested phase. Illegal requests fail with
// ErrInvalidPhaseTransition and leave the phase unchanged.
func (m *Machine) Transition(ctx context.Context, to Phase) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	from := m.Current()
	name, ok := eventFor(from, to)
	if !ok {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidPhaseTransition, from, to)
	}
	if err := m.fsm.Event(ctx, name); err != nil {
		return fmt.Errorf("%w: %s -> %s: %v", ErrInvalidPhaseTransition, from, to, err)
	}
	return nil
}

// Abandon returns to Idle after the reconnect budget is exhausted. It is a no-op in Idle.
func (m *Machine) Abandon(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Current() == Idle {
		return nil
	}
	return m.fsm.Event(ctx, evAbandon)
}

// Reset forces the phase from an authoritative snapshot. The enter observer still
// runs when the phase changes.
func (m *Machine) Reset(p Phase) {
	m.mu.Lock()
	defer m.mu.Unlock()

	from := m.Current()
	m.fsm.SetState(string(p))
	if m.onEnter != nil && from != p {
		m.onEnter(from, p)
	}
}
