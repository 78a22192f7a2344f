package ledger

import (
	"errors"
	"fmt"
	"time"

	"go-bingo/internal/card"

	"github.com/jonboulle/clockwork"
)

// FirstSequence is the call number of the first draw in a round.
const FirstSequence = 1

// DefaultDisplayCap bounds how many calls Recent returns.
const DefaultDisplayCap = 50

var (
	ErrOutOfOrder      = errors.New("call out of order")
	ErrInvalidNumber   = errors.New("invalid called number")
	ErrDuplicateNumber = errors.New("number already called")
)

// CalledNumber is one draw as announced by the game authority.
type CalledNumber struct {
	Number   int
	Letter   string
	Sequence int
	At       time.Time
}

// Ledger is the ordered record of a round's draws. The full history is always kept;
// the display cap only limits what Recent returns.
type Ledger struct {
	clock      clockwork.Clock
	displayCap int
	calls      []CalledNumber
	called     map[int]bool
}

func New(displayCap int, clock clockwork.Clock) *Ledger {
	if displayCap <= 0 {
		displayCap = DefaultDisplayCap
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Ledger{
		clock:      clock,
		displayCap: displayCap,
		called:     make(map[int]bool),
	}
}

// Append records a draw. seq must follow the previous call exactly (or be
// FirstSequence on an empty ledger); on any error the ledger is unchanged.
func (l *Ledger) Append(number int, letter string, seq int) error {
	want := l.nextSequence()
	if seq != want {
		return fmt.Errorf("%w: got call %d, expected %d", ErrOutOfOrder, seq, want)
	}

	expected, ok := card.LetterFor(number)
	if !ok {
		return fmt.Errorf("%w: %d", ErrInvalidNumber, number)
	}
	if letter != "" && letter != expected {
		return fmt.Errorf("%w: %s-%d should be %s", ErrInvalidNumber, letter, number, expected)
	}
	if l.called[number] {
		return fmt.Errorf("%w: %s-%d", ErrDuplicateNumber, expected, number)
	}

	l.calls = append(l.calls, CalledNumber{
		Number:   number,
		Letter:   expected,
		Sequence: seq,
		At:       l.clock.Now(),
	})
	l.called[number] = true
	return nil
}

// Replace discards the history and rebuilds it from an authoritative draw list,
// numbering the calls from FirstSequence. The ledger is unchanged if the list is invalid.
func (l *Ledger) Replace(numbers []int) error {
	next := New(l.displayCap, l.clock)
	for i, n := range numbers {
		if err := next.Append(n, "", FirstSequence+i); err != nil {
			return fmt.Errorf("replace ledger at position %d: %w", i, err)
		}
	}
	l.calls = next.calls
	l.called = next.called
	return nil
}

// Reset clears the ledger for a new round.
func (l *Ledger) Reset() {
	l.calls = nil
	l.called = make(map[int]bool)
}

func (l *Ledger) nextSequence() int {
	if len(l.calls) == 0 {
		return FirstSequence
	}
	return l.calls[len(l.calls)-1].Sequence + 1
}

// Len is the full number of calls this round, independent of the display cap.
func (l *Ledger) Len() int { return len(l.calls) }

func (l *Ledger) Contains(number int) bool { return l.called[number] }

// Last returns the most recent call.
func (l *Ledger) Last() (CalledNumber, bool) {
	if len(l.calls) == 0 {
		return CalledNumber{}, false
	}
	return l.calls[len(l.calls)-1], true
}

// Recent returns up to the display cap of calls, most recent first.
func (l *Ledger) Recent() []CalledNumber {
	n := len(l.calls)
	if n > l.displayCap {
		n = l.displayCap
	}
	out := make([]CalledNumber, 0, n)
	for i := len(l.calls) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, l.calls[i])
	}
	return out
}

// All returns every call in order.
func (l *Ledger) All() []CalledNumber {
	return append([]CalledNumber(nil), l.calls...)
}

// Numbers returns every called number in order.
func (l *Ledger) Numbers() []int {
	out := make([]int, len(l.calls))
	for i, c := range l.calls {
		out[i] = c.Number
	}
	return out
}
