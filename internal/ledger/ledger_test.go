package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

type fakeClock interface {
	clockwork.Clock
	Advance(d time.Duration)
}

func newTestLedger(displayCap int) (*Ledger, fakeClock) {
	clock := clockwork.NewFakeClock()
	return New(displayCap, clock), clock
}

func TestLedger_AppendInOrder(t *testing.T) {
	l, clock := newTestLedger(0)

	calls := []int{5, 22, 40, 51, 70}
	for i, n := range calls {
		clock.Advance(time.Second)
		if err := l.Append(n, "", i+1); err != nil {
			t.Fatalf("Append(%d, seq %d) returned error: %v", n, i+1, err)
		}
	}

	if l.Len() != len(calls) {
		t.Errorf("expected %d calls, got %d", len(calls), l.Len())
	}
	last, ok := l.Last()
	if !ok || last.Number != 70 || last.Letter != "O" || last.Sequence != 5 {
		t.Errorf("unexpected last call: %+v", last)
	}
	if !last.At.Equal(clock.Now()) {
		t.Errorf("expected timestamp %v, got %v", clock.Now(), last.At)
	}
}

func TestLedger_GapIsOutOfOrder(t *testing.T) {
	l, _ := newTestLedger(0)
	for i, n := range []int{1, 2, 3} {
		if err := l.Append(n, "B", i+1); err != nil {
			t.Fatalf("Append returned error: %v", err)
		}
	}

	err := l.Append(4, "B", 5)
	if !errors.Is(err, ErrOutOfOrder) {
		t.Fatalf("expected ErrOutOfOrder, got %v", err)
	}
	if l.Len() != 3 {
		t.Errorf("expected ledger length unchanged at 3, got %d", l.Len())
	}
	if l.Contains(4) {
		t.Error("rejected number must not be recorded")
	}
}

func TestLedger_DuplicateAndStaleSequence(t *testing.T) {
	l, _ := newTestLedger(0)
	_ = l.Append(10, "B", 1)

	if err := l.Append(11, "B", 1); !errors.Is(err, ErrOutOfOrder) {
		t.Errorf("expected ErrOutOfOrder for repeated sequence, got %v", err)
	}
	if err := l.Append(10, "B", 2); !errors.Is(err, ErrDuplicateNumber) {
		t.Errorf("expected ErrDuplicateNumber, got %v", err)
	}
	if l.Len() != 1 {
		t.Errorf("expected length 1, got %d", l.Len())
	}
}

func TestLedger_FirstCallMustStartTheRound(t *testing.T) {
	l, _ := newTestLedger(0)
	if err := l.Append(10, "B", 2); !errors.Is(err, ErrOutOfOrder) {
		t.Errorf("expected ErrOutOfOrder on empty ledger, got %v", err)
	}
}

func TestLedger_InvalidNumbers(t *testing.T) {
	l, _ := newTestLedger(0)
	if err := l.Append(76, "O", 1); !errors.Is(err, ErrInvalidNumber) {
		t.Errorf("expected ErrInvalidNumber for 76, got %v", err)
	}
	if err := l.Append(20, "B", 1); !errors.Is(err, ErrInvalidNumber) {
		t.Errorf("expected ErrInvalidNumber for letter mismatch, got %v", err)
	}
	if l.Len() != 0 {
		t.Errorf("expected empty ledger, got %d", l.Len())
	}
}

func TestLedger_RecentRespectsDisplayCap(t *testing.T) {
	l, _ := newTestLedger(3)
	for i := 1; i <= 10; i++ {
		if err := l.Append(i*7, "", i); err != nil {
			t.Fatalf("Append returned error: %v", err)
		}
	}

	recent := l.Recent()
	if len(recent) != 3 {
		t.Fatalf("expected 3 recent calls, got %d", len(recent))
	}
	if recent[0].Sequence != 10 || recent[2].Sequence != 8 {
		t.Errorf("expected most recent first, got %+v", recent)
	}
	if l.Len() != 10 {
		t.Errorf("display cap must not affect length, got %d", l.Len())
	}
	if len(l.All()) != 10 {
		t.Errorf("expected full history of 10, got %d", len(l.All()))
	}
}

func TestLedger_Replace(t *testing.T) {
	l, _ := newTestLedger(0)
	_ = l.Append(3, "B", 1)
	_ = l.Append(17, "I", 2)

	drawn := []int{60, 61, 62, 1, 2, 16, 31, 46, 47, 48, 49, 50}
	if err := l.Replace(drawn); err != nil {
		t.Fatalf("Replace returned error: %v", err)
	}
	if l.Len() != 12 {
		t.Fatalf("expected 12 calls, got %d", l.Len())
	}
	if l.Contains(3) || l.Contains(17) {
		t.Error("expected previous calls to be discarded")
	}
	if err := l.Append(75, "O", 13); err != nil {
		t.Errorf("expected call 13 to follow the snapshot, got %v", err)
	}
}

func TestLedger_ReplaceInvalidKeepsState(t *testing.T) {
	l, _ := newTestLedger(0)
	_ = l.Append(3, "B", 1)

	if err := l.Replace([]int{4, 4}); !errors.Is(err, ErrDuplicateNumber) {
		t.Fatalf("expected ErrDuplicateNumber, got %v", err)
	}
	if l.Len() != 1 || !l.Contains(3) {
		t.Error("expected ledger unchanged after invalid replace")
	}
}

func TestLedger_Reset(t *testing.T) {
	l, _ := newTestLedger(0)
	_ = l.Append(3, "B", 1)
	l.Reset()
	if l.Len() != 0 || l.Contains(3) {
		t.Error("expected empty ledger after reset")
	}
	if err := l.Append(3, "B", 1); err != nil {
		t.Errorf("expected fresh round to accept call 1, got %v", err)
	}
}
