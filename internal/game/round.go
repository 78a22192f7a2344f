package game

import (
	"time"

	"go-bingo/internal/card"
	"go-bingo/internal/ledger"
	"go-bingo/internal/pattern"

	"github.com/jonboulle/clockwork"
)

// ClaimState is the local view of a bingo claim.
type ClaimState int

const (
	ClaimNone ClaimState = iota
	// ClaimPending blocks further claims until the authority answers or the round ends.
	ClaimPending
	ClaimConfirmed
)

func (c ClaimState) String() string {
	switch c {
	case ClaimPending:
		return "pending"
	case ClaimConfirmed:
		return "confirmed"
	}
	return "none"
}

// Round holds everything that lives for one round only. It is replaced wholesale on
// entering card selection and on every snapshot.
type Round struct {
	GameID      string
	PlayerCount int
	PrizePool   float64

	Card    *card.Card
	Marks   pattern.MarkedSet
	Ledger  *ledger.Ledger
	Pending *pattern.WinningPattern

	Claim   ClaimState
	ClaimID string

	StartedAt       time.Time
	EndTime         time.Time
	SelectionEndsAt time.Time
	SelectionLength time.Duration

	Winners []Winner
}

func newRound(displayCap int, clock clockwork.Clock) *Round {
	return &Round{
		Marks:  pattern.NewMarkedSet(),
		Ledger: ledger.New(displayCap, clock),
	}
}

// HasCard reports whether the player holds a card this round.
func (r *Round) HasCard() bool { return r.Card != nil }

// markCalled marks every called number on the card and reports whether any mark was added.
func (r *Round) markCalled() bool {
	if r.Card == nil {
		return false
	}
	added := false
	for _, n := range r.Ledger.Numbers() {
		if r.Card.Grid.Contains(n) && !r.Marks.Has(n) {
			r.Marks.Add(n)
			added = true
		}
	}
	return added
}

// evaluate re-runs pattern detection and reports whether the result changed.
func (r *Round) evaluate() bool {
	var next *pattern.WinningPattern
	if r.Card != nil {
		next = pattern.Evaluate(r.Card.Grid, r.Marks)
	}
	changed := !samePattern(r.Pending, next)
	r.Pending = next
	return changed
}

func samePattern(a, b *pattern.WinningPattern) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Kind == b.Kind && pattern.SameNumbers(a.Numbers, b.Numbers)
}
