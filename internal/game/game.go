package game

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go-bingo/internal/card"
	"go-bingo/internal/ledger"
	"go-bingo/internal/pattern"
	"go-bingo/internal/reconnect"
	"go-bingo/internal/state"
	"go-bingo/internal/stats"
	"go-bingo/internal/timer"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Options configure an Engine.
type Options struct {
	UserID    string
	Username  string
	BetAmount float64

	CardMin, CardMax int
	DisplayCap       int
	// NextCallInterval is the cosmetic estimate between draws.
	NextCallInterval time.Duration
	Reconnect        reconnect.Policy
}

func DefaultOptions() Options {
	return Options{
		BetAmount:        10,
		CardMin:          card.DefaultMinNumber,
		CardMax:          card.DefaultMaxNumber,
		DisplayCap:       ledger.DefaultDisplayCap,
		NextCallInterval: 5 * time.Second,
		Reconnect:        reconnect.DefaultPolicy(),
	}
}

// HistoryShown bounds the history lists carried by a View.
const HistoryShown = 5

type timerHandles struct {
	nextCall  timer.Handle
	elapsed   timer.Handle
	selection timer.Handle
}

// Engine encapsulates the client side of a round, independent of the UI and the
// transport. Every inbound event, user action and timer fire goes through the same
// mutex, so no two operations interleave mid-mutation.
type Engine struct {
	mu sync.Mutex

	opts    Options
	clock   clockwork.Clock
	sender  Sender
	store   *stats.Store
	gen     *card.Generator
	machine *state.Machine
	timers  *timer.Service
	conn    *reconnect.Coordinator
	rng     *rand.Rand

	round   *Round
	handles timerHandles

	updates []Update
	notify  chan struct{}
}

// NewEngine builds an idle engine. store must already be open.
func NewEngine(opts Options, sender Sender, store *stats.Store, clock clockwork.Clock) (*Engine, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	gen, err := card.NewGenerator(opts.CardMin, opts.CardMax)
	if err != nil {
		return nil, fmt.Errorf("card range: %w", err)
	}
	if opts.NextCallInterval <= 0 {
		opts.NextCallInterval = DefaultOptions().NextCallInterval
	}

	e := &Engine{
		opts:   opts,
		clock:  clock,
		sender: sender,
		store:  store,
		gen:    gen,
		timers: timer.NewService(clock),
		conn:   reconnect.NewCoordinator(opts.Reconnect),
		rng:    rand.New(rand.NewSource(clock.Now().UnixNano())),
		notify: make(chan struct{}, 1),
	}
	e.round = newRound(opts.DisplayCap, clock)
	e.machine = state.NewMachine(e.onEnter)
	return e, nil
}

// Run requests an initial snapshot, then feeds events and timer fires through the
// intake until ctx is done or events is closed.
func (e *Engine) Run(ctx context.Context, events <-chan Event) error {
	if err := e.RequestResync(ctx); err != nil {
		log.Warn().Err(err).Msg("initial snapshot request failed")
	}
	defer e.timers.CancelAll()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			e.HandleEvent(ctx, ev)
		case f := <-e.timers.Fired():
			e.dispatchTimer(f)
		}
	}
}

func (e *Engine) dispatchTimer(f timer.Fire) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.timers.Dispatch(f)
}

// Notify is signalled whenever updates are queued.
func (e *Engine) Notify() <-chan struct{} { return e.notify }

// DrainUpdates returns and clears the queued updates in order.
func (e *Engine) DrainUpdates() []Update {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := e.updates
	e.updates = nil
	return out
}

func (e *Engine) emit(u Update) {
	e.updates = append(e.updates, u)
	select {
	case e.notify <- struct{}{}:
	default:
	}
}

func (e *Engine) notice(level NoticeLevel, format string, args ...any) {
	e.emit(Notice{Level: level, Message: fmt.Sprintf(format, args...)})
}

// View is a render snapshot of the engine.
type View struct {
	Phase      state.Phase
	Connection reconnect.Status

	GameID      string
	PlayerCount int
	PrizePool   float64

	Card    *card.Card
	Marked  []int
	Recent  []ledger.CalledNumber
	Drawn   []int
	Calls   int
	Pending *pattern.WinningPattern
	Claim   ClaimState
	Winners []Winner

	SelectionEndsAt time.Time
	StartedAt       time.Time

	Stats      stats.PlayerStats
	Settings   stats.Settings
	// PastRounds and TopWins come from the persisted round history.
	PastRounds []stats.RoundResult
	TopWins    []stats.RoundResult
}

func (e *Engine) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()

	r := e.round
	history := e.store.History()
	v := View{
		Phase:           e.machine.Current(),
		Connection:      e.conn.Status(),
		GameID:          r.GameID,
		PlayerCount:     r.PlayerCount,
		PrizePool:       r.PrizePool,
		Marked:          r.Marks.Sorted(),
		Recent:          r.Ledger.Recent(),
		Drawn:           r.Ledger.Numbers(),
		Calls:           r.Ledger.Len(),
		Claim:           r.Claim,
		Winners:         append([]Winner(nil), r.Winners...),
		SelectionEndsAt: r.SelectionEndsAt,
		StartedAt:       r.StartedAt,
		Stats:           e.store.Stats(),
		Settings:        e.store.Settings(),
		PastRounds:      history.Recent(HistoryShown),
		TopWins:         history.TopWins(HistoryShown),
	}
	if r.Card != nil {
		c := *r.Card
		v.Card = &c
	}
	if r.Pending != nil {
		p := *r.Pending
		p.Numbers = append([]int(nil), r.Pending.Numbers...)
		v.Pending = &p
	}
	return v
}

func (e *Engine) Phase() state.Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.machine.Current()
}

func (e *Engine) Generator() *card.Generator { return e.gen }

// onEnter runs inside every phase change, including snapshot resets.
func (e *Engine) onEnter(from, to state.Phase) {
	e.timers.CancelAll()
	e.handles = timerHandles{}

	if e.round.Claim == ClaimPending {
		e.round.Claim = ClaimNone
		e.round.ClaimID = ""
	}

	switch to {
	case state.CardSelection, state.Idle:
		e.round = newRound(e.opts.DisplayCap, e.clock)
		e.emit(RoundReset{})
	}

	log.Info().Str("from", string(from)).Str("to", string(to)).Msg("phase changed")
	e.emit(PhaseChanged{From: from, To: to})
}

func (e *Engine) send(ctx context.Context, intent Intent) error {
	if e.sender == nil || !e.conn.Available() {
		return ErrTransportLost
	}
	if err := e.sender.Send(ctx, intent); err != nil {
		log.Warn().Err(err).Str("intent", intent.Name()).Msg("send failed")
		return fmt.Errorf("%w: %v", ErrTransportLost, err)
	}
	log.Debug().Str("intent", intent.Name()).Msg("intent sent")
	return nil
}

// resync asks the authority for a full snapshot.
func (e *Engine) resync(ctx context.Context) error {
	e.conn.RequestResync()
	e.emit(ConnectionChanged{Status: e.conn.Status()})
	return e.send(ctx, GetGameState{})
}
