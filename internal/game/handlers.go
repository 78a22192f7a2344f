package game

import (
	"context"
	"errors"
	"time"

	"go-bingo/internal/ledger"
	"go-bingo/internal/reconnect"
	"go-bingo/internal/state"
	"go-bingo/internal/stats"

	"github.com/rs/zerolog/log"
)

// HandleEvent applies one inbound event. Events inconsistent with the current phase
// are logged and ignored.
func (e *Engine) HandleEvent(ctx context.Context, ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	log.Debug().Str("event", ev.Name()).Str("phase", string(e.machine.Current())).Msg("event received")

	switch ev := ev.(type) {
	case GameState:
		e.onGameState(ev)
	case GameCountdown:
		e.onGameCountdown(ctx, ev)
	case GameStarted:
		e.onGameStarted(ctx, ev)
	case NumberCalled:
		e.onNumberCalled(ctx, ev)
	case GameEnded:
		e.onGameEnded(ctx, ev)
	case WinnerAnnouncement:
		e.onWinnerAnnouncement(ev)
	case CardSelectionStarted:
		e.onCardSelectionStarted(ctx, ev)
	case CardSelectionUpdate:
		e.onCardSelectionUpdate(ev)
	case PlayerJoined:
		e.onPlayerJoined(ev)
	case BingoClaimed:
		e.onBingoClaimed(ev)
	case ClaimRejected:
		e.onClaimRejected(ev)
	case ServerError:
		log.Warn().Str("message", ev.Message).Msg("server error")
		e.notice(NoticeError, "Server: %s", ev.Message)
	case Disconnected:
		e.onDisconnected(ev)
	case Reconnected:
		e.onReconnected(ctx)
	case ReconnectFailed:
		e.onReconnectFailed(ctx, ev)
	default:
		log.Warn().Str("event", ev.Name()).Msg("unhandled event")
	}
}

func (e *Engine) ignore(ev Event, reason string) {
	log.Warn().
		Str("event", ev.Name()).
		Str("phase", string(e.machine.Current())).
		Str("reason", reason).
		Msg("ignoring event")
}

// inPhase reports whether ev is consistent with the current phase, logging it otherwise.
func (e *Engine) inPhase(ev Event, phases ...state.Phase) bool {
	current := e.machine.Current()
	for _, p := range phases {
		if current == p {
			return true
		}
	}
	e.ignore(ev, "inconsistent with phase")
	return false
}

func (e *Engine) transition(ctx context.Context, ev Event, to state.Phase) bool {
	if err := e.machine.Transition(ctx, to); err != nil {
		log.Warn().Err(err).Str("event", ev.Name()).Msg("ignoring phase signal")
		return false
	}
	return true
}

func (e *Engine) gameInfo() {
	r := e.round
	e.emit(GameInfo{GameID: r.GameID, PlayerCount: r.PlayerCount, PrizePool: r.PrizePool})
}

func (e *Engine) onCardSelectionStarted(ctx context.Context, ev CardSelectionStarted) {
	if !e.transition(ctx, ev, state.CardSelection) {
		return
	}
	r := e.round
	r.GameID = ev.NextGameID
	r.SelectionLength = time.Duration(ev.Duration) * time.Second
	r.SelectionEndsAt = ev.EndsAt
	if r.SelectionEndsAt.IsZero() {
		r.SelectionEndsAt = e.clock.Now().Add(r.SelectionLength)
	}
	e.gameInfo()
	e.startSelectionCountdown()
}

func (e *Engine) onCardSelectionUpdate(ev CardSelectionUpdate) {
	if !e.inPhase(ev, state.CardSelection) {
		return
	}
	e.emit(SelectionTick{SecondsLeft: ev.SecondsLeft, Progress: ev.Progress, Closed: ev.SecondsLeft <= 0})
}

func (e *Engine) onGameCountdown(ctx context.Context, ev GameCountdown) {
	switch e.machine.Current() {
	case state.Countdown:
	case state.CardSelection:
		if !e.transition(ctx, ev, state.Countdown) {
			return
		}
	default:
		e.ignore(ev, "inconsistent with phase")
		return
	}
	e.emit(CountdownTick{Seconds: ev.Seconds, Message: ev.Message})
}

func (e *Engine) onGameStarted(ctx context.Context, ev GameStarted) {
	if !e.transition(ctx, ev, state.Active) {
		return
	}
	r := e.round
	if ev.GameID != "" {
		r.GameID = ev.GameID
	}
	r.PrizePool = ev.PrizePool
	r.StartedAt = e.clock.Now()
	if ev.Duration > 0 {
		r.EndTime = r.StartedAt.Add(time.Duration(ev.Duration) * time.Second)
	}
	log.Info().Str("game_id", r.GameID).Bool("has_card", r.HasCard()).Msg("game started")
	e.gameInfo()
	e.startElapsed()
}

func (e *Engine) onNumberCalled(ctx context.Context, ev NumberCalled) {
	if !e.inPhase(ev, state.Active) {
		return
	}
	r := e.round
	if err := r.Ledger.Append(ev.Number, ev.Letter, ev.CallNumber); err != nil {
		if errors.Is(err, ledger.ErrInvalidNumber) {
			e.ignore(ev, err.Error())
			return
		}
		// Gap or repeat: local history can no longer be trusted.
		log.Warn().Err(err).Int("call", ev.CallNumber).Msg("ledger inconsistent, requesting snapshot")
		if e.conn.Status() == reconnect.Resyncing && e.conn.AwaitingSnapshot() {
			return
		}
		if err := e.resync(ctx); err != nil {
			log.Warn().Err(err).Msg("snapshot request failed")
		}
		return
	}

	call, _ := r.Ledger.Last()
	e.emit(NumberDrawn{Call: call, Total: r.Ledger.Len()})
	e.startNextCallCountdown()

	if r.Card != nil && r.Card.Grid.Contains(ev.Number) && e.store.Settings().AutoMark {
		r.Marks.Add(ev.Number)
		e.marksChanged()
	}
}

func (e *Engine) onGameEnded(ctx context.Context, ev GameEnded) {
	if !e.transition(ctx, ev, state.Announcing) {
		return
	}
	r := e.round
	r.Winners = ev.Winners
	r.EndTime = ev.EndTime
	e.emit(WinnersShown{Winners: ev.Winners})

	if !r.HasCard() {
		return
	}
	result := stats.RoundResult{GameID: r.GameID, CardNumber: r.Card.Number, At: e.clock.Now()}
	for _, w := range ev.Winners {
		if w.UserID != "" && w.UserID == e.opts.UserID {
			result.Won = true
			result.Prize += w.PrizeAmount
			result.Pattern = w.Pattern
		}
	}

	ps, err := e.store.RecordRound(result)
	if err != nil {
		log.Error().Err(err).Msg("could not persist stats")
		e.notice(NoticeError, "Stats not saved: %v", err)
	}
	e.emit(StatsChanged{Stats: ps})
	if result.Won {
		e.notice(NoticeSuccess, "You won %.2f with %s!", result.Prize, result.Pattern)
	}
	log.Info().Str("game_id", r.GameID).Bool("won", result.Won).Float64("prize", result.Prize).Msg("round recorded")
}

func (e *Engine) onWinnerAnnouncement(ev WinnerAnnouncement) {
	if !e.inPhase(ev, state.Announcing) {
		return
	}
	e.round.Winners = ev.Winners
	e.emit(WinnersShown{Winners: ev.Winners, Duration: ev.Duration})
}

func (e *Engine) onPlayerJoined(ev PlayerJoined) {
	if !e.inPhase(ev, state.CardSelection, state.Countdown, state.Active) {
		return
	}
	e.round.PlayerCount = ev.PlayerCount
	e.round.PrizePool = ev.TotalPrizePool
	e.gameInfo()
}

func (e *Engine) onBingoClaimed(ev BingoClaimed) {
	if !e.inPhase(ev, state.Active, state.Announcing) {
		return
	}
	if ev.UserID != "" && ev.UserID == e.opts.UserID {
		e.round.Claim = ClaimConfirmed
		e.emit(ClaimStatus{State: ClaimConfirmed})
		e.notice(NoticeSuccess, "BINGO confirmed!")
		return
	}
	e.notice(NoticeWarning, "%s claimed BINGO!", ev.Username)
}

func (e *Engine) onClaimRejected(ev ClaimRejected) {
	r := e.round
	if !e.inPhase(ev, state.Active) {
		return
	}
	if r.Claim != ClaimPending {
		e.ignore(ev, "no claim pending")
		return
	}
	if ev.GameID != "" && r.GameID != "" && ev.GameID != r.GameID {
		e.ignore(ev, "different game")
		return
	}
	r.Claim = ClaimNone
	r.ClaimID = ""
	log.Warn().Str("reason", ev.Reason).Msg("claim rejected")
	e.emit(ClaimStatus{State: ClaimNone, Reason: ev.Reason})
	e.notice(NoticeError, "%v: %s", ErrClaimRejected, ev.Reason)
}

func (e *Engine) onDisconnected(ev Disconnected) {
	if !e.conn.Lost() {
		return
	}
	e.timers.CancelAll()
	e.handles = timerHandles{}
	if e.round.Claim == ClaimPending {
		e.round.Claim = ClaimNone
		e.round.ClaimID = ""
		e.emit(ClaimStatus{State: ClaimNone, Reason: "connection lost"})
	}
	log.Warn().Str("reason", ev.Reason).Msg("disconnected")
	e.emit(ConnectionChanged{Status: e.conn.Status()})
	e.notice(NoticeWarning, "Connection lost, reconnecting...")
}

func (e *Engine) onReconnected(ctx context.Context) {
	e.conn.Restored()
	e.emit(ConnectionChanged{Status: e.conn.Status()})
	if err := e.send(ctx, GetGameState{}); err != nil {
		log.Warn().Err(err).Msg("snapshot request after reconnect failed")
	}
}

func (e *Engine) onReconnectFailed(ctx context.Context, ev ReconnectFailed) {
	wasOffline := e.conn.Status() == reconnect.Offline
	e.conn.Lost()
	exhausted := e.conn.AttemptFailed()
	e.emit(ConnectionChanged{Status: e.conn.Status(), Attempt: e.conn.Attempts()})
	if !exhausted || wasOffline {
		return
	}

	log.Error().Int("attempt", ev.Attempt).Msg("reconnect budget exhausted, abandoning round")
	if err := e.machine.Abandon(ctx); err != nil {
		log.Error().Err(err).Msg("abandon failed")
	}
	e.notice(NoticeError, "Unable to reconnect. Check your connection.")
}

// onGameState replaces all round state from an authoritative snapshot. The
// replacement is built completely before anything is swapped in; an invalid
// snapshot leaves the current state untouched.
func (e *Engine) onGameState(ev GameState) {
	phase, err := state.ParsePhase(ev.Phase)
	if err != nil {
		e.ignore(ev, err.Error())
		return
	}

	next := newRound(e.opts.DisplayCap, e.clock)
	if err := next.Ledger.Replace(ev.DrawnNumbers); err != nil {
		e.ignore(ev, err.Error())
		return
	}
	if g := ev.ActiveGame; g != nil {
		next.GameID = g.GameID
		next.PlayerCount = g.PlayerCount
		next.PrizePool = g.PrizePool
		next.StartedAt = g.StartedAt
		next.EndTime = g.EndTime
		next.SelectionEndsAt = g.SelectionEndsAt
		if g.SelectedCard != 0 {
			c, err := e.gen.New(g.SelectedCard)
			if err != nil {
				log.Warn().Err(err).Int("card", g.SelectedCard).Msg("snapshot card invalid, dropping selection")
			} else {
				next.Card = c
			}
		}
	}
	if e.store.Settings().AutoMark {
		next.markCalled()
	}
	next.evaluate()
	if phase == state.Active && next.StartedAt.IsZero() {
		next.StartedAt = e.clock.Now()
	}
	// A claim survives a resync of the same round; it only ends with the round.
	if phase == e.machine.Current() && next.GameID != "" && next.GameID == e.round.GameID {
		next.Claim = e.round.Claim
		next.ClaimID = e.round.ClaimID
	}

	// Reset runs onEnter when the phase changes; the snapshot round is swapped in
	// afterwards so it is not cleared.
	e.machine.Reset(phase)
	e.timers.CancelAll()
	e.handles = timerHandles{}
	e.round = next
	e.conn.SnapshotApplied()

	log.Info().
		Str("phase", string(phase)).
		Str("game_id", next.GameID).
		Int("calls", next.Ledger.Len()).
		Bool("has_card", next.HasCard()).
		Msg("snapshot applied")

	e.emit(ConnectionChanged{Status: e.conn.Status()})
	e.emit(RoundReset{})
	e.emit(CardChanged{Card: next.Card})
	e.emit(MarksChanged{Marked: next.Marks.Sorted()})
	e.emit(PatternAvailable{Pattern: next.Pending})
	e.emit(ClaimStatus{State: next.Claim})
	e.gameInfo()

	switch phase {
	case state.CardSelection:
		if !next.SelectionEndsAt.IsZero() {
			e.startSelectionCountdown()
		}
	case state.Active:
		e.startElapsed()
		if next.Ledger.Len() > 0 {
			e.startNextCallCountdown()
		}
	}
}
