package game

import (
	"context"
	"fmt"

	"go-bingo/internal/state"
	"go-bingo/internal/stats"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// reject reports a refused user action as a warning notice and returns err.
func (e *Engine) reject(action string, err error) error {
	log.Debug().Err(err).Str("action", action).Str("phase", string(e.machine.Current())).Msg("action rejected")
	e.notice(NoticeWarning, "%s: %v", action, err)
	return err
}

func (e *Engine) requirePhase(action string, phases ...state.Phase) error {
	current := e.machine.Current()
	for _, p := range phases {
		if current == p {
			return nil
		}
	}
	return e.reject(action, fmt.Errorf("%w: %s during %s", ErrPhaseMismatch, action, current))
}

// SelectCard picks the player's card for the upcoming round.
func (e *Engine) SelectCard(ctx context.Context, number int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selectCardLocked(ctx, number)
}

func (e *Engine) selectCardLocked(ctx context.Context, number int) error {
	if err := e.requirePhase("select card", state.CardSelection); err != nil {
		return err
	}
	c, err := e.gen.New(number)
	if err != nil {
		return e.reject("select card", err)
	}
	if err := e.send(ctx, SelectCard{CardNumber: number, GameID: e.round.GameID}); err != nil {
		return e.reject("select card", err)
	}

	e.round.Card = c
	e.round.Marks.Clear()
	e.round.Pending = nil
	log.Info().Int("card", number).Str("game_id", e.round.GameID).Msg("card selected")
	e.emit(CardChanged{Card: c})
	e.emit(MarksChanged{})
	return nil
}

// QuickSelect selects a random valid card other than the current one.
func (e *Engine) QuickSelect(ctx context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requirePhase("quick select", state.CardSelection); err != nil {
		return 0, err
	}
	span := e.gen.Max() - e.gen.Min() + 1
	n := e.gen.Min() + e.rng.Intn(span)
	if e.round.Card != nil && n == e.round.Card.Number && span > 1 {
		n = e.gen.Min() + (n-e.gen.Min()+1)%span
	}
	if err := e.selectCardLocked(ctx, n); err != nil {
		return 0, err
	}
	return n, nil
}

// ToggleMark marks or unmarks a number on the card and re-evaluates patterns.
func (e *Engine) ToggleMark(number int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requirePhase("mark", state.Active); err != nil {
		return err
	}
	if e.round.Card == nil {
		return e.reject("mark", ErrNoCard)
	}
	if !e.round.Card.Grid.Contains(number) {
		return e.reject("mark", fmt.Errorf("%w: %d", ErrNotOnCard, number))
	}

	e.round.Marks.Toggle(number)
	e.marksChanged()
	return nil
}

// ClearMarks removes every mark.
func (e *Engine) ClearMarks() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requirePhase("clear marks", state.Active); err != nil {
		return err
	}
	e.round.Marks.Clear()
	e.marksChanged()
	return nil
}

func (e *Engine) marksChanged() {
	e.emit(MarksChanged{Marked: e.round.Marks.Sorted()})
	if !e.round.evaluate() {
		return
	}
	e.emit(PatternAvailable{Pattern: e.round.Pending})
	if p := e.round.Pending; p != nil {
		log.Info().Str("pattern", string(p.Kind)).Ints("numbers", p.Numbers).Msg("winning pattern available")
		e.notice(NoticeSuccess, "BINGO available: %s", p.Kind)
	}
}

// ClaimBingo submits the current pattern. Further claims are blocked until the
// authority answers or the round ends.
func (e *Engine) ClaimBingo(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requirePhase("claim", state.Active); err != nil {
		return err
	}
	r := e.round
	if r.Claim != ClaimNone {
		return e.reject("claim", ErrClaimPending)
	}
	if r.Card == nil {
		return e.reject("claim", ErrNoCard)
	}
	if r.Pending == nil {
		return e.reject("claim", ErrNoWinningPattern)
	}

	claim := ClaimBingo{
		ClaimID:        uuid.NewString(),
		GameID:         r.GameID,
		CardNumber:     r.Card.Number,
		WinningPattern: string(r.Pending.Kind),
		WinningNumbers: append([]int(nil), r.Pending.Numbers...),
	}
	if err := e.send(ctx, claim); err != nil {
		return e.reject("claim", err)
	}

	r.Claim = ClaimPending
	r.ClaimID = claim.ClaimID
	log.Info().Str("claim_id", claim.ClaimID).Str("pattern", claim.WinningPattern).Msg("bingo claimed")
	e.emit(ClaimStatus{State: ClaimPending})
	return nil
}

// JoinGame enters the next round with bet, or the configured bet when bet is not positive.
func (e *Engine) JoinGame(ctx context.Context, bet float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requirePhase("join", state.Idle, state.CardSelection); err != nil {
		return err
	}
	if bet <= 0 {
		bet = e.opts.BetAmount
	}
	if err := e.send(ctx, JoinGame{BetAmount: bet}); err != nil {
		return e.reject("join", err)
	}
	e.notice(NoticeInfo, "Joining with bet %.2f", bet)
	return nil
}

// RequestResync asks for a full snapshot regardless of any outstanding request.
func (e *Engine) RequestResync(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.resync(ctx); err != nil {
		return e.reject("resync", err)
	}
	return nil
}

// SetAutoMark toggles auto-marking. Turning it on marks every number already called.
func (e *Engine) SetAutoMark(on bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.store.Settings()
	s.AutoMark = on
	if err := e.updateSettingsLocked(s); err != nil {
		return err
	}
	if on && e.machine.Is(state.Active) && e.round.markCalled() {
		e.marksChanged()
	}
	return nil
}

// UpdateSettings replaces and persists the player's settings.
func (e *Engine) UpdateSettings(s stats.Settings) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.updateSettingsLocked(s)
}

func (e *Engine) updateSettingsLocked(s stats.Settings) error {
	err := e.store.UpdateSettings(s)
	e.emit(SettingsChanged{Settings: s})
	if err != nil {
		log.Error().Err(err).Msg("could not persist settings")
		e.notice(NoticeError, "Settings not saved: %v", err)
		return err
	}
	return nil
}
