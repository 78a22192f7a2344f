package game

import (
	"time"

	"go-bingo/internal/card"
	"go-bingo/internal/ledger"
	"go-bingo/internal/pattern"
	"go-bingo/internal/reconnect"
	"go-bingo/internal/state"
	"go-bingo/internal/stats"
)

// Update is a presentation command produced by the engine. The presentation layer
// drains them in order; the engine never touches presentation state itself.
type Update interface {
	isUpdate()
}

type PhaseChanged struct {
	From, To state.Phase
}

// RoundReset means per-round state (card, ledger, marks, pattern) was cleared or
// replaced by a snapshot. Re-read the View.
type RoundReset struct{}

// CardChanged carries the selected card; nil means no card.
type CardChanged struct {
	Card *card.Card
}

type NumberDrawn struct {
	Call  ledger.CalledNumber
	Total int
}

type MarksChanged struct {
	Marked []int
}

// PatternAvailable carries the current advisory pattern; nil means none.
type PatternAvailable struct {
	Pattern *pattern.WinningPattern
}

type ClaimStatus struct {
	State  ClaimState
	Reason string
}

type CountdownTick struct {
	Seconds int
	Message string
}

type SelectionTick struct {
	SecondsLeft int
	Progress    float64
	Closed      bool
}

// NextCallTick is the cosmetic estimate until the next draw; zero means a call is due.
type NextCallTick struct {
	SecondsLeft int
}

type ElapsedTick struct {
	Elapsed time.Duration
}

type GameInfo struct {
	GameID      string
	PlayerCount int
	PrizePool   float64
}

type WinnersShown struct {
	Winners  []Winner
	Duration int
}

type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeSuccess
	NoticeWarning
	NoticeError
)

type Notice struct {
	Level   NoticeLevel
	Message string
}

type ConnectionChanged struct {
	Status  reconnect.Status
	Attempt int
}

type StatsChanged struct {
	Stats stats.PlayerStats
}

type SettingsChanged struct {
	Settings stats.Settings
}

func (PhaseChanged) isUpdate()      {}
func (RoundReset) isUpdate()        {}
func (CardChanged) isUpdate()       {}
func (NumberDrawn) isUpdate()       {}
func (MarksChanged) isUpdate()      {}
func (PatternAvailable) isUpdate()  {}
func (ClaimStatus) isUpdate()       {}
func (CountdownTick) isUpdate()     {}
func (SelectionTick) isUpdate()     {}
func (NextCallTick) isUpdate()      {}
func (ElapsedTick) isUpdate()       {}
func (GameInfo) isUpdate()          {}
func (WinnersShown) isUpdate()      {}
func (Notice) isUpdate()            {}
func (ConnectionChanged) isUpdate() {}
func (StatsChanged) isUpdate()      {}
func (SettingsChanged) isUpdate()   {}
