package game

import "time"

// Event is an inbound signal from the game authority or the transport. The set is
// closed: HandleEvent switches over every implementation.
type Event interface {
	Name() string
	isEvent()
}

// Inbound event names as they appear on the wire.
const (
	EventGameState            = "gameState"
	EventGameCountdown        = "gameCountdown"
	EventGameStarted          = "gameStarted"
	EventNumberCalled         = "numberCalled"
	EventGameEnded            = "gameEnded"
	EventWinnerAnnouncement   = "winnerAnnouncement"
	EventCardSelectionStarted = "cardSelectionStarted"
	EventCardSelectionUpdate  = "cardSelectionUpdate"
	EventPlayerJoined         = "playerJoined"
	EventBingoClaimed         = "bingoClaimed"
	EventClaimRejected        = "claimRejected"
	EventError                = "error"

	// Synthesized by the transport, never received.
	EventDisconnect      = "disconnect"
	EventReconnect       = "reconnect"
	EventReconnectFailed = "reconnectFailed"
)

type Winner struct {
	UserID      string  `json:"userId"`
	Username    string  `json:"username"`
	CardNumber  int     `json:"cardNumber"`
	Pattern     string  `json:"pattern"`
	PrizeAmount float64 `json:"prizeAmount"`
}

// ActiveGame is the round part of a snapshot.
type ActiveGame struct {
	GameID          string    `json:"gameId"`
	PlayerCount     int       `json:"playerCount"`
	PrizePool       float64   `json:"prizePool"`
	SelectedCard    int       `json:"selectedCard"`
	StartedAt       time.Time `json:"startedAt"`
	EndTime         time.Time `json:"endTime"`
	SelectionEndsAt time.Time `json:"selectionEndsAt"`
}

// GameState is an authoritative snapshot. It replaces local round state wholesale.
type GameState struct {
	Phase        string      `json:"phase"`
	ActiveGame   *ActiveGame `json:"activeGame"`
	DrawnNumbers []int       `json:"drawnNumbers"`
}

type GameCountdown struct {
	Seconds int    `json:"seconds"`
	Message string `json:"message"`
}

type GameStarted struct {
	GameID    string  `json:"gameId"`
	PrizePool float64 `json:"prizePool"`
	Duration  int     `json:"duration"`
}

type NumberCalled struct {
	Number     int    `json:"number"`
	Letter     string `json:"letter"`
	CallNumber int    `json:"callNumber"`
}

type GameEnded struct {
	Winners []Winner  `json:"winners"`
	EndTime time.Time `json:"endTime"`
}

type WinnerAnnouncement struct {
	Winners  []Winner `json:"winners"`
	Duration int      `json:"duration"`
}

type CardSelectionStarted struct {
	NextGameID string    `json:"nextGameId"`
	Duration   int       `json:"duration"`
	EndsAt     time.Time `json:"endsAt"`
}

type CardSelectionUpdate struct {
	SecondsLeft int     `json:"secondsLeft"`
	Progress    float64 `json:"progress"`
}

type PlayerJoined struct {
	PlayerCount    int     `json:"playerCount"`
	TotalPrizePool float64 `json:"totalPrizePool"`
}

type BingoClaimed struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type ClaimRejected struct {
	GameID string `json:"gameId"`
	Reason string `json:"reason"`
}

type ServerError struct {
	Message string `json:"message"`
}

type Disconnected struct {
	Reason string
}

type Reconnected struct{}

// ReconnectFailed reports one failed redial.
type ReconnectFailed struct {
	Attempt int
}

func (GameState) Name() string            { return EventGameState }
func (GameCountdown) Name() string        { return EventGameCountdown }
func (GameStarted) Name() string          { return EventGameStarted }
func (NumberCalled) Name() string         { return EventNumberCalled }
func (GameEnded) Name() string            { return EventGameEnded }
func (WinnerAnnouncement) Name() string   { return EventWinnerAnnouncement }
func (CardSelectionStarted) Name() string { return EventCardSelectionStarted }
func (CardSelectionUpdate) Name() string  { return EventCardSelectionUpdate }
func (PlayerJoined) Name() string         { return EventPlayerJoined }
func (BingoClaimed) Name() string         { return EventBingoClaimed }
func (ClaimRejected) Name() string        { return EventClaimRejected }
func (ServerError) Name() string          { return EventError }
func (Disconnected) Name() string         { return EventDisconnect }
func (Reconnected) Name() string          { return EventReconnect }
func (ReconnectFailed) Name() string      { return EventReconnectFailed }

func (GameState) isEvent()            {}
func (GameCountdown) isEvent()        {}
func (GameStarted) isEvent()          {}
func (NumberCalled) isEvent()         {}
func (GameEnded) isEvent()            {}
func (WinnerAnnouncement) isEvent()   {}
func (CardSelectionStarted) isEvent() {}
func (CardSelectionUpdate) isEvent()  {}
func (PlayerJoined) isEvent()         {}
func (BingoClaimed) isEvent()         {}
func (ClaimRejected) isEvent()        {}
func (ServerError) isEvent()          {}
func (Disconnected) isEvent()         {}
func (Reconnected) isEvent()          {}
func (ReconnectFailed) isEvent()      {}
