package game

import "context"

// Intent is an outbound request to the game authority.
type Intent interface {
	Name() string
	isIntent()
}

// Outbound intent names as they appear on the wire.
const (
	IntentSelectCard   = "selectCard"
	IntentClaimBingo   = "claimBingo"
	IntentJoinGame     = "joinGame"
	IntentGetGameState = "getGameState"
)

type SelectCard struct {
	CardNumber int    `json:"cardNumber"`
	GameID     string `json:"gameId"`
}

type ClaimBingo struct {
	ClaimID        string `json:"claimId"`
	GameID         string `json:"gameId"`
	CardNumber     int    `json:"cardNumber"`
	WinningPattern string `json:"winningPattern"`
	WinningNumbers []int  `json:"winningNumbers"`
}

type JoinGame struct {
	BetAmount float64 `json:"betAmount"`
}

// GetGameState asks for a full snapshot.
type GetGameState struct{}

func (SelectCard) Name() string   { return IntentSelectCard }
func (ClaimBingo) Name() string   { return IntentClaimBingo }
func (JoinGame) Name() string     { return IntentJoinGame }
func (GetGameState) Name() string { return IntentGetGameState }

func (SelectCard) isIntent()   {}
func (ClaimBingo) isIntent()   {}
func (JoinGame) isIntent()     {}
func (GetGameState) isIntent() {}

// Sender delivers intents to the game authority.
type Sender interface {
	Send(ctx context.Context, intent Intent) error
}
