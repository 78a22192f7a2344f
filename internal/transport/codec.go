package transport

import (
	"encoding/json"
	"errors"
	"fmt"

	"go-bingo/internal/game"
)

var ErrUnknownEvent = errors.New("unknown event type")

// Envelope is the frame format in both directions.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// DecodeEvent parses one inbound frame.
func DecodeEvent(frame []byte) (game.Event, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return ParseEventPayload(env)
}

// ParseEventPayload decodes the data of env into its event type.
func ParseEventPayload(env Envelope) (game.Event, error) {
	switch env.Type {
	case game.EventGameState:
		return decode[game.GameState](env)
	case game.EventGameCountdown:
		return decode[game.GameCountdown](env)
	case game.EventGameStarted:
		return decode[game.GameStarted](env)
	case game.EventNumberCalled:
		return decode[game.NumberCalled](env)
	case game.EventGameEnded:
		return decode[game.GameEnded](env)
	case game.EventWinnerAnnouncement:
		return decode[game.WinnerAnnouncement](env)
	case game.EventCardSelectionStarted:
		return decode[game.CardSelectionStarted](env)
	case game.EventCardSelectionUpdate:
		return decode[game.CardSelectionUpdate](env)
	case game.EventPlayerJoined:
		return decode[game.PlayerJoined](env)
	case game.EventBingoClaimed:
		return decode[game.BingoClaimed](env)
	case game.EventClaimRejected:
		return decode[game.ClaimRejected](env)
	case game.EventError:
		return decode[game.ServerError](env)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
	}
}

func decode[T game.Event](env Envelope) (game.Event, error) {
	var payload T
	if len(env.Data) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Type, err)
	}
	return payload, nil
}

// EncodeIntent builds the outbound frame for intent.
func EncodeIntent(intent game.Intent) ([]byte, error) {
	data, err := json.Marshal(intent)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", intent.Name(), err)
	}
	return json.Marshal(Envelope{Type: intent.Name(), Data: data})
}
