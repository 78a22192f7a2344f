package transport

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go-bingo/internal/game"
)

func TestDecodeEvent_GameState(t *testing.T) {
	frame := []byte(`{"type":"gameState","data":{"phase":"active","activeGame":{"gameId":"g7","playerCount":4,"prizePool":80,"selectedCard":77,"endTime":"2026-10-15T12:00:00Z"},"drawnNumbers":[3,18,40]}}`)

	ev, err := DecodeEvent(frame)
	if err != nil {
		t.Fatalf("DecodeEvent returned error: %v", err)
	}
	gs, ok := ev.(game.GameState)
	if !ok {
		t.Fatalf("expected game.GameState, got %T", ev)
	}
	if gs.Phase != "active" || len(gs.DrawnNumbers) != 3 {
		t.Errorf("unexpected snapshot %+v", gs)
	}
	if gs.ActiveGame == nil || gs.ActiveGame.SelectedCard != 77 || gs.ActiveGame.GameID != "g7" {
		t.Fatalf("unexpected active game %+v", gs.ActiveGame)
	}
	want := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	if !gs.ActiveGame.EndTime.Equal(want) {
		t.Errorf("expected end time %v, got %v", want, gs.ActiveGame.EndTime)
	}
}

func TestDecodeEvent_NumberCalled(t *testing.T) {
	ev, err := DecodeEvent([]byte(`{"type":"numberCalled","data":{"number":12,"letter":"B","callNumber":4}}`))
	if err != nil {
		t.Fatalf("DecodeEvent returned error: %v", err)
	}
	if nc, ok := ev.(game.NumberCalled); !ok || nc != (game.NumberCalled{Number: 12, Letter: "B", CallNumber: 4}) {
		t.Errorf("unexpected event %#v", ev)
	}
}

func TestDecodeEvent_Errors(t *testing.T) {
	if _, err := DecodeEvent([]byte(`{"type":"lobbyChat","data":{}}`)); !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("expected ErrUnknownEvent, got %v", err)
	}
	if _, err := DecodeEvent([]byte(`not json`)); err == nil {
		t.Error("expected error for malformed frame")
	}
	if _, err := DecodeEvent([]byte(`{"type":"numberCalled","data":{"number":"twelve"}}`)); err == nil {
		t.Error("expected error for malformed payload")
	}
	// Synthesized events never come off the wire.
	if _, err := DecodeEvent([]byte(`{"type":"disconnect"}`)); !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("expected ErrUnknownEvent for disconnect, got %v", err)
	}
}

func TestEncodeIntent_ClaimBingo(t *testing.T) {
	frame, err := EncodeIntent(game.ClaimBingo{
		ClaimID:        "c1",
		GameID:         "g1",
		CardNumber:     77,
		WinningPattern: "vertical-line-B",
		WinningNumbers: []int{1, 5, 9, 12, 14},
	})
	if err != nil {
		t.Fatalf("EncodeIntent returned error: %v", err)
	}

	var env struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(frame, &env); err != nil {
		t.Fatalf("frame is not JSON: %v", err)
	}
	if env.Type != "claimBingo" {
		t.Errorf("expected type claimBingo, got %s", env.Type)
	}
	for _, key := range []string{"claimId", "gameId", "cardNumber", "winningPattern", "winningNumbers"} {
		if _, ok := env.Data[key]; !ok {
			t.Errorf("missing field %s in %s", key, frame)
		}
	}
}
