package stats

import (
	"sort"
	"time"
)

// HistoryLimit is how many rounds are kept.
const HistoryLimit = 20

// RoundResult is one finished round the player held a card in.
type RoundResult struct {
	GameID     string    `json:"gameId"`
	CardNumber int       `json:"cardNumber"`
	Won        bool      `json:"won"`
	Prize      float64   `json:"prize"`
	Pattern    string    `json:"pattern,omitempty"`
	At         time.Time `json:"at"`
}

// History holds recent rounds, most recent first.
type History struct {
	Entries []RoundResult `json:"entries"`
}

// Add prepends r and trims the history to HistoryLimit.
func (h *History) Add(r RoundResult) {
	h.Entries = append([]RoundResult{r}, h.Entries...)
	if len(h.Entries) > HistoryLimit {
		h.Entries = h.Entries[:HistoryLimit]
	}
}

// Recent returns up to n entries, most recent first.
func (h History) Recent(n int) []RoundResult {
	if n > len(h.Entries) || n < 0 {
		n = len(h.Entries)
	}
	return append([]RoundResult(nil), h.Entries[:n]...)
}

// TopWins returns the top n won rounds sorted by prize.
func (h History) TopWins(n int) []RoundResult {
	wins := make([]RoundResult, 0, len(h.Entries))
	for _, e := range h.Entries {
		if e.Won {
			wins = append(wins, e)
		}
	}

	sort.SliceStable(wins, func(i, j int) bool {
		return wins[i].Prize > wins[j].Prize
	})

	if len(wins) < n {
		return wins
	}
	return wins[:n]
}
