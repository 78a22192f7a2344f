package stats

import (
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog/log"
)

// Keys of the persisted blob.
const (
	KeySettings = "bingo_settings"
	KeyStats    = "bingo_stats"
	KeyHistory  = "bingo_history"
)

// Settings are the player's client preferences.
type Settings struct {
	AutoMark         bool `json:"autoMark"`
	SoundEnabled     bool `json:"soundEnabled"`
	VibrationEnabled bool `json:"vibrationEnabled"`
	Notifications    bool `json:"notifications"`
}

func DefaultSettings() Settings {
	return Settings{AutoMark: true, SoundEnabled: true, VibrationEnabled: true, Notifications: true}
}

// PlayerStats is the only state that survives across rounds.
type PlayerStats struct {
	GamesPlayed   int     `json:"gamesPlayed"`
	GamesWon      int     `json:"gamesWon"`
	TotalWinnings float64 `json:"totalWinnings"`
	CurrentStreak int     `json:"currentStreak"`
	BestStreak    int     `json:"bestStreak"`
}

// RecordRound applies one finished round.
func (p *PlayerStats) RecordRound(won bool, prize float64) {
	p.GamesPlayed++
	if !won {
		p.CurrentStreak = 0
		return
	}
	p.GamesWon++
	p.TotalWinnings += prize
	p.CurrentStreak++
	if p.CurrentStreak > p.BestStreak {
		p.BestStreak = p.CurrentStreak
	}
}

// WinRate is the rounded percentage of rounds won.
func (p PlayerStats) WinRate() int {
	if p.GamesPlayed == 0 {
		return 0
	}
	return int(math.Round(float64(p.GamesWon) * 100 / float64(p.GamesPlayed)))
}

// Store keeps settings, stats and round history in memory and persists every
// mutation immediately through Storage.
type Store struct {
	mu       sync.Mutex
	storage  Storage
	settings Settings
	stats    PlayerStats
	history  History
	// keys this client does not own, written back untouched
	other Blob
}

// Open loads the blob. Missing keys take their defaults; a key that fails to decode
// is logged and reset rather than failing the client.
func Open(storage Storage) (*Store, error) {
	blob, err := storage.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("could not load player data: %w", err)
	}

	s := &Store{storage: storage, settings: DefaultSettings(), other: Blob{}}
	for key, raw := range blob {
		switch key {
		case KeySettings, KeyStats, KeyHistory:
		default:
			s.other[key] = raw
		}
	}
	decode(blob, KeySettings, &s.settings)
	decode(blob, KeyStats, &s.stats)
	decode(blob, KeyHistory, &s.history)
	return s, nil
}

// decode replaces *dst only when the whole value decodes; fields missing from
// the stored JSON keep the values already in *dst.
func decode[T any](blob Blob, key string, dst *T) {
	raw, ok := blob[key]
	if !ok {
		return
	}
	tmp := *dst
	if err := json.Unmarshal(raw, &tmp); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("discarding unreadable stored value")
		return
	}
	*dst = tmp
}

func (s *Store) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *Store) Stats() PlayerStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Store) History() History {
	s.mu.Lock()
	defer s.mu.Unlock()
	return History{Entries: append([]RoundResult(nil), s.history.Entries...)}
}

// UpdateSettings replaces the settings and persists them.
func (s *Store) UpdateSettings(settings Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings = settings
	return s.saveLocked()
}

// RecordRound updates stats and history for a finished round and persists them.
// The in-memory state keeps the update even if the write fails.
func (s *Store) RecordRound(r RoundResult) (PlayerStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.RecordRound(r.Won, r.Prize)
	s.history.Add(r)
	return s.stats, s.saveLocked()
}

func (s *Store) saveLocked() error {
	blob := Blob{}
	for key, raw := range s.other {
		blob[key] = raw
	}
	for key, v := range map[string]any{
		KeySettings: s.settings,
		KeyStats:    s.stats,
		KeyHistory:  s.history,
	} {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("could not encode %s: %w", key, err)
		}
		blob[key] = raw
	}
	if err := s.storage.SaveAll(blob); err != nil {
		return fmt.Errorf("could not save player data: %w", err)
	}
	return nil
}
