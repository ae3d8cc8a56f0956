package game

import (
	"log"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"

	"emitter-arena/internal/config"
)

const (
	scoresObject   = "scores"
	scoresProperty = "table"
)

// ScoreEntry is one finished round
type ScoreEntry struct {
	Score   int       `yaml:"score" json:"score"`
	Scene   string    `yaml:"scene" json:"scene"`
	Reason  string    `yaml:"reason" json:"reason"`
	Elapsed float64   `yaml:"elapsed" json:"elapsedSec"`
	At      time.Time `yaml:"at" json:"at"`
}

// ScoreStore keeps the best rounds, persisted through gdata when available.
// A nil manager keeps scores in memory only.
type ScoreStore struct {
	mu      sync.RWMutex
	manager *gdata.Manager
	max     int
	entries []ScoreEntry
}

// NewScoreStore wraps an optional gdata manager and loads any saved table
func NewScoreStore(manager *gdata.Manager, max int) (*ScoreStore, error) {
	if max <= 0 {
		max = 10
	}
	s := &ScoreStore{manager: manager, max: max}
	if err := s.load(); err != nil {
		return s, err
	}
	return s, nil
}

// OpenScoreStore opens per-user storage for cfg.AppName. Storage problems are
// logged and the store falls back to memory only.
func OpenScoreStore(cfg config.StoreConfig) *ScoreStore {
	if cfg.Disabled {
		s, _ := NewScoreStore(nil, cfg.MaxScore)
		return s
	}

	manager, err := gdata.Open(gdata.Config{AppName: cfg.AppName})
	if err != nil {
		log.Printf("⚠️ High score storage unavailable, keeping scores in memory: %v", err)
		manager = nil
	}

	s, err := NewScoreStore(manager, cfg.MaxScore)
	if err != nil {
		log.Printf("⚠️ Ignoring unreadable high score table: %v", err)
	}
	return s
}

// Persistent reports whether scores survive a restart
func (s *ScoreStore) Persistent() bool {
	return s.manager != nil
}

// Add records a round and returns its 1-based rank, or 0 when it did not
// make the table
func (s *ScoreStore) Add(e ScoreEntry) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// ties keep the earlier round ahead
	rank := sort.Search(len(s.entries), func(i int) bool {
		return s.entries[i].Score < e.Score
	})
	if rank >= s.max {
		return 0, nil
	}

	s.entries = append(s.entries, ScoreEntry{})
	copy(s.entries[rank+1:], s.entries[rank:])
	s.entries[rank] = e
	if len(s.entries) > s.max {
		s.entries = s.entries[:s.max]
	}

	return rank + 1, s.save()
}

// Top returns up to n best rounds, best first
func (s *ScoreStore) Top(n int) []ScoreEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 || n > len(s.entries) {
		n = len(s.entries)
	}
	out := make([]ScoreEntry, n)
	copy(out, s.entries[:n])
	return out
}

// Best returns the high score, 0 when the table is empty
func (s *ScoreStore) Best() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.entries) == 0 {
		return 0
	}
	return s.entries[0].Score
}

func (s *ScoreStore) load() error {
	if s.manager == nil || !s.manager.ObjectPropExists(scoresObject, scoresProperty) {
		return nil
	}

	data, err := s.manager.LoadObjectProp(scoresObject, scoresProperty)
	if err != nil {
		return errors.Wrap(err, "failed to load high scores")
	}

	var entries []ScoreEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return errors.Wrap(err, "failed to parse high scores")
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	if len(entries) > s.max {
		entries = entries[:s.max]
	}
	s.entries = entries
	return nil
}

func (s *ScoreStore) save() error {
	if s.manager == nil {
		return nil
	}

	data, err := yaml.Marshal(s.entries)
	if err != nil {
		return errors.Wrap(err, "failed to encode high scores")
	}
	if err := s.manager.SaveObjectProp(scoresObject, scoresProperty, data); err != nil {
		return errors.Wrap(err, "failed to save high scores")
	}
	return nil
}
