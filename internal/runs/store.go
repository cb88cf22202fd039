// Package runs keeps the artifacts of finished pipeline runs in memory so
// the caller can fetch summaries and download CSVs after the run request
// returned. Nothing is persisted; a restart forgets every run.
package runs

import (
	"fmt"
	"sync"
	"time"
)

// Record is the stored outcome of one pipeline run.
type Record struct {
	RunID       string    `json:"run_id"`
	CreatedAt   time.Time `json:"created_at"`
	SourceFiles []string  `json:"source_files"`

	BronzeRows int `json:"bronze_rows"`
	SilverRows int `json:"silver_rows"`
	GoldRows   int `json:"gold_rows"`

	Errors      []string `json:"errors"`
	Summary     string   `json:"summary"`
	Veracity    float64  `json:"veracity_score"`
	TotalAmount float64  `json:"total_amount"`

	// Encoded CSV artifacts, keyed by layer name in Artifact.
	Bronze []byte `json:"-"`
	Silver []byte `json:"-"`
	Gold   []byte `json:"-"`
}

// Artifact returns the encoded CSV for a layer name, or false for an unknown
// layer.
func (r *Record) Artifact(layer string) ([]byte, bool) {
	switch layer {
	case "bronze":
		return r.Bronze, true
	case "silver":
		return r.Silver, true
	case "gold":
		return r.Gold, true
	default:
		return nil, false
	}
}

// Store is a bounded in-memory run store, safe for concurrent use. When the
// capacity is exceeded the oldest run is evicted.
type Store struct {
	mu    sync.RWMutex
	max   int
	order []string
	runs  map[string]*Record
}

// NewStore creates a store that keeps at most max runs.
func NewStore(max int) *Store {
	return &Store{
		max:  max,
		runs: make(map[string]*Record),
	}
}

// Save stores a run record, evicting the oldest run when full.
func (s *Store) Save(rec *Record) error {
	if rec.RunID == "" {
		return fmt.Errorf("run ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[rec.RunID]; !exists {
		s.order = append(s.order, rec.RunID)
	}

	// Keep a copy so callers cannot mutate stored state afterwards.
	cp := *rec
	s.runs[rec.RunID] = &cp

	for len(s.order) > s.max {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.runs, oldest)
	}
	return nil
}

// Get retrieves a run by ID.
func (s *Store) Get(runID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.runs[runID]
	if !exists {
		return nil, fmt.Errorf("run not found: %s", runID)
	}

	cp := *rec
	return &cp, nil
}

// List returns all stored runs, newest first.
func (s *Store) List() []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Record, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		cp := *s.runs[s.order[i]]
		out = append(out, &cp)
	}
	return out
}
