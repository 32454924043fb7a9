package wellbeing

import (
	"sync"
	"time"
)

// FlagStore is the process-wide list of flagged analyses. Append only.
type FlagStore struct {
	mu    sync.Mutex
	flags []Analysis
}

func NewFlagStore() *FlagStore {
	return &FlagStore{}
}

func (s *FlagStore) Append(a Analysis) {
	s.mu.Lock()
	s.flags = append(s.flags, a)
	s.mu.Unlock()
}

func (s *FlagStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.flags)
}

// Since returns flags with a timestamp strictly after t, oldest first.
func (s *FlagStore) Since(t time.Time) []Analysis {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Analysis, 0)
	for _, a := range s.flags {
		if a.Timestamp.After(t) {
			out = append(out, a)
		}
	}
	return out
}
