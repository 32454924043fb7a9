package interaction

import (
	"sort"
	"sync"
	"time"
)

type Kind string

const (
	KindUser Kind = "user"
	KindBot  Kind = "bot"
)

// Record is one chat turn. WellbeingScore is set on bot records only.
type Record struct {
	Timestamp      time.Time `json:"timestamp"`
	StudentID      string    `json:"student_id"`
	Message        string    `json:"message"`
	Type           Kind      `json:"type"`
	WellbeingScore *float64  `json:"wellbeing_score,omitempty"`
}

// Store keeps the global chat history and a per-student log, both append only.
type Store struct {
	mu        sync.Mutex
	history   []Record
	byStudent map[string][]Record
}

func NewStore() *Store {
	return &Store{byStudent: make(map[string][]Record)}
}

// Open initializes the student's log if it does not exist yet.
func (s *Store) Open(studentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byStudent[studentID]; !ok {
		s.byStudent[studentID] = []Record{}
	}
}

// Append adds r to both logs under one lock, so the two never disagree.
func (s *Store) Append(r Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, r)
	s.byStudent[r.StudentID] = append(s.byStudent[r.StudentID], r)
}

func (s *Store) History() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Store) ForStudent(studentID string) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs := s.byStudent[studentID]
	out := make([]Record, len(recs))
	copy(out, recs)
	return out
}

// Students lists every student that has connected, sorted.
func (s *Store) Students() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.byStudent))
	for id := range s.byStudent {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func UserRecord(at time.Time, studentID, message string) Record {
	return Record{Timestamp: at, StudentID: studentID, Message: message, Type: KindUser}
}

func BotRecord(at time.Time, studentID, message string, score float64) Record {
	return Record{Timestamp: at, StudentID: studentID, Message: message, Type: KindBot, WellbeingScore: &score}
}
