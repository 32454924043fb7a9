package wellbeing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pgregory.net/rapid"
)

type fixedVader struct{ compound float64 }

func (f fixedVader) Scores(string) VaderScores {
	return VaderScores{Compound: f.compound, Neu: 1}
}

type recordingSink struct {
	mu     sync.Mutex
	alerts []Analysis
	err    error
}

func (s *recordingSink) Alert(_ context.Context, a Analysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, a)
	return s.err
}

func newMonitor(compound float64, opts ...Option) (*Monitor, *FlagStore) {
	flags := NewFlagStore()
	return NewMonitor(fixedVader{compound}, NewLexicon(), flags, opts...), flags
}

func TestNeutralMessageScoresSevenAndAHalf(t *testing.T) {
	m, flags := newMonitor(0)

	a := m.Analyze(context.Background(), "When is the next lecture?", "s1")
	if a.WellbeingScore != 7.5 {
		t.Fatalf("want 7.5, got %v", a.WellbeingScore)
	}
	if a.FlagForReview {
		t.Fatal("neutral message must not be flagged")
	}
	if flags.Len() != 0 {
		t.Fatalf("flag store should be empty, has %d", flags.Len())
	}
}

func TestNegativeStressedMessageIsFlagged(t *testing.T) {
	sink := &recordingSink{}
	m, flags := newMonitor(-1, WithAlertSink(sink))

	a := m.Analyze(context.Background(), "I'm overwhelmed, I panic and I'm failing everything", "s2")
	if a.StressIndicators != 3 || a.ConfusionIndicators != 0 {
		t.Fatalf("want stress=3 confusion=0, got %d/%d", a.StressIndicators, a.ConfusionIndicators)
	}
	if a.WellbeingScore != 0.5 {
		t.Fatalf("want 0.5, got %v", a.WellbeingScore)
	}
	if !a.FlagForReview {
		t.Fatal("expected flag")
	}
	if flags.Len() != 1 || len(sink.alerts) != 1 {
		t.Fatalf("want one stored flag and one alert, got %d/%d", flags.Len(), len(sink.alerts))
	}
	if sink.alerts[0].StudentID != "s2" {
		t.Fatalf("alert student: got %q", sink.alerts[0].StudentID)
	}
}

func TestSinkFailureDoesNotChangeResult(t *testing.T) {
	sink := &recordingSink{err: errors.New("broker down")}
	m, flags := newMonitor(-1, WithAlertSink(sink))

	a := m.Analyze(context.Background(), "hopeless, failing and behind", "s3")
	if !a.FlagForReview || flags.Len() != 1 {
		t.Fatalf("flag should be stored even when the sink fails: %+v", a)
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		compound          float64
		stress, confusion int
		want              float64
	}{
		{0, 0, 0, 7.5},
		{-1, 3, 0, 0.5},
		{1, 0, 0, 10},
		{-1, 0, 0, 5},
		{-1, 11, 9, 0},
		{0.5, 1, 2, 6.25},
	}
	for _, tt := range tests {
		if got := Score(tt.compound, tt.stress, tt.confusion); got != tt.want {
			t.Errorf("Score(%v,%d,%d) = %v, want %v", tt.compound, tt.stress, tt.confusion, got, tt.want)
		}
	}
}

func TestFlagged(t *testing.T) {
	if !Flagged(2.99, 0) {
		t.Error("score below 3 must flag")
	}
	if Flagged(3.0, 2) {
		t.Error("score 3 with two stress keywords must not flag")
	}
	if !Flagged(9, 3) {
		t.Error("more than two stress keywords must flag")
	}
}

func TestCountKeywordsCaseInsensitiveSubstring(t *testing.T) {
	if n := CountKeywords("I am STRESSED about this", StressKeywords); n < 1 {
		t.Fatalf("STRESSED should match: got %d", n)
	}
	if n := CountKeywords("hardware issue", ConfusionKeywords); n < 1 {
		t.Fatalf("hardware should match hard: got %d", n)
	}
	// each keyword counts once no matter how often it occurs
	if n := CountKeywords("help help help", ConfusionKeywords); n != 1 {
		t.Fatalf("want 1, got %d", n)
	}
	if n := CountKeywords("I CAN'T HANDLE this, it's too much", StressKeywords); n != 2 {
		t.Fatalf("want 2 multi-word matches, got %d", n)
	}
}

func TestScoreNeverNegativeProperty(t *testing.T) {
	vader := NewVader()
	rapid.Check(t, func(t *rapid.T) {
		words := rapid.SliceOf(rapid.OneOf(
			rapid.SampledFrom(StressKeywords),
			rapid.SampledFrom(ConfusionKeywords),
			rapid.SampledFrom([]string{"terrible", "awful", "hate", "great", "exam", "pointer"}),
			rapid.StringMatching(`[a-zA-Z]{1,10}`),
		)).Draw(t, "words")
		msg := ""
		for _, w := range words {
			msg += w + " "
		}
		m := NewMonitor(vader, NewLexicon(), NewFlagStore())
		a := m.Analyze(context.Background(), msg, "prop")
		if a.WellbeingScore < 0 {
			t.Fatalf("negative score %v for %q", a.WellbeingScore, msg)
		}
		if a.WellbeingScore > 10 {
			t.Fatalf("score %v above 10 for %q", a.WellbeingScore, msg)
		}
		if a.FlagForReview != (a.WellbeingScore < 3 || a.StressIndicators > 2) {
			t.Fatalf("flag rule violated: %+v", a)
		}
	})
}

func TestVaderNeutralSentence(t *testing.T) {
	m := NewMonitor(NewVader(), NewLexicon(), NewFlagStore())
	a := m.Analyze(context.Background(), "The lecture is in room 204", "s1")
	if a.Sentiment.Vader.Compound != 0 {
		t.Fatalf("want neutral compound, got %v", a.Sentiment.Vader.Compound)
	}
	if a.WellbeingScore != 7.5 {
		t.Fatalf("want 7.5, got %v", a.WellbeingScore)
	}
}

func TestRecentFlags(t *testing.T) {
	now := time.Date(2024, 10, 20, 12, 0, 0, 0, time.UTC)
	clock := now.Add(-10 * 24 * time.Hour)
	m, flags := newMonitor(-1, WithClock(func() time.Time { return clock }))

	m.Analyze(context.Background(), "hopeless, failing and behind", "old")
	clock = now.Add(-time.Hour)
	m.Analyze(context.Background(), "hopeless, failing and behind", "new")

	recent := flags.Since(now.Add(-7 * 24 * time.Hour))
	if len(recent) != 1 || recent[0].StudentID != "new" {
		t.Fatalf("want only the new flag, got %+v", recent)
	}
	if flags.Len() != 2 {
		t.Fatalf("want 2 total flags, got %d", flags.Len())
	}
}

func TestLexiconPolarity(t *testing.T) {
	lex := NewLexicon()

	if p, s := lex.Polarity("This assignment is great"); p <= 0 || s <= 0 {
		t.Fatalf("great should be positive and subjective, got %v/%v", p, s)
	}
	if p, _ := lex.Polarity("This is not good"); p >= 0 {
		t.Fatalf("negated good should be negative, got %v", p)
	}
	if p, s := lex.Polarity("Compile with g++ -O2"); p != 0 || s != 0 {
		t.Fatalf("no adjectives should give 0/0, got %v/%v", p, s)
	}
	p1, _ := lex.Polarity("bad")
	p2, _ := lex.Polarity("very bad")
	if p2 >= p1 {
		t.Fatalf("intensifier should strengthen: %v vs %v", p2, p1)
	}
}
