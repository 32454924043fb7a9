package wellbeing

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"courseassist/internal/logging"
	"courseassist/internal/monitoring"
)

const (
	baseScore       = 5.0
	sentimentScale  = 2.5
	stressPenalty   = 1.5
	confusionWeight = 0.5

	flagScoreBelow  = 3.0
	flagStressAbove = 2
)

var (
	StressKeywords = []string{
		"overwhelmed", "stressed", "can't handle", "too much", "giving up",
		"impossible", "hopeless", "failing", "behind", "panic", "anxiety",
	}
	ConfusionKeywords = []string{
		"confused", "don't understand", "makes no sense", "stuck",
		"lost", "help", "struggling", "difficult", "hard",
	}
)

type VaderScores struct {
	Compound float64 `json:"compound"`
	Pos      float64 `json:"pos"`
	Neg      float64 `json:"neg"`
	Neu      float64 `json:"neu"`
}

type Sentiment struct {
	Polarity     float64     `json:"polarity"`
	Subjectivity float64     `json:"subjectivity"`
	Vader        VaderScores `json:"vader"`
}

// Analysis is the immutable result of scoring one student message.
type Analysis struct {
	Timestamp           time.Time `json:"timestamp"`
	StudentID           string    `json:"student_id"`
	Message             string    `json:"message"`
	Sentiment           Sentiment `json:"sentiment"`
	WellbeingScore      float64   `json:"wellbeing_score"`
	StressIndicators    int       `json:"stress_indicators"`
	ConfusionIndicators int       `json:"confusion_indicators"`
	FlagForReview       bool      `json:"flag_for_review"`
}

// CompoundScorer produces VADER style scores; only Compound feeds the wellbeing score.
type CompoundScorer interface {
	Scores(text string) VaderScores
}

// PolarityScorer produces polarity in [-1,1] and subjectivity in [0,1]. Reported only.
type PolarityScorer interface {
	Polarity(text string) (polarity, subjectivity float64)
}

// AlertSink receives every flagged analysis.
type AlertSink interface {
	Alert(ctx context.Context, a Analysis) error
}

type Monitor struct {
	vader    CompoundScorer
	polarity PolarityScorer
	flags    *FlagStore
	sinks    []AlertSink
	metrics  *monitoring.Metrics
	now      func() time.Time
	log      zerolog.Logger
}

type Option func(*Monitor)

func WithAlertSink(s AlertSink) Option {
	return func(m *Monitor) { m.sinks = append(m.sinks, s) }
}

func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(m *Monitor) { m.metrics = metrics }
}

func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

func NewMonitor(vader CompoundScorer, polarity PolarityScorer, flags *FlagStore, opts ...Option) *Monitor {
	m := &Monitor{
		vader:    vader,
		polarity: polarity,
		flags:    flags,
		now:      time.Now,
		log:      logging.NewLogger("wellbeing"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Analyze scores message. A flagged analysis is appended to the flag store and sent to
// every alert sink; sink failures are logged and do not affect the result.
func (m *Monitor) Analyze(ctx context.Context, message, studentID string) Analysis {
	vader := m.vader.Scores(message)
	polarity, subjectivity := m.polarity.Polarity(message)

	stress := CountKeywords(message, StressKeywords)
	confusion := CountKeywords(message, ConfusionKeywords)
	score := Score(vader.Compound, stress, confusion)

	a := Analysis{
		Timestamp: m.now(),
		StudentID: studentID,
		Message:   message,
		Sentiment: Sentiment{
			Polarity:     polarity,
			Subjectivity: subjectivity,
			Vader:        vader,
		},
		WellbeingScore:      score,
		StressIndicators:    stress,
		ConfusionIndicators: confusion,
		FlagForReview:       Flagged(score, stress),
	}

	if m.metrics != nil {
		m.metrics.WellbeingScore.Observe(score)
	}
	if a.FlagForReview {
		m.flag(ctx, a)
	}
	return a
}

func (m *Monitor) flag(ctx context.Context, a Analysis) {
	m.flags.Append(a)
	if m.metrics != nil {
		m.metrics.WellbeingFlagsTotal.Inc()
	}

	m.log.Warn().
		Str("student_id", a.StudentID).
		Float64("score", a.WellbeingScore).
		Int("stress_indicators", a.StressIndicators).
		Msg("WELLBEING FLAG")

	for _, s := range m.sinks {
		if err := s.Alert(ctx, a); err != nil {
			m.log.Error().Err(err).Str("student_id", a.StudentID).Msg("wellbeing alert delivery failed")
		}
	}
}

// Score is max(0, 5 + (compound+1)*2.5 - stress*1.5 - confusion*0.5). No upper clamp.
func Score(compound float64, stress, confusion int) float64 {
	// conversions round each product before the sums, so no fused multiply-add
	adjust := float64((compound + 1) * sentimentScale)
	stressCost := float64(float64(stress) * stressPenalty)
	confusionCost := float64(float64(confusion) * confusionWeight)
	return math.Max(0, baseScore+adjust-stressCost-confusionCost)
}

func Flagged(score float64, stress int) bool {
	return score < flagScoreBelow || stress > flagStressAbove
}

// CountKeywords counts keywords occurring anywhere in the lowercased message.
// Matching is by substring, so "hardware" counts for "hard".
func CountKeywords(message string, keywords []string) int {
	lower := strings.ToLower(message)
	n := 0
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			n++
		}
	}
	return n
}
