package wellbeing

import "github.com/jonreiter/govader"

// Vader wraps the govader analyzer. The analyzer is read-only after construction.
type Vader struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVader() *Vader {
	return &Vader{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (v *Vader) Scores(text string) VaderScores {
	s := v.analyzer.PolarityScores(text)
	return VaderScores{
		Compound: s.Compound,
		Pos:      s.Positive,
		Neg:      s.Negative,
		Neu:      s.Neutral,
	}
}
