package wellbeing

import (
	"strings"
	"unicode"
)

type lexEntry struct {
	polarity     float64
	subjectivity float64
}

// adjective lexicon in the style of the pattern/TextBlob en-sentiment list
var adjectives = map[string]lexEntry{
	"good":         {0.7, 0.6},
	"great":        {0.8, 0.75},
	"excellent":    {1.0, 1.0},
	"amazing":      {0.6, 0.9},
	"awesome":      {1.0, 1.0},
	"nice":         {0.6, 1.0},
	"happy":        {0.8, 1.0},
	"glad":         {0.5, 1.0},
	"helpful":      {0.5, 0.6},
	"clear":        {0.1, 0.38},
	"easy":         {0.43, 0.83},
	"interesting":  {0.5, 0.5},
	"fun":          {0.3, 0.2},
	"cool":         {0.35, 0.65},
	"fine":         {0.42, 0.5},
	"better":       {0.5, 0.5},
	"best":         {1.0, 0.3},
	"confident":    {0.5, 0.83},
	"thankful":     {0.5, 0.75},
	"excited":      {0.38, 0.75},
	"useful":       {0.3, 0.0},
	"correct":      {0.0, 0.0},
	"simple":       {0.0, 0.36},
	"bad":          {-0.7, 0.67},
	"terrible":     {-1.0, 1.0},
	"awful":        {-1.0, 1.0},
	"horrible":     {-1.0, 1.0},
	"worst":        {-1.0, 1.0},
	"worse":        {-0.4, 0.6},
	"sad":          {-0.5, 1.0},
	"stressed":     {-0.7, 0.5},
	"tired":        {-0.4, 0.7},
	"exhausted":    {-0.4, 0.9},
	"anxious":      {-0.25, 0.75},
	"worried":      {-0.5, 0.8},
	"scared":       {-0.6, 1.0},
	"afraid":       {-0.6, 0.9},
	"upset":        {-0.5, 0.8},
	"angry":        {-0.5, 1.0},
	"frustrated":   {-0.7, 0.8},
	"frustrating":  {-0.4, 0.7},
	"annoying":     {-0.8, 0.9},
	"confused":     {-0.4, 0.7},
	"confusing":    {-0.3, 0.7},
	"lost":         {0.0, 0.0},
	"stuck":        {-0.1, 0.3},
	"hard":         {-0.29, 0.54},
	"difficult":    {-0.5, 1.0},
	"impossible":   {-0.67, 1.0},
	"hopeless":     {-0.5, 0.8},
	"wrong":        {-0.5, 0.9},
	"boring":       {-1.0, 1.0},
	"stupid":       {-0.8, 1.0},
	"useless":      {-0.5, 0.2},
	"broken":       {-0.4, 0.5},
	"overwhelmed":  {-0.5, 0.8},
	"overwhelming": {-0.2, 0.6},
	"unclear":      {-0.3, 0.5},
	"late":         {-0.3, 0.6},
	"behind":       {-0.4, 0.4},
}

// intensifiers multiply the next adjective
var intensifiers = map[string]float64{
	"very":       1.3,
	"really":     1.2,
	"so":         1.3,
	"extremely":  1.5,
	"super":      1.5,
	"too":        1.2,
	"incredibly": 1.5,
	"totally":    1.3,
	"pretty":     1.1,
	"quite":      1.1,
	"kinda":      0.8,
	"slightly":   0.5,
}

var negations = map[string]struct{}{
	"not":     {},
	"never":   {},
	"no":      {},
	"isn't":   {},
	"aren't":  {},
	"don't":   {},
	"doesn't": {},
	"didn't":  {},
	"wasn't":  {},
	"can't":   {},
	"won't":   {},
	"n't":     {},
}

// Lexicon is a pattern style polarity/subjectivity scorer: the mean of the matched
// adjectives, with intensifiers scaling and negation flipping by -0.5.
type Lexicon struct{}

func NewLexicon() *Lexicon { return &Lexicon{} }

func (Lexicon) Polarity(text string) (float64, float64) {
	words := tokenize(text)

	var (
		polSum, subjSum float64
		n               int
	)
	for i, w := range words {
		e, ok := adjectives[w]
		if !ok {
			continue
		}
		pol, subj := e.polarity, e.subjectivity

		j := i - 1
		if j >= 0 {
			if k, ok := intensifiers[words[j]]; ok {
				pol *= k
				subj *= k
				j--
			}
		}
		if j >= 0 {
			if _, ok := negations[words[j]]; ok {
				pol *= -0.5
			}
		}

		polSum += clamp(pol, -1, 1)
		subjSum += clamp(subj, 0, 1)
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return clamp(polSum/float64(n), -1, 1), clamp(subjSum/float64(n), 0, 1)
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'')
	})
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
