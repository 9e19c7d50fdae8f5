package availability

import (
	"slices"

	"github.com/tripsync/internal/calendar"
)

// DefaultMaxDays bounds both range applications and ranking candidates.
const DefaultMaxDays = 90

// Weights maps each status to its contribution to a day's score.
type Weights struct {
	Can    int
	Maybe  int
	Cannot int
}

// DefaultWeights is +3 / +1 / -2.
var DefaultWeights = Weights{Can: 3, Maybe: 1, Cannot: -2}

// Of returns the weight of s; NoResponse weighs 0.
func (w Weights) Of(s Status) int {
	switch s {
	case Can:
		return w.Can
	case Maybe:
		return w.Maybe
	case Cannot:
		return w.Cannot
	default:
		return 0
	}
}

// DateScore is the group score of one candidate day.
type DateScore struct {
	Date  calendar.Day
	Score int
}

// Tier buckets a day's score for display.
type Tier string

const (
	TierStrong Tier = "strong"
	TierGood   Tier = "good"
	TierWeak   Tier = "weak"
	TierNone   Tier = "none"
	TierWorst  Tier = "worst"
)

// Heat is the display derivation of a score relative to the group size.
type Heat struct {
	Percentage float64
	Tier       Tier
}

// Engine scores and ranks candidate days. Its weights and cap are fixed at
// construction.
type Engine struct {
	weights Weights
	maxDays int
}

// NewEngine returns an Engine. Zero-value weights fall back to
// DefaultWeights and maxDays <= 0 to DefaultMaxDays.
func NewEngine(weights Weights, maxDays int) *Engine {
	if weights == (Weights{}) {
		weights = DefaultWeights
	}
	if maxDays <= 0 {
		maxDays = DefaultMaxDays
	}
	return &Engine{weights: weights, maxDays: maxDays}
}

func (e *Engine) Weights() Weights { return e.weights }

func (e *Engine) MaxDays() int { return e.maxDays }

// Candidates returns the window's days, truncated to the first MaxDays.
func (e *Engine) Candidates(window calendar.Range) []calendar.Day {
	return window.Truncate(e.maxDays).Days()
}

// ScoreOf computes one day's score from the full record set.
func (e *Engine) ScoreOf(records []Record, day calendar.Day) int {
	score := 0
	for _, record := range records {
		if record.Date == day {
			score += e.weights.Of(record.Status)
		}
	}
	return score
}

// Scores returns every candidate day with its score, in chronological order.
// Records outside the candidate days are ignored.
func (e *Engine) Scores(records []Record, window calendar.Range) []DateScore {
	totals := make(map[calendar.Day]int, len(records))
	for _, record := range records {
		totals[record.Date] += e.weights.Of(record.Status)
	}

	days := e.Candidates(window)
	scores := make([]DateScore, 0, len(days))
	for _, day := range days {
		scores = append(scores, DateScore{Date: day, Score: totals[day]})
	}
	return scores
}

// Rank orders candidate days by score, highest first; equal scores keep
// chronological order. It returns at most n entries, or all when n <= 0.
func (e *Engine) Rank(records []Record, window calendar.Range, n int) []DateScore {
	scores := e.Scores(records, window)
	slices.SortStableFunc(scores, func(a, b DateScore) int {
		return b.Score - a.Score
	})
	if n > 0 && len(scores) > n {
		scores = scores[:n]
	}
	return scores
}

// Heat derives score / (memberCount * Can weight). Negative scores land in
// TierWorst with a zero percentage.
func (e *Engine) Heat(score, memberCount int) Heat {
	if score < 0 {
		return Heat{Percentage: 0, Tier: TierWorst}
	}
	if memberCount <= 0 {
		memberCount = 1
	}
	ceiling := memberCount * e.weights.Can
	if ceiling <= 0 {
		ceiling = memberCount
	}

	pct := float64(score) / float64(ceiling)
	if pct > 1 {
		pct = 1
	}

	switch {
	case score == 0:
		return Heat{Percentage: 0, Tier: TierNone}
	case pct >= 0.75:
		return Heat{Percentage: pct, Tier: TierStrong}
	case pct >= 0.4:
		return Heat{Percentage: pct, Tier: TierGood}
	default:
		return Heat{Percentage: pct, Tier: TierWeak}
	}
}
