// Package scoring implements the proximity scoring rule and the leaderboard
// computation. Everything here is pure: no I/O, no state.
package scoring

import "math"

// Bonus points awarded per question.
const (
	NearestBonus   = 10
	ProximityBonus = 15
)

// Answer is one contestant's estimate for a single question.
type Answer struct {
	ContestantID   string
	ContestantName string
	Value          float64
}

// Result is the score awarded to one answer: 0, 10, 15, or 25.
type Result struct {
	ContestantID   string
	ContestantName string
	Score          int
}

// ScoreQuestion scores every answer to one question against the correct
// value. The nearest answer earns 10 points (shared by all answers tied for
// minimum distance), an answer within ±10% relative error earns 15, and both
// bonuses stack to 25. Results preserve input order.
func ScoreQuestion(answers []Answer, correct float64) []Result {
	if len(answers) == 0 {
		return []Result{}
	}

	distances := make([]float64, len(answers))
	minDistance := math.Inf(1)
	for i, a := range answers {
		distances[i] = math.Abs(a.Value - correct)
		if distances[i] < minDistance {
			minDistance = distances[i]
		}
	}

	results := make([]Result, len(answers))
	for i, a := range answers {
		score := 0
		if withinTenPercent(a.Value, correct) {
			score += ProximityBonus
		}
		if distances[i] == minDistance {
			score += NearestBonus
		}
		results[i] = Result{
			ContestantID:   a.ContestantID,
			ContestantName: a.ContestantName,
			Score:          score,
		}
	}
	return results
}

// withinTenPercent checks the ±10% relative-error window, boundary inclusive.
// When the correct value is 0 the relative error is unbounded for any nonzero
// answer, so only an exact 0 qualifies.
func withinTenPercent(value, correct float64) bool {
	if correct == 0 {
		return value == 0
	}
	return math.Abs((value-correct)/correct)*100 <= 10
}
