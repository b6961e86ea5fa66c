package scoring

import (
	"math"
	"sort"

	"party-quiz-service/internal/domain"
)

// QuestionAnswer is an answer tagged with its question number, the input
// shape for the full-quiz leaderboard.
type QuestionAnswer struct {
	QuestionNumber int
	ContestantID   string
	ContestantName string
	Value          float64
}

// BuildLeaderboard scores every question with a recorded correct answer and
// ranks the contestants by total. Questions without a correct answer
// contribute zero to every contestant. Only contestants who submitted at
// least one answer appear. Ties are broken by name, then contestant id, so
// the output is deterministic.
func BuildLeaderboard(all []QuestionAnswer, correctAnswers map[int]float64, totalQuestions int) []domain.LeaderboardEntry {
	type tally struct {
		name   string
		total  int
		scores []int
	}

	order := make([]string, 0)
	byID := make(map[string]*tally)
	for _, a := range all {
		if _, ok := byID[a.ContestantID]; !ok {
			byID[a.ContestantID] = &tally{name: a.ContestantName, scores: make([]int, totalQuestions)}
			order = append(order, a.ContestantID)
		}
	}

	for q := 1; q <= totalQuestions; q++ {
		correct, ok := correctAnswers[q]
		if !ok {
			continue
		}
		var answers []Answer
		for _, a := range all {
			if a.QuestionNumber != q {
				continue
			}
			answers = append(answers, Answer{
				ContestantID:   a.ContestantID,
				ContestantName: a.ContestantName,
				Value:          a.Value,
			})
		}
		for _, r := range ScoreQuestion(answers, correct) {
			t := byID[r.ContestantID]
			t.total += r.Score
			t.scores[q-1] = r.Score
		}
	}

	entries := make([]domain.LeaderboardEntry, 0, len(order))
	for _, id := range order {
		t := byID[id]
		entries = append(entries, domain.LeaderboardEntry{
			ContestantID:   id,
			ContestantName: t.name,
			TotalScore:     t.total,
			QuestionScores: t.scores,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].TotalScore != entries[j].TotalScore {
			return entries[i].TotalScore > entries[j].TotalScore
		}
		if entries[i].ContestantName != entries[j].ContestantName {
			return entries[i].ContestantName < entries[j].ContestantName
		}
		return entries[i].ContestantID < entries[j].ContestantID
	})
	return entries
}

// RevealBreakdown scores one question and orders the rows for display:
// highest score first, ties broken by closeness to the correct value.
func RevealBreakdown(answers []Answer, correct float64) []domain.PlayerScore {
	results := ScoreQuestion(answers, correct)
	rows := make([]domain.PlayerScore, len(results))
	for i, r := range results {
		rows[i] = domain.PlayerScore{
			ContestantID: r.ContestantID,
			Name:         r.ContestantName,
			Answer:       answers[i].Value,
			Score:        r.Score,
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		return math.Abs(rows[i].Answer-correct) < math.Abs(rows[j].Answer-correct)
	})
	return rows
}
