package domain

import "time"

// PartyStatus is the lifecycle state of a party.
type PartyStatus string

const (
	StatusLobby    PartyStatus = "LOBBY"
	StatusActive   PartyStatus = "ACTIVE"
	StatusFinished PartyStatus = "FINISHED"
)

// Valid reports whether s is one of the known statuses.
func (s PartyStatus) Valid() bool {
	switch s {
	case StatusLobby, StatusActive, StatusFinished:
		return true
	}
	return false
}

func (s PartyStatus) rank() int {
	switch s {
	case StatusLobby:
		return 0
	case StatusActive:
		return 1
	case StatusFinished:
		return 2
	}
	return -1
}

// CanTransitionTo reports whether moving to next respects the
// LOBBY -> ACTIVE -> FINISHED ordering. Same-status transitions are allowed
// and treated as no-ops by callers.
func (s PartyStatus) CanTransitionTo(next PartyStatus) bool {
	return next.Valid() && next.rank() >= s.rank()
}

// Party is one quiz session, identified by a short join code and owned by a
// host token. CorrectAnswers is set exactly once when the quiz finishes.
type Party struct {
	ID              string
	Code            string
	HostID          string
	Status          PartyStatus
	TotalQuestions  int
	CurrentQuestion int
	CorrectAnswers  map[int]float64
	CreatedAt       time.Time
}

// Contestant is a named participant within exactly one party.
// (PartyID, Name) is unique.
type Contestant struct {
	ID        string
	PartyID   string
	Name      string
	CreatedAt time.Time
}

// Answer is a contestant's current estimate for one question. At most one row
// exists per (PartyID, ContestantID, QuestionNumber); absence means the
// question is unanswered.
type Answer struct {
	PartyID        string
	ContestantID   string
	QuestionNumber int
	Value          float64
	UpdatedAt      time.Time
}

// ContestantAnswer is an answer joined with the contestant's name, the shape
// the scoring engine consumes.
type ContestantAnswer struct {
	Answer
	ContestantName string
}

// LeaderboardEntry is one ranked row of the final leaderboard.
// QuestionScores has one slot per question; unanswered slots stay zero.
type LeaderboardEntry struct {
	ContestantID   string `json:"contestantId"`
	ContestantName string `json:"contestantName"`
	TotalScore     int    `json:"totalScore"`
	QuestionScores []int  `json:"questionScores"`
}

// PartySummary is the party view shared with clients. The host token is never
// included.
type PartySummary struct {
	ID              string      `json:"id,omitempty"`
	Code            string      `json:"code"`
	Status          PartyStatus `json:"status"`
	CurrentQuestion int         `json:"currentQuestion,omitempty"`
	TotalQuestions  int         `json:"totalQuestions"`
}

// ContestantStatus lists which questions a contestant has answered so far.
type ContestantStatus struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	AnsweredQuestions []int  `json:"answeredQuestions"`
	TotalAnswered     int    `json:"totalAnswered"`
}

// PlayerScore is one row of a reveal breakdown for a single question.
type PlayerScore struct {
	ContestantID string  `json:"contestantId"`
	Name         string  `json:"name"`
	Answer       float64 `json:"answer"`
	Score        int     `json:"score"`
}

// RevealResult is the per-question scoring breakdown shown by the host before
// the quiz is finished.
type RevealResult struct {
	QuestionNumber int           `json:"questionNumber"`
	CorrectAnswer  float64       `json:"correctAnswer"`
	PlayerAnswers  []PlayerScore `json:"playerAnswers"`
}

// LeaderboardResult bundles the final ranking with the recorded correct
// answers and a party summary.
type LeaderboardResult struct {
	Leaderboard    []LeaderboardEntry `json:"leaderboard"`
	CorrectAnswers map[int]float64    `json:"correctAnswers"`
	Party          PartySummary       `json:"party"`
}

// StatusReport is the host dashboard view: party summary plus per-contestant
// answer progress.
type StatusReport struct {
	Party       PartySummary       `json:"party"`
	Contestants []ContestantStatus `json:"contestants"`
}

// AnswerView is a single answer as returned to its owner.
type AnswerView struct {
	QuestionNumber int       `json:"questionNumber"`
	Value          float64   `json:"value"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// PlayerAnswersReport is the player reconnect view: party summary, own
// identity, and all currently-submitted answers ordered by question.
type PlayerAnswersReport struct {
	Party      PartySummary `json:"party"`
	Contestant struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"contestant"`
	Answers []AnswerView `json:"answers"`
}
