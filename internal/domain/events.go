package domain

// Event names pushed to party-scoped subscribers. Names and payload fields
// are the wire contract; answer events deliberately omit the value so
// subscribers re-query instead of trusting the payload.
const (
	EventContestantJoined  = "contestant-joined"
	EventAnswerSubmitted   = "answer-submitted"
	EventAnswerDeleted     = "answer-deleted"
	EventQuestionChanged   = "question-changed"
	EventQuizStatusChanged = "quiz-status-changed"
	EventQuizFinished      = "quiz-finished"
)

// Event is one realtime notification scoped to a single party.
type Event struct {
	Name    string `json:"event"`
	Payload any    `json:"payload"`
}

// ContestantJoinedPayload announces a new contestant to the host dashboard.
type ContestantJoinedPayload struct {
	Contestant  ContestantStatus `json:"contestant"`
	PartyStatus PartyStatus      `json:"partyStatus"`
}

// AnswerEventPayload identifies which answer changed, not what it is.
type AnswerEventPayload struct {
	ContestantID   string `json:"contestantId"`
	QuestionNumber int    `json:"questionNumber"`
}

// QuestionChangedPayload carries the host's new question pointer.
type QuestionChangedPayload struct {
	CurrentQuestion int `json:"currentQuestion"`
}

// StatusChangedPayload carries an explicit party status change.
type StatusChangedPayload struct {
	Status PartyStatus `json:"status"`
}

// QuizFinishedPayload carries the final ranking to all subscribers.
type QuizFinishedPayload struct {
	Leaderboard    []LeaderboardEntry `json:"leaderboard"`
	CorrectAnswers map[int]float64    `json:"correctAnswers"`
}
