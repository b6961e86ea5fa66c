package domain

import "errors"

var (
	// ErrPartyNotFound is returned when no party matches a code, id, or host token.
	ErrPartyNotFound = errors.New("party not found")
	// ErrContestantNotFound is returned when a contestant id is unknown.
	ErrContestantNotFound = errors.New("contestant not found")
	// ErrInvalidCode rejects malformed party codes before any storage lookup.
	ErrInvalidCode = errors.New("invalid party code format")
	// ErrInvalidName rejects empty names and names over 50 characters.
	ErrInvalidName = errors.New("name must be between 1 and 50 characters")
	// ErrInvalidQuestionCount rejects party creation outside 1..50 questions.
	ErrInvalidQuestionCount = errors.New("total questions must be between 1 and 50")
	// ErrNameTaken indicates the chosen name is already used within the party.
	ErrNameTaken = errors.New("name already taken in this party")
	// ErrCodeTaken indicates a generated party code collided with a live party.
	ErrCodeTaken = errors.New("party code already in use")
	// ErrCodeExhausted indicates code generation collided on every attempt.
	ErrCodeExhausted = errors.New("failed to generate a unique party code")
	// ErrQuizFinished rejects mutations on a party that has already finished.
	ErrQuizFinished = errors.New("quiz has already finished")
	// ErrQuizNotFinished rejects leaderboard reads before the quiz finishes.
	ErrQuizNotFinished = errors.New("quiz not finished yet")
	// ErrQuestionOutOfRange rejects question numbers outside 1..totalQuestions.
	ErrQuestionOutOfRange = errors.New("question number out of range")
	// ErrInvalidCorrectAnswer rejects non-numeric correct answers.
	ErrInvalidCorrectAnswer = errors.New("correct answer must be numeric")
	// ErrMissingCorrectAnswer rejects a finish request that does not cover
	// every question; finishing is all-or-nothing.
	ErrMissingCorrectAnswer = errors.New("missing or invalid correct answer")
	// ErrNoCorrectAnswers indicates a finished party has no recorded answers.
	ErrNoCorrectAnswers = errors.New("no correct answers recorded")
	// ErrStatusDowngrade rejects explicit status changes that would move the
	// party backwards in its lifecycle.
	ErrStatusDowngrade = errors.New("party status cannot move backwards")
)
