package app

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"party-quiz-service/internal/domain"
	"party-quiz-service/internal/logging"
	"party-quiz-service/internal/metrics"
	"party-quiz-service/internal/partycode"
	"party-quiz-service/internal/scoring"
)

// Party creation limits.
const (
	MinQuestions    = 1
	MaxQuestions    = 50
	maxNameLength   = 50
	maxCodeAttempts = 10
)

// PartyStore persists parties and contestants. Uniqueness of party codes,
// host tokens, and (party, name) pairs is enforced by the store, not by
// check-then-act in the service.
type PartyStore interface {
	CreateParty(ctx context.Context, party *domain.Party) error
	PartyByID(ctx context.Context, id string) (domain.Party, error)
	PartyByCode(ctx context.Context, code string) (domain.Party, error)
	PartyByHostID(ctx context.Context, hostID string) (domain.Party, error)
	SetStatus(ctx context.Context, partyID string, status domain.PartyStatus) error
	SetCurrentQuestion(ctx context.Context, partyID string, question int) error
	FinishParty(ctx context.Context, partyID string, correctAnswers map[int]float64) error
	CreateContestant(ctx context.Context, contestant *domain.Contestant) error
	ContestantByID(ctx context.Context, id string) (domain.Contestant, error)
	ContestantsByParty(ctx context.Context, partyID string) ([]domain.Contestant, error)
}

// AnswerStore persists answers keyed by (party, contestant, question).
// UpsertAnswer must be atomic with respect to create-vs-update.
type AnswerStore interface {
	UpsertAnswer(ctx context.Context, answer *domain.Answer) error
	DeleteAnswer(ctx context.Context, partyID, contestantID string, questionNumber int) error
	AnswersByContestant(ctx context.Context, contestantID string) ([]domain.Answer, error)
	AnswersByParty(ctx context.Context, partyID string) ([]domain.ContestantAnswer, error)
	AnswersByQuestion(ctx context.Context, partyID string, questionNumber int) ([]domain.ContestantAnswer, error)
}

// Notifier pushes events to party-scoped subscribers. Publishing happens
// after the storage mutation has committed and is best-effort: failures are
// logged, never surfaced to the caller.
type Notifier interface {
	Publish(ctx context.Context, partyID string, event domain.Event) error
}

// PartyService implements the quiz use cases on top of the store and
// notifier contracts.
type PartyService struct {
	parties       PartyStore
	answers       AnswerStore
	notifier      Notifier
	notifyTimeout time.Duration
	now           func() time.Time
}

func NewPartyService(parties PartyStore, answers AnswerStore, notifier Notifier) *PartyService {
	return &PartyService{
		parties:       parties,
		answers:       answers,
		notifier:      notifier,
		notifyTimeout: 2 * time.Second,
		now:           time.Now,
	}
}

// SetNotifyTimeout bounds the best-effort publish that follows each
// committed mutation.
func (s *PartyService) SetNotifyTimeout(d time.Duration) {
	if d > 0 {
		s.notifyTimeout = d
	}
}

// CreateParty creates a new party in LOBBY with a freshly generated code and
// host token. Code collisions are retried up to maxCodeAttempts; exhausting
// the attempts is a hard failure.
func (s *PartyService) CreateParty(ctx context.Context, totalQuestions int) (domain.Party, error) {
	if totalQuestions < MinQuestions || totalQuestions > MaxQuestions {
		return domain.Party{}, domain.ErrInvalidQuestionCount
	}

	hostID, err := partycode.NewHostToken()
	if err != nil {
		return domain.Party{}, fmt.Errorf("generate host token: %w", err)
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := partycode.Generate()
		if err != nil {
			return domain.Party{}, fmt.Errorf("generate party code: %w", err)
		}
		party := domain.Party{
			ID:              uuid.NewString(),
			Code:            code,
			HostID:          hostID,
			Status:          domain.StatusLobby,
			TotalQuestions:  totalQuestions,
			CurrentQuestion: 1,
			CreatedAt:       s.now(),
		}
		err = s.parties.CreateParty(ctx, &party)
		if err == nil {
			metrics.PartiesCreated.Inc()
			return party, nil
		}
		if err == domain.ErrCodeTaken {
			logging.Log.Warnf("party code %s collided, retrying (attempt %d)", code, attempt+1)
			continue
		}
		return domain.Party{}, err
	}
	return domain.Party{}, domain.ErrCodeExhausted
}

// JoinParty registers a contestant in the party identified by code. The
// first join flips a LOBBY party to ACTIVE. Name uniqueness within the party
// is enforced by the store's constraint, so concurrent joins with the same
// name cannot both succeed.
func (s *PartyService) JoinParty(ctx context.Context, code, name string) (domain.Contestant, domain.Party, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !partycode.Valid(code) {
		return domain.Contestant{}, domain.Party{}, domain.ErrInvalidCode
	}
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return domain.Contestant{}, domain.Party{}, domain.ErrInvalidName
	}

	party, err := s.parties.PartyByCode(ctx, code)
	if err != nil {
		return domain.Contestant{}, domain.Party{}, err
	}
	if party.Status == domain.StatusFinished {
		return domain.Contestant{}, domain.Party{}, domain.ErrQuizFinished
	}

	contestant := domain.Contestant{
		ID:        uuid.NewString(),
		PartyID:   party.ID,
		Name:      name,
		CreatedAt: s.now(),
	}
	if err := s.parties.CreateContestant(ctx, &contestant); err != nil {
		return domain.Contestant{}, domain.Party{}, err
	}

	if party.Status == domain.StatusLobby {
		if err := s.parties.SetStatus(ctx, party.ID, domain.StatusActive); err != nil {
			return domain.Contestant{}, domain.Party{}, err
		}
		party.Status = domain.StatusActive
	}

	metrics.ContestantsJoined.Inc()
	s.notify(party.ID, domain.Event{
		Name: domain.EventContestantJoined,
		Payload: domain.ContestantJoinedPayload{
			Contestant: domain.ContestantStatus{
				ID:                contestant.ID,
				Name:              contestant.Name,
				AnsweredQuestions: []int{},
				TotalAnswered:     0,
			},
			PartyStatus: party.Status,
		},
	})
	return contestant, party, nil
}

// SubmitAnswer upserts the contestant's answer for a question, or deletes it
// when value is nil or NaN (an empty input clears the answer; there is no
// null-answer sentinel). Submissions are rejected once the party is
// FINISHED. The question only has to be in range; the service deliberately
// does not gate on the host's current question pointer.
func (s *PartyService) SubmitAnswer(ctx context.Context, contestantID string, questionNumber int, value *float64) (bool, domain.Answer, error) {
	contestant, err := s.parties.ContestantByID(ctx, contestantID)
	if err != nil {
		return false, domain.Answer{}, err
	}
	party, err := s.parties.PartyByID(ctx, contestant.PartyID)
	if err != nil {
		return false, domain.Answer{}, err
	}
	if party.Status == domain.StatusFinished {
		return false, domain.Answer{}, domain.ErrQuizFinished
	}
	if questionNumber < 1 || questionNumber > party.TotalQuestions {
		return false, domain.Answer{}, domain.ErrQuestionOutOfRange
	}

	if value == nil || math.IsNaN(*value) {
		if err := s.answers.DeleteAnswer(ctx, party.ID, contestant.ID, questionNumber); err != nil {
			return false, domain.Answer{}, err
		}
		metrics.AnswersDeleted.Inc()
		s.notify(party.ID, domain.Event{
			Name:    domain.EventAnswerDeleted,
			Payload: domain.AnswerEventPayload{ContestantID: contestant.ID, QuestionNumber: questionNumber},
		})
		return true, domain.Answer{}, nil
	}

	answer := domain.Answer{
		PartyID:        party.ID,
		ContestantID:   contestant.ID,
		QuestionNumber: questionNumber,
		Value:          *value,
		UpdatedAt:      s.now(),
	}
	if err := s.answers.UpsertAnswer(ctx, &answer); err != nil {
		return false, domain.Answer{}, err
	}
	metrics.AnswersSubmitted.Inc()
	s.notify(party.ID, domain.Event{
		Name:    domain.EventAnswerSubmitted,
		Payload: domain.AnswerEventPayload{ContestantID: contestant.ID, QuestionNumber: questionNumber},
	})
	return false, answer, nil
}

// AdvanceQuestion moves the host's question pointer. Out-of-range values are
// rejected with no state change; the party status is untouched.
func (s *PartyService) AdvanceQuestion(ctx context.Context, hostID string, question int) (domain.Party, error) {
	party, err := s.parties.PartyByHostID(ctx, hostID)
	if err != nil {
		return domain.Party{}, err
	}
	if question < 1 || question > party.TotalQuestions {
		return domain.Party{}, domain.ErrQuestionOutOfRange
	}
	if err := s.parties.SetCurrentQuestion(ctx, party.ID, question); err != nil {
		return domain.Party{}, err
	}
	party.CurrentQuestion = question
	s.notify(party.ID, domain.Event{
		Name:    domain.EventQuestionChanged,
		Payload: domain.QuestionChangedPayload{CurrentQuestion: question},
	})
	return party, nil
}

// SetStatus is the explicit host override for the party status. Transitions
// must still be monotonic; a downgrade is rejected and setting the current
// status is a no-op.
func (s *PartyService) SetStatus(ctx context.Context, hostID string, status domain.PartyStatus) (domain.Party, error) {
	if !status.Valid() {
		return domain.Party{}, domain.ErrStatusDowngrade
	}
	party, err := s.parties.PartyByHostID(ctx, hostID)
	if err != nil {
		return domain.Party{}, err
	}
	if !party.Status.CanTransitionTo(status) {
		return domain.Party{}, domain.ErrStatusDowngrade
	}
	if party.Status == status {
		return party, nil
	}
	if err := s.parties.SetStatus(ctx, party.ID, status); err != nil {
		return domain.Party{}, err
	}
	party.Status = status
	s.notify(party.ID, domain.Event{
		Name:    domain.EventQuizStatusChanged,
		Payload: domain.StatusChangedPayload{Status: status},
	})
	return party, nil
}

// RevealQuestion scores one question against a host-provided correct value
// without persisting anything. Rows are ordered by score, then closeness.
func (s *PartyService) RevealQuestion(ctx context.Context, hostID string, questionNumber int, correctAnswer float64) (domain.RevealResult, error) {
	if math.IsNaN(correctAnswer) {
		return domain.RevealResult{}, domain.ErrInvalidCorrectAnswer
	}
	party, err := s.parties.PartyByHostID(ctx, hostID)
	if err != nil {
		return domain.RevealResult{}, err
	}
	if questionNumber < 1 || questionNumber > party.TotalQuestions {
		return domain.RevealResult{}, domain.ErrQuestionOutOfRange
	}

	rows, err := s.answers.AnswersByQuestion(ctx, party.ID, questionNumber)
	if err != nil {
		return domain.RevealResult{}, err
	}
	answers := make([]scoring.Answer, len(rows))
	for i, r := range rows {
		answers[i] = scoring.Answer{ContestantID: r.ContestantID, ContestantName: r.ContestantName, Value: r.Value}
	}
	return domain.RevealResult{
		QuestionNumber: questionNumber,
		CorrectAnswer:  correctAnswer,
		PlayerAnswers:  scoring.RevealBreakdown(answers, correctAnswer),
	}, nil
}

// FinishQuiz validates the full correct-answer set, commits the FINISHED
// transition together with the answers, and only then reads the submitted
// answers to build the final leaderboard. Reading after the commit keeps the
// window for racing submissions as small as possible. Finishing is
// all-or-nothing: one missing or non-numeric value rejects the request with
// no partial persistence.
func (s *PartyService) FinishQuiz(ctx context.Context, hostID string, correctAnswers map[int]float64) (domain.LeaderboardResult, error) {
	party, err := s.parties.PartyByHostID(ctx, hostID)
	if err != nil {
		return domain.LeaderboardResult{}, err
	}
	if party.Status == domain.StatusFinished {
		return domain.LeaderboardResult{}, domain.ErrQuizFinished
	}

	recorded := make(map[int]float64, party.TotalQuestions)
	for q := 1; q <= party.TotalQuestions; q++ {
		v, ok := correctAnswers[q]
		if !ok || math.IsNaN(v) {
			return domain.LeaderboardResult{}, fmt.Errorf("%w for question %d", domain.ErrMissingCorrectAnswer, q)
		}
		recorded[q] = v
	}

	if err := s.parties.FinishParty(ctx, party.ID, recorded); err != nil {
		return domain.LeaderboardResult{}, err
	}
	party.Status = domain.StatusFinished
	party.CorrectAnswers = recorded

	leaderboard, err := s.buildLeaderboard(ctx, party)
	if err != nil {
		return domain.LeaderboardResult{}, err
	}

	metrics.QuizzesFinished.Inc()
	s.notify(party.ID, domain.Event{
		Name: domain.EventQuizFinished,
		Payload: domain.QuizFinishedPayload{
			Leaderboard:    leaderboard,
			CorrectAnswers: recorded,
		},
	})
	return domain.LeaderboardResult{
		Leaderboard:    leaderboard,
		CorrectAnswers: recorded,
		Party:          summaryOf(party),
	}, nil
}

// LeaderboardForHost returns the final leaderboard for the host view.
func (s *PartyService) LeaderboardForHost(ctx context.Context, hostID string) (domain.LeaderboardResult, error) {
	party, err := s.parties.PartyByHostID(ctx, hostID)
	if err != nil {
		return domain.LeaderboardResult{}, err
	}
	return s.leaderboardResult(ctx, party)
}

// LeaderboardForContestant returns the final leaderboard for a player view.
func (s *PartyService) LeaderboardForContestant(ctx context.Context, contestantID string) (domain.LeaderboardResult, error) {
	contestant, err := s.parties.ContestantByID(ctx, contestantID)
	if err != nil {
		return domain.LeaderboardResult{}, err
	}
	party, err := s.parties.PartyByID(ctx, contestant.PartyID)
	if err != nil {
		return domain.LeaderboardResult{}, err
	}
	return s.leaderboardResult(ctx, party)
}

func (s *PartyService) leaderboardResult(ctx context.Context, party domain.Party) (domain.LeaderboardResult, error) {
	if party.Status != domain.StatusFinished {
		return domain.LeaderboardResult{}, domain.ErrQuizNotFinished
	}
	if len(party.CorrectAnswers) == 0 {
		return domain.LeaderboardResult{}, domain.ErrNoCorrectAnswers
	}
	leaderboard, err := s.buildLeaderboard(ctx, party)
	if err != nil {
		return domain.LeaderboardResult{}, err
	}
	return domain.LeaderboardResult{
		Leaderboard:    leaderboard,
		CorrectAnswers: party.CorrectAnswers,
		Party:          domain.PartySummary{Code: party.Code, Status: party.Status, TotalQuestions: party.TotalQuestions},
	}, nil
}

func (s *PartyService) buildLeaderboard(ctx context.Context, party domain.Party) ([]domain.LeaderboardEntry, error) {
	rows, err := s.answers.AnswersByParty(ctx, party.ID)
	if err != nil {
		return nil, err
	}
	all := make([]scoring.QuestionAnswer, len(rows))
	for i, r := range rows {
		all[i] = scoring.QuestionAnswer{
			QuestionNumber: r.QuestionNumber,
			ContestantID:   r.ContestantID,
			ContestantName: r.ContestantName,
			Value:          r.Value,
		}
	}
	return scoring.BuildLeaderboard(all, party.CorrectAnswers, party.TotalQuestions), nil
}

// StatusForHost returns the host dashboard view.
func (s *PartyService) StatusForHost(ctx context.Context, hostID string) (domain.StatusReport, error) {
	party, err := s.parties.PartyByHostID(ctx, hostID)
	if err != nil {
		return domain.StatusReport{}, err
	}
	return s.statusReport(ctx, party)
}

// StatusByCode returns the same view for anyone holding the party code.
func (s *PartyService) StatusByCode(ctx context.Context, code string) (domain.StatusReport, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !partycode.Valid(code) {
		return domain.StatusReport{}, domain.ErrInvalidCode
	}
	party, err := s.parties.PartyByCode(ctx, code)
	if err != nil {
		return domain.StatusReport{}, err
	}
	return s.statusReport(ctx, party)
}

func (s *PartyService) statusReport(ctx context.Context, party domain.Party) (domain.StatusReport, error) {
	contestants, err := s.parties.ContestantsByParty(ctx, party.ID)
	if err != nil {
		return domain.StatusReport{}, err
	}
	rows, err := s.answers.AnswersByParty(ctx, party.ID)
	if err != nil {
		return domain.StatusReport{}, err
	}

	answered := make(map[string][]int)
	for _, r := range rows {
		answered[r.ContestantID] = append(answered[r.ContestantID], r.QuestionNumber)
	}

	statuses := make([]domain.ContestantStatus, 0, len(contestants))
	for _, c := range contestants {
		questions := answered[c.ID]
		if questions == nil {
			questions = []int{}
		}
		sort.Ints(questions)
		statuses = append(statuses, domain.ContestantStatus{
			ID:                c.ID,
			Name:              c.Name,
			AnsweredQuestions: questions,
			TotalAnswered:     len(questions),
		})
	}
	return domain.StatusReport{Party: summaryOf(party), Contestants: statuses}, nil
}

// PlayerAnswers returns a contestant's own answers with the party summary,
// used when a player reconnects.
func (s *PartyService) PlayerAnswers(ctx context.Context, contestantID string) (domain.PlayerAnswersReport, error) {
	contestant, err := s.parties.ContestantByID(ctx, contestantID)
	if err != nil {
		return domain.PlayerAnswersReport{}, err
	}
	party, err := s.parties.PartyByID(ctx, contestant.PartyID)
	if err != nil {
		return domain.PlayerAnswersReport{}, err
	}
	answers, err := s.answers.AnswersByContestant(ctx, contestant.ID)
	if err != nil {
		return domain.PlayerAnswersReport{}, err
	}

	report := domain.PlayerAnswersReport{
		Party:   summaryOf(party),
		Answers: make([]domain.AnswerView, 0, len(answers)),
	}
	report.Contestant.ID = contestant.ID
	report.Contestant.Name = contestant.Name
	for _, a := range answers {
		report.Answers = append(report.Answers, domain.AnswerView{
			QuestionNumber: a.QuestionNumber,
			Value:          a.Value,
			UpdatedAt:      a.UpdatedAt,
		})
	}
	return report, nil
}

// PartyByID resolves a party for transport-level subscription checks.
func (s *PartyService) PartyByID(ctx context.Context, partyID string) (domain.Party, error) {
	return s.parties.PartyByID(ctx, partyID)
}

// notify publishes after the mutation has committed. A fresh context bounds
// the call so a canceled request cannot suppress the event, and failures are
// logged only because the storage mutation is already authoritative.
func (s *PartyService) notify(partyID string, event domain.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
	defer cancel()
	if err := s.notifier.Publish(ctx, partyID, event); err != nil {
		metrics.NotifyFailures.Inc()
		logging.Log.Warnf("publish %s for party %s: %v", event.Name, partyID, err)
	}
}

func summaryOf(party domain.Party) domain.PartySummary {
	return domain.PartySummary{
		ID:              party.ID,
		Code:            party.Code,
		Status:          party.Status,
		CurrentQuestion: party.CurrentQuestion,
		TotalQuestions:  party.TotalQuestions,
	}
}
