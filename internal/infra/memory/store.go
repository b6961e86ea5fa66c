package memory

import (
	"context"
	"sort"
	"sync"

	"party-quiz-service/internal/domain"
)

type answerKey struct {
	partyID      string
	contestantID string
	question     int
}

// Store is an in-memory implementation of app.PartyStore and app.AnswerStore.
// All uniqueness checks happen under the same lock as the write, so it gives
// the same atomicity guarantees the postgres constraints do.
type Store struct {
	mu          sync.RWMutex
	parties     map[string]*domain.Party
	byCode      map[string]string
	byHost      map[string]string
	contestants map[string]*domain.Contestant
	names       map[string]map[string]struct{}
	answers     map[answerKey]*domain.Answer
}

func NewStore() *Store {
	return &Store{
		parties:     make(map[string]*domain.Party),
		byCode:      make(map[string]string),
		byHost:      make(map[string]string),
		contestants: make(map[string]*domain.Contestant),
		names:       make(map[string]map[string]struct{}),
		answers:     make(map[answerKey]*domain.Answer),
	}
}

func (s *Store) CreateParty(_ context.Context, party *domain.Party) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byCode[party.Code]; ok {
		return domain.ErrCodeTaken
	}
	p := *party
	s.parties[p.ID] = &p
	s.byCode[p.Code] = p.ID
	s.byHost[p.HostID] = p.ID
	s.names[p.ID] = make(map[string]struct{})
	return nil
}

func (s *Store) PartyByID(_ context.Context, id string) (domain.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.partyLocked(id)
}

func (s *Store) PartyByCode(_ context.Context, code string) (domain.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byCode[code]
	if !ok {
		return domain.Party{}, domain.ErrPartyNotFound
	}
	return s.partyLocked(id)
}

func (s *Store) PartyByHostID(_ context.Context, hostID string) (domain.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byHost[hostID]
	if !ok {
		return domain.Party{}, domain.ErrPartyNotFound
	}
	return s.partyLocked(id)
}

func (s *Store) partyLocked(id string) (domain.Party, error) {
	party, ok := s.parties[id]
	if !ok {
		return domain.Party{}, domain.ErrPartyNotFound
	}
	copied := *party
	if party.CorrectAnswers != nil {
		copied.CorrectAnswers = make(map[int]float64, len(party.CorrectAnswers))
		for q, v := range party.CorrectAnswers {
			copied.CorrectAnswers[q] = v
		}
	}
	return copied, nil
}

func (s *Store) SetStatus(_ context.Context, partyID string, status domain.PartyStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	party, ok := s.parties[partyID]
	if !ok {
		return domain.ErrPartyNotFound
	}
	party.Status = status
	return nil
}

func (s *Store) SetCurrentQuestion(_ context.Context, partyID string, question int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	party, ok := s.parties[partyID]
	if !ok {
		return domain.ErrPartyNotFound
	}
	party.CurrentQuestion = question
	return nil
}

func (s *Store) FinishParty(_ context.Context, partyID string, correctAnswers map[int]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	party, ok := s.parties[partyID]
	if !ok {
		return domain.ErrPartyNotFound
	}
	if party.Status == domain.StatusFinished {
		return domain.ErrQuizFinished
	}
	recorded := make(map[int]float64, len(correctAnswers))
	for q, v := range correctAnswers {
		recorded[q] = v
	}
	party.Status = domain.StatusFinished
	party.CorrectAnswers = recorded
	return nil
}

func (s *Store) CreateContestant(_ context.Context, contestant *domain.Contestant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	names, ok := s.names[contestant.PartyID]
	if !ok {
		return domain.ErrPartyNotFound
	}
	if _, taken := names[contestant.Name]; taken {
		return domain.ErrNameTaken
	}
	c := *contestant
	s.contestants[c.ID] = &c
	names[c.Name] = struct{}{}
	return nil
}

func (s *Store) ContestantByID(_ context.Context, id string) (domain.Contestant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	contestant, ok := s.contestants[id]
	if !ok {
		return domain.Contestant{}, domain.ErrContestantNotFound
	}
	return *contestant, nil
}

func (s *Store) ContestantsByParty(_ context.Context, partyID string) ([]domain.Contestant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Contestant
	for _, c := range s.contestants {
		if c.PartyID == partyID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) UpsertAnswer(_ context.Context, answer *domain.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := *answer
	s.answers[answerKey{a.PartyID, a.ContestantID, a.QuestionNumber}] = &a
	return nil
}

// DeleteAnswer removes the row if present; deleting an absent row succeeds.
func (s *Store) DeleteAnswer(_ context.Context, partyID, contestantID string, questionNumber int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.answers, answerKey{partyID, contestantID, questionNumber})
	return nil
}

func (s *Store) AnswersByContestant(_ context.Context, contestantID string) ([]domain.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Answer
	for key, a := range s.answers {
		if key.contestantID == contestantID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionNumber < out[j].QuestionNumber })
	return out, nil
}

func (s *Store) AnswersByParty(_ context.Context, partyID string) ([]domain.ContestantAnswer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.ContestantAnswer
	for key, a := range s.answers {
		if key.partyID != partyID {
			continue
		}
		out = append(out, s.joinedLocked(a))
	}
	sortJoined(out)
	return out, nil
}

func (s *Store) AnswersByQuestion(_ context.Context, partyID string, questionNumber int) ([]domain.ContestantAnswer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.ContestantAnswer
	for key, a := range s.answers {
		if key.partyID != partyID || key.question != questionNumber {
			continue
		}
		out = append(out, s.joinedLocked(a))
	}
	sortJoined(out)
	return out, nil
}

func (s *Store) joinedLocked(a *domain.Answer) domain.ContestantAnswer {
	joined := domain.ContestantAnswer{Answer: *a}
	if c, ok := s.contestants[a.ContestantID]; ok {
		joined.ContestantName = c.Name
	}
	return joined
}

func sortJoined(rows []domain.ContestantAnswer) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].QuestionNumber != rows[j].QuestionNumber {
			return rows[i].QuestionNumber < rows[j].QuestionNumber
		}
		return rows[i].ContestantName < rows[j].ContestantName
	})
}
