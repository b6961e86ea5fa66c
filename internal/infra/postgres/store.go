package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"party-quiz-service/internal/domain"
)

const uniqueViolation = "23505"

// Store implements app.PartyStore and app.AnswerStore on a pgx pool. The
// schema's unique constraints carry the invariants: party codes and host
// tokens are globally unique, contestant names are unique per party, and
// answers upsert atomically on their composite key.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) CreateParty(ctx context.Context, party *domain.Party) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO parties (id, code, host_id, status, total_questions, current_question, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		party.ID, party.Code, party.HostID, string(party.Status), party.TotalQuestions, party.CurrentQuestion, party.CreatedAt,
	)
	if isUniqueViolation(err, "parties_code_key") {
		return domain.ErrCodeTaken
	}
	if err != nil {
		return fmt.Errorf("create party: %w", err)
	}
	return nil
}

func (s *Store) PartyByID(ctx context.Context, id string) (domain.Party, error) {
	return s.party(ctx, `WHERE id=$1`, id)
}

func (s *Store) PartyByCode(ctx context.Context, code string) (domain.Party, error) {
	return s.party(ctx, `WHERE code=$1`, code)
}

func (s *Store) PartyByHostID(ctx context.Context, hostID string) (domain.Party, error) {
	return s.party(ctx, `WHERE host_id=$1`, hostID)
}

func (s *Store) party(ctx context.Context, where string, arg any) (domain.Party, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, code, host_id, status, total_questions, current_question, correct_answers, created_at
		FROM parties `+where, arg)

	var party domain.Party
	var status string
	var rawAnswers []byte
	err := row.Scan(&party.ID, &party.Code, &party.HostID, &status, &party.TotalQuestions, &party.CurrentQuestion, &rawAnswers, &party.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Party{}, domain.ErrPartyNotFound
	}
	if err != nil {
		return domain.Party{}, fmt.Errorf("load party: %w", err)
	}
	party.Status = domain.PartyStatus(status)
	if len(rawAnswers) > 0 {
		if err := json.Unmarshal(rawAnswers, &party.CorrectAnswers); err != nil {
			return domain.Party{}, fmt.Errorf("unmarshal correct answers: %w", err)
		}
	}
	return party, nil
}

func (s *Store) SetStatus(ctx context.Context, partyID string, status domain.PartyStatus) error {
	tag, err := s.pool.Exec(ctx, `UPDATE parties SET status=$2 WHERE id=$1`, partyID, string(status))
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPartyNotFound
	}
	return nil
}

func (s *Store) SetCurrentQuestion(ctx context.Context, partyID string, question int) error {
	tag, err := s.pool.Exec(ctx, `UPDATE parties SET current_question=$2 WHERE id=$1`, partyID, question)
	if err != nil {
		return fmt.Errorf("set current question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPartyNotFound
	}
	return nil
}

// FinishParty commits the terminal transition and the correct answers in one
// statement. The status guard makes a second finish a no-op at the storage
// level, so correct answers are written exactly once.
func (s *Store) FinishParty(ctx context.Context, partyID string, correctAnswers map[int]float64) error {
	data, err := json.Marshal(correctAnswers)
	if err != nil {
		return fmt.Errorf("marshal correct answers: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE parties SET status=$2, correct_answers=$3
		WHERE id=$1 AND status <> $2`,
		partyID, string(domain.StatusFinished), data,
	)
	if err != nil {
		return fmt.Errorf("finish party: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizFinished
	}
	return nil
}

func (s *Store) CreateContestant(ctx context.Context, contestant *domain.Contestant) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO contestants (id, party_id, name, created_at)
		VALUES ($1, $2, $3, $4)`,
		contestant.ID, contestant.PartyID, contestant.Name, contestant.CreatedAt,
	)
	if isUniqueViolation(err, "contestants_party_id_name_key") {
		return domain.ErrNameTaken
	}
	if err != nil {
		return fmt.Errorf("create contestant: %w", err)
	}
	return nil
}

func (s *Store) ContestantByID(ctx context.Context, id string) (domain.Contestant, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, party_id, name, created_at FROM contestants WHERE id=$1`, id)
	var c domain.Contestant
	err := row.Scan(&c.ID, &c.PartyID, &c.Name, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Contestant{}, domain.ErrContestantNotFound
	}
	if err != nil {
		return domain.Contestant{}, fmt.Errorf("load contestant: %w", err)
	}
	return c, nil
}

func (s *Store) ContestantsByParty(ctx context.Context, partyID string) ([]domain.Contestant, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, party_id, name, created_at FROM contestants
		WHERE party_id=$1 ORDER BY created_at, name`, partyID)
	if err != nil {
		return nil, fmt.Errorf("list contestants: %w", err)
	}
	defer rows.Close()

	var out []domain.Contestant
	for rows.Next() {
		var c domain.Contestant
		if err := rows.Scan(&c.ID, &c.PartyID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan contestant: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpsertAnswer is a true atomic upsert on the composite key; concurrent
// first-time submissions cannot create duplicate rows.
func (s *Store) UpsertAnswer(ctx context.Context, answer *domain.Answer) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO answers (party_id, contestant_id, question_number, value, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (party_id, contestant_id, question_number)
		DO UPDATE SET value=EXCLUDED.value, updated_at=EXCLUDED.updated_at`,
		answer.PartyID, answer.ContestantID, answer.QuestionNumber, answer.Value, answer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert answer: %w", err)
	}
	return nil
}

func (s *Store) DeleteAnswer(ctx context.Context, partyID, contestantID string, questionNumber int) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM answers
		WHERE party_id=$1 AND contestant_id=$2 AND question_number=$3`,
		partyID, contestantID, questionNumber,
	)
	if err != nil {
		return fmt.Errorf("delete answer: %w", err)
	}
	return nil
}

func (s *Store) AnswersByContestant(ctx context.Context, contestantID string) ([]domain.Answer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT party_id, contestant_id, question_number, value, updated_at
		FROM answers WHERE contestant_id=$1 ORDER BY question_number`, contestantID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer rows.Close()

	var out []domain.Answer
	for rows.Next() {
		var a domain.Answer
		if err := rows.Scan(&a.PartyID, &a.ContestantID, &a.QuestionNumber, &a.Value, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) AnswersByParty(ctx context.Context, partyID string) ([]domain.ContestantAnswer, error) {
	return s.joinedAnswers(ctx, `WHERE a.party_id=$1`, partyID)
}

func (s *Store) AnswersByQuestion(ctx context.Context, partyID string, questionNumber int) ([]domain.ContestantAnswer, error) {
	return s.joinedAnswers(ctx, `WHERE a.party_id=$1 AND a.question_number=$2`, partyID, questionNumber)
}

func (s *Store) joinedAnswers(ctx context.Context, where string, args ...any) ([]domain.ContestantAnswer, error) {
	rows, err := s.pool.Query(ctx, strings.Join([]string{`
		SELECT a.party_id, a.contestant_id, a.question_number, a.value, a.updated_at, c.name
		FROM answers a JOIN contestants c ON c.id = a.contestant_id`,
		where,
		`ORDER BY a.question_number, c.name`}, " "), args...)
	if err != nil {
		return nil, fmt.Errorf("list party answers: %w", err)
	}
	defer rows.Close()

	var out []domain.ContestantAnswer
	for rows.Next() {
		var a domain.ContestantAnswer
		if err := rows.Scan(&a.PartyID, &a.ContestantID, &a.QuestionNumber, &a.Value, &a.UpdatedAt, &a.ContestantName); err != nil {
			return nil, fmt.Errorf("scan party answer: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolation && pgErr.ConstraintName == constraint
}
