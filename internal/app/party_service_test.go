package app_test

import (
	"context"
	"testing"

	"party-quiz-service/internal/app"
	"party-quiz-service/internal/domain"
	"party-quiz-service/internal/infra/memory"
	"party-quiz-service/internal/partycode"
)

func newTestService() (*app.PartyService, *memory.Bus) {
	store := memory.NewStore()
	bus := memory.NewBus()
	return app.NewPartyService(store, store, bus), bus
}

func floatPtr(v float64) *float64 { return &v }

func TestCreatePartyShape(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	party, err := service.CreateParty(ctx, 5)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !partycode.Valid(party.Code) {
		t.Fatalf("bad party code %q", party.Code)
	}
	if party.Status != domain.StatusLobby || party.CurrentQuestion != 1 {
		t.Fatalf("unexpected initial party state %+v", party)
	}
	if len(party.HostID) != 64 {
		t.Fatalf("expected 64-char host token, got %d", len(party.HostID))
	}
}

func TestCreatePartyRejectsBadQuestionCount(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	for _, n := range []int{0, -1, 51} {
		if _, err := service.CreateParty(ctx, n); err != domain.ErrInvalidQuestionCount {
			t.Fatalf("count %d: expected ErrInvalidQuestionCount, got %v", n, err)
		}
	}
}

func TestJoinPartyActivatesLobby(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	party, _ := service.CreateParty(ctx, 3)
	contestant, joined, err := service.JoinParty(ctx, party.Code, "  Alice  ")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if contestant.Name != "Alice" {
		t.Fatalf("expected trimmed name, got %q", contestant.Name)
	}
	if joined.Status != domain.StatusActive {
		t.Fatalf("expected first join to activate the party, got %s", joined.Status)
	}

	// Second join keeps the party ACTIVE.
	_, joined, err = service.JoinParty(ctx, party.Code, "Bob")
	if err != nil {
		t.Fatalf("second join: %v", err)
	}
	if joined.Status != domain.StatusActive {
		t.Fatalf("expected ACTIVE, got %s", joined.Status)
	}
}

func TestJoinPartyValidation(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	party, _ := service.CreateParty(ctx, 3)

	if _, _, err := service.JoinParty(ctx, "toolong", "Alice"); err != domain.ErrInvalidCode {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}
	if _, _, err := service.JoinParty(ctx, party.Code, "   "); err != domain.ErrInvalidName {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
	if _, _, err := service.JoinParty(ctx, "ZZZ9", "Alice"); err != domain.ErrPartyNotFound {
		t.Fatalf("expected ErrPartyNotFound, got %v", err)
	}

	if _, _, err := service.JoinParty(ctx, party.Code, "Alice"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, _, err := service.JoinParty(ctx, party.Code, "Alice"); err != domain.ErrNameTaken {
		t.Fatalf("expected ErrNameTaken, got %v", err)
	}
}

func TestSubmitAnswerUpsertAndDelete(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	party, _ := service.CreateParty(ctx, 3)
	contestant, _, _ := service.JoinParty(ctx, party.Code, "Alice")

	deleted, answer, err := service.SubmitAnswer(ctx, contestant.ID, 1, floatPtr(42))
	if err != nil || deleted {
		t.Fatalf("submit: deleted=%v err=%v", deleted, err)
	}
	if answer.Value != 42 {
		t.Fatalf("expected stored value 42, got %v", answer.Value)
	}

	// Resubmitting overwrites in place.
	_, answer, err = service.SubmitAnswer(ctx, contestant.ID, 1, floatPtr(43))
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	report, _ := service.PlayerAnswers(ctx, contestant.ID)
	if len(report.Answers) != 1 || report.Answers[0].Value != 43 {
		t.Fatalf("expected one answer with value 43, got %+v", report.Answers)
	}

	// Nil value clears the answer; absence means unanswered.
	deleted, _, err = service.SubmitAnswer(ctx, contestant.ID, 1, nil)
	if err != nil || !deleted {
		t.Fatalf("delete: deleted=%v err=%v", deleted, err)
	}
	report, _ = service.PlayerAnswers(ctx, contestant.ID)
	if len(report.Answers) != 0 {
		t.Fatalf("expected no answers, got %+v", report.Answers)
	}

	// Deleting an absent row is still a success.
	deleted, _, err = service.SubmitAnswer(ctx, contestant.ID, 1, nil)
	if err != nil || !deleted {
		t.Fatalf("repeat delete: deleted=%v err=%v", deleted, err)
	}
}

func TestSubmitAnswerRangeAndStateChecks(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	party, _ := service.CreateParty(ctx, 2)
	contestant, _, _ := service.JoinParty(ctx, party.Code, "Alice")

	if _, _, err := service.SubmitAnswer(ctx, "missing", 1, floatPtr(1)); err != domain.ErrContestantNotFound {
		t.Fatalf("expected ErrContestantNotFound, got %v", err)
	}
	if _, _, err := service.SubmitAnswer(ctx, contestant.ID, 0, floatPtr(1)); err != domain.ErrQuestionOutOfRange {
		t.Fatalf("expected ErrQuestionOutOfRange, got %v", err)
	}
	if _, _, err := service.SubmitAnswer(ctx, contestant.ID, 3, floatPtr(1)); err != domain.ErrQuestionOutOfRange {
		t.Fatalf("expected ErrQuestionOutOfRange, got %v", err)
	}

	// Answering ahead of the host's pointer is allowed.
	if _, _, err := service.SubmitAnswer(ctx, contestant.ID, 2, floatPtr(1)); err != nil {
		t.Fatalf("future question: %v", err)
	}

	if _, err := service.FinishQuiz(ctx, party.HostID, map[int]float64{1: 1, 2: 2}); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if _, _, err := service.SubmitAnswer(ctx, contestant.ID, 1, floatPtr(1)); err != domain.ErrQuizFinished {
		t.Fatalf("expected ErrQuizFinished after finish, got %v", err)
	}
}

func TestAdvanceQuestion(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	party, _ := service.CreateParty(ctx, 5)

	updated, err := service.AdvanceQuestion(ctx, party.HostID, 3)
	if err != nil || updated.CurrentQuestion != 3 {
		t.Fatalf("advance: current=%d err=%v", updated.CurrentQuestion, err)
	}
	if _, err := service.AdvanceQuestion(ctx, party.HostID, 6); err != domain.ErrQuestionOutOfRange {
		t.Fatalf("expected ErrQuestionOutOfRange, got %v", err)
	}
	if _, err := service.AdvanceQuestion(ctx, "bogus", 1); err != domain.ErrPartyNotFound {
		t.Fatalf("expected ErrPartyNotFound, got %v", err)
	}

	// Rejected advance leaves the pointer untouched.
	report, _ := service.StatusForHost(ctx, party.HostID)
	if report.Party.CurrentQuestion != 3 {
		t.Fatalf("expected pointer to stay at 3, got %d", report.Party.CurrentQuestion)
	}
}

func TestSetStatusMonotonic(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	party, _ := service.CreateParty(ctx, 2)

	if _, err := service.SetStatus(ctx, party.HostID, domain.StatusActive); err != nil {
		t.Fatalf("set active: %v", err)
	}
	if _, err := service.SetStatus(ctx, party.HostID, domain.StatusLobby); err != domain.ErrStatusDowngrade {
		t.Fatalf("expected ErrStatusDowngrade, got %v", err)
	}
	// Setting the current status is a no-op success.
	if _, err := service.SetStatus(ctx, party.HostID, domain.StatusActive); err != nil {
		t.Fatalf("same-status set: %v", err)
	}
	if _, err := service.SetStatus(ctx, party.HostID, "PAUSED"); err != domain.ErrStatusDowngrade {
		t.Fatalf("expected invalid status rejection, got %v", err)
	}
}

func TestFinishQuizAllOrNothing(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	party, _ := service.CreateParty(ctx, 5)
	contestant, _, _ := service.JoinParty(ctx, party.Code, "Alice")
	_, _, _ = service.SubmitAnswer(ctx, contestant.ID, 1, floatPtr(10))

	// Question 3 missing: the whole request is rejected, nothing persists.
	incomplete := map[int]float64{1: 1, 2: 2, 4: 4, 5: 5}
	if _, err := service.FinishQuiz(ctx, party.HostID, incomplete); err == nil {
		t.Fatalf("expected finish to be rejected")
	}
	report, _ := service.StatusForHost(ctx, party.HostID)
	if report.Party.Status == domain.StatusFinished {
		t.Fatalf("party must not be FINISHED after rejected finish")
	}
	if _, _, err := service.SubmitAnswer(ctx, contestant.ID, 2, floatPtr(2)); err != nil {
		t.Fatalf("submissions must still work: %v", err)
	}
}

func TestFinishQuizComputesLeaderboardAndNotifies(t *testing.T) {
	ctx := context.Background()
	service, bus := newTestService()
	party, _ := service.CreateParty(ctx, 2)
	alice, _, _ := service.JoinParty(ctx, party.Code, "Alice")
	bob, _, _ := service.JoinParty(ctx, party.Code, "Bob")

	_, _, _ = service.SubmitAnswer(ctx, alice.ID, 1, floatPtr(100))
	_, _, _ = service.SubmitAnswer(ctx, alice.ID, 2, floatPtr(10))
	_, _, _ = service.SubmitAnswer(ctx, bob.ID, 1, floatPtr(90))

	events, cancel, err := bus.Subscribe(ctx, party.ID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	result, err := service.FinishQuiz(ctx, party.HostID, map[int]float64{1: 100, 2: 10})
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if len(result.Leaderboard) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(result.Leaderboard))
	}
	// Alice: 25 + 25; Bob: 15 on the boundary.
	if result.Leaderboard[0].ContestantID != alice.ID || result.Leaderboard[0].TotalScore != 50 {
		t.Fatalf("expected Alice leading with 50, got %+v", result.Leaderboard[0])
	}
	if result.Leaderboard[1].TotalScore != 15 {
		t.Fatalf("expected Bob with 15, got %+v", result.Leaderboard[1])
	}

	event := <-events
	if event.Name != domain.EventQuizFinished {
		t.Fatalf("expected %s event, got %s", domain.EventQuizFinished, event.Name)
	}

	// A second finish is rejected; correct answers are written once.
	if _, err := service.FinishQuiz(ctx, party.HostID, map[int]float64{1: 0, 2: 0}); err != domain.ErrQuizFinished {
		t.Fatalf("expected ErrQuizFinished, got %v", err)
	}
}

func TestJoinAfterFinishRejected(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	party, _ := service.CreateParty(ctx, 1)
	_, _, _ = service.JoinParty(ctx, party.Code, "Alice")
	if _, err := service.FinishQuiz(ctx, party.HostID, map[int]float64{1: 1}); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if _, _, err := service.JoinParty(ctx, party.Code, "Bob"); err != domain.ErrQuizFinished {
		t.Fatalf("expected ErrQuizFinished, got %v", err)
	}
}

func TestLeaderboardRequiresFinish(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	party, _ := service.CreateParty(ctx, 1)
	contestant, _, _ := service.JoinParty(ctx, party.Code, "Alice")

	if _, err := service.LeaderboardForHost(ctx, party.HostID); err != domain.ErrQuizNotFinished {
		t.Fatalf("expected ErrQuizNotFinished, got %v", err)
	}
	if _, err := service.LeaderboardForContestant(ctx, contestant.ID); err != domain.ErrQuizNotFinished {
		t.Fatalf("expected ErrQuizNotFinished, got %v", err)
	}

	_, _, _ = service.SubmitAnswer(ctx, contestant.ID, 1, floatPtr(5))
	if _, err := service.FinishQuiz(ctx, party.HostID, map[int]float64{1: 5}); err != nil {
		t.Fatalf("finish: %v", err)
	}
	result, err := service.LeaderboardForContestant(ctx, contestant.ID)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if result.Leaderboard[0].TotalScore != 25 {
		t.Fatalf("expected 25, got %d", result.Leaderboard[0].TotalScore)
	}
}

func TestRevealQuestionBreakdown(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	party, _ := service.CreateParty(ctx, 2)
	alice, _, _ := service.JoinParty(ctx, party.Code, "Alice")
	bob, _, _ := service.JoinParty(ctx, party.Code, "Bob")
	_, _, _ = service.SubmitAnswer(ctx, alice.ID, 1, floatPtr(100))
	_, _, _ = service.SubmitAnswer(ctx, bob.ID, 1, floatPtr(80))

	result, err := service.RevealQuestion(ctx, party.HostID, 1, 100)
	if err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if len(result.PlayerAnswers) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(result.PlayerAnswers))
	}
	if result.PlayerAnswers[0].ContestantID != alice.ID || result.PlayerAnswers[0].Score != 25 {
		t.Fatalf("expected Alice first with 25, got %+v", result.PlayerAnswers[0])
	}

	if _, err := service.RevealQuestion(ctx, party.HostID, 3, 1); err != domain.ErrQuestionOutOfRange {
		t.Fatalf("expected ErrQuestionOutOfRange, got %v", err)
	}
}

func TestStatusReports(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	party, _ := service.CreateParty(ctx, 3)
	alice, _, _ := service.JoinParty(ctx, party.Code, "Alice")
	_, _, _ = service.JoinParty(ctx, party.Code, "Bob")
	_, _, _ = service.SubmitAnswer(ctx, alice.ID, 2, floatPtr(7))
	_, _, _ = service.SubmitAnswer(ctx, alice.ID, 1, floatPtr(3))

	report, err := service.StatusForHost(ctx, party.HostID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if len(report.Contestants) != 2 {
		t.Fatalf("expected 2 contestants, got %d", len(report.Contestants))
	}
	var found bool
	for _, c := range report.Contestants {
		if c.ID == alice.ID {
			found = true
			if c.TotalAnswered != 2 {
				t.Fatalf("expected Alice to have 2 answers, got %d", c.TotalAnswered)
			}
			if c.AnsweredQuestions[0] != 1 || c.AnsweredQuestions[1] != 2 {
				t.Fatalf("expected ascending question list, got %v", c.AnsweredQuestions)
			}
		} else if c.TotalAnswered != 0 || len(c.AnsweredQuestions) != 0 {
			t.Fatalf("expected empty progress for Bob, got %+v", c)
		}
	}
	if !found {
		t.Fatalf("Alice missing from report %+v", report.Contestants)
	}

	byCode, err := service.StatusByCode(ctx, party.Code)
	if err != nil {
		t.Fatalf("status by code: %v", err)
	}
	if byCode.Party.Code != party.Code {
		t.Fatalf("unexpected summary %+v", byCode.Party)
	}
}
