package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"party-quiz-service/internal/app"
	"party-quiz-service/internal/domain"
	"party-quiz-service/internal/logging"
)

// Handler adapts the party service to HTTP. It binds and parses input,
// delegates to the service, and maps domain errors to status codes; no
// business rules live here.
type Handler struct {
	service *app.PartyService
}

type createPartyRequest struct {
	TotalQuestions int `json:"totalQuestions"`
}

type joinPartyRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type submitAnswerRequest struct {
	QuestionNumber int `json:"questionNumber"`
	Value          any `json:"value"`
}

type advanceQuestionRequest struct {
	CurrentQuestion int `json:"currentQuestion"`
}

type setStatusRequest struct {
	Status domain.PartyStatus `json:"status"`
}

type revealQuestionRequest struct {
	CorrectAnswer any `json:"correctAnswer"`
}

type finishQuizRequest struct {
	CorrectAnswers map[string]any `json:"correctAnswers"`
}

func (h *Handler) createParty(c *gin.Context) {
	var req createPartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	party, err := h.service.CreateParty(c.Request.Context(), req.TotalQuestions)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":           party.Code,
		"hostId":         party.HostID,
		"partyId":        party.ID,
		"totalQuestions": party.TotalQuestions,
	})
}

func (h *Handler) joinParty(c *gin.Context) {
	var req joinPartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	contestant, party, err := h.service.JoinParty(c.Request.Context(), req.Code, req.Name)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"contestantId":    contestant.ID,
		"partyId":         party.ID,
		"code":            party.Code,
		"totalQuestions":  party.TotalQuestions,
		"currentQuestion": party.CurrentQuestion,
	})
}

func (h *Handler) partyStatus(c *gin.Context) {
	report, err := h.service.StatusByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) submitAnswer(c *gin.Context) {
	var req submitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	// An unparseable value means "clear the answer", not a validation error.
	value, ok := toFloat(req.Value)
	var valuePtr *float64
	if ok {
		valuePtr = &value
	}
	deleted, answer, err := h.service.SubmitAnswer(c.Request.Context(), c.Param("contestantId"), req.QuestionNumber, valuePtr)
	if err != nil {
		fail(c, err)
		return
	}
	if deleted {
		c.JSON(http.StatusOK, gin.H{"success": true, "deleted": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"answer": gin.H{
			"questionNumber": answer.QuestionNumber,
			"value":          answer.Value,
			"updatedAt":      answer.UpdatedAt,
		},
	})
}

func (h *Handler) listAnswers(c *gin.Context) {
	report, err := h.service.PlayerAnswers(c.Request.Context(), c.Param("contestantId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) playerLeaderboard(c *gin.Context) {
	result, err := h.service.LeaderboardForContestant(c.Request.Context(), c.Param("contestantId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) advanceQuestion(c *gin.Context) {
	var req advanceQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	party, err := h.service.AdvanceQuestion(c.Request.Context(), c.Param("hostId"), req.CurrentQuestion)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "currentQuestion": party.CurrentQuestion})
}

func (h *Handler) setStatus(c *gin.Context) {
	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	party, err := h.service.SetStatus(c.Request.Context(), c.Param("hostId"), req.Status)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": party.Status})
}

func (h *Handler) revealQuestion(c *gin.Context) {
	questionNumber, err := strconv.Atoi(c.Param("questionNumber"))
	if err != nil {
		badRequest(c, "invalid question number")
		return
	}
	var req revealQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	correct, ok := toFloat(req.CorrectAnswer)
	if !ok {
		fail(c, domain.ErrInvalidCorrectAnswer)
		return
	}
	result, err := h.service.RevealQuestion(c.Request.Context(), c.Param("hostId"), questionNumber, correct)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) finishQuiz(c *gin.Context) {
	var req finishQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	correctAnswers := make(map[int]float64, len(req.CorrectAnswers))
	for key, raw := range req.CorrectAnswers {
		q, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		if v, ok := toFloat(raw); ok {
			correctAnswers[q] = v
		}
	}
	result, err := h.service.FinishQuiz(c.Request.Context(), c.Param("hostId"), correctAnswers)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"leaderboard":    result.Leaderboard,
		"correctAnswers": result.CorrectAnswers,
	})
}

func (h *Handler) hostStatus(c *gin.Context) {
	report, err := h.service.StatusForHost(c.Request.Context(), c.Param("hostId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) hostLeaderboard(c *gin.Context) {
	result, err := h.service.LeaderboardForHost(c.Request.Context(), c.Param("hostId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// toFloat accepts the value shapes clients send: a JSON number or a numeric
// string. Everything else (null, empty string, garbage) reports !ok.
func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

// fail maps domain errors onto status codes. Unknown errors are logged and
// answered with a generic body so internals never leak.
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrPartyNotFound),
		errors.Is(err, domain.ErrContestantNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidCode),
		errors.Is(err, domain.ErrInvalidName),
		errors.Is(err, domain.ErrInvalidQuestionCount),
		errors.Is(err, domain.ErrQuestionOutOfRange),
		errors.Is(err, domain.ErrInvalidCorrectAnswer),
		errors.Is(err, domain.ErrMissingCorrectAnswer),
		errors.Is(err, domain.ErrQuizFinished),
		errors.Is(err, domain.ErrQuizNotFinished),
		errors.Is(err, domain.ErrNoCorrectAnswers),
		errors.Is(err, domain.ErrStatusDowngrade):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrCodeExhausted):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		logging.Log.Errorf("unhandled error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
