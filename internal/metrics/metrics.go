// Package metrics exposes service counters on the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PartiesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "party_quiz_parties_created_total",
		Help: "Number of parties created.",
	})
	ContestantsJoined = promauto.NewCounter(prometheus.CounterOpts{
		Name: "party_quiz_contestants_joined_total",
		Help: "Number of contestants who joined a party.",
	})
	AnswersSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "party_quiz_answers_submitted_total",
		Help: "Number of answer upserts.",
	})
	AnswersDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "party_quiz_answers_deleted_total",
		Help: "Number of answer deletions.",
	})
	QuizzesFinished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "party_quiz_quizzes_finished_total",
		Help: "Number of quizzes finished.",
	})
	NotifyFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "party_quiz_notify_failures_total",
		Help: "Number of realtime notifications that failed to publish.",
	})
)
