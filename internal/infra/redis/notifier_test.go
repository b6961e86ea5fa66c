package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"party-quiz-service/internal/domain"
)

func newTestNotifier(t *testing.T) *Notifier {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return NewNotifier(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func TestNotifierRoundTrip(t *testing.T) {
	ctx := context.Background()
	notifier := newTestNotifier(t)

	events, cancel, err := notifier.Subscribe(ctx, "party-1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	sent := domain.Event{
		Name:    domain.EventQuestionChanged,
		Payload: domain.QuestionChangedPayload{CurrentQuestion: 3},
	}
	if err := notifier.Publish(ctx, "party-1", sent); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case got := <-events:
		if got.Name != domain.EventQuestionChanged {
			t.Fatalf("expected %s, got %s", domain.EventQuestionChanged, got.Name)
		}
		// Payload came through JSON, so it arrives as a generic map.
		payload, ok := got.Payload.(map[string]interface{})
		if !ok || payload["currentQuestion"] != float64(3) {
			t.Fatalf("unexpected payload %#v", got.Payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event")
	}
}

func TestNotifierChannelsArePartyScoped(t *testing.T) {
	ctx := context.Background()
	notifier := newTestNotifier(t)

	events, cancel, err := notifier.Subscribe(ctx, "party-1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	event := domain.Event{Name: domain.EventContestantJoined}
	if err := notifier.Publish(ctx, "party-2", event); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case got := <-events:
		t.Fatalf("event leaked across parties: %+v", got)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestNotifierCancelClosesStream(t *testing.T) {
	ctx := context.Background()
	notifier := newTestNotifier(t)

	events, cancel, err := notifier.Subscribe(ctx, "party-1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	cancel()

	select {
	case _, ok := <-events:
		if ok {
			t.Fatalf("expected closed channel after cancel")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("channel not closed after cancel")
	}
}
