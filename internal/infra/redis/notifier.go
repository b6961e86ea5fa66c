package redis

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"party-quiz-service/internal/domain"
	"party-quiz-service/internal/logging"
)

// Notifier publishes party events over redis pub/sub so every service
// instance can fan them out to its own websocket clients. One channel per
// party: party:{partyID}.
type Notifier struct {
	client *redis.Client
}

func NewNotifier(client *redis.Client) *Notifier {
	return &Notifier{client: client}
}

func (n *Notifier) Publish(ctx context.Context, partyID string, event domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return n.client.Publish(ctx, channel(partyID), data).Err()
}

// Subscribe returns a channel of the party's events. The caller must invoke
// the returned cancel function to release the redis subscription.
func (n *Notifier) Subscribe(ctx context.Context, partyID string) (<-chan domain.Event, func(), error) {
	sub := n.client.Subscribe(ctx, channel(partyID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, err
	}

	out := make(chan domain.Event, 16)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var event domain.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				logging.Log.Warnf("drop malformed event on %s: %v", msg.Channel, err)
				continue
			}
			out <- event
		}
	}()

	cancel := func() { _ = sub.Close() }
	return out, cancel, nil
}

func channel(partyID string) string {
	return "party:" + partyID
}
