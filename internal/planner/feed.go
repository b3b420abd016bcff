package planner

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const feedChannel = "planner.feed"

// Event is one entry on the live activity feed.
type Event struct {
	Kind     string    `json:"kind"`
	BoardID  string    `json:"boardId,omitempty"`
	EntityID string    `json:"entityId"`
	Actor    string    `json:"actor,omitempty"`
	At       time.Time `json:"at"`
}

// FeedPort publishes planner change events.
type FeedPort interface {
	Publish(ctx context.Context, event Event) error
}

// Feed broadcasts planner events over Redis pub/sub so every open board view
// sees changes as they happen.
type Feed struct {
	client *redis.Client
}

// NewFeed wraps a Redis client.
func NewFeed(client *redis.Client) *Feed {
	return &Feed{client: client}
}

// Publish sends one event. A nil feed drops events silently so the planner
// keeps working when Redis is down.
func (f *Feed) Publish(ctx context.Context, event Event) error {
	if f == nil || f.client == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return f.client.Publish(ctx, feedChannel, payload).Err()
}

// Subscription is a live handle on the feed. Events arrive on C until
// Unsubscribe is called or the subscribing context ends.
type Subscription struct {
	events <-chan Event
	pubsub *redis.PubSub
}

// C returns the event channel. It is closed when the subscription ends.
func (s *Subscription) C() <-chan Event {
	return s.events
}

// Unsubscribe tears down the Redis subscription and closes C.
func (s *Subscription) Unsubscribe() {
	_ = s.pubsub.Close()
}

// ErrFeedUnavailable reports that the feed has no Redis connection.
var ErrFeedUnavailable = errors.New("planner: umpan aktivitas tidak tersedia")

// Subscribe opens a live subscription on the feed. Malformed payloads are
// skipped.
func (f *Feed) Subscribe(ctx context.Context) (*Subscription, error) {
	if f == nil || f.client == nil {
		return nil, ErrFeedUnavailable
	}
	pubsub := f.client.Subscribe(ctx, feedChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	events := make(chan Event)
	go func() {
		defer close(events)
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = pubsub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					continue
				}
				select {
				case events <- event:
				case <-ctx.Done():
					_ = pubsub.Close()
					return
				}
			}
		}
	}()
	return &Subscription{events: events, pubsub: pubsub}, nil
}
