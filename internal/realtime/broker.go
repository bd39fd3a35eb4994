package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// Local dispatches events straight to an in-process hub.
type Local struct{ Hub *Hub }

func (l Local) Publish(_ context.Context, ev ChangeEvent) error {
	l.Hub.Dispatch(ev)
	return nil
}

// Redis fans events out through a pub/sub channel so that every API
// instance delivers them to its own websocket sessions.
type Redis struct {
	client  *redis.Client
	channel string
	hub     *Hub
}

func NewRedis(client *redis.Client, channel string, hub *Hub) *Redis {
	return &Redis{client: client, channel: channel, hub: hub}
}

func (r *Redis) Publish(ctx context.Context, ev ChangeEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode change event: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, b).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Run relays channel messages into the hub until ctx is cancelled.
func (r *Redis) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	// wait for the subscription to be confirmed
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe %s: %w", r.channel, err)
	}
	log.Printf("✅ realtime relay subscribed to redis channel %s", r.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			ev, err := decodeEvent([]byte(msg.Payload))
			if err != nil {
				log.Printf("⚠️ dropping malformed change event: %v", err)
				continue
			}
			r.hub.Dispatch(ev)
		}
	}
}
