package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/playdegen/auth/adapters/events"
	"github.com/rs/zerolog"
)

const EventLogout = "logout"

// Relay forwards channel and logout events from the message bus to the local hub
type Relay struct {
	subscriber message.Subscriber
	hub        *Hub
	logger     zerolog.Logger
}

func NewRelay(subscriber message.Subscriber, hub *Hub, logger zerolog.Logger) *Relay {
	return &Relay{
		subscriber: subscriber,
		hub:        hub,
		logger:     logger.With().Str("component", "relay").Logger(),
	}
}

// Run subscribes and forwards until ctx is done
func (r *Relay) Run(ctx context.Context) error {
	channelMsgs, err := r.subscriber.Subscribe(ctx, events.TopicChannel)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", events.TopicChannel, err)
	}
	logoutMsgs, err := r.subscriber.Subscribe(ctx, events.TopicLogout)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", events.TopicLogout, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-channelMsgs:
			if !ok {
				return nil
			}
			r.forwardChannel(msg)
		case msg, ok := <-logoutMsgs:
			if !ok {
				return nil
			}
			r.forwardLogout(msg)
		}
	}
}

func (r *Relay) forwardChannel(msg *message.Message) {
	defer msg.Ack()

	var event events.ChannelEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		r.logger.Warn().Err(err).Str("msg", msg.UUID).Msg("dropping malformed channel event")
		return
	}

	var data any
	if len(event.Data) > 0 {
		data = event.Data
	}
	if _, err := r.hub.Emit(event.Channel, event.Event, data); err != nil {
		r.logger.Warn().Err(err).Str("channel", event.Channel).Msg("failed to emit channel event")
	}
}

func (r *Relay) forwardLogout(msg *message.Message) {
	defer msg.Ack()

	var event events.LogoutEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		r.logger.Warn().Err(err).Str("msg", msg.UUID).Msg("dropping malformed logout event")
		return
	}

	n, _ := r.hub.Emit(event.Identity, EventLogout, nil)
	r.logger.Debug().Str("wallet", event.Identity).Int("connections", n).Msg("relayed logout")
}
