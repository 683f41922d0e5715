package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/playdegen/auth/ports"
)

const (
	TopicLogin   = "playdegen.login"
	TopicLogout  = "playdegen.logout"
	TopicChannel = "playdegen.channel"
)

// LoginEvent is published after a successful login
type LoginEvent struct {
	Identity string    `json:"identity"`
	TokenID  string    `json:"token_id"`
	At       time.Time `json:"at"`
}

// LogoutEvent is published when a client logs out
type LogoutEvent struct {
	Identity string    `json:"identity"`
	At       time.Time `json:"at"`
}

// ChannelEvent is an event addressed to one identity channel
type ChannelEvent struct {
	Channel string          `json:"channel"`
	Event   string          `json:"event"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// WatermillPublisher implements the EventPublisher and ChannelPublisher
// interfaces using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
	now       func() time.Time
}

var (
	_ ports.EventPublisher   = (*WatermillPublisher)(nil)
	_ ports.ChannelPublisher = (*WatermillPublisher)(nil)
)

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) *WatermillPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		now:       time.Now,
	}
}

// PublishLogin publishes a login event
func (p *WatermillPublisher) PublishLogin(ctx context.Context, identity string, tokenID string) error {
	return p.publish(ctx, TopicLogin, LoginEvent{
		Identity: identity,
		TokenID:  tokenID,
		At:       p.now().UTC(),
	})
}

// PublishLogout publishes a logout event
func (p *WatermillPublisher) PublishLogout(ctx context.Context, identity string) error {
	return p.publish(ctx, TopicLogout, LogoutEvent{
		Identity: identity,
		At:       p.now().UTC(),
	})
}

// PublishChannel publishes an event for the members of channel
func (p *WatermillPublisher) PublishChannel(ctx context.Context, channel string, event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	return p.publish(ctx, TopicChannel, ChannelEvent{
		Channel: channel,
		Event:   event,
		Data:    raw,
	})
}

func (p *WatermillPublisher) publish(ctx context.Context, topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
