package ports

import "context"

// EventPublisher publishes session events to other instances and services
type EventPublisher interface {
	PublishLogin(ctx context.Context, identity string, tokenID string) error
	PublishLogout(ctx context.Context, identity string) error
}

// ChannelPublisher emits an event to every realtime connection joined to an
// identity channel, on any instance
type ChannelPublisher interface {
	PublishChannel(ctx context.Context, channel string, event string, data any) error
}
