package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wallet = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"

func newPubSub(t *testing.T) *gochannel.GoChannel {
	t.Helper()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { pubSub.Close() })
	return pubSub
}

func receive(t *testing.T, messages <-chan *message.Message) *message.Message {
	t.Helper()
	select {
	case msg := <-messages:
		msg.Ack()
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return nil
	}
}

func TestWatermillPublisher_PublishLogin(t *testing.T) {
	pubSub := newPubSub(t)
	messages, err := pubSub.Subscribe(context.Background(), TopicLogin)
	require.NoError(t, err)

	p := NewWatermillPublisher(pubSub)
	require.NoError(t, p.PublishLogin(context.Background(), wallet, "token-id"))

	var event LoginEvent
	require.NoError(t, json.Unmarshal(receive(t, messages).Payload, &event))
	assert.Equal(t, wallet, event.Identity)
	assert.Equal(t, "token-id", event.TokenID)
	assert.False(t, event.At.IsZero())
}

func TestWatermillPublisher_PublishLogout(t *testing.T) {
	pubSub := newPubSub(t)
	messages, err := pubSub.Subscribe(context.Background(), TopicLogout)
	require.NoError(t, err)

	p := NewWatermillPublisher(pubSub)
	require.NoError(t, p.PublishLogout(context.Background(), wallet))

	var event LogoutEvent
	require.NoError(t, json.Unmarshal(receive(t, messages).Payload, &event))
	assert.Equal(t, wallet, event.Identity)
}

func TestWatermillPublisher_PublishChannel(t *testing.T) {
	pubSub := newPubSub(t)
	messages, err := pubSub.Subscribe(context.Background(), TopicChannel)
	require.NoError(t, err)

	p := NewWatermillPublisher(pubSub)
	require.NoError(t, p.PublishChannel(context.Background(), wallet, "balance", map[string]string{"usd": "1.5"}))

	var event ChannelEvent
	require.NoError(t, json.Unmarshal(receive(t, messages).Payload, &event))
	assert.Equal(t, wallet, event.Channel)
	assert.Equal(t, "balance", event.Event)
	assert.JSONEq(t, `{"usd":"1.5"}`, string(event.Data))
}

func TestWatermillPublisher_UnmarshalableData(t *testing.T) {
	p := NewWatermillPublisher(newPubSub(t))

	err := p.PublishChannel(context.Background(), wallet, "bad", make(chan int))
	require.Error(t, err)
}

func TestWatermillPublisher_ClosedPublisher(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	require.NoError(t, pubSub.Close())

	err := NewWatermillPublisher(pubSub).PublishLogout(context.Background(), wallet)
	require.Error(t, err)
}
