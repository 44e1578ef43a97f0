package messaging_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/shortify/shortify/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockSubscriber hands a controllable message channel to the consumer.
type mockSubscriber struct {
	mu           sync.Mutex
	ch           chan *message.Message
	subscribeErr error
	closed       bool
	topics       []string
}

func newMockSubscriber() *mockSubscriber {
	return &mockSubscriber{ch: make(chan *message.Message, 8)}
}

func (s *mockSubscriber) Subscribe(_ context.Context, topic string) (<-chan *message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.subscribeErr != nil {
		return nil, s.subscribeErr
	}

	s.topics = append(s.topics, topic)

	return s.ch, nil
}

func (s *mockSubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true

	return nil
}

func newMessage(payload string) *message.Message {
	return message.NewMessage(watermill.NewUUID(), []byte(payload))
}

func TestConsumer(t *testing.T) {
	t.Run("acks handled messages", func(t *testing.T) {
		sub := newMockSubscriber()
		received := make(chan *testEvent, 1)

		consumer := messaging.NewConsumer(sub, "link.clicked",
			func(_ context.Context, event *testEvent) error {
				received <- event

				return nil
			}, zap.NewNop())

		require.NoError(t, consumer.Start(context.Background()))

		t.Cleanup(func() { _ = consumer.Shutdown() })

		msg := newMessage(`{"linkCode":"aZ3kT9","source":"newsletter"}`)
		sub.ch <- msg

		select {
		case event := <-received:
			assert.Equal(t, "aZ3kT9", event.LinkCode)
			assert.Equal(t, "newsletter", event.Source)
		case <-time.After(time.Second):
			t.Fatal("handler not called")
		}

		select {
		case <-msg.Acked():
		case <-time.After(time.Second):
			t.Fatal("message not acked")
		}
	})

	t.Run("nacks on handler errors", func(t *testing.T) {
		sub := newMockSubscriber()

		consumer := messaging.NewConsumer(sub, "link.clicked",
			func(_ context.Context, _ *testEvent) error {
				return assert.AnError
			}, zap.NewNop())

		require.NoError(t, consumer.Start(context.Background()))

		t.Cleanup(func() { _ = consumer.Shutdown() })

		msg := newMessage(`{"linkCode":"aZ3kT9"}`)
		sub.ch <- msg

		select {
		case <-msg.Nacked():
		case <-time.After(time.Second):
			t.Fatal("message not nacked")
		}
	})

	t.Run("nacks undecodable payloads", func(t *testing.T) {
		sub := newMockSubscriber()

		consumer := messaging.NewConsumer(sub, "link.clicked",
			func(_ context.Context, _ *testEvent) error {
				t.Error("handler must not run for a broken payload")

				return nil
			}, zap.NewNop())

		require.NoError(t, consumer.Start(context.Background()))

		t.Cleanup(func() { _ = consumer.Shutdown() })

		msg := newMessage(`{not json`)
		sub.ch <- msg

		select {
		case <-msg.Nacked():
		case <-time.After(time.Second):
			t.Fatal("message not nacked")
		}
	})

	t.Run("subscribe failure surfaces from Start", func(t *testing.T) {
		sub := newMockSubscriber()
		sub.subscribeErr = assert.AnError

		consumer := messaging.NewConsumer(sub, "link.clicked",
			func(_ context.Context, _ *testEvent) error { return nil }, zap.NewNop())

		assert.ErrorIs(t, consumer.Start(context.Background()), assert.AnError)
	})

	t.Run("shutdown stops the loop", func(t *testing.T) {
		sub := newMockSubscriber()

		consumer := messaging.NewConsumer(sub, "link.clicked",
			func(_ context.Context, _ *testEvent) error { return nil }, zap.NewNop())

		require.NoError(t, consumer.Start(context.Background()))
		require.NoError(t, consumer.Shutdown())
	})

	t.Run("exposes its topic", func(t *testing.T) {
		consumer := messaging.NewConsumer(newMockSubscriber(), "link.clicked",
			func(_ context.Context, _ *testEvent) error { return nil }, zap.NewNop())

		assert.Equal(t, "link.clicked", consumer.Topic())
	})
}
