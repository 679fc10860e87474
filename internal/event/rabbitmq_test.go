//go:build unit

package event

import (
	"context"
	"testing"
	"time"

	"github.com/Grindin247/decision-system/pkg/log"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConfirmPublisher(t *testing.T) *Publisher {
	t.Helper()

	return &Publisher{
		confirms:       make(chan amqp.Confirmation, confirmBuffer),
		logger:         log.NewNop(),
		confirmTimeout: 50 * time.Millisecond,
		nextTag:        1,
	}
}

func TestPublisher_AwaitConfirm(t *testing.T) {
	ctx := context.Background()

	t.Run("ack resolves", func(t *testing.T) {
		p := newConfirmPublisher(t)
		p.confirms <- amqp.Confirmation{DeliveryTag: 1, Ack: true}

		assert.NoError(t, p.awaitConfirm(ctx, 1))
	})

	t.Run("nack surfaces", func(t *testing.T) {
		p := newConfirmPublisher(t)
		p.confirms <- amqp.Confirmation{DeliveryTag: 1, Ack: false}

		assert.ErrorIs(t, p.awaitConfirm(ctx, 1), ErrPublishNacked)
	})

	t.Run("no confirmation times out", func(t *testing.T) {
		p := newConfirmPublisher(t)

		assert.ErrorIs(t, p.awaitConfirm(ctx, 1), ErrConfirmTimeout)
	})

	t.Run("stale confirmation from a timed-out publish is dropped", func(t *testing.T) {
		p := newConfirmPublisher(t)

		// The ack for message 1 arrived after its wait already timed out.
		// Message 2 was nacked; its caller must see the nack, not the
		// leftover ack.
		p.confirms <- amqp.Confirmation{DeliveryTag: 1, Ack: true}
		p.confirms <- amqp.Confirmation{DeliveryTag: 2, Ack: false}

		assert.ErrorIs(t, p.awaitConfirm(ctx, 2), ErrPublishNacked)
	})

	t.Run("stale confirmation then matching ack", func(t *testing.T) {
		p := newConfirmPublisher(t)
		p.confirms <- amqp.Confirmation{DeliveryTag: 3, Ack: false}
		p.confirms <- amqp.Confirmation{DeliveryTag: 4, Ack: true}

		assert.NoError(t, p.awaitConfirm(ctx, 4))
	})

	t.Run("closed confirm channel", func(t *testing.T) {
		p := newConfirmPublisher(t)
		close(p.confirms)

		assert.ErrorIs(t, p.awaitConfirm(ctx, 1), ErrClosed)
	})

	t.Run("cancelled context", func(t *testing.T) {
		p := newConfirmPublisher(t)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		require.ErrorIs(t, p.awaitConfirm(cancelled, 1), context.Canceled)
	})
}
