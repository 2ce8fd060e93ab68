package rabbitmq

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-backoffice/internal/models"
)

func TestPublishMessage(t *testing.T) {
	ctx := context.Background()
	amqpURI := amqpURIForTest(ctx, t)

	conn, err := Connect(amqpURI, 3, time.Second)
	require.NoError(t, err)
	defer func() {
		if err := conn.Close(); err != nil {
			t.Errorf("failed to close connection: %v", err)
		}
	}()

	ch, err := conn.Channel()
	require.NoError(t, err)

	queueName := "publish-test"
	_, err = ch.QueueDeclare(queueName, false, false, false, false, nil)
	require.NoError(t, err)

	t.Run("success publish and consume", func(t *testing.T) {
		msg := models.KYCNotification{AccountID: 1, ProfileID: 2, Email: "user@example.com"}

		require.NoError(t, PublishMessage(ch, "", queueName, msg))

		deliveries, err := ch.Consume(queueName, "test-consumer", true, false, false, false, nil)
		require.NoError(t, err)

		select {
		case d := <-deliveries:
			var got models.KYCNotification
			require.NoError(t, json.Unmarshal(d.Body, &got))
			assert.Equal(t, msg, got)
			assert.Equal(t, "application/json", d.ContentType)
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for message")
		}
	})

	t.Run("marshal error", func(t *testing.T) {
		badMsg := struct {
			Ch chan int `json:"ch"`
		}{
			Ch: make(chan int),
		}

		err := PublishMessage(ch, "", queueName, badMsg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rabbitmq.PublishMessage")
	})
}

func TestPublisher_RoutesByKey(t *testing.T) {
	ctx := context.Background()
	amqpURI := amqpURIForTest(ctx, t)

	conn, err := Connect(amqpURI, 3, time.Second)
	require.NoError(t, err)
	defer func() {
		_ = conn.Close()
	}()

	ch, err := SetupChannel(conn, GetNotificationQueues())
	require.NoError(t, err)

	publisher, err := NewPublisher(ch, Exchange)
	require.NoError(t, err)
	body := []byte(`{"payment_id":7}`)
	require.NoError(t, publisher.Publish(ctx, models.RoutePaymentApproved, body))

	deliveries, err := ch.Consume("notifications."+models.RoutePaymentApproved, "route-test", true, false, false, false, nil)
	require.NoError(t, err)

	select {
	case d := <-deliveries:
		assert.JSONEq(t, string(body), string(d.Body))
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for message via exchange")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, publisher.Publish(cancelled, models.RoutePaymentApproved, body), context.Canceled)
}

func TestPublisher_Confirms(t *testing.T) {
	ctx := context.Background()
	amqpURI := amqpURIForTest(ctx, t)

	conn, err := Connect(amqpURI, 3, time.Second)
	require.NoError(t, err)
	defer func() {
		_ = conn.Close()
	}()

	ch, err := SetupChannel(conn, GetNotificationQueues())
	require.NoError(t, err)
	publisher, err := NewPublisher(ch, Exchange)
	require.NoError(t, err)

	t.Run("unroutable key is reported", func(t *testing.T) {
		err := publisher.Publish(ctx, "no.such.route", []byte(`{}`))
		assert.ErrorIs(t, err, ErrUnroutable)
	})

	t.Run("routable key after unroutable succeeds", func(t *testing.T) {
		require.NoError(t, publisher.Publish(ctx, models.RouteKYCApproved, []byte(`{"account_id":1}`)))
		require.NoError(t, publisher.Publish(ctx, models.RouteKYCRejected, []byte(`{"account_id":2}`)))

		q, err := ch.QueueInspect("notifications." + models.RouteKYCApproved)
		require.NoError(t, err)
		assert.Equal(t, 1, q.Messages)
	})

	t.Run("closed channel fails", func(t *testing.T) {
		require.NoError(t, ch.Close())
		err := publisher.Publish(ctx, models.RouteKYCApproved, []byte(`{}`))
		assert.Error(t, err)
	})
}
