package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"familyfinance/models"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	exchange string
	key      string
	msg      amqp091.Publishing
}

func (p *recordingPublisher) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp091.Publishing) error {
	p.exchange, p.key, p.msg = exchange, key, msg
	return nil
}

func TestAMQPNotifier_Notify(t *testing.T) {
	pub := &recordingPublisher{}
	n := &AMQPNotifier{channel: pub, exchange: "family-finance.alerts", routingKey: "alert.created"}

	alert := highAlert()
	alert.ID = "alert-9"
	alert.CreatedAt = time.Date(2024, 11, 20, 9, 0, 0, 0, time.UTC)
	alert.Data = &models.AlertData{Category: models.CategoryFood, Percentage: 105}

	err := n.Notify(context.Background(), &models.Family{ID: "f1", Name: "Johnson"}, alert)
	require.NoError(t, err)

	assert.Equal(t, "family-finance.alerts", pub.exchange)
	assert.Equal(t, "alert.created", pub.key)
	assert.Equal(t, "application/json", pub.msg.ContentType)
	assert.Equal(t, amqp091.Persistent, pub.msg.DeliveryMode)
	assert.Equal(t, "alert-9", pub.msg.MessageId)

	var msg AlertMessage
	require.NoError(t, json.Unmarshal(pub.msg.Body, &msg))
	assert.Equal(t, "alert-9", msg.AlertID)
	assert.Equal(t, "Johnson", msg.FamilyName)
	assert.Equal(t, models.SeverityHigh, msg.Severity)
	require.NotNil(t, msg.Data)
	assert.Equal(t, int64(105), msg.Data.Percentage)
}

type closedPublisher struct{ calls int }

func (p *closedPublisher) PublishWithContext(context.Context, string, string, bool, bool, amqp091.Publishing) error {
	p.calls++
	return amqp091.ErrClosed
}

func TestAMQPNotifier_ReopensClosedChannel(t *testing.T) {
	closed := &closedPublisher{}
	fresh := &recordingPublisher{}
	opened := 0
	n := &AMQPNotifier{
		channel: closed,
		open: func() (publisher, error) {
			opened++
			return fresh, nil
		},
		exchange:   "family-finance.alerts",
		routingKey: "alert.created",
	}

	alert := highAlert()
	alert.ID = "alert-1"
	require.NoError(t, n.Notify(context.Background(), nil, alert))
	assert.Equal(t, 1, closed.calls)
	assert.Equal(t, 1, opened)
	assert.Equal(t, "alert-1", fresh.msg.MessageId)

	// 之后直接使用新 channel
	require.NoError(t, n.Notify(context.Background(), nil, alert))
	assert.Equal(t, 1, closed.calls)
	assert.Equal(t, 1, opened)
}

func TestAMQPNotifier_ReopenFails(t *testing.T) {
	n := &AMQPNotifier{
		channel: &closedPublisher{},
		open: func() (publisher, error) {
			return nil, amqp091.ErrClosed
		},
	}

	err := n.Notify(context.Background(), nil, highAlert())
	require.Error(t, err)
	assert.True(t, errors.Is(err, amqp091.ErrClosed))
}

func TestNewAlertMessage_NilFamily(t *testing.T) {
	msg := NewAlertMessage(nil, highAlert())
	assert.Empty(t, msg.FamilyName)
	assert.Equal(t, "f1", msg.FamilyID)
}
