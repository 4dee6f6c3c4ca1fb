package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"familyfinance/config"
	"familyfinance/models"

	"github.com/rabbitmq/amqp091-go"
)

// AlertMessage 发布到消息队列的告警
type AlertMessage struct {
	AlertID    string            `json:"alertId"`
	FamilyID   string            `json:"familyId"`
	FamilyName string            `json:"familyName,omitempty"`
	Type       string            `json:"type"`
	Severity   string            `json:"severity"`
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	Data       *models.AlertData `json:"data,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// NewAlertMessage 由告警构建消息
func NewAlertMessage(family *models.Family, alert *models.SmartAlert) AlertMessage {
	msg := AlertMessage{
		AlertID:   alert.ID,
		FamilyID:  alert.FamilyID,
		Type:      alert.Type,
		Severity:  alert.Severity,
		Title:     alert.Title,
		Message:   alert.Message,
		Data:      alert.Data,
		CreatedAt: alert.CreatedAt,
	}
	if family != nil {
		msg.FamilyName = family.Name
	}
	return msg
}

// publisher 便于测试替换 amqp091.Channel
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// AMQPNotifier 将高危告警发布到 topic exchange；channel 被关闭时重新打开一次再发布
type AMQPNotifier struct {
	conn       *amqp091.Connection
	mu         sync.Mutex
	channel    publisher
	open       func() (publisher, error)
	exchange   string
	routingKey string
}

// NewAMQPNotifier 连接 broker 并声明 exchange
func NewAMQPNotifier(cfg config.AMQPConfig) (*AMQPNotifier, error) {
	conn, err := amqp091.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AMQPNotifier{
		conn:    conn,
		channel: channel,
		open: func() (publisher, error) {
			ch, err := conn.Channel()
			if err != nil {
				return nil, err
			}
			return ch, nil
		},
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
	}, nil
}

// Name 通知渠道名
func (n *AMQPNotifier) Name() string {
	return "amqp"
}

// Notify 发布持久化消息，5 秒超时
func (n *AMQPNotifier) Notify(ctx context.Context, family *models.Family, alert *models.SmartAlert) error {
	body, err := json.Marshal(NewAlertMessage(family, alert))
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	msg := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		MessageId:    alert.ID,
		Body:         body,
	}
	publish := func(ch publisher) error {
		return ch.PublishWithContext(
			ctx,
			n.exchange,   // exchange
			n.routingKey, // routing key
			false,        // mandatory
			false,        // immediate
			msg,
		)
	}

	n.mu.Lock()
	ch := n.channel
	n.mu.Unlock()

	err = publish(ch)
	if errors.Is(err, amqp091.ErrClosed) && n.open != nil {
		if ch, err = n.reopen(ch); err == nil {
			err = publish(ch)
		}
	}
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// reopen 替换已关闭的 channel；其他 goroutine 已替换过时直接使用新的
func (n *AMQPNotifier) reopen(stale publisher) (publisher, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.channel != stale {
		return n.channel, nil
	}
	ch, err := n.open()
	if err != nil {
		return nil, fmt.Errorf("reopen channel: %w", err)
	}
	n.channel = ch
	return ch, nil
}

// Close 关闭 channel 与连接
func (n *AMQPNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if ch, ok := n.channel.(*amqp091.Channel); ok && ch != nil {
		ch.Close()
	}
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}
