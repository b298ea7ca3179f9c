package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"rto_engine/config"
	"rto_engine/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

// channel amqp.Channel 中用到的部分
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type RabbitMQ struct {
	Conn     *amqp.Connection
	Channel  channel
	Exchange string
}

// NewRabbitMQ 连接RabbitMQ并声明订单事件交换机
func NewRabbitMQ(cfg config.RabbitMQConfig) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	r := &RabbitMQ{Conn: conn, Channel: ch, Exchange: cfg.OrderExchange}
	if err := r.SetupExchange(); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

// SetupExchange 声明topic交换机，路由键为事件类型
func (r *RabbitMQ) SetupExchange() error {
	return r.Channel.ExchangeDeclare(
		r.Exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
}

// Publish 发布订单事件，实现 order.Publisher
func (r *RabbitMQ) Publish(ctx context.Context, event models.OrderEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	msg := amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.Occurred,
		ContentType:  "application/json",
		Type:         event.Type,
		MessageId:    event.OrderID.String() + ":" + event.Type,
		Body:         body,
	}

	return r.Channel.PublishWithContext(ctx,
		r.Exchange,
		event.Type,
		false, // mandatory
		false, // immediate
		msg,
	)
}

func (r *RabbitMQ) Close() {
	if r.Channel != nil {
		_ = r.Channel.Close()
	}
	if r.Conn != nil {
		_ = r.Conn.Close()
	}
}
