package rabbitmq

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"rto_engine/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

type fakeChannel struct {
	declared  []string
	published []amqp.Publishing
	keys      []string
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, _, _, _, _ bool, _ amqp.Table) error {
	f.declared = append(f.declared, name+":"+kind)
	return nil
}

func (f *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Close() error { return nil }

func TestPublishOrderEvent(t *testing.T) {
	ch := &fakeChannel{}
	r := &RabbitMQ{Channel: ch, Exchange: "orders_exchange"}
	if err := r.SetupExchange(); err != nil {
		t.Fatalf("setup: %v", err)
	}

	event := models.OrderEvent{
		Type:        models.EventDisputeCase2,
		OrderID:     1234567890123456789,
		OrderNumber: "ORD42",
		Status:      "rto",
		Occurred:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := r.Publish(context.Background(), event); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(ch.declared) != 1 || ch.declared[0] != "orders_exchange:topic" {
		t.Fatalf("unexpected exchange declarations %v", ch.declared)
	}
	if len(ch.published) != 1 || ch.keys[0] != models.EventDisputeCase2 {
		t.Fatalf("unexpected publish %v", ch.keys)
	}

	var body map[string]any
	if err := json.Unmarshal(ch.published[0].Body, &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	// 64位ID必须以字符串输出
	if body["order_id"] != "1234567890123456789" {
		t.Fatalf("order id should be a string, got %#v", body["order_id"])
	}
	if ch.published[0].DeliveryMode != amqp.Persistent {
		t.Fatal("events should be persistent")
	}
}
