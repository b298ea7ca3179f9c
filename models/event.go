package models

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// 订单事件类型
const (
	EventOrderCreated        = "order.created"
	EventOrderDelivered      = "order.delivered"
	EventOrderRTODelivered   = "order.rto_delivered"
	EventOrderCollected      = "order.collected"
	EventDisputeCase1        = "order.dispute.case1"
	EventDisputeCase2        = "order.dispute.case2"
	EventRTOInventoryCreated = "order.rto_inventory.created"
)

// OrderEvent 发布到消息队列的订单事件
type OrderEvent struct {
	Type        string                 `json:"type"`
	OrderID     snowflake.ID           `json:"order_id"`
	OrderNumber string                 `json:"order_number"`
	Status      string                 `json:"status"`
	Occurred    time.Time              `json:"occurred_at"`
	Data        map[string]interface{} `json:"data,omitempty"`
}
