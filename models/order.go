package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OrderStatus 订单状态
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusRTO        OrderStatus = "rto"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// ParseOrderStatus 大小写不敏感地解析订单状态
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusRTO, OrderStatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// 争议等级
const (
	DisputeCaseNone = 0
	DisputeCase1    = 1
	DisputeCase2    = 2
)

// Address 收货/账单地址快照，下单时复制，不随地址簿变化
type Address struct {
	Name    string `gorm:"size:100" json:"name"`
	Phone   string `gorm:"size:20" json:"phone"`
	Email   string `gorm:"size:100" json:"email"`
	Address string `gorm:"size:255" json:"address"`
	Zip     string `gorm:"size:20" json:"zip"`
	Country string `gorm:"size:60" json:"country"`
	State   string `gorm:"size:60" json:"state"`
	City    string `gorm:"size:60" json:"city"`
}

// Order 订单模型
type Order struct {
	ID          snowflake.ID `gorm:"column:id;primaryKey;autoIncrement:false" json:"id"`
	OrderNumber string       `gorm:"column:order_number;size:64;not null;uniqueIndex" json:"order_number"`
	Status      OrderStatus  `gorm:"column:status;size:20;not null;default:'pending'" json:"status"`
	IsActive    bool         `gorm:"column:is_active;not null;default:true" json:"is_active"`

	Delivered            bool       `gorm:"column:delivered;not null;default:false;index" json:"delivered"`
	DeliveredDate        *time.Time `gorm:"column:delivered_date" json:"delivered_date"`
	RTODelivered         bool       `gorm:"column:rto_delivered;not null;default:false" json:"rto_delivered"`
	RTODeliveredDate     *time.Time `gorm:"column:rto_delivered_date" json:"rto_delivered_date"`
	CollectedAtWarehouse *time.Time `gorm:"column:collected_at_warehouse" json:"collected_at_warehouse"`

	DisputeCase         *int     `gorm:"column:dispute_case" json:"dispute_case"`
	SupplierRTOResponse string   `gorm:"column:supplier_rto_response;size:50" json:"supplier_rto_response"`
	PackingGallery      FileRefs `gorm:"column:packing_gallery;type:text" json:"packing_gallery"`
	UnboxingGallery     FileRefs `gorm:"column:unboxing_gallery;type:text" json:"unboxing_gallery"`

	SubTotal    decimal.Decimal `gorm:"column:sub_total;type:decimal(12,2);not null;default:0" json:"sub_total"`
	Tax         decimal.Decimal `gorm:"column:tax;type:decimal(12,2);not null;default:0" json:"tax"`
	Discount    decimal.Decimal `gorm:"column:discount;type:decimal(12,2);not null;default:0" json:"discount"`
	TotalAmount decimal.Decimal `gorm:"column:total_amount;type:decimal(12,2);not null;default:0" json:"total_amount"`
	Currency    string          `gorm:"column:currency;size:3;not null;default:'INR'" json:"currency"`

	Shipping Address `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping"`
	Billing  Address `gorm:"embedded;embeddedPrefix:billing_" json:"billing"`

	PaymentID     *snowflake.ID `gorm:"column:payment_id;index" json:"payment_id"`
	Payment       *Payment      `gorm:"foreignKey:PaymentID" json:"payment,omitempty"`
	DropshipperID snowflake.ID  `gorm:"column:dropshipper_id;index" json:"dropshipper_id"`

	AWBNumber         *string        `gorm:"column:awb_number;size:64;index" json:"awb_number"`
	ShippingAPIResult datatypes.JSON `gorm:"column:shipping_api_result" json:"shipping_api_result"`
	LastRefreshAt     *time.Time     `gorm:"column:last_refresh_at;index" json:"last_refresh_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`

	CreatedBy     int64          `gorm:"column:created_by" json:"created_by"`
	CreatedByRole ActorRole      `gorm:"column:created_by_role;size:20" json:"created_by_role"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
	UpdatedBy     *int64         `gorm:"column:updated_by" json:"updated_by"`
	UpdatedByRole ActorRole      `gorm:"column:updated_by_role;size:20" json:"updated_by_role"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"column:deleted_at;index" json:"deleted_at"`
	DeletedBy     *int64         `gorm:"column:deleted_by" json:"deleted_by"`
	DeletedByRole ActorRole      `gorm:"column:deleted_by_role;size:20" json:"deleted_by_role"`
}

// TableName 设置表名
func (Order) TableName() string {
	return "orders"
}

// BeforeCreate 分配雪花ID
func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == 0 {
		o.ID = NewID()
	}
	return nil
}

// DisputeLevel 当前争议等级，未发起为0
func (o *Order) DisputeLevel() int {
	if o.DisputeCase == nil {
		return DisputeCaseNone
	}
	return *o.DisputeCase
}

// CarrierResult 解析保存的物流商结果
func (o *Order) CarrierResult() (CarrierResult, bool) {
	if len(o.ShippingAPIResult) == 0 {
		return CarrierResult{}, false
	}
	result, err := ParseCarrierResult(o.ShippingAPIResult)
	if err != nil {
		return CarrierResult{}, false
	}
	return result, true
}
