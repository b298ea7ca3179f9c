package models

import (
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderItem 订单商品行
type OrderItem struct {
	ID        snowflake.ID    `gorm:"column:id;primaryKey;autoIncrement:false" json:"id"`
	OrderID   snowflake.ID    `gorm:"column:order_id;not null;index" json:"order_id"`
	ProductID snowflake.ID    `gorm:"column:product_id;not null;index" json:"product_id"`
	VariantID *snowflake.ID   `gorm:"column:variant_id;index" json:"variant_id"`
	Quantity  int             `gorm:"column:quantity;not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"column:price;type:decimal(12,2);not null" json:"price"`
	Total     decimal.Decimal `gorm:"column:total;type:decimal(12,2);not null" json:"total"`

	Product *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Variant *ProductVariant `gorm:"foreignKey:VariantID" json:"variant,omitempty"`
}

// TableName 设置表名
func (OrderItem) TableName() string {
	return "order_items"
}

// BeforeCreate 分配雪花ID并计算行合计
func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == 0 {
		i.ID = NewID()
	}
	i.Total = i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
	return nil
}
